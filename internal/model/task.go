package model

// ProcessTaskPayload is the asynq task body for one CSV processing
// job. The raw file content rides along so the worker never re-reads
// the upload.
type ProcessTaskPayload struct {
	RequestID string `json:"requestId"`
	Content   string `json:"content"`
}

// UploadResponse is returned immediately on admission.
type UploadResponse struct {
	RequestID string `json:"request_id"`
}

// StatusResponse is the body of a status lookup.
type StatusResponse struct {
	Status RequestStatus `json:"status"`
}

// WebhookNotification is POSTed to the configured callback endpoint
// when a request reaches a terminal status.
type WebhookNotification struct {
	RequestID string        `json:"request_id"`
	Status    RequestStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
}
