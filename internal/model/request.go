package model

import "time"

// RequestStatus tracks a processing request through its lifecycle.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

// Terminal reports whether the status is final. Terminal requests are
// never transitioned again.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProcessingRequest represents one CSV upload tracked through the
// pipeline. The ID is assigned at admission and never changes.
type ProcessingRequest struct {
	ID         string        `json:"request_id"`
	Status     RequestStatus `json:"status"`
	WebhookURL string        `json:"webhookUrl,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}
