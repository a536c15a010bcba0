package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/imgcrush/api/internal/model"
	"github.com/imgcrush/api/internal/store"
)

const (
	TaskTypeProcess = "process:csv"
	processQueue    = "process"
)

// CSV column headers required of every upload.
const (
	ColumnSerial    = "S. No."
	ColumnName      = "Product Name"
	ColumnInputURLs = "Input Image Urls"
)

// Admission failures reported synchronously to the caller.
var (
	ErrInvalidFormat  = errors.New("invalid file format")
	ErrInvalidHeaders = errors.New("invalid csv headers")
)

// TaskEnqueuer submits background tasks. *asynq.Client satisfies it.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// IngestService admits CSV uploads: it validates the upload shape,
// creates the pending request record and hands the work to the queue.
// It never waits for processing.
type IngestService struct {
	store    store.Store
	enqueuer TaskEnqueuer
}

func NewIngestService(st store.Store, enqueuer TaskEnqueuer) *IngestService {
	return &IngestService{store: st, enqueuer: enqueuer}
}

// SubmitCSV validates and admits one upload, returning the request ID
// immediately.
func (s *IngestService) SubmitCSV(ctx context.Context, filename, content, webhookURL string) (*model.UploadResponse, error) {
	if !strings.HasSuffix(filename, ".csv") {
		return nil, ErrInvalidFormat
	}
	if err := validateHeaders(content); err != nil {
		return nil, err
	}

	now := time.Now()
	req := &model.ProcessingRequest{
		ID:         uuid.New().String(),
		Status:     model.StatusPending,
		WebhookURL: webhookURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	task, err := NewProcessTask(req.ID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Printf("Submitting task for request %s", req.ID)
	_, err = s.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(processQueue),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.UploadResponse{RequestID: req.ID}, nil
}

// GetStatus returns the current status of a request.
func (s *IngestService) GetStatus(ctx context.Context, requestID string) (*model.StatusResponse, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &model.StatusResponse{Status: req.Status}, nil
}

// NewProcessTask builds the asynq task for one admitted upload.
func NewProcessTask(requestID, content string) (*asynq.Task, error) {
	payload, err := json.Marshal(model.ProcessTaskPayload{
		RequestID: requestID,
		Content:   content,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeProcess, payload), nil
}

// validateHeaders checks that the required columns are all present in
// the CSV header row.
func validateHeaders(content string) error {
	header, err := csv.NewReader(strings.NewReader(content)).Read()
	if err != nil {
		return ErrInvalidHeaders
	}
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for _, required := range []string{ColumnSerial, ColumnName, ColumnInputURLs} {
		if !present[required] {
			return ErrInvalidHeaders
		}
	}
	return nil
}
