package worker

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/imgcrush/api/internal/client"
	"github.com/imgcrush/api/internal/imaging"
	"github.com/imgcrush/api/internal/model"
	"github.com/imgcrush/api/internal/service"
	"github.com/imgcrush/api/internal/store"
)

// ProcessWorker runs one CSV processing request to a terminal state.
// Per-URL failures are logged and skipped; any other error fails the
// whole request and nothing is persisted.
type ProcessWorker struct {
	store       store.Store
	fetcher     client.Fetcher
	transformer *imaging.Transformer
	notifier    client.Notifier
}

func NewProcessWorker(st store.Store, fetcher client.Fetcher, transformer *imaging.Transformer, notifier client.Notifier) *ProcessWorker {
	return &ProcessWorker{
		store:       st,
		fetcher:     fetcher,
		transformer: transformer,
		notifier:    notifier,
	}
}

// ProcessTask handles one queued CSV processing task.
func (w *ProcessWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ProcessTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	req, err := w.store.GetRequest(ctx, payload.RequestID)
	if errors.Is(err, store.ErrNotFound) {
		// No live request record, nothing to run against.
		log.Printf("Request %s not found, skipping", payload.RequestID)
		return nil
	}
	if err != nil {
		log.Printf("Failed to load request %s: %v", payload.RequestID, err)
		return err
	}

	log.Printf("Starting processing for request %s", req.ID)
	if err := w.store.UpdateRequestStatus(ctx, req.ID, model.StatusProcessing); err != nil {
		w.failRequest(ctx, req, err)
		return nil
	}

	products, err := w.processAll(ctx, req.ID, payload.Content)
	if err != nil {
		w.failRequest(ctx, req, err)
		return nil
	}

	// Single batch commit: either every product lands or none do.
	if err := w.store.InsertProducts(ctx, products); err != nil {
		w.failRequest(ctx, req, err)
		return nil
	}

	if err := w.store.UpdateRequestStatus(ctx, req.ID, model.StatusCompleted); err != nil {
		w.failRequest(ctx, req, err)
		return nil
	}

	log.Printf("Completed processing for request %s", req.ID)
	w.notify(ctx, req, model.StatusCompleted, "")
	return nil
}

// processAll parses the CSV content and processes every row in order.
func (w *ProcessWorker) processAll(ctx context.Context, requestID, content string) ([]*model.Product, error) {
	reader := csv.NewReader(strings.NewReader(content))

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range []string{service.ColumnSerial, service.ColumnName, service.ColumnInputURLs} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing csv column %q", required)
		}
	}

	var products []*model.Product
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		serial, err := strconv.Atoi(strings.TrimSpace(record[columns[service.ColumnSerial]]))
		if err != nil {
			return nil, fmt.Errorf("invalid serial number %q: %w", record[columns[service.ColumnSerial]], err)
		}

		product := w.processRow(ctx, requestID, serial, record[columns[service.ColumnName]], record[columns[service.ColumnInputURLs]])
		products = append(products, product)
	}
	return products, nil
}

// processRow fetches and transforms every URL of one row. Failed URLs
// are skipped, so the output list keeps only the relative order of
// successes. A row where everything fails still yields a product with
// an empty output list.
func (w *ProcessWorker) processRow(ctx context.Context, requestID string, serial int, name, urlField string) *model.Product {
	inputURLs := strings.Split(urlField, ",")
	outputURLs := []string{}

	for _, rawURL := range inputURLs {
		url := strings.TrimSpace(rawURL)

		body, err := w.fetcher.Fetch(ctx, url)
		if err != nil {
			log.Printf("Failed to process image URL %s: %v", url, err)
			continue
		}

		outputURL, err := w.transformer.Transform(requestID, name, body)
		if err != nil {
			log.Printf("Failed to process image URL %s: %v", url, err)
			continue
		}
		outputURLs = append(outputURLs, outputURL)
	}

	return &model.Product{
		RequestID:    requestID,
		SerialNumber: serial,
		ProductName:  name,
		InputURLs:    inputURLs,
		OutputURLs:   outputURLs,
	}
}

// failRequest marks the request failed and sends the failure webhook.
// Nothing from the failed attempt is persisted.
func (w *ProcessWorker) failRequest(ctx context.Context, req *model.ProcessingRequest, cause error) {
	log.Printf("Error processing request %s: %v", req.ID, cause)
	if err := w.store.UpdateRequestStatus(ctx, req.ID, model.StatusFailed); err != nil {
		log.Printf("Failed to mark request %s failed: %v", req.ID, err)
	}
	w.notify(ctx, req, model.StatusFailed, cause.Error())
}

// notify delivers the terminal status callback, best-effort.
func (w *ProcessWorker) notify(ctx context.Context, req *model.ProcessingRequest, status model.RequestStatus, errMsg string) {
	if req.WebhookURL == "" {
		return
	}
	n := &model.WebhookNotification{
		RequestID: req.ID,
		Status:    status,
		Error:     errMsg,
	}
	if err := w.notifier.Notify(ctx, req.WebhookURL, n); err != nil {
		log.Printf("Failed to notify webhook for request %s: %v", req.ID, err)
		return
	}
	log.Printf("Webhook notified for request %s", req.ID)
}
