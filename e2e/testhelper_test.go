package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/imgcrush/api/internal/client"
	"github.com/imgcrush/api/internal/handler"
	"github.com/imgcrush/api/internal/imaging"
	"github.com/imgcrush/api/internal/service"
	"github.com/imgcrush/api/internal/store"
	"github.com/imgcrush/api/internal/worker"
)

// testApp holds all components needed for testing
type testApp struct {
	app    *fiber.App
	store  *store.Memory
	worker *worker.ProcessWorker
	queue  *recordingEnqueuer
}

// recordingEnqueuer captures tasks instead of pushing them to redis,
// so tests decide when background processing runs.
type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (e *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{}, nil
}

// runQueued drains the recorded tasks through the worker, standing in
// for the asynq server.
func (ta *testApp) runQueued(t *testing.T) {
	t.Helper()
	for _, task := range ta.queue.tasks {
		if err := ta.worker.ProcessTask(context.Background(), task); err != nil {
			t.Fatalf("worker failed: %v", err)
		}
	}
	ta.queue.tasks = nil
}

// setupApp wires the same routes as main.go against an in-memory
// store and a recording queue. The redis-backed rate limiter is left
// out; it needs a live redis and is wired in production only.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	st := store.NewMemory()
	queue := &recordingEnqueuer{}
	validate := validator.New()

	transformer := imaging.NewTransformer(t.TempDir(), "/processed_images")
	fetcher := client.NewImageFetcher(5 * time.Second)
	webhookClient := client.NewWebhookClient(5 * time.Second)

	ingestService := service.NewIngestService(st, queue)
	exportService := service.NewExportService(st)

	uploadHandler := handler.NewUploadHandler(ingestService, validate)
	statusHandler := handler.NewStatusHandler(ingestService)
	exportHandler := handler.NewExportHandler(exportService)

	processWorker := worker.NewProcessWorker(st, fetcher, transformer, webhookClient)

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":    false,
				"postgres": false,
				"storage":  "memory",
			},
		})
	})

	api := app.Group("/api")
	api.Post("/upload", uploadHandler.Upload)
	api.Get("/status/:requestId", statusHandler.Status)
	api.Get("/export/:requestId", exportHandler.Export)

	return &testApp{app: app, store: st, worker: processWorker, queue: queue}
}

// createUploadRequest builds a multipart/form-data request carrying a
// CSV file and an optional webhook URL.
func createUploadRequest(t *testing.T, filename, content, webhookURL string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if webhookURL != "" {
		_ = writer.WriteField("webhook_url", webhookURL)
	}

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	partHeader.Set("Content-Type", "text/csv")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	_, _ = part.Write([]byte(content))

	writer.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/upload", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, want, body)
	}
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}
