package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imgcrush/api/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS processing_requests (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'pending',
	webhook_url TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id            BIGSERIAL PRIMARY KEY,
	request_id    TEXT NOT NULL REFERENCES processing_requests(id),
	serial_number INTEGER NOT NULL,
	product_name  TEXT NOT NULL,
	input_urls    TEXT[] NOT NULL DEFAULT '{}',
	output_urls   TEXT[] NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS products_request_id_idx ON products (request_id);
`

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) CreateRequest(ctx context.Context, req *model.ProcessingRequest) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processing_requests (id, status, webhook_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.Status, req.WebhookURL, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (s *Postgres) GetRequest(ctx context.Context, id string) (*model.ProcessingRequest, error) {
	var req model.ProcessingRequest
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, webhook_url, created_at, updated_at
		 FROM processing_requests WHERE id = $1`, id,
	)
	err := row.Scan(&req.ID, &req.Status, &req.WebhookURL, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query request: %w", err)
	}
	return &req, nil
}

// UpdateRequestStatus advances the status unless the request has
// already reached a terminal state.
func (s *Postgres) UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE processing_requests
		 SET status = $2, updated_at = $3
		 WHERE id = $1 AND status NOT IN ('completed', 'failed')`,
		id, status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

func (s *Postgres) InsertProducts(ctx context.Context, products []*model.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(
			`INSERT INTO products (request_id, serial_number, product_name, input_urls, output_urls)
			 VALUES ($1, $2, $3, $4, $5)`,
			p.RequestID, p.SerialNumber, p.ProductName, p.InputURLs, p.OutputURLs,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

func (s *Postgres) ListProducts(ctx context.Context, requestID string) ([]*model.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, request_id, serial_number, product_name, input_urls, output_urls
		 FROM products WHERE request_id = $1 ORDER BY id`, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.RequestID, &p.SerialNumber, &p.ProductName, &p.InputURLs, &p.OutputURLs); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}
