package store

import (
	"context"
	"sync"
	"time"

	"github.com/imgcrush/api/internal/model"
)

// Memory is an in-memory Store used by tests. It applies the same
// visibility rules as Postgres: products become readable only after
// the whole batch lands, and terminal statuses never regress.
type Memory struct {
	mu       sync.Mutex
	requests map[string]*model.ProcessingRequest
	products []*model.Product
	nextID   int64
}

func NewMemory() *Memory {
	return &Memory{requests: make(map[string]*model.ProcessingRequest)}
}

func (s *Memory) CreateRequest(ctx context.Context, req *model.ProcessingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *Memory) GetRequest(ctx context.Context, id string) (*model.ProcessingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *Memory) UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.Status.Terminal() {
		return nil
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return nil
}

func (s *Memory) InsertProducts(ctx context.Context, products []*model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.nextID++
		cp := *p
		cp.ID = s.nextID
		s.products = append(s.products, &cp)
	}
	return nil
}

func (s *Memory) ListProducts(ctx context.Context, requestID string) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Product
	for _, p := range s.products {
		if p.RequestID == requestID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
