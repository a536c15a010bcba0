package store

import (
	"context"
	"errors"

	"github.com/imgcrush/api/internal/model"
)

// ErrNotFound is returned when a request lookup misses.
var ErrNotFound = errors.New("request not found")

// Store is the persistence boundary for requests and products.
//
// Status updates and the product batch insert are each atomic:
// readers never observe a partial product set, and terminal statuses
// never regress.
type Store interface {
	CreateRequest(ctx context.Context, req *model.ProcessingRequest) error
	GetRequest(ctx context.Context, id string) (*model.ProcessingRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) error

	// InsertProducts commits all products in one transaction; on error
	// nothing is persisted.
	InsertProducts(ctx context.Context, products []*model.Product) error
	ListProducts(ctx context.Context, requestID string) ([]*model.Product, error)
}
