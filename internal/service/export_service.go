package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/imgcrush/api/internal/store"
)

// ExportService renders the persisted outcome of a request back into
// a CSV table.
type ExportService struct {
	store store.Store
}

func NewExportService(st store.Store) *ExportService {
	return &ExportService{store: st}
}

// BuildCSV returns the output table for a request, one row per
// product in persisted order. It returns store.ErrNotFound when no
// products exist for the request.
func (s *ExportService) BuildCSV(ctx context.Context, requestID string) ([]byte, error) {
	products, err := s.store.ListProducts(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, store.ErrNotFound
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{ColumnSerial, ColumnName, ColumnInputURLs, "Output Image Urls"}); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, p := range products {
		row := []string{
			strconv.Itoa(p.SerialNumber),
			p.ProductName,
			strings.Join(p.InputURLs, ","),
			strings.Join(p.OutputURLs, ","),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
