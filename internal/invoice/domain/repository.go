package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListRequest filters the invoice listing.
type ListRequest struct {
	CustomerID string
	Status     InvoiceStatus
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, error)
	NextSequence(ctx context.Context) (int64, error)
	ListPayments(ctx context.Context, invoiceID snowflake.ID) ([]Payment, error)
	// UpdateLocked loads the invoice under a row lock, runs fn inside
	// the transaction and persists the mutated invoice when fn returns
	// nil. fn may use tx for writes that must commit atomically with it.
	UpdateLocked(ctx context.Context, id snowflake.ID, fn func(tx *gorm.DB, invoice *Invoice) error) (*Invoice, error)
}
