package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	// ListActive returns active rates for a country whose validity window covers at.
	ListActive(ctx context.Context, country string, at time.Time) ([]TaxRate, error)
	Create(ctx context.Context, rate *TaxRate) error
	FindByID(ctx context.Context, id snowflake.ID) (*TaxRate, error)
	List(ctx context.Context, filter ListRequest) ([]TaxRate, error)
	Update(ctx context.Context, rate *TaxRate) error
}
