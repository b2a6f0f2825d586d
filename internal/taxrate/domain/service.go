package domain

import (
	"context"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Country string
	TaxType string
	Active  *bool
}

type CreateRequest struct {
	Name              string         `json:"name"`
	Country           string         `json:"country"`
	State             *string        `json:"state,omitempty"`
	City              *string        `json:"city,omitempty"`
	PostalCode        *string        `json:"postal_code,omitempty"`
	TaxType           TaxType        `json:"tax_type"`
	RatePercent       float64        `json:"rate_percent"`
	Compound          bool           `json:"compound"`
	ProductTypes      []string       `json:"product_types,omitempty"`
	CustomerTypes     []string       `json:"customer_types,omitempty"`
	MinimumAmount     *int64         `json:"minimum_amount,omitempty"`
	MaximumAmount     *int64         `json:"maximum_amount,omitempty"`
	RevenueThreshold  *int64         `json:"revenue_threshold,omitempty"`
	VATExempt         bool           `json:"vat_exempt"`
	ReverseCharge     bool           `json:"reverse_charge"`
	ExemptEntityTypes []string       `json:"exempt_entity_types,omitempty"`
	EffectiveFrom     time.Time      `json:"effective_from"`
	EffectiveTo       *time.Time     `json:"effective_to,omitempty"`
	ProviderRefs      map[string]any `json:"provider_refs,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type UpdateRequest struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name,omitempty"`
	RatePercent   *float64   `json:"rate_percent,omitempty"`
	Compound      *bool      `json:"compound,omitempty"`
	ProductTypes  []string   `json:"product_types,omitempty"`
	CustomerTypes []string   `json:"customer_types,omitempty"`
	MinimumAmount *int64     `json:"minimum_amount,omitempty"`
	MaximumAmount *int64     `json:"maximum_amount,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
}

type Response struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Country       string     `json:"country"`
	State         *string    `json:"state,omitempty"`
	City          *string    `json:"city,omitempty"`
	PostalCode    *string    `json:"postal_code,omitempty"`
	TaxType       TaxType    `json:"tax_type"`
	RatePercent   float64    `json:"rate_percent"`
	Compound      bool       `json:"compound"`
	ProductTypes  []string   `json:"product_types,omitempty"`
	CustomerTypes []string   `json:"customer_types,omitempty"`
	VATExempt     bool       `json:"vat_exempt"`
	ReverseCharge bool       `json:"reverse_charge"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
