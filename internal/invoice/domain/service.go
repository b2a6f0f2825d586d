package domain

import (
	"context"
	"time"

	taxcalcdomain "github.com/billingkit/taxengine/internal/taxcalc/domain"
)

// LineItemRequest is one billed position on a create request.
// TaxableAmount defaults to Amount when zero.
type LineItemRequest struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	Amount         int64  `json:"amount"`
	DiscountAmount int64  `json:"discount_amount"`
	TaxableAmount  int64  `json:"taxable_amount"`
	ProductType    string `json:"product_type"`
}

type CreateRequest struct {
	CustomerID     string                               `json:"customer_id"`
	CustomerName   string                               `json:"customer_name"`
	CustomerEmail  string                               `json:"customer_email"`
	CustomerType   string                               `json:"customer_type"`
	Currency       string                               `json:"currency"`
	ExchangeRate   float64                              `json:"exchange_rate"`
	BaseCurrency   string                               `json:"base_currency"`
	BillingAddress taxcalcdomain.Address                `json:"billing_address"`
	LineItems      []LineItemRequest                    `json:"line_items"`
	DueDate        *time.Time                           `json:"due_date"`
	TaxProvider    string                               `json:"tax_provider"`
	Certificates   []taxcalcdomain.ExemptionCertificate `json:"exemption_certificates"`
	Metadata       map[string]any                       `json:"metadata"`
}

type RecordPaymentRequest struct {
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

type VoidRequest struct {
	Reason   string `json:"reason"`
	VoidedBy string `json:"voided_by"`
}

// Service is the invoice lifecycle contract.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, error)
	Finalize(ctx context.Context, id string) (*Invoice, error)
	RecordPayment(ctx context.Context, id string, req RecordPaymentRequest) (*Invoice, error)
	Void(ctx context.Context, id string, req VoidRequest) (*Invoice, error)
	MarkUncollectible(ctx context.Context, id string) (*Invoice, error)
	Payments(ctx context.Context, id string) ([]Payment, error)
}
