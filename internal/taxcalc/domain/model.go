package domain

import (
	"time"

	"github.com/billingkit/taxengine/internal/reversecharge"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
)

// Confidence qualifies how reliable a calculation result is. It is
// demoted when safety heuristics trigger.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Address is the billing address snapshot a calculation runs against.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	VATNumber  string `json:"vat_number,omitempty"`
}

// LineItem is one taxable position of a calculation request.
// Amounts are minor currency units.
type LineItem struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	Amount         int64  `json:"amount"`
	DiscountAmount int64  `json:"discount_amount"`
	ProductType    string `json:"product_type"`
}

// CalculationRequest is the canonical provider-independent input.
type CalculationRequest struct {
	CustomerID     string         `json:"customer_id"`
	CustomerType   string         `json:"customer_type"`
	Currency       string         `json:"currency"`
	LineItems      []LineItem     `json:"line_items"`
	BillingAddress Address        `json:"billing_address"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// TransactionTotal is the sum of all line item amounts.
func (r *CalculationRequest) TransactionTotal() int64 {
	var total int64
	for _, item := range r.LineItems {
		total += item.Amount
	}
	return total
}

// TaxLine is one normalized jurisdiction/rate contribution.
type TaxLine struct {
	Jurisdiction  string                `json:"jurisdiction"`
	TaxType       taxratedomain.TaxType `json:"tax_type"`
	RatePercent   float64               `json:"rate_percent"`
	TaxableAmount int64                 `json:"taxable_amount"`
	TaxAmount     int64                 `json:"tax_amount"`
	ExemptAmount  int64                 `json:"exempt_amount"`
}

// Exemption records tax removed by an exemption certificate.
type Exemption struct {
	Reason            string `json:"reason"`
	Amount            int64  `json:"amount"`
	CertificateNumber string `json:"certificate_number"`
}

// CalculationResult is the canonical provider-independent output.
type CalculationResult struct {
	Provider       string               `json:"provider"`
	CalculatedAt   time.Time            `json:"calculated_at"`
	TaxLines       []TaxLine            `json:"tax_lines"`
	Exemptions     []Exemption          `json:"exemptions"`
	ReverseCharge  reversecharge.Result `json:"reverse_charge"`
	TotalTaxAmount int64                `json:"total_tax_amount"`
	Confidence     Confidence           `json:"confidence"`
}

// SumTaxLines recomputes the total from the individual lines.
func (r *CalculationResult) SumTaxLines() int64 {
	var total int64
	for _, line := range r.TaxLines {
		total += line.TaxAmount
	}
	return total
}

// CalculationOptions tunes a single calculation call.
type CalculationOptions struct {
	// Provider overrides the configured default when set.
	Provider     string
	Certificates []ExemptionCertificate
}

// BatchItemResult is the independent outcome of one request in a batch.
type BatchItemResult struct {
	Index  int
	Result *CalculationResult
	Err    error
}
