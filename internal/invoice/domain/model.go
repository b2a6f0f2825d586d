package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	taxcalcdomain "github.com/billingkit/taxengine/internal/taxcalc/domain"
	"gorm.io/datatypes"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "DRAFT"
	StatusOpen          InvoiceStatus = "OPEN"
	StatusPaid          InvoiceStatus = "PAID"
	StatusVoid          InvoiceStatus = "VOID"
	StatusUncollectible InvoiceStatus = "UNCOLLECTIBLE"
)

// Invoice carries a customer snapshot, its line items and the derived
// financial totals. All amounts are minor currency units.
type Invoice struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	InvoiceNumber string       `gorm:"type:text;not null;uniqueIndex"`
	Sequence      int64        `gorm:"not null"`

	CustomerID    string `gorm:"type:text;not null;index"`
	CustomerName  string `gorm:"type:text;not null"`
	CustomerEmail string `gorm:"type:text"`
	CustomerType  string `gorm:"type:text"`

	BillingAddress datatypes.JSONType[taxcalcdomain.Address] `gorm:"type:jsonb"`

	Currency     string  `gorm:"type:varchar(3);not null"`
	ExchangeRate float64 `gorm:"not null;default:1"`
	BaseCurrency string  `gorm:"type:varchar(3)"`

	Status    InvoiceStatus `gorm:"type:text;not null;index"`
	LineItems []LineItem    `gorm:"foreignKey:InvoiceID"`

	TaxCalculation datatypes.JSONType[taxcalcdomain.CalculationResult] `gorm:"type:jsonb"`

	SubtotalAmount  int64 `gorm:"not null;default:0"`
	DiscountTotal   int64 `gorm:"not null;default:0"`
	TaxTotal        int64 `gorm:"not null;default:0"`
	TotalAmount     int64 `gorm:"not null;default:0"`
	AmountPaid      int64 `gorm:"not null;default:0"`
	AmountRemaining int64 `gorm:"not null;default:0"`

	InvoiceDate time.Time  `gorm:"not null"`
	DueDate     time.Time  `gorm:"not null"`
	FinalizedAt *time.Time `gorm:""`
	PaidAt      *time.Time `gorm:""`
	VoidedAt    *time.Time `gorm:""`
	VoidReason  *string    `gorm:"type:text"`
	VoidedBy    *string    `gorm:"type:text"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem is one billed position. TaxableAmount never exceeds Amount;
// the difference is the non-taxable portion of the position.
type LineItem struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	InvoiceID      snowflake.ID `gorm:"not null;index"`
	Description    string       `gorm:"type:text;not null"`
	Quantity       int64        `gorm:"not null;default:1"`
	UnitPrice      int64        `gorm:"not null"`
	Amount         int64        `gorm:"not null"`
	DiscountAmount int64        `gorm:"not null;default:0"`
	TaxableAmount  int64        `gorm:"not null"`
	TaxAmount      int64        `gorm:"not null;default:0"`
	ProductType    string       `gorm:"type:text"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_line_items" }

// Payment is one recorded payment against an open invoice.
type Payment struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	InvoiceID snowflake.ID `gorm:"not null;index"`
	Amount    int64        `gorm:"not null"`
	Method    string       `gorm:"type:text"`
	Reference string       `gorm:"type:text"`
	PaidAt    time.Time    `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "invoice_payments" }

// AmountDue is the signed balance, total minus payments. Unlike
// AmountRemaining it is not floored at zero, so an overpaid invoice
// would show a negative due amount.
func (i *Invoice) AmountDue() int64 { return i.TotalAmount - i.AmountPaid }

// Editable reports whether line items may still change.
func (i *Invoice) Editable() bool { return i.Status == StatusDraft }

// Settled reports whether the invoice reached a terminal state.
func (i *Invoice) Settled() bool {
	switch i.Status {
	case StatusPaid, StatusVoid, StatusUncollectible:
		return true
	}
	return false
}
