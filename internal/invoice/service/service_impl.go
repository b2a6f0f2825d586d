package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	auditdomain "github.com/billingkit/taxengine/internal/audit/domain"
	"github.com/billingkit/taxengine/internal/clock"
	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
	taxcalcdomain "github.com/billingkit/taxengine/internal/taxcalc/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPaymentTerm = 30 * 24 * time.Hour

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     invoicedomain.Repository
	TaxSvc   taxcalcdomain.Service
	AuditSvc auditdomain.Service
	Clock    clock.Clock
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	repo     invoicedomain.Repository
	taxSvc   taxcalcdomain.Service
	auditSvc auditdomain.Service
	clock    clock.Clock
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		taxSvc:   p.TaxSvc,
		auditSvc: p.AuditSvc,
		clock:    p.Clock,
	}
}

// Create builds a DRAFT invoice and runs the tax calculation
// synchronously so the draft already carries final totals.
func (s *Service) Create(ctx context.Context, req invoicedomain.CreateRequest) (*invoicedomain.Invoice, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, invoicedomain.ErrMissingCustomer
	}
	if len(req.LineItems) == 0 {
		return nil, invoicedomain.ErrMissingLineItems
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, invoicedomain.ErrInvalidCurrency
	}

	now := s.clock.Now()
	invoiceID := s.genID.Generate()

	lines := make([]invoicedomain.LineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		line, err := s.buildLine(invoiceID, item, now)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	sequence, err := s.repo.NextSequence(ctx)
	if err != nil {
		return nil, err
	}

	exchangeRate := req.ExchangeRate
	if exchangeRate <= 0 {
		exchangeRate = 1
	}
	dueDate := now.Add(defaultPaymentTerm)
	if req.DueDate != nil && !req.DueDate.IsZero() {
		dueDate = *req.DueDate
	}

	invoice := &invoicedomain.Invoice{
		ID:             invoiceID,
		InvoiceNumber:  fmt.Sprintf("INV-%06d", sequence),
		Sequence:       sequence,
		CustomerID:     strings.TrimSpace(req.CustomerID),
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
		CustomerType:   strings.ToUpper(strings.TrimSpace(req.CustomerType)),
		BillingAddress: datatypes.NewJSONType(req.BillingAddress),
		Currency:       currency,
		ExchangeRate:   exchangeRate,
		BaseCurrency:   strings.ToUpper(strings.TrimSpace(req.BaseCurrency)),
		Status:         invoicedomain.StatusDraft,
		LineItems:      lines,
		InvoiceDate:    now,
		DueDate:        dueDate,
		Metadata:       datatypes.JSONMap(orEmpty(req.Metadata)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	calc, err := s.taxSvc.CalculateTax(ctx, buildCalculationRequest(invoice), taxcalcdomain.CalculationOptions{
		Provider:     req.TaxProvider,
		Certificates: req.Certificates,
	})
	if err != nil {
		return nil, err
	}
	invoice.TaxCalculation = datatypes.NewJSONType(*calc)
	allocateTax(invoice.LineItems, calc.TotalTaxAmount)
	Recompute(invoice)

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.create", invoice, map[string]any{
		"total_amount": invoice.TotalAmount,
		"tax_total":    invoice.TaxTotal,
		"provider":     calc.Provider,
	})
	return invoice, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (*invoicedomain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListRequest) ([]invoicedomain.Invoice, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Finalize(ctx context.Context, rawID string) (*invoicedomain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice, err := s.repo.UpdateLocked(ctx, id, func(_ *gorm.DB, invoice *invoicedomain.Invoice) error {
		if invoice.Status != invoicedomain.StatusDraft {
			return invoicedomain.ErrNotDraft
		}
		invoice.Status = invoicedomain.StatusOpen
		finalizedAt := now
		invoice.FinalizedAt = &finalizedAt
		invoice.UpdatedAt = now
		Recompute(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.finalize", invoice, nil)
	return invoice, nil
}

// RecordPayment applies a payment under a row lock so concurrent
// payments against the same invoice serialize.
func (s *Service) RecordPayment(ctx context.Context, rawID string, req invoicedomain.RecordPaymentRequest) (*invoicedomain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice, err := s.repo.UpdateLocked(ctx, id, func(tx *gorm.DB, invoice *invoicedomain.Invoice) error {
		switch invoice.Status {
		case invoicedomain.StatusVoid:
			return invoicedomain.ErrAlreadyVoid
		case invoicedomain.StatusPaid:
			return invoicedomain.ErrAlreadyPaid
		case invoicedomain.StatusOpen:
		default:
			return invoicedomain.ErrNotOpen
		}

		if err := ApplyPayment(invoice, req.Amount, now); err != nil {
			return err
		}
		invoice.UpdatedAt = now

		payment := invoicedomain.Payment{
			ID:        s.genID.Generate(),
			InvoiceID: invoice.ID,
			Amount:    req.Amount,
			Method:    strings.TrimSpace(req.Method),
			Reference: strings.TrimSpace(req.Reference),
			PaidAt:    now,
			CreatedAt: now,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.payment", invoice, map[string]any{
		"amount":           req.Amount,
		"amount_paid":      invoice.AmountPaid,
		"amount_remaining": invoice.AmountRemaining,
		"status":           string(invoice.Status),
	})
	return invoice, nil
}

// Void rejects voiding settled invoices. A paid invoice needs a credit
// note, not a void.
func (s *Service) Void(ctx context.Context, rawID string, req invoicedomain.VoidRequest) (*invoicedomain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice, err := s.repo.UpdateLocked(ctx, id, func(_ *gorm.DB, invoice *invoicedomain.Invoice) error {
		switch invoice.Status {
		case invoicedomain.StatusPaid:
			return invoicedomain.ErrAlreadyPaid
		case invoicedomain.StatusVoid:
			return invoicedomain.ErrAlreadyVoid
		}
		if err := Void(invoice, req.Reason, req.VoidedBy, now); err != nil {
			return err
		}
		invoice.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.void", invoice, map[string]any{
		"reason": req.Reason,
	})
	return invoice, nil
}

func (s *Service) MarkUncollectible(ctx context.Context, rawID string) (*invoicedomain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice, err := s.repo.UpdateLocked(ctx, id, func(_ *gorm.DB, invoice *invoicedomain.Invoice) error {
		if invoice.Status != invoicedomain.StatusOpen {
			return invoicedomain.ErrNotOpen
		}
		invoice.Status = invoicedomain.StatusUncollectible
		invoice.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.uncollectible", invoice, nil)
	return invoice, nil
}

func (s *Service) Payments(ctx context.Context, rawID string) ([]invoicedomain.Payment, error) {
	invoice, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, invoice.ID)
}

func (s *Service) buildLine(invoiceID snowflake.ID, item invoicedomain.LineItemRequest, now time.Time) (invoicedomain.LineItem, error) {
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	amount := item.Amount
	if amount == 0 {
		amount = item.UnitPrice * quantity
	}
	if amount < 0 || item.DiscountAmount < 0 {
		return invoicedomain.LineItem{}, invoicedomain.ErrInvalidLineItem
	}

	taxable := item.TaxableAmount
	if taxable == 0 {
		taxable = amount - item.DiscountAmount
		if taxable < 0 {
			taxable = 0
		}
	}
	if taxable > amount {
		return invoicedomain.LineItem{}, invoicedomain.ErrInvalidTaxableAmount
	}

	return invoicedomain.LineItem{
		ID:             s.genID.Generate(),
		InvoiceID:      invoiceID,
		Description:    strings.TrimSpace(item.Description),
		Quantity:       quantity,
		UnitPrice:      item.UnitPrice,
		Amount:         amount,
		DiscountAmount: item.DiscountAmount,
		TaxableAmount:  taxable,
		ProductType:    strings.ToUpper(strings.TrimSpace(item.ProductType)),
		CreatedAt:      now,
	}, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, invoice *invoicedomain.Invoice, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["invoice_number"] = invoice.InvoiceNumber
	targetID := invoice.ID.String()
	_ = s.auditSvc.AuditLog(ctx, "", nil, action, "invoice", &targetID, metadata)
}

// buildCalculationRequest taxes the taxable portion of each line.
func buildCalculationRequest(invoice *invoicedomain.Invoice) taxcalcdomain.CalculationRequest {
	items := make([]taxcalcdomain.LineItem, 0, len(invoice.LineItems))
	for _, line := range invoice.LineItems {
		items = append(items, taxcalcdomain.LineItem{
			ID:             line.ID.String(),
			Description:    line.Description,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			Amount:         line.TaxableAmount,
			DiscountAmount: line.DiscountAmount,
			ProductType:    line.ProductType,
		})
	}
	return taxcalcdomain.CalculationRequest{
		CustomerID:     invoice.CustomerID,
		CustomerType:   invoice.CustomerType,
		Currency:       invoice.Currency,
		LineItems:      items,
		BillingAddress: invoice.BillingAddress.Data(),
	}
}

// allocateTax distributes the calculated total across the lines in
// proportion to their taxable amounts. The rounding remainder lands on
// the last taxable line so the line taxes always sum to the total.
func allocateTax(lines []invoicedomain.LineItem, totalTax int64) {
	var taxableTotal int64
	lastTaxable := -1
	for i := range lines {
		if lines[i].TaxableAmount > 0 {
			taxableTotal += lines[i].TaxableAmount
			lastTaxable = i
		}
		lines[i].TaxAmount = 0
	}
	if totalTax <= 0 || taxableTotal <= 0 {
		return
	}

	var allocated int64
	for i := range lines {
		if lines[i].TaxableAmount <= 0 || i == lastTaxable {
			continue
		}
		share := totalTax * lines[i].TaxableAmount / taxableTotal
		lines[i].TaxAmount = share
		allocated += share
	}
	lines[lastTaxable].TaxAmount = totalTax - allocated
}

func parseID(rawID string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
