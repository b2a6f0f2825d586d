package service

import (
	"errors"
	"testing"
	"time"

	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
)

func sampleInvoice() *invoicedomain.Invoice {
	return &invoicedomain.Invoice{
		Status: invoicedomain.StatusOpen,
		LineItems: []invoicedomain.LineItem{
			{Amount: 10000, DiscountAmount: 1000, TaxAmount: 720},
			{Amount: 5000, TaxAmount: 400},
		},
	}
}

func TestRecompute(t *testing.T) {
	invoice := sampleInvoice()
	Recompute(invoice)

	if invoice.SubtotalAmount != 15000 {
		t.Fatalf("subtotal = %d, want 15000", invoice.SubtotalAmount)
	}
	if invoice.DiscountTotal != 1000 {
		t.Fatalf("discounts = %d, want 1000", invoice.DiscountTotal)
	}
	if invoice.TaxTotal != 1120 {
		t.Fatalf("tax = %d, want 1120", invoice.TaxTotal)
	}
	if invoice.TotalAmount != 15120 {
		t.Fatalf("total = %d, want 15120", invoice.TotalAmount)
	}
	if invoice.AmountRemaining != 15120 {
		t.Fatalf("remaining = %d, want 15120", invoice.AmountRemaining)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	invoice := sampleInvoice()
	Recompute(invoice)
	first := *invoice

	Recompute(invoice)
	if invoice.SubtotalAmount != first.SubtotalAmount ||
		invoice.TotalAmount != first.TotalAmount ||
		invoice.AmountRemaining != first.AmountRemaining {
		t.Fatalf("recompute not idempotent: %+v vs %+v", invoice, first)
	}
}

func TestAmountDueTracksBalance(t *testing.T) {
	invoice := sampleInvoice()
	Recompute(invoice)

	if invoice.AmountDue() != invoice.AmountRemaining {
		t.Fatalf("amount due = %d, remaining = %d, want equal while unpaid", invoice.AmountDue(), invoice.AmountRemaining)
	}

	// remaining floors at zero, the due balance stays signed
	invoice.AmountPaid = invoice.TotalAmount + 500
	Recompute(invoice)
	if invoice.AmountRemaining != 0 {
		t.Fatalf("remaining = %d, want 0", invoice.AmountRemaining)
	}
	if invoice.AmountDue() != -500 {
		t.Fatalf("amount due = %d, want -500", invoice.AmountDue())
	}
}

func TestApplyPaymentPartialAndFull(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	invoice := sampleInvoice()
	Recompute(invoice)

	if err := ApplyPayment(invoice, 5000, now); err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if invoice.Status != invoicedomain.StatusOpen {
		t.Fatalf("status = %s, want OPEN after partial payment", invoice.Status)
	}
	if invoice.AmountRemaining != 10120 {
		t.Fatalf("remaining = %d, want 10120", invoice.AmountRemaining)
	}

	if err := ApplyPayment(invoice, 10120, now); err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if invoice.Status != invoicedomain.StatusPaid {
		t.Fatalf("status = %s, want PAID", invoice.Status)
	}
	if invoice.PaidAt == nil || !invoice.PaidAt.Equal(now) {
		t.Fatalf("paid_at = %v, want %v", invoice.PaidAt, now)
	}
	if invoice.AmountRemaining != 0 {
		t.Fatalf("remaining = %d, want 0", invoice.AmountRemaining)
	}
}

func TestApplyPaymentRejectsInvalidAmounts(t *testing.T) {
	now := time.Now().UTC()
	invoice := sampleInvoice()
	Recompute(invoice)

	if err := ApplyPayment(invoice, 0, now); !errors.Is(err, invoicedomain.ErrInvalidPaymentAmount) {
		t.Fatalf("err = %v, want ErrInvalidPaymentAmount", err)
	}
	if err := ApplyPayment(invoice, -100, now); !errors.Is(err, invoicedomain.ErrInvalidPaymentAmount) {
		t.Fatalf("err = %v, want ErrInvalidPaymentAmount", err)
	}
	if err := ApplyPayment(invoice, invoice.AmountRemaining+1, now); !errors.Is(err, invoicedomain.ErrPaymentExceedsBalance) {
		t.Fatalf("err = %v, want ErrPaymentExceedsBalance", err)
	}
}

func TestVoidSetsFields(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	invoice := sampleInvoice()

	if err := Void(invoice, "duplicate billing", "ops@example.com", now); err != nil {
		t.Fatalf("void: %v", err)
	}
	if invoice.Status != invoicedomain.StatusVoid {
		t.Fatalf("status = %s, want VOID", invoice.Status)
	}
	if invoice.VoidReason == nil || *invoice.VoidReason != "duplicate billing" {
		t.Fatalf("void reason = %v", invoice.VoidReason)
	}
	if invoice.VoidedBy == nil || *invoice.VoidedBy != "ops@example.com" {
		t.Fatalf("voided by = %v", invoice.VoidedBy)
	}
	if invoice.VoidedAt == nil || !invoice.VoidedAt.Equal(now) {
		t.Fatalf("voided at = %v", invoice.VoidedAt)
	}
}

func TestVoidRequiresReason(t *testing.T) {
	invoice := sampleInvoice()
	if err := Void(invoice, "  ", "", time.Now().UTC()); !errors.Is(err, invoicedomain.ErrVoidRequired) {
		t.Fatalf("err = %v, want ErrVoidRequired", err)
	}
}
