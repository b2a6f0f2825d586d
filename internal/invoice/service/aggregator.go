package service

import (
	"strings"
	"time"

	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
)

// Recompute derives every total from the line items and the amount
// already paid. It is idempotent; running it twice changes nothing.
//
//	subtotal  = sum(line.Amount)
//	discounts = sum(line.DiscountAmount)
//	tax       = sum(line.TaxAmount)
//	total     = subtotal - discounts + tax
//	remaining = max(total - amountPaid, 0)
func Recompute(invoice *invoicedomain.Invoice) {
	var subtotal, discounts, tax int64
	for _, line := range invoice.LineItems {
		subtotal += line.Amount
		discounts += line.DiscountAmount
		tax += line.TaxAmount
	}

	invoice.SubtotalAmount = subtotal
	invoice.DiscountTotal = discounts
	invoice.TaxTotal = tax
	invoice.TotalAmount = subtotal - discounts + tax

	remaining := invoice.TotalAmount - invoice.AmountPaid
	if remaining < 0 {
		remaining = 0
	}
	invoice.AmountRemaining = remaining
}

// ApplyPayment adds amount to the paid total and settles the invoice
// when nothing remains. The caller has already checked the lifecycle
// state; only the amount itself is validated here.
func ApplyPayment(invoice *invoicedomain.Invoice, amount int64, at time.Time) error {
	if amount <= 0 {
		return invoicedomain.ErrInvalidPaymentAmount
	}
	if amount > invoice.AmountRemaining {
		return invoicedomain.ErrPaymentExceedsBalance
	}

	invoice.AmountPaid += amount
	Recompute(invoice)

	if invoice.AmountRemaining == 0 {
		MarkAsPaid(invoice, at)
	}
	return nil
}

// MarkAsPaid transitions the invoice to PAID.
func MarkAsPaid(invoice *invoicedomain.Invoice, at time.Time) {
	invoice.Status = invoicedomain.StatusPaid
	paidAt := at
	invoice.PaidAt = &paidAt
}

// Void transitions the invoice to VOID. Whether the current state
// permits voiding is the workflow's decision, not enforced here.
func Void(invoice *invoicedomain.Invoice, reason, voidedBy string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return invoicedomain.ErrVoidRequired
	}

	invoice.Status = invoicedomain.StatusVoid
	invoice.VoidReason = &reason
	voidedAt := at
	invoice.VoidedAt = &voidedAt
	if by := strings.TrimSpace(voidedBy); by != "" {
		invoice.VoidedBy = &by
	}
	return nil
}
