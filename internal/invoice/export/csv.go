// Package export renders invoices for accounting handoff.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
)

var csvHeader = []string{
	"invoice_number",
	"customer_name",
	"customer_email",
	"invoice_date",
	"due_date",
	"currency",
	"status",
	"subtotal",
	"tax_total",
	"total",
	"amount_paid",
	"amount_due",
}

// WriteCSV streams one row per invoice. Amounts are written as decimal
// major units with two fraction digits.
func WriteCSV(w io.Writer, invoices []invoicedomain.Invoice) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for i := range invoices {
		invoice := &invoices[i]
		row := []string{
			invoice.InvoiceNumber,
			invoice.CustomerName,
			invoice.CustomerEmail,
			invoice.InvoiceDate.Format("2006-01-02"),
			invoice.DueDate.Format("2006-01-02"),
			invoice.Currency,
			string(invoice.Status),
			formatAmount(invoice.SubtotalAmount),
			formatAmount(invoice.TaxTotal),
			formatAmount(invoice.TotalAmount),
			formatAmount(invoice.AmountPaid),
			formatAmount(invoice.AmountDue()),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(minorUnits int64) string {
	return strconv.FormatFloat(float64(minorUnits)/100, 'f', 2, 64)
}
