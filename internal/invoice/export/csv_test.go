package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
)

func TestWriteCSV(t *testing.T) {
	invoices := []invoicedomain.Invoice{
		{
			InvoiceNumber:   "INV-000001",
			CustomerName:    "Acme Corp",
			CustomerEmail:   "billing@acme.test",
			InvoiceDate:     time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
			DueDate:         time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
			Currency:        "USD",
			Status:          invoicedomain.StatusOpen,
			SubtotalAmount:  15000,
			TaxTotal:        1120,
			TotalAmount:     15120,
			AmountPaid:      5000,
			AmountRemaining: 10120,
		},
		{
			InvoiceNumber: "INV-000002",
			CustomerName:  "Globex",
			InvoiceDate:   time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
			DueDate:       time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
			Currency:      "EUR",
			Status:        invoicedomain.StatusDraft,
			TotalAmount:   5,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, invoices); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(records))
	}

	if records[0][0] != "invoice_number" || records[0][11] != "amount_due" {
		t.Fatalf("unexpected header: %v", records[0])
	}

	first := records[1]
	if first[0] != "INV-000001" {
		t.Fatalf("invoice_number = %q", first[0])
	}
	if first[3] != "2026-06-01" || first[4] != "2026-07-01" {
		t.Fatalf("dates = %q, %q", first[3], first[4])
	}
	if first[7] != "150.00" || first[8] != "11.20" || first[9] != "151.20" {
		t.Fatalf("amounts = %v", first[7:10])
	}
	if first[10] != "50.00" || first[11] != "101.20" {
		t.Fatalf("payment columns = %v", first[10:12])
	}

	// sub-dime amounts keep two fraction digits
	if records[2][9] != "0.05" {
		t.Fatalf("total = %q, want 0.05", records[2][9])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("rows = %d, want header only", len(records))
	}
}
