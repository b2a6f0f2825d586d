package domain

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestSpecificity(t *testing.T) {
	tests := []struct {
		name string
		rate TaxRate
		want int
	}{
		{"country only", TaxRate{Country: "US"}, 1},
		{"country and state", TaxRate{Country: "US", State: strPtr("CA")}, 3},
		{"country and city", TaxRate{Country: "US", City: strPtr("Seattle")}, 5},
		{"full address", TaxRate{Country: "US", State: strPtr("WA"), City: strPtr("Seattle")}, 7},
		{"blank state ignored", TaxRate{Country: "US", State: strPtr("  ")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rate.Specificity(); got != tt.want {
				t.Fatalf("specificity = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestJurisdictionLabel(t *testing.T) {
	rate := TaxRate{Country: "us", State: strPtr("WA"), City: strPtr("Seattle")}
	if got := rate.Jurisdiction(); got != "US/WA/Seattle" {
		t.Fatalf("jurisdiction = %q", got)
	}

	countryOnly := TaxRate{Country: "de"}
	if got := countryOnly.Jurisdiction(); got != "DE" {
		t.Fatalf("jurisdiction = %q", got)
	}
}

func TestEffectiveAt(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	rate := TaxRate{EffectiveFrom: from, EffectiveTo: &to}

	if rate.EffectiveAt(from.Add(-time.Hour)) {
		t.Fatalf("expected not effective before window")
	}
	if !rate.EffectiveAt(from) {
		t.Fatalf("expected effective at window start")
	}
	if !rate.EffectiveAt(to) {
		t.Fatalf("expected effective at window end")
	}
	if rate.EffectiveAt(to.Add(time.Hour)) {
		t.Fatalf("expected not effective after window")
	}
}

func TestAppliesTo(t *testing.T) {
	rate := TaxRate{ProductTypes: []string{"SUBSCRIPTIONS", "SOFTWARE"}}

	if !rate.AppliesToProduct("subscriptions") {
		t.Fatalf("expected case-insensitive match")
	}
	if rate.AppliesToProduct("GOODS") {
		t.Fatalf("expected mismatch for GOODS")
	}

	unrestricted := TaxRate{}
	if !unrestricted.AppliesToProduct("ANYTHING") {
		t.Fatalf("expected empty list to match everything")
	}

	all := TaxRate{CustomerTypes: []string{"ALL"}}
	if !all.AppliesToCustomer("B2B") {
		t.Fatalf("expected ALL to match everything")
	}
}

func TestWithinAmountBounds(t *testing.T) {
	rate := TaxRate{MinimumAmount: int64Ptr(1000), MaximumAmount: int64Ptr(5000)}

	if rate.WithinAmountBounds(999) {
		t.Fatalf("expected below minimum to fail")
	}
	if !rate.WithinAmountBounds(1000) {
		t.Fatalf("expected minimum to pass")
	}
	if !rate.WithinAmountBounds(5000) {
		t.Fatalf("expected maximum to pass")
	}
	if rate.WithinAmountBounds(5001) {
		t.Fatalf("expected above maximum to fail")
	}
}

func TestValidate(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	valid := TaxRate{Name: "VAT", Country: "DE", TaxType: TaxTypeVAT, RatePercent: 19, EffectiveFrom: from}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid rate, got %v", err)
	}

	tests := []struct {
		name string
		rate TaxRate
		want error
	}{
		{"missing name", TaxRate{Country: "DE", TaxType: TaxTypeVAT, EffectiveFrom: from}, ErrInvalidName},
		{"missing country", TaxRate{Name: "VAT", TaxType: TaxTypeVAT, EffectiveFrom: from}, ErrInvalidCountry},
		{"negative rate", TaxRate{Name: "VAT", Country: "DE", TaxType: TaxTypeVAT, RatePercent: -1, EffectiveFrom: from}, ErrInvalidRate},
		{"rate above 100", TaxRate{Name: "VAT", Country: "DE", TaxType: TaxTypeVAT, RatePercent: 101, EffectiveFrom: from}, ErrInvalidRate},
		{"missing tax type", TaxRate{Name: "VAT", Country: "DE", EffectiveFrom: from}, ErrInvalidTaxType},
		{"missing window", TaxRate{Name: "VAT", Country: "DE", TaxType: TaxTypeVAT}, ErrInvalidEffectiveWindow},
		{"inverted bounds", TaxRate{Name: "VAT", Country: "DE", TaxType: TaxTypeVAT, EffectiveFrom: from, MinimumAmount: int64Ptr(100), MaximumAmount: int64Ptr(50)}, ErrInvalidAmountBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rate.Validate(); err != tt.want {
				t.Fatalf("validate = %v, want %v", err, tt.want)
			}
		})
	}
}
