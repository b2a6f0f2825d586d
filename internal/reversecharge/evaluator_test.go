package reversecharge

import "testing"

func TestEvaluateCrossBorderB2B(t *testing.T) {
	evaluator := NewEvaluator("DE")

	result := evaluator.Evaluate("FR", "FR12345678901")
	if !result.Applicable {
		t.Fatalf("expected reverse charge for EU cross-border B2B")
	}
	if result.Reason != "eu_cross_border_b2b" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if result.VATNumber != "FR12345678901" {
		t.Fatalf("unexpected vat number %q", result.VATNumber)
	}
}

func TestEvaluateNotApplicable(t *testing.T) {
	evaluator := NewEvaluator("DE")

	tests := []struct {
		name      string
		country   string
		vatNumber string
	}{
		{"same country", "DE", "DE123456789"},
		{"missing vat number", "FR", ""},
		{"whitespace vat number", "FR", "   "},
		{"customer outside eu", "US", "123456789"},
		{"unknown country", "XX", "XX123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := evaluator.Evaluate(tt.country, tt.vatNumber); result.Applicable {
				t.Fatalf("expected not applicable, got %+v", result)
			}
		})
	}
}

func TestEvaluateBusinessOutsideEU(t *testing.T) {
	evaluator := NewEvaluator("US")

	if result := evaluator.Evaluate("FR", "FR12345678901"); result.Applicable {
		t.Fatalf("expected not applicable when seller is outside the EU")
	}
}

func TestEvaluateNormalizesCase(t *testing.T) {
	evaluator := NewEvaluator(" de ")

	if result := evaluator.Evaluate("fr", " FR123 "); !result.Applicable {
		t.Fatalf("expected country codes to be normalized")
	}
}
