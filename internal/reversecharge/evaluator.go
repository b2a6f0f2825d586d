// Package reversecharge implements the EU cross-border B2B reverse
// charge check. It only flags applicability; zeroing tax lines is the
// caller's responsibility.
package reversecharge

import "strings"

// EU member states as of 2024.
var euMembers = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// Result is the reverse-charge outcome attached to a calculation.
type Result struct {
	Applicable bool   `json:"applicable"`
	Reason     string `json:"reason,omitempty"`
	VATNumber  string `json:"vat_number,omitempty"`
}

type Evaluator struct {
	businessCountry string
}

func NewEvaluator(businessCountry string) *Evaluator {
	return &Evaluator{businessCountry: normalize(businessCountry)}
}

// Evaluate applies the reverse-charge rule: both countries in the EU,
// different from each other, and a VAT number supplied by the customer.
func (e *Evaluator) Evaluate(customerCountry, vatNumber string) Result {
	customerCountry = normalize(customerCountry)
	vatNumber = strings.TrimSpace(vatNumber)

	if !isEUMember(e.businessCountry) || !isEUMember(customerCountry) {
		return Result{}
	}
	if e.businessCountry == customerCountry {
		return Result{}
	}
	if vatNumber == "" {
		return Result{}
	}

	return Result{
		Applicable: true,
		Reason:     "eu_cross_border_b2b",
		VATNumber:  vatNumber,
	}
}

func isEUMember(country string) bool {
	_, ok := euMembers[country]
	return ok
}

func normalize(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}
