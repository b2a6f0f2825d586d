package domain

import (
	"strings"
	"time"

	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
)

// ExemptionCertificate authorizes zeroing tax for matching transactions
// inside its validity window.
type ExemptionCertificate struct {
	CertificateNumber string                  `json:"certificate_number"`
	Reason            string                  `json:"reason"`
	ValidFrom         time.Time               `json:"valid_from"`
	ValidTo           time.Time               `json:"valid_to"`
	Jurisdiction      string                  `json:"jurisdiction,omitempty"`
	TaxTypes          []taxratedomain.TaxType `json:"tax_types,omitempty"`
}

// ValidAt reports whether the certificate covers the given instant.
func (c *ExemptionCertificate) ValidAt(at time.Time) bool {
	if c.CertificateNumber == "" {
		return false
	}
	if c.ValidFrom.IsZero() || at.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidTo.IsZero() && at.After(c.ValidTo) {
		return false
	}
	return true
}

// Matches reports whether the certificate's jurisdiction and tax type
// filters cover a tax line. Empty filters match everything.
func (c *ExemptionCertificate) Matches(line TaxLine) bool {
	if c.Jurisdiction != "" {
		if !strings.EqualFold(c.Jurisdiction, line.Jurisdiction) &&
			!strings.HasPrefix(strings.ToUpper(line.Jurisdiction), strings.ToUpper(c.Jurisdiction)+"/") {
			return false
		}
	}
	if len(c.TaxTypes) == 0 {
		return true
	}
	for _, taxType := range c.TaxTypes {
		if taxType == line.TaxType {
			return true
		}
	}
	return false
}
