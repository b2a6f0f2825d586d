package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TaxType classifies a tax rate by regime.
type TaxType string

const (
	TaxTypeVAT         TaxType = "VAT"
	TaxTypeGST         TaxType = "GST"
	TaxTypeSalesTax    TaxType = "SALES_TAX"
	TaxTypeWithholding TaxType = "WITHHOLDING"
	TaxTypeExcise      TaxType = "EXCISE"
	TaxTypeOther       TaxType = "OTHER"
)

// ApplicabilityAll marks a product/customer type list as unrestricted.
const ApplicabilityAll = "ALL"

// TaxRate is a canonical jurisdiction tax rule.
// Country is required; state/city/postal narrow the jurisdiction scope.
type TaxRate struct {
	ID   snowflake.ID `gorm:"primaryKey"`
	Name string       `gorm:"type:text;not null"`

	Country    string  `gorm:"type:text;not null;index"`
	State      *string `gorm:"type:text"`
	City       *string `gorm:"type:text"`
	PostalCode *string `gorm:"type:text"`

	TaxType     TaxType `gorm:"column:tax_type;type:text;not null"`
	RatePercent float64 `gorm:"column:rate_percent;not null"` // percentage, 0..100
	Compound    bool    `gorm:"not null;default:false"`

	// Empty list or a list containing "ALL" means unrestricted.
	ProductTypes  datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CustomerTypes datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	MinimumAmount    *int64 `gorm:"column:minimum_amount"` // minor units
	MaximumAmount    *int64 `gorm:"column:maximum_amount"`
	RevenueThreshold *int64 `gorm:"column:revenue_threshold"`

	VATExempt         bool                        `gorm:"column:vat_exempt;not null;default:false"`
	ReverseCharge     bool                        `gorm:"column:reverse_charge;not null;default:false"`
	ExemptEntityTypes datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	EffectiveFrom time.Time  `gorm:"not null"`
	EffectiveTo   *time.Time `gorm:""`
	Active        bool       `gorm:"not null;default:true"`

	// ProviderRefs maps external tax service names to their rate identifiers.
	ProviderRefs datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TaxRate) TableName() string { return "tax_rates" }

func (t *TaxRate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(t.Country) == "" {
		return ErrInvalidCountry
	}
	if t.RatePercent < 0 || t.RatePercent > 100 {
		return ErrInvalidRate
	}
	if t.TaxType == "" {
		return ErrInvalidTaxType
	}
	if t.EffectiveFrom.IsZero() {
		return ErrInvalidEffectiveWindow
	}
	if t.EffectiveTo != nil && !t.EffectiveTo.After(t.EffectiveFrom) {
		return ErrInvalidEffectiveWindow
	}
	if t.MinimumAmount != nil && t.MaximumAmount != nil && *t.MaximumAmount < *t.MinimumAmount {
		return ErrInvalidAmountBounds
	}
	return nil
}

// Specificity ranks jurisdiction precision: city > state > country.
func (t *TaxRate) Specificity() int {
	score := 1
	if t.State != nil && strings.TrimSpace(*t.State) != "" {
		score += 2
	}
	if t.City != nil && strings.TrimSpace(*t.City) != "" {
		score += 4
	}
	return score
}

// Jurisdiction builds the human-readable jurisdiction label for tax lines.
func (t *TaxRate) Jurisdiction() string {
	parts := []string{strings.ToUpper(strings.TrimSpace(t.Country))}
	if t.State != nil && strings.TrimSpace(*t.State) != "" {
		parts = append(parts, strings.TrimSpace(*t.State))
	}
	if t.City != nil && strings.TrimSpace(*t.City) != "" {
		parts = append(parts, strings.TrimSpace(*t.City))
	}
	return strings.Join(parts, "/")
}

// EffectiveAt reports whether the rate's validity window covers t.
func (t *TaxRate) EffectiveAt(at time.Time) bool {
	if at.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && at.After(*t.EffectiveTo) {
		return false
	}
	return true
}

// AppliesToProduct reports whether productType passes the applicability set.
func (t *TaxRate) AppliesToProduct(productType string) bool {
	return appliesTo(t.ProductTypes, productType)
}

// AppliesToCustomer reports whether customerType passes the applicability set.
func (t *TaxRate) AppliesToCustomer(customerType string) bool {
	return appliesTo(t.CustomerTypes, customerType)
}

func appliesTo(set []string, value string) bool {
	if len(set) == 0 {
		return true
	}
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, entry := range set {
		entry = strings.ToUpper(strings.TrimSpace(entry))
		if entry == ApplicabilityAll || entry == value {
			return true
		}
	}
	return false
}

// WithinAmountBounds reports whether amount falls inside [minimum, maximum].
func (t *TaxRate) WithinAmountBounds(amount int64) bool {
	if t.MinimumAmount != nil && amount < *t.MinimumAmount {
		return false
	}
	if t.MaximumAmount != nil && amount > *t.MaximumAmount {
		return false
	}
	return true
}
