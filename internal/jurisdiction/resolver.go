// Package jurisdiction decides which tax rates apply to a transaction
// and how much tax each one contributes.
package jurisdiction

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/billingkit/taxengine/internal/clock"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Location is the jurisdiction lookup key for a transaction.
type Location struct {
	Country    string
	State      string
	City       string
	PostalCode string
}

type Params struct {
	fx.In

	Log   *zap.Logger
	Repo  taxratedomain.Repository
	Clock clock.Clock
}

type Resolver struct {
	log   *zap.Logger
	repo  taxratedomain.Repository
	clock clock.Clock
}

func NewResolver(p Params) *Resolver {
	return &Resolver{
		log:   p.Log.Named("jurisdiction.resolver"),
		repo:  p.Repo,
		clock: p.Clock,
	}
}

// IsApplicable runs the full filter chain for a single rate.
func (r *Resolver) IsApplicable(rate *taxratedomain.TaxRate, loc Location, customerType, productType string, amount int64, now time.Time) bool {
	if !rate.Active {
		return false
	}
	if !rate.EffectiveAt(now) {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(rate.Country), strings.TrimSpace(loc.Country)) {
		return false
	}
	if rate.State != nil && strings.TrimSpace(*rate.State) != "" {
		if !strings.EqualFold(strings.TrimSpace(*rate.State), strings.TrimSpace(loc.State)) {
			return false
		}
	}
	if !rate.AppliesToCustomer(customerType) {
		return false
	}
	if !rate.AppliesToProduct(productType) {
		return false
	}
	if !rate.WithinAmountBounds(amount) {
		return false
	}
	return true
}

// GetApplicableTaxRates returns every applicable rate ordered by
// specificity descending. Multiple applicable rates all stack; the
// caller accumulates compounding across them in this order.
func (r *Resolver) GetApplicableTaxRates(ctx context.Context, loc Location, customerType, productType string, amount int64) ([]taxratedomain.TaxRate, error) {
	now := r.clock.Now()
	candidates, err := r.repo.ListActive(ctx, loc.Country, now)
	if err != nil {
		return nil, err
	}

	applicable := make([]taxratedomain.TaxRate, 0, len(candidates))
	for i := range candidates {
		if r.IsApplicable(&candidates[i], loc, customerType, productType, amount, now) {
			applicable = append(applicable, candidates[i])
		}
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Specificity() > applicable[j].Specificity()
	})

	r.log.Debug("resolved tax rates",
		zap.String("country", loc.Country),
		zap.Int("candidates", len(candidates)),
		zap.Int("applicable", len(applicable)),
	)
	return applicable, nil
}

// CalculateTax computes the tax a rate contributes. Compounding rates
// tax the base plus the tax already accumulated on it.
// Rounding happens only here to keep stored values integer-safe.
func CalculateTax(amount, compoundedSoFar int64, rate *taxratedomain.TaxRate) int64 {
	base := amount
	if rate.Compound {
		base += compoundedSoFar
	}
	tax := float64(base) * rate.RatePercent / 100
	result := int64(math.Round(tax))
	if result < 0 {
		return 0
	}
	return result
}
