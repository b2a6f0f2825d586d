// Package manual implements the provider backed by the local
// jurisdiction resolver instead of an external tax service.
package manual

import (
	"context"

	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/jurisdiction"
	"github.com/billingkit/taxengine/internal/reversecharge"
	"github.com/billingkit/taxengine/internal/taxcalc/domain"
	"go.uber.org/zap"
)

const providerName = "manual"

type Provider struct {
	log      *zap.Logger
	resolver *jurisdiction.Resolver
	charge   *reversecharge.Evaluator
	clock    clock.Clock
}

func New(log *zap.Logger, resolver *jurisdiction.Resolver, charge *reversecharge.Evaluator, clk clock.Clock) *Provider {
	return &Provider{
		log:      log.Named("taxprovider.manual"),
		resolver: resolver,
		charge:   charge,
		clock:    clk,
	}
}

func (p *Provider) Name() string { return providerName }

// CalculateTax emits one tax line per (line item, applicable rate).
// The compounded base accumulates across the specificity-sorted rates
// of each line item, so compounding rates tax prior tax.
func (p *Provider) CalculateTax(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error) {
	loc := jurisdiction.Location{
		Country:    req.BillingAddress.Country,
		State:      req.BillingAddress.State,
		City:       req.BillingAddress.City,
		PostalCode: req.BillingAddress.PostalCode,
	}

	result := &domain.CalculationResult{
		Provider:     providerName,
		CalculatedAt: p.clock.Now(),
		TaxLines:     []domain.TaxLine{},
		Exemptions:   []domain.Exemption{},
		Confidence:   domain.ConfidenceHigh,
	}

	for _, item := range req.LineItems {
		rates, err := p.resolver.GetApplicableTaxRates(ctx, loc, req.CustomerType, item.ProductType, item.Amount)
		if err != nil {
			return nil, domain.NewProviderError(providerName, err)
		}

		var compounded int64
		for i := range rates {
			rate := &rates[i]
			tax := jurisdiction.CalculateTax(item.Amount, compounded, rate)
			result.TaxLines = append(result.TaxLines, domain.TaxLine{
				Jurisdiction:  rate.Jurisdiction(),
				TaxType:       rate.TaxType,
				RatePercent:   rate.RatePercent,
				TaxableAmount: item.Amount,
				TaxAmount:     tax,
			})
			compounded += tax
		}
	}

	result.ReverseCharge = p.charge.Evaluate(req.BillingAddress.Country, req.BillingAddress.VATNumber)
	result.TotalTaxAmount = result.SumTaxLines()
	return result, nil
}

func (p *Provider) HealthCheck(ctx context.Context) domain.HealthStatus {
	_ = ctx
	return domain.HealthStatus{
		Status:    domain.HealthStatusOK,
		Provider:  providerName,
		Timestamp: p.clock.Now(),
	}
}
