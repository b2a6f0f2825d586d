package service

import (
	"context"
	"strings"
	"time"

	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/config"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters"
	"github.com/billingkit/taxengine/internal/taxcalc/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Registry *adapters.Registry
	Clock    clock.Clock
	Metrics  *Metrics `optional:"true"`
}

// Orchestrator validates requests, dispatches to the selected provider
// and applies the post-processing policies (safety cap, exemptions).
type Orchestrator struct {
	log             *zap.Logger
	registry        *adapters.Registry
	clock           clock.Clock
	metrics         *Metrics
	defaultProvider string
	batchSize       int
	batchDelay      time.Duration
}

func NewOrchestrator(p Params) domain.Service {
	batchSize := p.Cfg.Tax.BatchSize
	if batchSize <= 0 {
		batchSize = 25
	}
	return &Orchestrator{
		log:             p.Log.Named("taxcalc.service"),
		registry:        p.Registry,
		clock:           p.Clock,
		metrics:         p.Metrics,
		defaultProvider: p.Cfg.Tax.DefaultProvider,
		batchSize:       batchSize,
		batchDelay:      p.Cfg.Tax.BatchDelay,
	}
}

func (o *Orchestrator) CalculateTax(ctx context.Context, req domain.CalculationRequest, opts domain.CalculationOptions) (*domain.CalculationResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(opts.Provider))
	if name == "" {
		name = o.defaultProvider
	}
	provider, err := o.registry.Get(name)
	if err != nil {
		return nil, err
	}

	result, err := provider.CalculateTax(ctx, req)
	if err != nil {
		o.metrics.RecordCalculation(name, "error")
		return nil, domain.NewProviderError(name, err)
	}

	o.normalize(result, name)
	result.TotalTaxAmount = result.SumTaxLines()

	if len(opts.Certificates) > 0 {
		o.ApplyTaxExemptions(result, opts.Certificates)
	}

	// The cap runs last: the exemption pass recomputes the total from
	// the tax lines, which the cap intentionally leaves uncapped.
	o.applyCap(result, name, req.TransactionTotal())

	o.metrics.RecordCalculation(name, "ok")
	return result, nil
}

// applyCap clamps over-taxation to half the transaction total and
// demotes the confidence, instead of failing the call. Only the total
// is clamped; tax lines keep the provider's amounts.
func (o *Orchestrator) applyCap(result *domain.CalculationResult, provider string, transactionTotal int64) {
	if result.TotalTaxAmount <= transactionTotal {
		return
	}
	capped := transactionTotal / 2
	if capped >= result.TotalTaxAmount {
		return
	}
	o.log.Warn("tax exceeds transaction total, capping",
		zap.String("provider", provider),
		zap.Int64("total_tax", result.TotalTaxAmount),
		zap.Int64("transaction_total", transactionTotal),
		zap.Int64("capped_tax", capped),
	)
	result.TotalTaxAmount = capped
	result.Confidence = domain.ConfidenceLow
	o.metrics.RecordCapped(provider)
}

// ApplyTaxExemptions zeroes matching tax lines for every time-valid
// certificate and recomputes the total from the remaining lines.
// Invalid or expired certificates are skipped without error.
func (o *Orchestrator) ApplyTaxExemptions(result *domain.CalculationResult, certificates []domain.ExemptionCertificate) {
	if result == nil || len(certificates) == 0 {
		return
	}
	now := o.clock.Now()

	for ci := range certificates {
		cert := &certificates[ci]
		if !cert.ValidAt(now) {
			continue
		}
		for li := range result.TaxLines {
			line := &result.TaxLines[li]
			if line.TaxAmount == 0 || !cert.Matches(*line) {
				continue
			}
			exempted := line.TaxAmount
			line.ExemptAmount += exempted
			line.TaxAmount = 0
			result.Exemptions = append(result.Exemptions, domain.Exemption{
				Reason:            cert.Reason,
				Amount:            exempted,
				CertificateNumber: cert.CertificateNumber,
			})
		}
	}

	result.TotalTaxAmount = result.SumTaxLines()
}

// CalculateBatch processes requests in bounded chunks with a delay
// between chunks to respect external rate limits. Items fail and
// succeed independently; no retries happen here.
func (o *Orchestrator) CalculateBatch(ctx context.Context, reqs []domain.CalculationRequest, opts domain.CalculationOptions) []domain.BatchItemResult {
	results := make([]domain.BatchItemResult, 0, len(reqs))

	for start := 0; start < len(reqs); start += o.batchSize {
		if start > 0 && o.batchDelay > 0 {
			select {
			case <-ctx.Done():
				for i := start; i < len(reqs); i++ {
					results = append(results, domain.BatchItemResult{Index: i, Err: ctx.Err()})
				}
				return results
			case <-time.After(o.batchDelay):
			}
		}

		end := start + o.batchSize
		if end > len(reqs) {
			end = len(reqs)
		}
		for i := start; i < end; i++ {
			result, err := o.CalculateTax(ctx, reqs[i], opts)
			results = append(results, domain.BatchItemResult{Index: i, Result: result, Err: err})
		}
	}
	return results
}

func (o *Orchestrator) normalize(result *domain.CalculationResult, provider string) {
	if result.Provider == "" {
		result.Provider = provider
	}
	if result.CalculatedAt.IsZero() {
		result.CalculatedAt = o.clock.Now()
	}
	if result.TaxLines == nil {
		result.TaxLines = []domain.TaxLine{}
	}
	if result.Exemptions == nil {
		result.Exemptions = []domain.Exemption{}
	}
	if result.Confidence == "" {
		result.Confidence = domain.ConfidenceHigh
	}
}

func validate(req domain.CalculationRequest) error {
	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.ErrMissingCustomer
	}
	if len(req.LineItems) == 0 {
		return domain.ErrMissingLineItems
	}
	if strings.TrimSpace(req.BillingAddress.Country) == "" {
		return domain.ErrMissingCountry
	}
	if strings.TrimSpace(req.BillingAddress.City) == "" {
		return domain.ErrMissingCity
	}
	if strings.TrimSpace(req.BillingAddress.PostalCode) == "" {
		return domain.ErrMissingPostalCode
	}
	if strings.TrimSpace(req.Currency) == "" {
		return domain.ErrMissingCurrency
	}
	return nil
}
