package domain

import "context"

// Service is the calculation orchestrator contract.
type Service interface {
	CalculateTax(ctx context.Context, req CalculationRequest, opts CalculationOptions) (*CalculationResult, error)
	CalculateBatch(ctx context.Context, reqs []CalculationRequest, opts CalculationOptions) []BatchItemResult
	ApplyTaxExemptions(result *CalculationResult, certificates []ExemptionCertificate)
}
