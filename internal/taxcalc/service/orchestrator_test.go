package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/config"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters"
	"github.com/billingkit/taxengine/internal/taxcalc/domain"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"go.uber.org/zap"
)

type stubProvider struct {
	name   string
	result *domain.CalculationResult
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) CalculateTax(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	// copy so the orchestrator can mutate freely
	result := *s.result
	result.TaxLines = append([]domain.TaxLine(nil), s.result.TaxLines...)
	return &result, nil
}

func (s *stubProvider) HealthCheck(ctx context.Context) domain.HealthStatus {
	return domain.HealthStatus{Status: domain.HealthStatusOK, Provider: s.name}
}

func newTestOrchestrator(t *testing.T, providers ...domain.TaxProvider) domain.Service {
	t.Helper()
	return NewOrchestrator(Params{
		Log:      zap.NewNop(),
		Cfg:      config.Config{Tax: config.TaxConfig{DefaultProvider: "stub", BatchSize: 2}},
		Registry: adapters.NewRegistry(providers...),
		Clock:    clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func validRequest() domain.CalculationRequest {
	return domain.CalculationRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
		LineItems: []domain.LineItem{
			{ID: "li_1", Quantity: 1, UnitPrice: 10000, Amount: 10000, ProductType: "SUBSCRIPTIONS"},
		},
		BillingAddress: domain.Address{
			City:       "Seattle",
			State:      "WA",
			PostalCode: "98101",
			Country:    "US",
		},
	}
}

func TestCalculateTaxValidation(t *testing.T) {
	svc := newTestOrchestrator(t, &stubProvider{name: "stub", result: &domain.CalculationResult{}})

	tests := []struct {
		name   string
		mutate func(*domain.CalculationRequest)
		want   error
	}{
		{"missing customer", func(r *domain.CalculationRequest) { r.CustomerID = "" }, domain.ErrMissingCustomer},
		{"missing line items", func(r *domain.CalculationRequest) { r.LineItems = nil }, domain.ErrMissingLineItems},
		{"missing country", func(r *domain.CalculationRequest) { r.BillingAddress.Country = "" }, domain.ErrMissingCountry},
		{"missing city", func(r *domain.CalculationRequest) { r.BillingAddress.City = "" }, domain.ErrMissingCity},
		{"missing postal code", func(r *domain.CalculationRequest) { r.BillingAddress.PostalCode = "" }, domain.ErrMissingPostalCode},
		{"missing currency", func(r *domain.CalculationRequest) { r.Currency = "" }, domain.ErrMissingCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.CalculateTax(context.Background(), req, domain.CalculationOptions{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCalculateTaxUnknownProvider(t *testing.T) {
	svc := newTestOrchestrator(t, &stubProvider{name: "stub", result: &domain.CalculationResult{}})

	_, err := svc.CalculateTax(context.Background(), validRequest(), domain.CalculationOptions{Provider: "nope"})
	if !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("err = %v, want %v", err, domain.ErrProviderNotFound)
	}
}

func TestCalculateTaxProviderErrorWrapped(t *testing.T) {
	cause := errors.New("upstream down")
	svc := newTestOrchestrator(t, &stubProvider{name: "stub", err: cause})

	_, err := svc.CalculateTax(context.Background(), validRequest(), domain.CalculationOptions{})

	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if providerErr.Provider != "stub" {
		t.Fatalf("provider = %q", providerErr.Provider)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause")
	}
}

func TestCalculateTaxDefaultsToConfiguredProvider(t *testing.T) {
	stub := &stubProvider{name: "stub", result: &domain.CalculationResult{
		TaxLines: []domain.TaxLine{{Jurisdiction: "US", TaxType: taxratedomain.TaxTypeSalesTax, TaxAmount: 800, TaxableAmount: 10000}},
	}}
	svc := newTestOrchestrator(t, stub)

	result, err := svc.CalculateTax(context.Background(), validRequest(), domain.CalculationOptions{})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected configured default provider to be called")
	}
	if result.Provider != "stub" {
		t.Fatalf("provider = %q", result.Provider)
	}
	if result.TotalTaxAmount != 800 {
		t.Fatalf("total tax = %d, want 800", result.TotalTaxAmount)
	}
	if result.Confidence != domain.ConfidenceHigh {
		t.Fatalf("confidence = %q", result.Confidence)
	}
	if result.CalculatedAt.IsZero() {
		t.Fatalf("expected calculated_at to be set")
	}
}

func TestCalculateTaxOverTaxationCap(t *testing.T) {
	// 150.00 of tax on a 100.00 transaction gets capped at 50.00
	stub := &stubProvider{name: "stub", result: &domain.CalculationResult{
		TaxLines: []domain.TaxLine{{Jurisdiction: "US", TaxType: taxratedomain.TaxTypeSalesTax, TaxAmount: 15000, TaxableAmount: 10000}},
	}}
	svc := newTestOrchestrator(t, stub)

	result, err := svc.CalculateTax(context.Background(), validRequest(), domain.CalculationOptions{})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if result.TotalTaxAmount != 5000 {
		t.Fatalf("total tax = %d, want 5000", result.TotalTaxAmount)
	}
	if result.Confidence != domain.ConfidenceLow {
		t.Fatalf("confidence = %q, want LOW", result.Confidence)
	}
}

func TestCalculateTaxCapSurvivesCertificates(t *testing.T) {
	// 150.00 of tax on a 100.00 transaction; the expired certificate is
	// skipped and must not lift the 50.00 cap.
	stub := &stubProvider{name: "stub", result: &domain.CalculationResult{
		TaxLines: []domain.TaxLine{{Jurisdiction: "US", TaxType: taxratedomain.TaxTypeSalesTax, TaxAmount: 15000, TaxableAmount: 10000}},
	}}
	svc := newTestOrchestrator(t, stub)

	expired := []domain.ExemptionCertificate{
		{CertificateNumber: "EXPIRED", ValidFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), ValidTo: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	result, err := svc.CalculateTax(context.Background(), validRequest(), domain.CalculationOptions{Certificates: expired})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if result.TotalTaxAmount != 5000 {
		t.Fatalf("total tax = %d, want 5000", result.TotalTaxAmount)
	}
	if result.Confidence != domain.ConfidenceLow {
		t.Fatalf("confidence = %q, want LOW", result.Confidence)
	}
	if len(result.Exemptions) != 0 {
		t.Fatalf("expected no exemptions recorded")
	}
}

func TestCalculateTaxValidCertificateZeroesBeforeCap(t *testing.T) {
	// A valid certificate removes the over-taxed line entirely, so no
	// cap fires and the confidence stays HIGH.
	stub := &stubProvider{name: "stub", result: &domain.CalculationResult{
		TaxLines: []domain.TaxLine{{Jurisdiction: "US", TaxType: taxratedomain.TaxTypeSalesTax, TaxAmount: 15000, TaxableAmount: 10000}},
	}}
	svc := newTestOrchestrator(t, stub)

	certs := []domain.ExemptionCertificate{
		{
			CertificateNumber: "CERT-1",
			Reason:            "nonprofit",
			ValidFrom:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:           time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	result, err := svc.CalculateTax(context.Background(), validRequest(), domain.CalculationOptions{Certificates: certs})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if result.TotalTaxAmount != 0 {
		t.Fatalf("total tax = %d, want 0", result.TotalTaxAmount)
	}
	if result.Confidence != domain.ConfidenceHigh {
		t.Fatalf("confidence = %q, want HIGH", result.Confidence)
	}
	if len(result.Exemptions) != 1 {
		t.Fatalf("exemptions = %d, want 1", len(result.Exemptions))
	}
}

func TestApplyTaxExemptions(t *testing.T) {
	svc := newTestOrchestrator(t, &stubProvider{name: "stub", result: &domain.CalculationResult{}})

	result := &domain.CalculationResult{
		TaxLines: []domain.TaxLine{
			{Jurisdiction: "US/WA", TaxType: taxratedomain.TaxTypeSalesTax, TaxableAmount: 10000, TaxAmount: 800},
		},
		TotalTaxAmount: 800,
		Exemptions:     []domain.Exemption{},
	}

	certs := []domain.ExemptionCertificate{
		{
			CertificateNumber: "CERT-1",
			Reason:            "nonprofit",
			ValidFrom:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:           time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			Jurisdiction:      "US",
		},
	}

	svc.ApplyTaxExemptions(result, certs)

	if result.TaxLines[0].TaxAmount != 0 {
		t.Fatalf("tax amount = %d, want 0", result.TaxLines[0].TaxAmount)
	}
	if result.TaxLines[0].ExemptAmount != 800 {
		t.Fatalf("exempt amount = %d, want 800", result.TaxLines[0].ExemptAmount)
	}
	if result.TotalTaxAmount != 0 {
		t.Fatalf("total tax = %d, want 0", result.TotalTaxAmount)
	}
	if len(result.Exemptions) != 1 {
		t.Fatalf("exemptions = %d, want 1", len(result.Exemptions))
	}
	if result.Exemptions[0].CertificateNumber != "CERT-1" || result.Exemptions[0].Amount != 800 {
		t.Fatalf("unexpected exemption %+v", result.Exemptions[0])
	}
}

func TestApplyTaxExemptionsSkipsInvalidCertificates(t *testing.T) {
	svc := newTestOrchestrator(t, &stubProvider{name: "stub", result: &domain.CalculationResult{}})

	result := &domain.CalculationResult{
		TaxLines:       []domain.TaxLine{{Jurisdiction: "US", TaxType: taxratedomain.TaxTypeSalesTax, TaxAmount: 800}},
		TotalTaxAmount: 800,
	}

	certs := []domain.ExemptionCertificate{
		{CertificateNumber: "", Reason: "no number", ValidFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{CertificateNumber: "EXPIRED", ValidFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), ValidTo: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{CertificateNumber: "WRONG-JURIS", ValidFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Jurisdiction: "DE"},
	}

	svc.ApplyTaxExemptions(result, certs)

	if result.TotalTaxAmount != 800 {
		t.Fatalf("total tax = %d, want 800 untouched", result.TotalTaxAmount)
	}
	if len(result.Exemptions) != 0 {
		t.Fatalf("expected no exemptions recorded")
	}
}

func TestCalculateBatchIndependentOutcomes(t *testing.T) {
	stub := &stubProvider{name: "stub", result: &domain.CalculationResult{
		TaxLines: []domain.TaxLine{{Jurisdiction: "US", TaxType: taxratedomain.TaxTypeSalesTax, TaxAmount: 100, TaxableAmount: 10000}},
	}}
	svc := newTestOrchestrator(t, stub)

	good := validRequest()
	bad := validRequest()
	bad.CustomerID = ""

	outcomes := svc.CalculateBatch(context.Background(), []domain.CalculationRequest{good, bad, good}, domain.CalculationOptions{})
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Result == nil {
		t.Fatalf("expected first to succeed, got %v", outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, domain.ErrMissingCustomer) {
		t.Fatalf("expected second to fail validation, got %v", outcomes[1].Err)
	}
	if outcomes[2].Err != nil {
		t.Fatalf("expected third to succeed after a failure, got %v", outcomes[2].Err)
	}
	if outcomes[2].Index != 2 {
		t.Fatalf("index = %d, want 2", outcomes[2].Index)
	}
}
