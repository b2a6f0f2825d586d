// Package vertex delegates tax calculation to a Vertex-compatible
// quotation endpoint and normalizes the assessed taxes per line.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/config"
	"github.com/billingkit/taxengine/internal/taxcalc/domain"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"go.uber.org/zap"
)

const providerName = "vertex"

// Vertex flexible-field product classes by canonical product type.
var productClassByType = map[string]string{
	"SUBSCRIPTIONS":    "SaaS-SUBSCRIPTION",
	"DIGITAL_SERVICES": "DIGITAL-SERVICE",
	"SOFTWARE":         "SOFTWARE-LICENSE",
	"CONSULTING":       "PROF-SERVICE",
	"GOODS":            "TPP-GENERAL",
}

const defaultProductClass = "TPP-GENERAL"

type Provider struct {
	log    *zap.Logger
	cfg    config.ProviderConfig
	clock  clock.Clock
	client *http.Client
}

func New(cfg config.ProviderConfig, log *zap.Logger, clk clock.Clock) *Provider {
	return &Provider{
		log:    log.Named("taxprovider.vertex"),
		cfg:    cfg,
		clock:  clk,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Provider) Name() string { return providerName }

type quotationRequest struct {
	DocumentDate string         `json:"documentDate"`
	Currency     currencyField  `json:"currency"`
	Customer     customerField  `json:"customer"`
	LineItems    []quotedLine   `json:"lineItems"`
	Destination  locationFields `json:"destination"`
}

type currencyField struct {
	IsoCurrencyCodeAlpha string `json:"isoCurrencyCodeAlpha"`
}

type customerField struct {
	CustomerCode string `json:"customerCode"`
}

type locationFields struct {
	StreetAddress1 string `json:"streetAddress1,omitempty"`
	City           string `json:"city"`
	MainDivision   string `json:"mainDivision,omitempty"`
	PostalCode     string `json:"postalCode"`
	Country        string `json:"country"`
}

type quotedLine struct {
	LineItemNumber string  `json:"lineItemNumber"`
	ProductClass   string  `json:"productClass"`
	ExtendedPrice  float64 `json:"extendedPrice"`
	Quantity       int64   `json:"quantity"`
}

type quotationResponse struct {
	TotalTax  float64        `json:"totalTax"`
	LineItems []assessedLine `json:"lineItems"`
}

type assessedLine struct {
	LineItemNumber string        `json:"lineItemNumber"`
	ExtendedPrice  float64       `json:"extendedPrice"`
	Taxes          []assessedTax `json:"taxes"`
}

type assessedTax struct {
	Jurisdiction struct {
		Value            string `json:"value"`
		JurisdictionType string `json:"jurisdictionType"`
	} `json:"jurisdiction"`
	TaxType       string  `json:"taxType"`
	EffectiveRate float64 `json:"effectiveRate"`
	CalculatedTax float64 `json:"calculatedTax"`
}

func (p *Provider) CalculateTax(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error) {
	lines := make([]quotedLine, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lines = append(lines, quotedLine{
			LineItemNumber: item.ID,
			ProductClass:   lookupProductClass(item.ProductType),
			ExtendedPrice:  float64(item.Amount) / 100,
			Quantity:       item.Quantity,
		})
	}

	body := quotationRequest{
		DocumentDate: p.clock.Now().Format("2006-01-02"),
		Currency:     currencyField{IsoCurrencyCodeAlpha: strings.ToUpper(req.Currency)},
		Customer:     customerField{CustomerCode: req.CustomerID},
		LineItems:    lines,
		Destination: locationFields{
			StreetAddress1: req.BillingAddress.Line1,
			City:           req.BillingAddress.City,
			MainDivision:   req.BillingAddress.State,
			PostalCode:     req.BillingAddress.PostalCode,
			Country:        strings.ToUpper(req.BillingAddress.Country),
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/supplies/quote", bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, domain.NewProviderError(providerName, fmt.Errorf("vertex_request_failed_status_%d", resp.StatusCode))
	}

	var quotation quotationResponse
	if err := json.NewDecoder(resp.Body).Decode(&quotation); err != nil {
		return nil, domain.NewProviderError(providerName, domain.ErrInvalidResponse)
	}

	result := &domain.CalculationResult{
		Provider:     providerName,
		CalculatedAt: p.clock.Now(),
		TaxLines:     []domain.TaxLine{},
		Exemptions:   []domain.Exemption{},
		Confidence:   domain.ConfidenceHigh,
	}
	for _, line := range quotation.LineItems {
		for _, tax := range line.Taxes {
			result.TaxLines = append(result.TaxLines, domain.TaxLine{
				Jurisdiction:  tax.Jurisdiction.Value,
				TaxType:       normalizeTaxType(tax.TaxType),
				RatePercent:   tax.EffectiveRate * 100,
				TaxableAmount: toMinorUnits(line.ExtendedPrice),
				TaxAmount:     toMinorUnits(tax.CalculatedTax),
			})
		}
	}
	if len(result.TaxLines) == 0 && quotation.TotalTax > 0 {
		result.TaxLines = append(result.TaxLines, domain.TaxLine{
			Jurisdiction:  strings.ToUpper(req.BillingAddress.Country),
			TaxType:       taxratedomain.TaxTypeOther,
			TaxableAmount: req.TransactionTotal(),
			TaxAmount:     toMinorUnits(quotation.TotalTax),
		})
		result.Confidence = domain.ConfidenceMedium
	}
	result.TotalTaxAmount = result.SumTaxLines()
	return result, nil
}

func (p *Provider) HealthCheck(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Provider:  providerName,
		Timestamp: p.clock.Now(),
		Status:    domain.HealthStatusOK,
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/status", nil)
	if err != nil {
		status.Status = domain.HealthStatusUnreachable
		return status
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		status.Status = domain.HealthStatusUnreachable
		return status
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		status.Status = domain.HealthStatusUnreachable
	}
	return status
}

func lookupProductClass(productType string) string {
	if class, ok := productClassByType[strings.ToUpper(strings.TrimSpace(productType))]; ok {
		return class
	}
	return defaultProductClass
}

func normalizeTaxType(raw string) taxratedomain.TaxType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SALES", "SELLER_USE", "CONSUMER_USE":
		return taxratedomain.TaxTypeSalesTax
	case "VAT", "INPUT", "OUTPUT":
		return taxratedomain.TaxTypeVAT
	case "GST":
		return taxratedomain.TaxTypeGST
	default:
		return taxratedomain.TaxTypeOther
	}
}

func toMinorUnits(amount float64) int64 {
	if amount < 0 {
		return 0
	}
	return int64(amount*100 + 0.5)
}
