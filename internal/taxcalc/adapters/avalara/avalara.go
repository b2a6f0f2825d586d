// Package avalara delegates tax calculation to an AvaTax-compatible
// REST endpoint and normalizes its summary into canonical tax lines.
package avalara

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

const providerName = "avalara"

// AvaTax item codes by canonical product type.
var taxCodeByProductType = map[string]string{
	"SUBSCRIPTIONS":    "SW054000",
	"DIGITAL_SERVICES": "D0000000",
	"SOFTWARE":         "SW050400",
	"CONSULTING":       "P0000000",
	"GOODS":            "PC040100",
}

const defaultTaxCode = "P0000000"

type Provider struct {
	log     *zap.Logger
	cfg     config.ProviderConfig
	clock   clock.Clock
	client  *http.Client
	company string
}

func New(cfg config.ProviderConfig, log *zap.Logger, clk clock.Clock) *Provider {
	return &Provider{
		log:    log.Named("taxprovider.avalara"),
		cfg:    cfg,
		clock:  clk,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Provider) Name() string { return providerName }

type transactionRequest struct {
	Type         string            `json:"type"`
	Date         string            `json:"date"`
	CustomerCode string            `json:"customerCode"`
	CurrencyCode string            `json:"currencyCode"`
	Addresses    addresses         `json:"addresses"`
	Lines        []transactionLine `json:"lines"`
}

type addresses struct {
	ShipTo address `json:"shipTo"`
}

type address struct {
	Line1      string `json:"line1,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type transactionLine struct {
	Number  string  `json:"number"`
	Amount  float64 `json:"amount"`
	TaxCode string  `json:"taxCode"`
}

type transactionResponse struct {
	TotalTax float64        `json:"totalTax"`
	Summary  []summaryEntry `json:"summary"`
}

type summaryEntry struct {
	JurisName string  `json:"jurisName"`
	JurisType string  `json:"jurisType"`
	TaxType   string  `json:"taxType"`
	Rate      float64 `json:"rate"`
	Taxable   float64 `json:"taxable"`
	Tax       float64 `json:"tax"`
}

func (p *Provider) CalculateTax(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error) {
	lines := make([]transactionLine, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lines = append(lines, transactionLine{
			Number:  item.ID,
			Amount:  float64(item.Amount) / 100,
			TaxCode: lookupTaxCode(item.ProductType),
		})
	}

	body := transactionRequest{
		Type:         "SalesOrder",
		Date:         p.clock.Now().Format("2006-01-02"),
		CustomerCode: req.CustomerID,
		CurrencyCode: strings.ToUpper(req.Currency),
		Addresses: addresses{ShipTo: address{
			Line1:      req.BillingAddress.Line1,
			City:       req.BillingAddress.City,
			Region:     req.BillingAddress.State,
			PostalCode: req.BillingAddress.PostalCode,
			Country:    req.BillingAddress.Country,
		}},
		Lines: lines,
	}

	var resp transactionResponse
	if err := p.post(ctx, "/transactions/create", body, &resp); err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}

	result := &domain.CalculationResult{
		Provider:     providerName,
		CalculatedAt: p.clock.Now(),
		TaxLines:     []domain.TaxLine{},
		Exemptions:   []domain.Exemption{},
		Confidence:   domain.ConfidenceHigh,
	}
	for _, entry := range resp.Summary {
		result.TaxLines = append(result.TaxLines, domain.TaxLine{
			Jurisdiction:  entry.JurisName,
			TaxType:       normalizeTaxType(entry.TaxType),
			RatePercent:   entry.Rate * 100,
			TaxableAmount: toMinorUnits(entry.Taxable),
			TaxAmount:     toMinorUnits(entry.Tax),
		})
	}
	if len(result.TaxLines) == 0 && resp.TotalTax > 0 {
		// Total without a breakdown: keep the amount, flag the gap.
		result.TaxLines = append(result.TaxLines, domain.TaxLine{
			Jurisdiction:  strings.ToUpper(req.BillingAddress.Country),
			TaxType:       taxratedomain.TaxTypeOther,
			TaxableAmount: req.TransactionTotal(),
			TaxAmount:     toMinorUnits(resp.TotalTax),
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

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/utilities/ping", nil)
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

func (p *Provider) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("avalara_request_failed_status_%d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.ErrInvalidResponse
	}
	return nil
}

func lookupTaxCode(productType string) string {
	if code, ok := taxCodeByProductType[strings.ToUpper(strings.TrimSpace(productType))]; ok {
		return code
	}
	return defaultTaxCode
}

func normalizeTaxType(raw string) taxratedomain.TaxType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SALES", "SALESTAX", "SALES_TAX", "USE":
		return taxratedomain.TaxTypeSalesTax
	case "VAT":
		return taxratedomain.TaxTypeVAT
	case "GST":
		return taxratedomain.TaxTypeGST
	case "EXCISE":
		return taxratedomain.TaxTypeExcise
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
