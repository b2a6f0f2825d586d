// Package taxjar delegates tax calculation to a TaxJar-compatible
// endpoint and normalizes its jurisdiction breakdown.
package taxjar

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

const providerName = "taxjar"

// TaxJar product tax categories by canonical product type.
var categoryByProductType = map[string]string{
	"SUBSCRIPTIONS":    "30070",
	"DIGITAL_SERVICES": "31000",
	"SOFTWARE":         "30070",
	"CONSULTING":       "19005",
	"GOODS":            "00000",
}

const defaultCategory = "00000"

type Provider struct {
	log    *zap.Logger
	cfg    config.ProviderConfig
	clock  clock.Clock
	client *http.Client
}

func New(cfg config.ProviderConfig, log *zap.Logger, clk clock.Clock) *Provider {
	return &Provider{
		log:    log.Named("taxprovider.taxjar"),
		cfg:    cfg,
		clock:  clk,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Provider) Name() string { return providerName }

type taxesRequest struct {
	ToCountry string     `json:"to_country"`
	ToState   string     `json:"to_state,omitempty"`
	ToCity    string     `json:"to_city"`
	ToZip     string     `json:"to_zip"`
	Amount    float64    `json:"amount"`
	Shipping  float64    `json:"shipping"`
	LineItems []lineItem `json:"line_items"`
}

type lineItem struct {
	ID             string  `json:"id"`
	Quantity       int64   `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	ProductTaxCode string  `json:"product_tax_code"`
	Discount       float64 `json:"discount"`
}

type taxesResponse struct {
	Tax struct {
		AmountToCollect float64 `json:"amount_to_collect"`
		Rate            float64 `json:"rate"`
		TaxableAmount   float64 `json:"taxable_amount"`
		Breakdown       *struct {
			Jurisdictions []jurisdictionEntry `json:"jurisdictions"`
		} `json:"breakdown"`
	} `json:"tax"`
}

type jurisdictionEntry struct {
	Name          string  `json:"name"`
	Level         string  `json:"level"`
	Rate          float64 `json:"rate"`
	TaxableAmount float64 `json:"taxable_amount"`
	TaxCollected  float64 `json:"tax_collected"`
}

func (p *Provider) CalculateTax(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error) {
	items := make([]lineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		items = append(items, lineItem{
			ID:             item.ID,
			Quantity:       item.Quantity,
			UnitPrice:      float64(item.UnitPrice) / 100,
			ProductTaxCode: lookupCategory(item.ProductType),
			Discount:       float64(item.DiscountAmount) / 100,
		})
	}

	body := taxesRequest{
		ToCountry: strings.ToUpper(req.BillingAddress.Country),
		ToState:   req.BillingAddress.State,
		ToCity:    req.BillingAddress.City,
		ToZip:     req.BillingAddress.PostalCode,
		Amount:    float64(req.TransactionTotal()) / 100,
		LineItems: items,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/taxes", bytes.NewReader(payload))
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
		return nil, domain.NewProviderError(providerName, fmt.Errorf("taxjar_request_failed_status_%d", resp.StatusCode))
	}

	var taxes taxesResponse
	if err := json.NewDecoder(resp.Body).Decode(&taxes); err != nil {
		return nil, domain.NewProviderError(providerName, domain.ErrInvalidResponse)
	}

	result := &domain.CalculationResult{
		Provider:     providerName,
		CalculatedAt: p.clock.Now(),
		TaxLines:     []domain.TaxLine{},
		Exemptions:   []domain.Exemption{},
		Confidence:   domain.ConfidenceHigh,
	}

	if taxes.Tax.Breakdown != nil {
		for _, entry := range taxes.Tax.Breakdown.Jurisdictions {
			result.TaxLines = append(result.TaxLines, domain.TaxLine{
				Jurisdiction:  jurisdictionLabel(req.BillingAddress.Country, entry),
				TaxType:       taxratedomain.TaxTypeSalesTax,
				RatePercent:   entry.Rate * 100,
				TaxableAmount: toMinorUnits(entry.TaxableAmount),
				TaxAmount:     toMinorUnits(entry.TaxCollected),
			})
		}
	}
	if len(result.TaxLines) == 0 && taxes.Tax.AmountToCollect > 0 {
		result.TaxLines = append(result.TaxLines, domain.TaxLine{
			Jurisdiction:  strings.ToUpper(req.BillingAddress.Country),
			TaxType:       taxratedomain.TaxTypeSalesTax,
			RatePercent:   taxes.Tax.Rate * 100,
			TaxableAmount: toMinorUnits(taxes.Tax.TaxableAmount),
			TaxAmount:     toMinorUnits(taxes.Tax.AmountToCollect),
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

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/categories", nil)
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

func jurisdictionLabel(country string, entry jurisdictionEntry) string {
	label := strings.ToUpper(strings.TrimSpace(country))
	if name := strings.TrimSpace(entry.Name); name != "" && !strings.EqualFold(entry.Level, "country") {
		label += "/" + name
	}
	return label
}

func lookupCategory(productType string) string {
	if code, ok := categoryByProductType[strings.ToUpper(strings.TrimSpace(productType))]; ok {
		return code
	}
	return defaultCategory
}

func toMinorUnits(amount float64) int64 {
	if amount < 0 {
		return 0
	}
	return int64(amount*100 + 0.5)
}
