package taxjar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/config"
	"github.com/billingkit/taxengine/internal/taxcalc/domain"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(baseURL string) *Provider {
	return New(
		config.ProviderConfig{Enabled: true, BaseURL: baseURL, APIKey: "test-key"},
		zap.NewNop(),
		clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)),
	)
}

func calcRequest() domain.CalculationRequest {
	return domain.CalculationRequest{
		CustomerID: "cust_1",
		Currency:   "USD",
		LineItems: []domain.LineItem{
			{ID: "li_1", Quantity: 1, UnitPrice: 10000, Amount: 10000, ProductType: "SUBSCRIPTIONS"},
		},
		BillingAddress: domain.Address{City: "Seattle", State: "WA", PostalCode: "98101", Country: "US"},
	}
}

func TestCalculateTaxBreakdown(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/taxes", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body taxesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "US", body.ToCountry)
		require.Equal(t, "98101", body.ToZip)
		require.Len(t, body.LineItems, 1)
		require.Equal(t, "30070", body.LineItems[0].ProductTaxCode)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"tax": map[string]any{
				"amount_to_collect": 10.25,
				"rate":              0.1025,
				"taxable_amount":    100.0,
				"breakdown": map[string]any{
					"jurisdictions": []map[string]any{
						{"name": "WASHINGTON", "level": "state", "rate": 0.065, "taxable_amount": 100.0, "tax_collected": 6.5},
						{"name": "SEATTLE", "level": "city", "rate": 0.0375, "taxable_amount": 100.0, "tax_collected": 3.75},
					},
				},
			},
		})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	result, err := provider.CalculateTax(context.Background(), calcRequest())
	require.NoError(t, err)

	require.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, result.TaxLines, 2)
	require.Equal(t, "US/WASHINGTON", result.TaxLines[0].Jurisdiction)
	require.Equal(t, taxratedomain.TaxTypeSalesTax, result.TaxLines[0].TaxType)
	require.InDelta(t, 6.5, result.TaxLines[0].RatePercent, 0.0001)
	require.Equal(t, int64(650), result.TaxLines[0].TaxAmount)
	require.Equal(t, int64(375), result.TaxLines[1].TaxAmount)
	require.Equal(t, int64(1025), result.TotalTaxAmount)
	require.Equal(t, domain.ConfidenceHigh, result.Confidence)
}

func TestCalculateTaxFallbackWithoutBreakdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tax": map[string]any{
				"amount_to_collect": 8.0,
				"rate":              0.08,
				"taxable_amount":    100.0,
			},
		})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	result, err := provider.CalculateTax(context.Background(), calcRequest())
	require.NoError(t, err)

	require.Len(t, result.TaxLines, 1)
	require.Equal(t, "US", result.TaxLines[0].Jurisdiction)
	require.Equal(t, int64(800), result.TotalTaxAmount)
	require.Equal(t, domain.ConfidenceMedium, result.Confidence)
}

func TestCalculateTaxUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.CalculateTax(context.Background(), calcRequest())
	require.Error(t, err)

	var providerErr *domain.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, "taxjar", providerErr.Provider)
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/categories", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	status := newTestProvider(healthy.URL).HealthCheck(context.Background())
	require.Equal(t, domain.HealthStatusOK, status.Status)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	status = newTestProvider(failing.URL).HealthCheck(context.Background())
	require.Equal(t, domain.HealthStatusUnreachable, status.Status)
}
