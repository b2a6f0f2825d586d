package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
)

type createTaxRateRequest struct {
	Name              string         `json:"name"`
	Country           string         `json:"country"`
	State             *string        `json:"state"`
	City              *string        `json:"city"`
	PostalCode        *string        `json:"postal_code"`
	TaxType           string         `json:"tax_type"`
	RatePercent       float64        `json:"rate_percent"`
	Compound          bool           `json:"compound"`
	ProductTypes      []string       `json:"product_types"`
	CustomerTypes     []string       `json:"customer_types"`
	MinimumAmount     *int64         `json:"minimum_amount"`
	MaximumAmount     *int64         `json:"maximum_amount"`
	RevenueThreshold  *int64         `json:"revenue_threshold"`
	VATExempt         bool           `json:"vat_exempt"`
	ReverseCharge     bool           `json:"reverse_charge"`
	ExemptEntityTypes []string       `json:"exempt_entity_types"`
	EffectiveFrom     *time.Time     `json:"effective_from"`
	EffectiveTo       *time.Time     `json:"effective_to"`
	ProviderRefs      map[string]any `json:"provider_refs"`
	Metadata          map[string]any `json:"metadata"`
}

type updateTaxRateRequest struct {
	Name          *string    `json:"name,omitempty"`
	RatePercent   *float64   `json:"rate_percent,omitempty"`
	Compound      *bool      `json:"compound,omitempty"`
	ProductTypes  []string   `json:"product_types,omitempty"`
	CustomerTypes []string   `json:"customer_types,omitempty"`
	MinimumAmount *int64     `json:"minimum_amount,omitempty"`
	MaximumAmount *int64     `json:"maximum_amount,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
}

func (s *Server) CreateTaxRate(c *gin.Context) {
	var req createTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	create := taxratedomain.CreateRequest{
		Name:              strings.TrimSpace(req.Name),
		Country:           strings.TrimSpace(req.Country),
		State:             req.State,
		City:              req.City,
		PostalCode:        req.PostalCode,
		TaxType:           taxratedomain.TaxType(strings.ToUpper(strings.TrimSpace(req.TaxType))),
		RatePercent:       req.RatePercent,
		Compound:          req.Compound,
		ProductTypes:      req.ProductTypes,
		CustomerTypes:     req.CustomerTypes,
		MinimumAmount:     req.MinimumAmount,
		MaximumAmount:     req.MaximumAmount,
		RevenueThreshold:  req.RevenueThreshold,
		VATExempt:         req.VATExempt,
		ReverseCharge:     req.ReverseCharge,
		ExemptEntityTypes: req.ExemptEntityTypes,
		EffectiveTo:       req.EffectiveTo,
		ProviderRefs:      req.ProviderRefs,
		Metadata:          req.Metadata,
	}
	if req.EffectiveFrom != nil {
		create.EffectiveFrom = *req.EffectiveFrom
	}

	resp, err := s.taxRateSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTaxRates(c *gin.Context) {
	var query struct {
		Country string `form:"country"`
		TaxType string `form:"tax_type"`
		Active  string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.taxRateSvc.List(c.Request.Context(), taxratedomain.ListRequest{
		Country: strings.TrimSpace(query.Country),
		TaxType: strings.ToUpper(strings.TrimSpace(query.TaxType)),
		Active:  active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTaxRate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req updateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxRateSvc.Update(c.Request.Context(), taxratedomain.UpdateRequest{
		ID:            id,
		Name:          req.Name,
		RatePercent:   req.RatePercent,
		Compound:      req.Compound,
		ProductTypes:  req.ProductTypes,
		CustomerTypes: req.CustomerTypes,
		MinimumAmount: req.MinimumAmount,
		MaximumAmount: req.MaximumAmount,
		EffectiveTo:   req.EffectiveTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableTaxRate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.taxRateSvc.Disable(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
