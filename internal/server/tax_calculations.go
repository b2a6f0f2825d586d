package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	taxcalcdomain "github.com/billingkit/taxengine/internal/taxcalc/domain"
)

type calculationRequest struct {
	CustomerID     string                               `json:"customer_id"`
	CustomerType   string                               `json:"customer_type"`
	Currency       string                               `json:"currency"`
	LineItems      []taxcalcdomain.LineItem             `json:"line_items"`
	BillingAddress taxcalcdomain.Address                `json:"billing_address"`
	Metadata       map[string]any                       `json:"metadata"`
	Provider       string                               `json:"provider"`
	Certificates   []taxcalcdomain.ExemptionCertificate `json:"exemption_certificates"`
}

type batchCalculationRequest struct {
	Provider     string                               `json:"provider"`
	Certificates []taxcalcdomain.ExemptionCertificate `json:"exemption_certificates"`
	Requests     []calculationRequest                 `json:"requests"`
}

type batchItemResponse struct {
	Index  int                              `json:"index"`
	Result *taxcalcdomain.CalculationResult `json:"result,omitempty"`
	Error  string                           `json:"error,omitempty"`
}

func (r calculationRequest) toDomain() taxcalcdomain.CalculationRequest {
	return taxcalcdomain.CalculationRequest{
		CustomerID:     r.CustomerID,
		CustomerType:   r.CustomerType,
		Currency:       r.Currency,
		LineItems:      r.LineItems,
		BillingAddress: r.BillingAddress,
		Metadata:       r.Metadata,
	}
}

func (s *Server) CalculateTax(c *gin.Context) {
	var req calculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.taxCalcSvc.CalculateTax(c.Request.Context(), req.toDomain(), taxcalcdomain.CalculationOptions{
		Provider:     req.Provider,
		Certificates: req.Certificates,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) CalculateTaxBatch(c *gin.Context) {
	var req batchCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Requests) == 0 {
		AbortWithError(c, newValidationError("requests", "missing_requests", "at least one request is required"))
		return
	}

	reqs := make([]taxcalcdomain.CalculationRequest, 0, len(req.Requests))
	for _, item := range req.Requests {
		reqs = append(reqs, item.toDomain())
	}

	outcomes := s.taxCalcSvc.CalculateBatch(c.Request.Context(), reqs, taxcalcdomain.CalculationOptions{
		Provider:     req.Provider,
		Certificates: req.Certificates,
	})

	items := make([]batchItemResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		item := batchItemResponse{
			Index:  outcome.Index,
			Result: outcome.Result,
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
