package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/billingkit/taxengine/internal/invoice/export"
	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) GetInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) ListInvoices(c *gin.Context) {
	req, err := bindInvoiceListRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) FinalizeInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) RecordInvoicePayment(c *gin.Context) {
	var req invoicedomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	payments, err := s.invoiceSvc.Payments(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) VoidInvoice(c *gin.Context) {
	var req invoicedomain.VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Void(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) MarkInvoiceUncollectible(c *gin.Context) {
	invoice, err := s.invoiceSvc.MarkUncollectible(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) ExportInvoices(c *gin.Context) {
	req, err := bindInvoiceListRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="invoices.csv"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, invoices); err != nil {
		_ = c.Error(err)
	}
}

func bindInvoiceListRequest(c *gin.Context) (invoicedomain.ListRequest, error) {
	var query struct {
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
		Limit      string `form:"limit"`
		Offset     string `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return invoicedomain.ListRequest{}, invalidRequestError()
	}

	limit, err := parseOptionalInt(query.Limit, 0)
	if err != nil {
		return invoicedomain.ListRequest{}, newValidationError("limit", "invalid_limit", "invalid limit")
	}
	offset, err := parseOptionalInt(query.Offset, 0)
	if err != nil {
		return invoicedomain.ListRequest{}, newValidationError("offset", "invalid_offset", "invalid offset")
	}

	return invoicedomain.ListRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		Status:     invoicedomain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(query.Status))),
		Limit:      limit,
		Offset:     offset,
	}, nil
}
