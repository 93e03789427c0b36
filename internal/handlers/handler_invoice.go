package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
	ledgerService  portssvc.LedgerSvcFacade
}

func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := &invoiceHandler{invoiceService: invoiceService, ledgerService: ledgerService}

	rg.POST("/invoice-calculations", h.calculate)
	invoices := rg.Group("/invoices/:invoiceID")
	{
		invoices.GET("", h.getInvoice)
		invoices.PATCH("", h.updateInvoice)
		invoices.POST("/payment-validation", h.validatePayment)
		invoices.POST("/cancel", h.cancelInvoice)
	}
}

// calculate runs the pure calculator; nothing is persisted.
func (h *invoiceHandler) calculate(c *gin.Context) {
	var req dto.CalculateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.invoiceService.Calculate(req)
	if err != nil {
		respondError(c, err, "calculate invoice")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *invoiceHandler) getInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		respondError(c, err, "retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// updateInvoice accepts a partial document. Writing dueAmount, paidTotal or status
// yields 422 with kind "integrity".
func (h *invoiceHandler) updateInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error(), "kind": "validation"})
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), invoiceID, req, userID)
	if err != nil {
		respondError(c, err, "update invoice")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Invoice updated", slog.Int64("invoice_id", invoiceID))
	c.JSON(http.StatusOK, invoice)
}

func (h *invoiceHandler) validatePayment(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	var req dto.ValidatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.invoiceService.ValidatePayment(c.Request.Context(), invoiceID, req); err != nil {
		respondError(c, err, "validate payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// cancelInvoice reverses the enrollment journal and stamps the cancellation.
func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CancelInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.ledgerService.CancelInvoice(c.Request.Context(), invoiceID, req.Reason, userID)
	if err != nil {
		respondError(c, err, "cancel invoice")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Invoice canceled", slog.Int64("invoice_id", invoiceID))
	c.JSON(http.StatusOK, invoice)
}
