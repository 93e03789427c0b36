package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type installmentHandler struct {
	installmentService portssvc.InstallmentSvcFacade
}

func registerInstallmentRoutes(rg *gin.RouterGroup, installmentService portssvc.InstallmentSvcFacade) {
	h := &installmentHandler{installmentService: installmentService}

	rg.POST("/installment-previews", h.previewSchedule)
	rg.POST("/installment-overdue-sweeps", h.sweepOverdue)
	invoices := rg.Group("/invoices/:invoiceID")
	{
		invoices.POST("/installments", h.generateSchedule)
		invoices.GET("/installments", h.listInstallments)
		invoices.GET("/installment-summary", h.getSummary)
		invoices.POST("/allocations", h.allocatePayment)
		invoices.POST("/overdue-check", h.updateOverdue)
	}
}

func (h *installmentHandler) previewSchedule(c *gin.Context) {
	var req dto.PreviewScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	lines, err := h.installmentService.PreviewSchedule(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "preview installment schedule")
		return
	}
	c.JSON(http.StatusOK, dto.ScheduleResponse{Total: req.Total, Installments: lines})
}

func (h *installmentHandler) generateSchedule(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.GenerateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	installments, err := h.installmentService.GenerateSchedule(c.Request.Context(), invoiceID, req, userID)
	if err != nil {
		respondError(c, err, "generate installment schedule")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Installment schedule generated",
		slog.Int64("invoice_id", invoiceID), slog.Int("installments", len(installments)))
	c.JSON(http.StatusCreated, installments)
}

func (h *installmentHandler) listInstallments(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	installments, err := h.installmentService.ListInstallments(c.Request.Context(), invoiceID)
	if err != nil {
		respondError(c, err, "list installments")
		return
	}
	c.JSON(http.StatusOK, installments)
}

func (h *installmentHandler) getSummary(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	summary, err := h.installmentService.GetInstallmentSummary(c.Request.Context(), invoiceID)
	if err != nil {
		respondError(c, err, "summarize installments")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// allocatePayment is idempotent per payment: a replay returns the recorded allocation.
func (h *installmentHandler) allocatePayment(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.AllocatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.installmentService.AllocatePayment(c.Request.Context(), invoiceID, req.PaymentID, userID)
	if err != nil {
		respondError(c, err, "allocate payment")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *installmentHandler) updateOverdue(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoiceID")
	if !ok {
		return
	}
	var req dto.OverdueRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	now := req.NowOrZero()

	changed, err := h.installmentService.UpdateOverdueStatus(c.Request.Context(), invoiceID, now)
	if err != nil {
		respondError(c, err, "update overdue installments")
		return
	}
	c.JSON(http.StatusOK, dto.OverdueResponse{Changed: changed})
}

func (h *installmentHandler) sweepOverdue(c *gin.Context) {
	var req dto.OverdueRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	changed, err := h.installmentService.UpdateAllOverdue(c.Request.Context(), req.NowOrZero())
	if err != nil {
		respondError(c, err, "sweep overdue installments")
		return
	}
	c.JSON(http.StatusOK, dto.OverdueResponse{Changed: changed})
}
