package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type pricingHandler struct {
	pricingService portssvc.PriceResolverSvcFacade
}

func registerPricingRoutes(rg *gin.RouterGroup, pricingService portssvc.PriceResolverSvcFacade) {
	h := &pricingHandler{pricingService: pricingService}

	rg.POST("/price-resolutions", h.resolvePrice)
	courses := rg.Group("/courses/:courseID")
	{
		courses.GET("/installments-allowed", h.installmentsAllowed)
		courses.POST("/pricing-choice", h.validatePricingChoice)
	}
}

// resolvePrice returns the most specific active price, or 404 when no tier matches.
func (h *pricingHandler) resolvePrice(c *gin.Context) {
	var req dto.PriceQuery
	if !bindJSON(c, &req) {
		return
	}

	price, found, err := h.pricingService.Resolve(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "resolve price")
		return
	}
	if !found {
		middleware.GetLoggerFromCtx(c.Request.Context()).Info("No price found", slog.Int64("course_id", req.CourseID))
		c.JSON(http.StatusNotFound, gin.H{"error": "No active price for course", "kind": "not_found"})
		return
	}
	c.JSON(http.StatusOK, price)
}

func (h *pricingHandler) installmentsAllowed(c *gin.Context) {
	courseID, ok := pathID(c, "courseID")
	if !ok {
		return
	}
	q := dto.PriceQuery{CourseID: courseID, RegistrationType: domain.RegistrationType(c.Query("deliveryType"))}
	if raw := c.Query("branchID"); raw != "" {
		branchID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branchID", "kind": "validation"})
			return
		}
		q.BranchID = &branchID
	}

	allowed, err := h.pricingService.AllowsInstallments(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "check installment eligibility")
		return
	}
	c.JSON(http.StatusOK, dto.InstallmentsAllowedResponse{CourseID: courseID, Allowed: allowed})
}

// validatePricingChoice always answers 200 for a well-formed request; incompatibility
// is reported in the body.
func (h *pricingHandler) validatePricingChoice(c *gin.Context) {
	courseID, ok := pathID(c, "courseID")
	if !ok {
		return
	}
	var req dto.PricingChoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.pricingService.ValidatePricingChoice(c.Request.Context(), courseID, req)
	if err != nil {
		respondError(c, err, "validate pricing choice")
		return
	}
	c.JSON(http.StatusOK, result)
}
