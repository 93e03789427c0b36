package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// errorStatus maps the error taxonomy to an HTTP status and a machine-readable kind.
// Integrity is checked before the business kinds since integrity errors may also
// wrap a business cause.
func errorStatus(err error) (int, string) {
	switch {
	case domain.IsImmutable(err):
		return http.StatusUnprocessableEntity, "immutable_journal"
	case errors.Is(err, apperrors.ErrIntegrity):
		return http.StatusUnprocessableEntity, "integrity"
	case errors.Is(err, apperrors.ErrConfiguration):
		return http.StatusInternalServerError, "configuration"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respondError logs err and writes the JSON error body. Internal failures get a
// generic message; every other kind carries the error text.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status, kind := errorStatus(err)
	attrs := []any{slog.String("error", err.Error()), slog.String("kind", kind)}

	switch kind {
	case "internal":
		logger.Error("Failed to "+action, attrs...)
		c.JSON(status, gin.H{"error": "Failed to " + action, "kind": kind})
	case "configuration", "integrity", "immutable_journal":
		logger.Error("Failed to "+action, attrs...)
		c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
	default:
		logger.Warn("Failed to "+action, attrs...)
		c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
	}
}

// bindJSON decodes and validates the body. It writes a 400 and returns false on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error(), "kind": "validation"})
		return false
	}
	if err := dto.Validate(req); err != nil {
		respondError(c, err, "validate request")
		return false
	}
	return true
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "kind": "validation"})
		return 0, false
	}
	return id, true
}

// currentUser reads the user id set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}
