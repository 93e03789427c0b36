package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/SscSPs/course_billing_engine/internal/platform/metrics"
)

// systemUserID stamps rows changed by background jobs.
const systemUserID = "system"

// BaseService provides common functionality for all services
type BaseService struct {
	Metrics *metrics.Recorder
	Clock   func() time.Time
}

// ServiceOption is a functional option for configuring services
type ServiceOption func(*BaseService)

// WithMetrics attaches a prometheus recorder.
func WithMetrics(recorder *metrics.Recorder) ServiceOption {
	return func(s *BaseService) {
		s.Metrics = recorder
	}
}

// WithClock overrides the time source. Tests pin it.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *BaseService) {
		s.Clock = clock
	}
}

func (s *BaseService) apply(options []ServiceOption) {
	for _, option := range options {
		option(s)
	}
}

// now returns the current time in UTC.
func (s *BaseService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		// Return a default logger if not found in context
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrConfiguration):
		return "configuration"
	case errors.Is(err, apperrors.ErrIntegrity):
		return "integrity"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		return "conflict"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// logFailure logs business failures at warn and everything else at error.
func (s *BaseService) logFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if apperrors.IsBusiness(err) {
		s.LogWarn(ctx, msg, append([]any{slog.String("error", err.Error())}, keyvals...)...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}
