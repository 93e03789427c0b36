package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/SscSPs/course_billing_engine/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	gatherer prometheus.Gatherer,
) {
	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	handlers := []gin.HandlerFunc{}
	if cfg.RateLimit != "" {
		limiter, err := middleware.NewLimiter(cfg.RateLimit)
		if err != nil {
			slog.Warn("Invalid RATE_LIMIT, rate limiting disabled", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		} else {
			handlers = append(handlers, middleware.RateLimit(limiter))
		}
	}
	handlers = append(handlers, middleware.AuthMiddleware(cfg.JWTSecret))

	v1 := r.Group("/api/v1", handlers...)

	registerPricingRoutes(v1, services.Pricing)
	registerInvoiceRoutes(v1, services.Invoice, services.Ledger)
	registerInstallmentRoutes(v1, services.Installment)
	registerLedgerRoutes(v1, services.Ledger)
}
