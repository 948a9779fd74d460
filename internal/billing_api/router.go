package billing_api

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/handler"
	"github.com/residential-billing-ledger/internal/billing_api/middleware"
	"github.com/residential-billing-ledger/internal/billing_api/web"
)

// handlers groups everything setupRouter mounts
type handlers struct {
	residents *handler.ResidentHandler
	ledger    *handler.LedgerHandler
	payments  *handler.PaymentHandler
	expenses  *handler.ExpenseHandler
	readiness map[string]func(ctx context.Context) error
}

const readinessTimeout = 2 * time.Second

// setupRouter configures API routes, the embedded UI and middleware
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers) error {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		residents := v1.Group("/residents")
		{
			residents.POST("", h.residents.Create)
			residents.GET("", h.residents.List)
			residents.GET("/:id", h.residents.GetByID)
			residents.PATCH("/:id/status", h.residents.UpdateStatus)
			residents.PATCH("/:id/rate", h.residents.UpdateRate)
			residents.DELETE("/:id", h.residents.Delete)
			residents.POST("/:id/rent/refresh", h.residents.RefreshRent)

			residents.POST("/:id/ledger", h.ledger.Post)
			residents.GET("/:id/ledger", h.ledger.List)
			residents.GET("/:id/activity", h.ledger.Activity)
		}

		payments := v1.Group("/payments")
		{
			payments.GET("", h.payments.List)
			payments.GET("/recent", h.payments.Recent)
		}
		v1.GET("/receipts/:entry_id", h.payments.Receipt)

		expenses := v1.Group("/expenses")
		{
			expenses.POST("", h.expenses.Create)
			expenses.GET("", h.expenses.List)
			expenses.GET("/files/:file_id", h.expenses.File)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/ready", readinessHandler(logger, h.readiness))

	static, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(static))
	r.GET("/", func(c *gin.Context) {
		c.FileFromFS("/", http.FS(web.Assets))
	})
	return nil
}

func readinessHandler(logger *slog.Logger, checks map[string]func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("Readiness check failed", "dependency", name, "error", err)
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": results})
	}
}
