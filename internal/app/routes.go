package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules []Module
	DB      *gorm.DB
	// Resources lists the CRUD namespaces reported by /health.
	Resources []string
	// Authenticate guards every module route. Nil leaves the API open,
	// which only tests should do.
	Authenticate gin.HandlerFunc
}

// RegisterRoutes registers all application routes on the given gin.Engine.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}

	r.GET("/health", healthHandler(deps.DB, deps.Resources))

	api := r.Group("/api/v1")
	if deps.Authenticate != nil {
		api.Use(deps.Authenticate)
	}

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		pkg.Error(c, domain.NewAppError(domain.CodeNotFound, "not found", nil))
	})

	return nil
}

// healthHandler pings the database and reports it alongside the served
// resource namespaces. Only the database decides the status code.
func healthHandler(db *gorm.DB, resources []string) gin.HandlerFunc {
	if resources == nil {
		resources = []string{}
	}
	return func(c *gin.Context) {
		dbStatus := "ok"
		if err := ping(c.Request.Context(), db); err != nil {
			dbStatus = "error"
		}

		status, code := "ok", http.StatusOK
		if dbStatus != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status": status,
			"components": gin.H{
				"database": dbStatus,
			},
			"resources": resources,
		})
	}
}

func ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
