package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/catalog-service/pkg/logger"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// RegisterHealth mounts /health (liveness) and /ready (dependency readiness).
// Every check runs on each /ready request with a shared timeout.
func RegisterHealth(r gin.IRouter, checks map[string]Check, startTime time.Time, timeout time.Duration) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		ready := true
		deps := map[string]bool{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.Warnf("readiness check %s failed: %v", name, err)
				deps[name] = false
				ready = false
				continue
			}
			deps[name] = true
		}

		uptime := time.Since(startTime).Truncate(time.Second).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})
}
