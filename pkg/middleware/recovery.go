package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/catalog-service/pkg/logger"
	"github.com/learnhub/catalog-service/pkg/metrics"
)

// Recovery turns a panicking handler into a JSON 500 so a single bad request
// never drops the connection or the process.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		metrics.StoreErrors.Inc()
		logger.WithFields(logger.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
