package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/pkg/logger"
	"github.com/learnhub/catalog-service/pkg/metrics"
)

// ErrorHandler renders the last error recorded with c.Error. Validation and
// not-found errors go back to the client verbatim; anything else is logged and
// answered with a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		switch {
		case errors.Is(err, catalog.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, catalog.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			metrics.StoreErrors.Inc()
			logger.WithFields(logger.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"error":  err,
			}).Error("request failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
	}
}
