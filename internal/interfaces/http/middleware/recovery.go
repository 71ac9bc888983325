package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

// Recovery converts a handler panic into a logged 500 response.
func Recovery(logger logging.Logger, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.WithContext(c.Request.Context()).Error("panic recovered",
				logging.String("panic", fmt.Sprint(rec)),
				logging.String("path", c.Request.URL.Path),
				logging.String("stack", string(debug.Stack())))
			prometheus.RecordError(metrics, "http", "PANIC")
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:     "internal server error",
				RequestID: GetRequestID(c),
			})
		}()
		c.Next()
	}
}

//Personal.AI order the ending
