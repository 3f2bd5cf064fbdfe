package middleware

import (
	"log/slog"
	"net/http"

	"order-pipeline/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last public error when a handler returned
// without writing a body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		for i := len(c.Errors) - 1; i >= 0; i-- {
			err := c.Errors[i]
			if !err.IsType(gin.ErrorTypePublic) {
				continue
			}
			if resp, ok := err.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		resp := httperr.NewResponse(http.StatusInternalServerError, httperr.KindInternal, "Internal server error", nil)
		c.JSON(resp.Status, resp)
	}
}

// Recovery turns a handler panic into a 500 with the request id in the log.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				RequestLogger(c, logger).Error("recovered from panic",
					"panic", rec,
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c))

				resp := httperr.NewResponse(http.StatusInternalServerError, httperr.KindInternal, "Internal server error", nil)
				c.AbortWithStatusJSON(resp.Status, resp)
			}
		}()
		c.Next()
	}
}
