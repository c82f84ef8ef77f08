package server

import (
	"net/http"
	"time"

	"github.com/K3das/scribe/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		ctx := utils.LogContext(c.Request.Context(), zap.String(requestIDKey, id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		log := utils.GetLogFromContext(c.Request.Context(), s.log).With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
		if len(c.Errors) > 0 {
			log = log.With(zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("request")
		case status >= 400:
			log.Warn("request")
		default:
			log.Debug("request")
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer utils.PanicRecovery(utils.GetLogFromContext(c.Request.Context(), s.log), func(any) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, transcribeResponse{
				Result: resultError,
				Error:  "internal",
			})
		})

		c.Next()
	}
}
