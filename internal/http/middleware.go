package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "alertify.logger"
	usernameKey     = "alertify.username"
)

// requestLogger attaches a request scoped entry carrying the request id and
// logs the outcome once the handler chain returns.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		entry := h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(loggerKey, entry)

		start := time.Now()
		c.Next()

		fields := entry.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			fields.Error("request completed")
			return
		}
		fields.Info("request completed")
	}
}

func (h *Handler) log(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(logrus.FieldLogger); ok {
			return entry
		}
	}
	return h.logger
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := h.tokens.ExtractToken(c.Request)
		if !ok {
			h.log(c).Debug("missing bearer token")
			writeError(c, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
			return
		}

		username, err := h.tokens.Identity(token)
		if err != nil {
			h.log(c).WithError(err).Info("rejected token")
			writeError(c, http.StatusUnauthorized, codeUnauthorized, "token is invalid or expired")
			return
		}

		c.Set(usernameKey, username)
		c.Set(loggerKey, h.log(c).WithField("user", username))
		c.Next()
	}
}

func (h *Handler) rateLimitLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.login.Allow() {
			h.metrics.logins.WithLabelValues("limited").Inc()
			h.log(c).Warn("login rate limit exceeded")
			writeError(c, http.StatusTooManyRequests, codeTooManyRequests, "too many login attempts")
			return
		}
		c.Next()
	}
}
