package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	guuid "github.com/google/uuid"
)

const (
	userIDKey       = "UserID"
	requestIDKey    = "RequestID"
	requestIDHeader = "X-Request-ID"
	bearerPrefix    = "Bearer "
)

// AuthMiddleware admits requests carrying a valid Bearer access token and
// stores the caller's user id under userIDKey.
func AuthMiddleware(verifier TokenVerifier, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		tokenStr, ok := strings.CutPrefix(authHeader, bearerPrefix)
		tokenStr = strings.TrimSpace(tokenStr)
		if !ok || tokenStr == "" {
			newErrorResponse(c, http.StatusUnauthorized, "No token provided")

			return
		}

		userID, err := verifier.VerifyAccess(tokenStr)
		if err != nil {
			log.Debug("access token rejected", slog.Any("error", err), slog.String("path", c.FullPath()))

			newErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")

			return
		}

		c.Set(userIDKey, userID)

		c.Next()
	}
}

func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}

	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = guuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Header(requestIDHeader, reqID)

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.String("request_id", reqID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request completed", attrs...)
		case status >= http.StatusBadRequest:
			log.Warn("request completed", attrs...)
		default:
			log.Info("request completed", attrs...)
		}
	}
}

// Recovery turns a panic into a 500 without leaking its value to the client.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			slog.Any("error", recovered),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)

		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	})
}

// CorsMiddleware allows credentialed requests from allowOrigins. With no
// origins configured cross-origin requests get no CORS headers at all.
func CorsMiddleware(allowOrigins []string) gin.HandlerFunc {
	if len(allowOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func RateLimitMiddleware(l *ipLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			newErrorResponse(c, http.StatusTooManyRequests, "Too many requests")

			return
		}

		c.Next()
	}
}
