package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/posadmin/internal/authz"
)

// Logger returns a gin middleware that logs each HTTP request using the provided
// slog.Logger. It records the method, route, status code, latency, and client IP,
// plus the resource namespace and caller when the request carries them.
//
// The log level is chosen based on the response status code:
//   - 2xx/3xx: Info
//   - 4xx: Warn
//   - 5xx: Error
//
// Context-aware logging lets the ContextHandler attach the request_id.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if route := c.FullPath(); route != "" {
			attrs = append(attrs, slog.String("route", route))
		}
		if ns := c.Param("namespace"); ns != "" {
			attrs = append(attrs, slog.String("namespace", ns))
		}
		if caller, ok := authz.CallerFrom(c.Request.Context()); ok {
			attrs = append(attrs, slog.Uint64("user_id", uint64(caller.UserID)))
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.LogAttrs(ctx, slog.LevelError, "request", attrs...)
		case status >= 400:
			logger.LogAttrs(ctx, slog.LevelWarn, "request", attrs...)
		default:
			logger.LogAttrs(ctx, slog.LevelInfo, "request", attrs...)
		}
	}
}
