package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// CallerVerifier turns a bearer token into the caller it identifies.
type CallerVerifier interface {
	Verify(token string) (authz.Caller, error)
}

// Authenticate returns a gin middleware that requires a valid
// "Authorization: Bearer <token>" header. The verified caller is stored in
// the request context for authz.CallerFrom and its user_id is attached to
// every log line of the request. Missing or invalid tokens get a 401.
func Authenticate(v CallerVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			pkg.Abort(c, domain.ErrUnauthorized)
			return
		}

		caller, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			pkg.Abort(c, domain.NewAppError(domain.CodeUnauthorized, "unauthorized", err))
			return
		}

		ctx := authz.WithCaller(c.Request.Context(), caller)
		ctx = logger.WithContextAttrs(ctx, slog.Uint64("user_id", uint64(caller.UserID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
