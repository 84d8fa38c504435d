package authz

import (
	"context"
	"log/slog"

	"github.com/simp-lee/posadmin/internal/domain"
)

// Checker answers permission and role questions about the caller in a
// context. Grants are resolved per role through Grants.
type Checker struct {
	grants *Grants
	logger *slog.Logger
}

// NewChecker creates a Checker backed by grants.
func NewChecker(grants *Grants, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{grants: grants, logger: logger}
}

// AllowedTo returns nil when one of the caller's roles grants perm, and a
// PermissionDenied error otherwise. A context without caller is denied.
func (c *Checker) AllowedTo(ctx context.Context, perm domain.Permission) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return domain.PermissionDenied(perm)
	}

	for _, role := range caller.Roles {
		granted, err := c.grants.Allows(role, perm)
		if err != nil {
			return domain.NewAppError(domain.CodeInternal, "failed to load role permissions", err)
		}
		if granted {
			return nil
		}
	}

	c.logger.DebugContext(ctx, "permission denied",
		slog.String("permission", string(perm)),
		slog.Uint64("user_id", uint64(caller.UserID)),
	)
	return domain.PermissionDenied(perm)
}

// Is reports whether the caller holds one of roles.
func (c *Checker) Is(ctx context.Context, roles ...string) bool {
	caller, ok := CallerFrom(ctx)
	return ok && caller.HasRole(roles...)
}
