package authz

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/simp-lee/rbac"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/domain"
)

// grantsTablePrefix namespaces the rbac tables next to the gorm schema.
const grantsTablePrefix = "rbac_"

// Grants stores the permissions granted to role namespaces.
//
// A permission "nexopos.<action>.<resource>" is kept as the rbac action
// <action> on the resource "nexopos/<resource>", so a grant of "*" on
// "nexopos/*" covers every resource of the platform.
type Grants struct {
	svc rbac.Service
}

// OpenGrants opens the grant tables in db. Role grants are cached in memory
// for ttl; cleanup is the interval at which expired entries are swept.
func OpenGrants(db *gorm.DB, ttl, cleanup time.Duration) (*Grants, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	svc, err := rbac.New(rbac.WithCachedStorage(sqlDB, &rbac.CacheConfig{
		RoleTTL:         ttl,
		UserRoleTTL:     ttl,
		PermTTL:         ttl,
		CleanupInterval: cleanup,
	}, grantsTablePrefix))
	if err != nil {
		return nil, fmt.Errorf("open role grants: %w", err)
	}
	return &Grants{svc: svc}, nil
}

// NewGrants wraps an existing rbac service.
func NewGrants(svc rbac.Service) *Grants {
	return &Grants{svc: svc}
}

// Grant creates role when missing and grants it perms. It returns how many
// of perms were not granted before.
func (g *Grants) Grant(role, name, description string, perms ...domain.Permission) (int, error) {
	if err := g.svc.CreateRole(role, name, description); err != nil && !errors.Is(err, rbac.ErrRoleAlreadyExists) {
		return 0, fmt.Errorf("create role %q: %w", role, err)
	}

	added := 0
	for _, p := range perms {
		resource, action, ok := splitPermission(p)
		if !ok {
			return added, fmt.Errorf("grant %s to %q: malformed permission", p, role)
		}
		err := g.svc.AddRolePermission(role, resource, action)
		switch {
		case errors.Is(err, rbac.ErrPermissionAlreadyExists):
		case err != nil:
			return added, fmt.Errorf("grant %s to %q: %w", p, role, err)
		default:
			added++
		}
	}
	return added, nil
}

// PermissionsOf lists the permissions granted to role, sorted. Unknown roles
// have none.
func (g *Grants) PermissionsOf(role string) ([]domain.Permission, error) {
	granted, err := g.rolePermissions(role)
	if err != nil || granted == nil {
		return nil, err
	}

	var perms []domain.Permission
	for resource, actions := range granted {
		for _, action := range actions {
			perms = append(perms, joinPermission(resource, action))
		}
	}
	slices.Sort(perms)
	return perms, nil
}

// Allows reports whether role is granted perm, directly or through a
// wildcard action or resource.
func (g *Grants) Allows(role string, perm domain.Permission) (bool, error) {
	resource, action, ok := splitPermission(perm)
	if !ok {
		return false, nil
	}
	granted, err := g.rolePermissions(role)
	if err != nil || granted == nil {
		return false, err
	}

	prefix, _, _ := strings.Cut(resource, "/")
	for _, r := range []string{resource, prefix + "/*", "*"} {
		actions := granted[r]
		if slices.Contains(actions, action) || slices.Contains(actions, "*") {
			return true, nil
		}
	}
	return false, nil
}

// Close stops the cache sweeper. The database handle stays open.
func (g *Grants) Close() error {
	return g.svc.Close()
}

// rolePermissions returns nil without error for roles that do not exist or
// cannot exist.
func (g *Grants) rolePermissions(role string) (map[string][]string, error) {
	granted, err := g.svc.GetRolePermissions(role)
	switch {
	case errors.Is(err, rbac.ErrRoleNotFound),
		errors.Is(err, rbac.ErrEmptyRoleID),
		errors.Is(err, rbac.ErrRoleIDTooLong),
		errors.Is(err, rbac.ErrInvalidRoleIDChars):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load permissions of role %q: %w", role, err)
	}
	return granted, nil
}

func splitPermission(p domain.Permission) (resource, action string, ok bool) {
	parts := strings.Split(string(p), ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[0] + "/" + parts[2], parts[1], true
}

func joinPermission(resource, action string) domain.Permission {
	namespace, name, ok := strings.Cut(resource, "/")
	if !ok {
		return domain.Permission(resource + "." + action)
	}
	return domain.Permission(namespace + "." + action + "." + name)
}
