package authz

import (
	"fmt"
	"strconv"
	"time"

	"github.com/simp-lee/jwt"
)

// Tokens verifies caller tokens and, for development tooling, issues them.
// Tokens carry the user id and the caller's role namespaces.
type Tokens struct {
	svc jwt.Service
}

// NewTokens creates a token service for HS256 tokens signed with secret.
// When issuer is non-empty the "iss" claim must match it. maxLifetime caps
// the lifetime of issued tokens; zero keeps the library default.
func NewTokens(secret, issuer string, maxLifetime time.Duration, opts ...jwt.Option) (*Tokens, error) {
	all := make([]jwt.Option, 0, len(opts)+3)
	if issuer != "" {
		all = append(all, jwt.WithIssuer(issuer))
	}
	if maxLifetime > 0 {
		all = append(all, jwt.WithMaxTokenLifetime(maxLifetime))
		if maxLifetime > 30*24*time.Hour {
			all = append(all, jwt.WithUserRevocationTTL(maxLifetime))
		}
	}
	all = append(all, opts...)

	svc, err := jwt.New(secret, all...)
	if err != nil {
		return nil, fmt.Errorf("create token service: %w", err)
	}
	return &Tokens{svc: svc}, nil
}

// Verify validates tokenString and returns the caller it identifies.
func (t *Tokens) Verify(tokenString string) (Caller, error) {
	token, err := t.svc.ValidateToken(tokenString)
	if err != nil {
		return Caller{}, err
	}

	id, err := strconv.ParseUint(token.UserID, 10, 64)
	if err != nil || id == 0 {
		return Caller{}, fmt.Errorf("invalid user id %q", token.UserID)
	}
	return Caller{UserID: uint(id), Roles: token.Roles}, nil
}

// Issue signs a token for c valid for ttl. The platform owns token
// issuance; this exists for development tooling and tests.
func (t *Tokens) Issue(c Caller, ttl time.Duration) (string, error) {
	if c.UserID == 0 {
		return "", fmt.Errorf("issue caller token: user id is required")
	}
	signed, err := t.svc.GenerateToken(strconv.FormatUint(uint64(c.UserID), 10), c.Roles, ttl)
	if err != nil {
		return "", fmt.Errorf("issue caller token: %w", err)
	}
	return signed, nil
}

// Close stops the background revocation cleanup.
func (t *Tokens) Close() {
	t.svc.Close()
}
