package app

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/config"
)

// Security holds the caller token service and the role grant store.
type Security struct {
	Tokens *authz.Tokens
	Grants *authz.Grants
}

// OpenTokens creates the token service described by auth. maxLifetime caps
// issued tokens and defaults to auth.token_expiry.
func OpenTokens(auth *config.AuthConfig, maxLifetime time.Duration) (*authz.Tokens, error) {
	if maxLifetime <= 0 {
		maxLifetime = config.Duration(auth.TokenExpiry, time.Hour)
	}
	return authz.NewTokens(auth.JWTSecret, auth.Issuer, maxLifetime)
}

// OpenGrants opens the role grant store in db with the cache settings of
// auth.permissions.
func OpenGrants(auth *config.AuthConfig, db *gorm.DB) (*authz.Grants, error) {
	return authz.OpenGrants(db,
		config.Duration(auth.Permissions.CacheTTL, 5*time.Minute),
		config.Duration(auth.Permissions.CleanupInterval, 10*time.Minute),
	)
}

// OpenSecurity opens the token service and the grant store.
func OpenSecurity(cfg *config.Config, db *gorm.DB) (*Security, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("database is nil")
	}

	tokens, err := OpenTokens(&cfg.Auth, 0)
	if err != nil {
		return nil, err
	}
	grants, err := OpenGrants(&cfg.Auth, db)
	if err != nil {
		tokens.Close()
		return nil, fmt.Errorf("open grants: %w", err)
	}
	return &Security{Tokens: tokens, Grants: grants}, nil
}

// Close releases the background workers of both services.
func (s *Security) Close() error {
	if s == nil {
		return nil
	}
	if s.Tokens != nil {
		s.Tokens.Close()
	}
	if s.Grants != nil {
		return s.Grants.Close()
	}
	return nil
}
