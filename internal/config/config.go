package config

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Crud     CrudConfig     `koanf:"crud"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	Mode            string   `koanf:"mode"`
	Timeout         string   `koanf:"timeout"`
	ShutdownTimeout string   `koanf:"shutdown_timeout"`
	TrustRequestID  bool     `koanf:"trust_request_id"`
	CORSOrigins     []string `koanf:"cors_origins"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver      string         `koanf:"driver"`
	AutoMigrate bool           `koanf:"auto_migrate"`
	SlowQuery   string         `koanf:"slow_query"`
	SQLite      SQLiteConfig   `koanf:"sqlite"`
	Postgres    PostgresConfig `koanf:"postgres"`
	Pool        PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// AuthConfig holds caller token verification and permission settings.
// Tokens are issued by the platform; this service only verifies them.
type AuthConfig struct {
	JWTSecret   string            `koanf:"jwt_secret"`
	Issuer      string            `koanf:"issuer"`
	TokenExpiry string            `koanf:"token_expiry"`
	Permissions PermissionsConfig `koanf:"permissions"`
}

// PermissionsConfig tunes the role permission cache.
type PermissionsConfig struct {
	CacheTTL        string `koanf:"cache_ttl"`
	CleanupInterval string `koanf:"cleanup_interval"`
}

// CrudConfig holds list paging limits for the CRUD endpoints and the
// lifetime of cached filter option lists.
type CrudConfig struct {
	DefaultPageSize int    `koanf:"default_page_size"`
	MaxPageSize     int    `koanf:"max_page_size"`
	LookupCacheTTL  string `koanf:"lookup_cache_ttl"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__AUTH__PERMISSIONS__CACHE_TTL=1m overrides auth.permissions.cache_ttl.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values, and
// normalises whitespace and defaults in place.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateCrud(); err != nil {
		return err
	}
	return c.validateLog()
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	origins := c.Server.CORSOrigins[:0]
	for _, o := range c.Server.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.CORSOrigins = origins

	// Whitespace-only durations mean unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.ShutdownTimeout = strings.TrimSpace(c.Server.ShutdownTimeout)
	if err := positiveDuration("server.timeout", c.Server.Timeout, false); err != nil {
		return err
	}
	return positiveDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, false)
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "sqlite":
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	case "postgres":
		if err := c.validatePostgres(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	c.Database.SlowQuery = strings.TrimSpace(c.Database.SlowQuery)
	if err := positiveDuration("database.slow_query", c.Database.SlowQuery, false); err != nil {
		return err
	}
	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)
	return positiveDuration("database.pool.conn_max_lifetime", c.Database.Pool.ConnMaxLifetime, false)
}

func (c *Config) validatePostgres() error {
	pg := &c.Database.Postgres

	host := strings.TrimSpace(pg.Host)
	if host == "" {
		return fmt.Errorf("database.postgres.host is required when driver is postgres")
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
	}
	user := strings.TrimSpace(pg.User)
	if user == "" {
		return fmt.Errorf("database.postgres.user is required when driver is postgres")
	}
	dbName := strings.TrimSpace(pg.DBName)
	if dbName == "" {
		return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
	}

	sslMode := strings.TrimSpace(pg.SSLMode)
	switch sslMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", pg.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
	}
	if c.Server.Mode == gin.ReleaseMode {
		switch sslMode {
		case "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", pg.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
		}
	}

	pg.Host = host
	pg.User = user
	pg.DBName = dbName
	pg.SSLMode = sslMode
	return nil
}

func (c *Config) validateAuth() error {
	jwtSecret := strings.TrimSpace(c.Auth.JWTSecret)
	if jwtSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(jwtSecret) < 32 {
		return fmt.Errorf("invalid auth.jwt_secret: must be at least 32 characters")
	}
	if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(jwtSecret) < 3 {
		return fmt.Errorf("auth.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}
	c.Auth.JWTSecret = jwtSecret
	c.Auth.Issuer = strings.TrimSpace(c.Auth.Issuer)

	c.Auth.TokenExpiry = strings.TrimSpace(c.Auth.TokenExpiry)
	if c.Auth.TokenExpiry == "" {
		c.Auth.TokenExpiry = "1h"
	}
	if err := positiveDuration("auth.token_expiry", c.Auth.TokenExpiry, true); err != nil {
		return err
	}

	perms := &c.Auth.Permissions
	perms.CacheTTL = strings.TrimSpace(perms.CacheTTL)
	if perms.CacheTTL == "" {
		perms.CacheTTL = "5m"
	}
	if err := positiveDuration("auth.permissions.cache_ttl", perms.CacheTTL, true); err != nil {
		return err
	}
	perms.CleanupInterval = strings.TrimSpace(perms.CleanupInterval)
	if perms.CleanupInterval == "" {
		perms.CleanupInterval = "10m"
	}
	return positiveDuration("auth.permissions.cleanup_interval", perms.CleanupInterval, true)
}

func (c *Config) validateCrud() error {
	if c.Crud.DefaultPageSize == 0 {
		c.Crud.DefaultPageSize = 20
	}
	if c.Crud.MaxPageSize == 0 {
		c.Crud.MaxPageSize = 100
	}
	if c.Crud.DefaultPageSize < 0 {
		return fmt.Errorf("invalid crud.default_page_size %d: must be positive", c.Crud.DefaultPageSize)
	}
	if c.Crud.MaxPageSize < c.Crud.DefaultPageSize {
		return fmt.Errorf("invalid crud.max_page_size %d: must be at least crud.default_page_size (%d)", c.Crud.MaxPageSize, c.Crud.DefaultPageSize)
	}
	c.Crud.LookupCacheTTL = strings.TrimSpace(c.Crud.LookupCacheTTL)
	if c.Crud.LookupCacheTTL == "" {
		c.Crud.LookupCacheTTL = "30s"
	}
	return positiveDuration("crud.lookup_cache_ttl", c.Crud.LookupCacheTTL, true)
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	return nil
}

// positiveDuration checks that value parses as a Go duration greater than
// zero. Empty values pass unless required is set.
func positiveDuration(name, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return nil
}

// Duration parses a value already checked by Validate, falling back to def
// when it is empty.
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	var hasLower, hasUpper, hasDigit, hasSymbol bool

	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, present := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if present {
			classes++
		}
	}
	return classes
}
