package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type healthBody struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Resources  []string          `json:"resources"`
}

func serveHealth(t *testing.T, ctx context.Context, db *gorm.DB, resources []string) (int, healthBody) {
	t.Helper()
	r := gin.New()
	r.GET("/health", healthHandler(db, resources))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx))

	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthHandler(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		code, body := serveHealth(t, context.Background(), openTestSQLiteDB(t), []string{"ns.orders", "ns.transactions"})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Components["database"])
		assert.Equal(t, []string{"ns.orders", "ns.transactions"}, body.Resources)
	})

	t.Run("database closed", func(t *testing.T) {
		db := openTestSQLiteDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		code, body := serveHealth(t, context.Background(), db, nil)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "error", body.Components["database"])
		assert.NotNil(t, body.Resources)
		assert.Empty(t, body.Resources)
	})

	t.Run("nil database", func(t *testing.T) {
		code, body := serveHealth(t, context.Background(), nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "error", body.Components["database"])
	})

	t.Run("honours request deadline", func(t *testing.T) {
		registerBlockingPingDriver()
		sqlDB, err := sql.Open(blockingPingDriverName, "")
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		t.Cleanup(cancel)

		start := time.Now()
		code, _ := serveHealth(t, ctx, db, nil)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Less(t, time.Since(start), 300*time.Millisecond)
	})
}

// mockModule registers GET /ping under the API group.
type mockModule struct {
	called bool
}

func (m *mockModule) RegisterRoutes(api *gin.RouterGroup) {
	m.called = true
	api.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
}

func TestRegisterRoutes_Rejects(t *testing.T) {
	tests := []struct {
		name string
		r    *gin.Engine
		deps *RouteDeps
		want string
	}{
		{"nil router", nil, &RouteDeps{}, "router is nil"},
		{"nil deps", gin.New(), nil, "route dependencies are nil"},
		{"no modules", gin.New(), &RouteDeps{}, "at least one module is required"},
		{"nil module entry", gin.New(), &RouteDeps{Modules: []Module{&mockModule{}, nil}}, "module at index 1 is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, RegisterRoutes(tt.r, tt.deps), tt.want)
		})
	}
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_MountsModulesUnderAPI(t *testing.T) {
	m := &mockModule{}
	r := gin.New()
	require.NoError(t, RegisterRoutes(r, &RouteDeps{Modules: []Module{m}, DB: openTestSQLiteDB(t)}))
	assert.True(t, m.called)

	w := serve(r, "/api/v1/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(r, "/ping").Code)
}

func TestRegisterRoutes_AuthenticateGuardsModulesOnly(t *testing.T) {
	r := gin.New()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	require.NoError(t, RegisterRoutes(r, &RouteDeps{
		Modules:      []Module{&mockModule{}},
		DB:           openTestSQLiteDB(t),
		Authenticate: deny,
	}))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/api/v1/ping").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/health").Code)
}

func TestNoRoute_JSON(t *testing.T) {
	r := gin.New()
	require.NoError(t, RegisterRoutes(r, &RouteDeps{Modules: []Module{&mockModule{}}, DB: openTestSQLiteDB(t)}))

	for _, path := range []string{"/nonexistent", "/api/v1/crud"} {
		w := serve(r, path)
		require.Equal(t, http.StatusNotFound, w.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), path)
		assert.Equal(t, "not found", body["message"], path)
		assert.Nil(t, body["data"], path)
	}
}

// --- openTestSQLiteDB helper ---

func openTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

const blockingPingDriverName = "posadmin_blocking_ping"

var registerBlockingPingDriverOnce sync.Once

func registerBlockingPingDriver() {
	registerBlockingPingDriverOnce.Do(func() {
		sql.Register(blockingPingDriverName, blockingPingDriver{})
	})
}

type blockingPingDriver struct{}

func (blockingPingDriver) Open(string) (driver.Conn, error) {
	return blockingPingConn{}, nil
}

type blockingPingConn struct{}

func (blockingPingConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (blockingPingConn) Close() error                        { return nil }
func (blockingPingConn) Begin() (driver.Tx, error)           { return blockingPingTx{}, nil }

func (blockingPingConn) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type blockingPingTx struct{}

func (blockingPingTx) Commit() error   { return nil }
func (blockingPingTx) Rollback() error { return nil }
