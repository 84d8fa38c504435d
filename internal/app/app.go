package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/config"
	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/event"
	"github.com/simp-lee/posadmin/internal/middleware"
	"github.com/simp-lee/posadmin/internal/module/order"
	"github.com/simp-lee/posadmin/internal/module/transaction"
	"github.com/simp-lee/posadmin/internal/module/user"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine   *gin.Engine
	db       *gorm.DB
	security *Security
	logger   *logger.Logger
	cfg      *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, timeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      2 * timeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging and the database, migrates the schema when
// database.auto_migrate is set, then builds the HTTP engine.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 exposes debug behavior")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := config.CloseDatabase(db); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := config.Migrate(db, log.Logger); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	sec, err := OpenSecurity(cfg, db)
	if err != nil {
		return nil, fmt.Errorf("setup security: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := sec.Close(); err != nil {
			slog.Error("security close error", slog.Any("error", err))
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	engine, err := NewEngine(cfg, db, sec, log.Logger)
	if err != nil {
		return nil, err
	}

	success = true
	return &App{
		engine:   engine,
		db:       db,
		security: sec,
		logger:   log,
		cfg:      cfg,
	}, nil
}

// NewEngine wires repositories, controllers, the event bus and the CRUD
// engine over db and returns the gin engine serving them. Callers are
// verified with sec.Tokens and checked against sec.Grants.
func NewEngine(cfg *config.Config, db *gorm.DB, sec *Security, log *slog.Logger) (*gin.Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("database is nil")
	}
	if sec == nil || sec.Tokens == nil || sec.Grants == nil {
		return nil, errors.New("security is not open")
	}
	if log == nil {
		log = slog.Default()
	}

	limits := pkg.PageLimits{
		DefaultPageSize: cfg.Crud.DefaultPageSize,
		MaxPageSize:     cfg.Crud.MaxPageSize,
	}

	// Caller identity and permissions.
	checker := authz.NewChecker(sec.Grants, log)

	// Lookups, ledger and the event bus.
	dir := user.NewDirectory(db).CacheOptions(config.Duration(cfg.Crud.LookupCacheTTL, 30*time.Second))
	txRepo := transaction.NewRepository(db)
	ledger := transaction.NewLedger(txRepo, log)
	bus := event.NewBus(log, ledger.Subscriptions(), event.AuditLog(log))

	// Resource controllers.
	orderRepo := order.NewRepository(db)
	orders := order.NewController(order.Deps{
		Auth:    checker,
		Events:  bus,
		Orders:  order.NewService(orderRepo, log),
		Entries: orderRepo,
		Refunds: orderRepo,
		Lookups: dir,
		Logger:  log,
	})
	transactions := transaction.NewController(transaction.Deps{
		Auth:    checker,
		Events:  bus,
		Entries: txRepo,
		Lookups: dir,
		Logger:  log,
	})

	crudEngine, err := crud.NewEngine(db, checker, log,
		crud.Resource{Controller: orders, Repository: orderRepo},
		crud.Resource{Controller: transactions, Repository: txRepo},
	)
	if err != nil {
		return nil, fmt.Errorf("build crud engine: %w", err)
	}
	log.Info("crud resources registered", slog.Any("namespaces", crudEngine.Namespaces()))

	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: cfg.Server.TrustRequestID,
		}),
		middleware.Logger(log),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	if err := RegisterRoutes(engine, &RouteDeps{
		Modules: []Module{
			crud.NewModule(crud.NewHandler(crudEngine, limits)),
			transaction.NewModule(transaction.NewHandler(txRepo, ledger, checker, limits)),
			user.NewModule(user.NewUserHandler(dir, limits)),
		},
		DB:           db,
		Resources:    crudEngine.Namespaces(),
		Authenticate: middleware.Authenticate(sec.Tokens),
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return engine, nil
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It shuts down gracefully within server.shutdown_timeout and closes the
// database connection.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, config.Duration(a.cfg.Server.Timeout, 30*time.Second))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			config.Duration(a.cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if err := a.security.Close(); err != nil {
		log.Error("security close error", slog.Any("error", err))
	}
	if a.db != nil {
		if err := config.CloseDatabase(a.db); err != nil {
			log.Error("database close error", slog.Any("error", err))
		} else {
			log.Info("database connection closed")
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
