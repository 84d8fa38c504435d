// Package cli holds the posadmin command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/app"
	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/config"
	"github.com/simp-lee/posadmin/internal/seed"
)

// NewRootCmd builds the command tree. Running the root command without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	var configPath string

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	root := &cobra.Command{
		Use:           "posadmin",
		Short:         "Point-of-sale back office API for orders and transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to configuration file")

	serve := newServeCmd(load)
	root.RunE = serve.RunE
	root.AddCommand(
		serve,
		newMigrateCmd(load),
		newSeedCmd(load),
		newTokenCmd(load),
	)
	return root
}

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}
			return a.Run()
		},
	}
}

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(load, func(_ *config.Config, db *gorm.DB, log *slog.Logger) error {
				if err := config.Migrate(db, log); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema migrated")
				return nil
			})
		},
	}
}

func newSeedCmd(load func() (*config.Config, error)) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load roles, users, customers, registers and accounts from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, err := seed.Load(file)
			if err != nil {
				return err
			}
			return withDatabase(load, func(cfg *config.Config, db *gorm.DB, log *slog.Logger) error {
				if err := config.Migrate(db, log); err != nil {
					return err
				}
				grants, err := app.OpenGrants(&cfg.Auth, db)
				if err != nil {
					return fmt.Errorf("open grants: %w", err)
				}
				defer grants.Close()

				sum, err := seed.Apply(cmd.Context(), db, grants, fx)
				if err != nil {
					return fmt.Errorf("apply seed: %w", err)
				}
				printSummary(cmd.OutOrStdout(), sum)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "configs/seed.yaml", "path to the seed file")
	return cmd
}

func newTokenCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		userID uint
		roles  []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a caller token for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = config.Duration(cfg.Auth.TokenExpiry, time.Hour)
			}
			tokens, err := app.OpenTokens(&cfg.Auth, ttl)
			if err != nil {
				return err
			}
			defer tokens.Close()

			token, err := tokens.Issue(authz.Caller{UserID: userID, Roles: roles}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id carried in the user_id claim")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "role namespaces, comma separated")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_expiry)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// withDatabase opens the configured database with its logger, runs fn and
// releases both.
func withDatabase(load func() (*config.Config, error), fn func(cfg *config.Config, db *gorm.DB, log *slog.Logger) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer log.Close()

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	defer config.CloseDatabase(db)

	return fn(cfg, db, log.Logger)
}

func printSummary(w io.Writer, sum seed.Summary) {
	parts := []string{
		fmt.Sprintf("roles=%d", sum.Roles),
		fmt.Sprintf("grants=%d", sum.Grants),
		fmt.Sprintf("users=%d", sum.Users),
		fmt.Sprintf("customers=%d", sum.Customers),
		fmt.Sprintf("registers=%d", sum.Registers),
		fmt.Sprintf("accounts=%d", sum.Accounts),
	}
	fmt.Fprintf(w, "seeded %s\n", strings.Join(parts, " "))
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
