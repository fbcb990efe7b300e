package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vitalis/vitalis/internal/config"
	"github.com/vitalis/vitalis/internal/domain"
	"github.com/vitalis/vitalis/internal/domain/group"
	"github.com/vitalis/vitalis/internal/domain/identity"
	"github.com/vitalis/vitalis/internal/domain/monitoring"
	"github.com/vitalis/vitalis/internal/domain/wearable"
	"github.com/vitalis/vitalis/internal/platform/auth"
	"github.com/vitalis/vitalis/internal/platform/authz"
	"github.com/vitalis/vitalis/internal/platform/db"
	"github.com/vitalis/vitalis/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vitalis-server",
		Short: "Multi-tenant health monitoring API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	// migrate down - keep as warning
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Roll back by applying a new forward migration instead.")
			return nil
		},
	})

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			maxUsers, _ := cmd.Flags().GetInt("max-users")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			t := &identity.Tenant{Name: name, MaxUsers: maxUsers}
			if err := identity.NewTenantRepo(pool).Create(ctx, t); err != nil {
				return err
			}
			fmt.Printf("Tenant %q created with id %d.\n", t.Name, t.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant name")
	createCmd.Flags().Int("max-users", identity.DefaultMaxUsers, "Maximum number of users in the tenant")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories
	tenantRepo := identity.NewTenantRepo(pool)
	userRepo := identity.NewUserRepo(pool)
	compositeRepo := identity.NewCompositeUserRepo(pool)
	groupRepo := group.NewRepo(pool)
	wearableRepo := wearable.NewRepo(pool)
	readingRepo := monitoring.NewRepo(pool)

	// Authorization engine over the persisted relationship tables
	rels := domain.NewRelationStore(groupRepo, wearableRepo, compositeRepo)
	engine := authz.NewEngine(rels, logger)

	// Services
	identitySvc := identity.NewService(tenantRepo, userRepo, compositeRepo, engine)
	groupSvc := group.NewService(groupRepo, engine)
	wearableSvc := wearable.NewService(wearableRepo, engine)
	monitoringSvc := monitoring.NewService(readingRepo, engine)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{
			"Content-Type", middleware.RequestIDHeader,
			auth.CallerKindHeader, auth.TenantIDHeader, auth.CompositeUserIDHeader,
			auth.AuthSubjectHeader, auth.AuthRolesHeader,
		},
	}))

	// Health checks stay outside the identity chain
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/healthz/db", db.HealthHandler(pool))

	// Identity chain: scope resolution, scoped DB connection, then
	// authentication and role mapping. Order matters: each stage consumes
	// what the previous one put on the request context.
	api := e.Group("/api/v1")
	if cfg.ResolvedAuthMode() == "development" {
		logger.Warn().Int64("tenant_id", cfg.DefaultTenantID).Msg("development identity filters active")
		api.Use(auth.DevScopeFilter(cfg.DefaultTenantID))
		api.Use(db.RLSMiddleware(pool, logger))
		api.Use(auth.DevAuthnFilter(cfg.DefaultTenantID))
		api.Use(auth.DevRoleFilter())
	} else {
		authStore := identity.NewAuthStore(tenantRepo, userRepo, compositeRepo)
		api.Use(auth.ScopeFilter())
		api.Use(db.RLSMiddleware(pool, logger))
		api.Use(auth.AuthnFilter(authStore, logger))
		api.Use(auth.RoleFilter(logger))
	}

	// Rate limiting after scope resolution so buckets are per tenant
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Access audit trail
	api.Use(middleware.Audit(logger))

	// Domain routes
	identity.NewHandler(identitySvc).RegisterRoutes(api)
	group.NewHandler(groupSvc).RegisterRoutes(api)
	wearable.NewHandler(wearableSvc).RegisterRoutes(api)
	monitoring.NewHandler(monitoringSvc).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
