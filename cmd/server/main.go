package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/config"
	"github.com/JonMunkholm/PayrollDash/internal/core"
	_ "github.com/JonMunkholm/PayrollDash/internal/core/tables" // Register all listings
	"github.com/JonMunkholm/PayrollDash/internal/logging"
	"github.com/JonMunkholm/PayrollDash/internal/store"
	"github.com/JonMunkholm/PayrollDash/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.URL,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"import_chunk_size", cfg.Import.ChunkSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	creds, err := credentials(cfg.Backend)
	if err != nil {
		slog.Error("failed to open token file", "error", err)
		os.Exit(1)
	}
	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
	}, creds)
	if err != nil {
		slog.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	history, closeHistory, err := openHistory(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open import history", "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	service, err := core.NewService(client, history, cfg)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("listings registered",
		"count", len(core.All()),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("listing group", "group", group, "listings", len(core.ByGroup(group)))
	}

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionJanitor(jobCtx, core.JanitorConfig{TTL: cfg.Import.SessionTTL})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Imports run detached from their request; let them finish first.
		if st := service.ImportLimiterStatus(); st.Active > 0 {
			slog.Info("waiting for imports to complete", "active", st.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// credentials keeps the backend token in a file when one is configured so a
// login survives restarts; otherwise in memory, seeded from BACKEND_TOKEN.
func credentials(cfg config.BackendConfig) (apiclient.CredentialProvider, error) {
	if cfg.TokenFile == "" {
		return apiclient.NewMemoryCredentials(cfg.Token), nil
	}
	fc, err := apiclient.NewFileCredentials(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	if fc.Token() == "" && cfg.Token != "" {
		fc.Seed(cfg.Token)
	}
	return fc, nil
}

// openHistory connects to PostgreSQL when DATABASE_URL is set and falls back
// to an in-memory history otherwise.
func openHistory(ctx context.Context, cfg config.DatabaseConfig) (store.History, func(), error) {
	if cfg.URL == "" {
		slog.Info("no database configured, import history kept in memory")
		return nil, func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	pg := store.NewPostgres(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}
