package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chiragsdev/steward/internal/api"
	"github.com/chiragsdev/steward/internal/config"
	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/ledger"
	"github.com/chiragsdev/steward/internal/member"
	"github.com/chiragsdev/steward/internal/metrics"
	"github.com/chiragsdev/steward/internal/ratelimit"
	"github.com/chiragsdev/steward/internal/receipt"
	"github.com/chiragsdev/steward/internal/report"
	"github.com/chiragsdev/steward/internal/user"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Steward server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// sessionCleanupInterval controls how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	userStore := user.NewStore(pool, cfg.Auth.SessionTTL)
	departmentStore := department.NewStore(pool)
	ledgerStore := ledger.NewStore(pool)
	memberStore := member.NewStore(pool)
	reportStore := report.NewStore(pool)

	receiptStorage, err := receipt.NewStorage(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize, cfg.Uploads.BaseURL)
	if err != nil {
		return err
	}

	// Zero attempts disables login rate limiting; the auth handler treats a
	// nil limiter as "always allow".
	var loginLimiter *ratelimit.Limiter
	if cfg.LoginRate.Attempts > 0 {
		loginLimiter = ratelimit.New(cfg.LoginRate.Attempts, cfg.LoginRate.Window)
	}

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) {
		stat := pool.Stat()
		return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
	})

	go cleanSessions(ctx, userStore)

	router := api.NewRouter(api.RouterDeps{
		Users:          userStore,
		Departments:    departmentStore,
		Ledger:         ledgerStore,
		Members:        memberStore,
		Receipts:       receiptStorage,
		Reports:        reportStore,
		LoginLimiter:   loginLimiter,
		Metrics:        m,
		DB:             pool,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxUploadSize:  cfg.Uploads.MaxFileSize,
		ReceiptsPath:   cfg.Uploads.Dir,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

// cleanSessions purges expired sessions on a timer until ctx is cancelled.
func cleanSessions(ctx context.Context, store *user.Store) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := store.CleanExpiredSessions(ctx)
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("cleaned expired sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
