package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/LeventeLantos/reminder-scheduler/internal/api"
	"github.com/LeventeLantos/reminder-scheduler/internal/cache"
	"github.com/LeventeLantos/reminder-scheduler/internal/client"
	"github.com/LeventeLantos/reminder-scheduler/internal/config"
	"github.com/LeventeLantos/reminder-scheduler/internal/repo"
	"github.com/LeventeLantos/reminder-scheduler/internal/scheduler"
	"github.com/LeventeLantos/reminder-scheduler/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("sqlite", cfg.Database.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	// modernc/sqlite serializes writers; a single connection avoids busy errors.
	db.SetMaxOpenConns(1)

	reminders := repo.NewSQLiteReminderRepo(db)
	if err := reminders.Migrate(ctx); err != nil {
		return err
	}

	tg, err := client.NewTelegramClient(cfg.Telegram.Token, cfg.Telegram.SendTimeout)
	if err != nil {
		return err
	}

	engine := scheduler.New(reminders, tg, service.NewDispatcher(tg)).
		WithHooks(sentHook(cfg), failedHook(cfg, tg))

	// Ground truth first: recovery must finish before any add/remove is served.
	if err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("recover pending reminders: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Telegram.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	handler := api.NewHandler(engine, cfg.Telegram.OwnerChatID, loc)
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(handler)),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sentHook stores delivery receipts in Redis when a cache is configured.
func sentHook(cfg *config.Config) func(context.Context, int64, string, time.Time) error {
	if !cfg.Redis.Enabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	receipts := cache.NewRedisCache(rdb, cfg.Redis.TTL)

	return func(ctx context.Context, id int64, remoteMessageID string, sentAt time.Time) error {
		return receipts.StoreReceipt(ctx, id, remoteMessageID, sentAt)
	}
}

// failedHook notifies the owner chat about reminders that ended up failed.
// Best-effort: the engine logs and swallows any error from here.
func failedHook(cfg *config.Config, tg *client.TelegramClient) func(context.Context, int64, string) error {
	return func(ctx context.Context, id int64, reason string) error {
		_, err := tg.SendText(ctx, cfg.Telegram.OwnerChatID,
			fmt.Sprintf("⚠️ Reminder %d was not delivered: %s", id, reason))
		return err
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
