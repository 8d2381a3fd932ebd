package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/stats_dashboard/config"
	"github.com/pivolan/stats_dashboard/store"
)

func main() {
	cfg := config.GetConfig()
	logger := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "stats_dashboard")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dash := newDashboard(cfg, logger)

	if cfg.DbDsn != "" {
		st, err := store.Open(cfg.DbDsn, logger)
		if err != nil {
			logger.Warn("clickhouse unavailable, queries disabled", "error", err)
		} else {
			defer st.Close()
			dash.store = st
			logger.Info("connected clickhouse")
		}
	}

	if cfg.TgToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.TgToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot := newTelegramBot(api, dash)
		dash.notify = bot
		go func() {
			if err := bot.listen(ctx, api); err != nil {
				logger.Error("telegram bot stopped", "error", err)
			}
		}()
	}

	go dash.janitor(ctx, time.Minute)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(dash),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
