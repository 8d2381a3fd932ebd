package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/pivolan/stats_dashboard/config"
	"github.com/pivolan/stats_dashboard/domain/models"
	"github.com/pivolan/stats_dashboard/report"
)

var (
	errStoreUnavailable = errors.New("query store is not configured")
	errNotStored        = errors.New("dataset was not stored for querying")
)

// queryStore is the part of store.Store the front ends use.
type queryStore interface {
	Save(ctx context.Context, name string, d models.Dataset) (string, error)
	Query(ctx context.Context, table, query string) (models.Dataset, error)
	Drop(ctx context.Context, table string) error
}

// notifier delivers a finished analysis to a Telegram chat.
type notifier interface {
	notifyReport(chatID int64, s *session)
}

// dashboard is shared by the HTTP and Telegram front ends.
type dashboard struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *sessions
	store    queryStore
	notify   notifier
}

func newDashboard(cfg *config.Config, logger *slog.Logger) *dashboard {
	return &dashboard{
		cfg:      cfg,
		logger:   logger,
		sessions: newSessions(cfg.SessionTTL),
	}
}

// addDataset analyses d and registers it. When a store is configured the
// dataset is also saved for queries; a failed save only disables querying.
func (d *dashboard) addDataset(ctx context.Context, name string, ds models.Dataset) (*session, error) {
	r, err := report.Analyze(name, ds)
	if err != nil {
		return nil, err
	}
	var table string
	if d.store != nil {
		table, err = d.store.Save(ctx, name, ds)
		if err != nil {
			d.logger.Warn("dataset not stored", "name", name, "error", err)
			table = ""
		}
	}
	s := d.sessions.add(name, r, table)
	d.logger.Info("dataset analysed", "id", s.ID, "name", name, "rows", ds.Rows(), "columns", len(ds.Columns))
	return s, nil
}

// query runs a SELECT over a stored session and registers the result as a
// new session.
func (d *dashboard) query(ctx context.Context, s *session, sql string) (*session, error) {
	if d.store == nil {
		return nil, errStoreUnavailable
	}
	if s.Table == "" {
		return nil, errNotStored
	}
	result, err := d.store.Query(ctx, s.Table, sql)
	if err != nil {
		return nil, err
	}
	return d.addDataset(ctx, fmt.Sprintf("%s (query)", s.Name), result)
}

// deliver forwards a web upload to the chat that requested the link.
func (d *dashboard) deliver(uploadID string, s *session) {
	if d.notify == nil || uploadID == "" {
		return
	}
	if chatID, ok := d.sessions.chatForUpload(uploadID); ok {
		d.sessions.setLast(chatID, s.ID)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("report delivery panicked", "chat", chatID, "session", s.ID, "panic", r, "stack", string(debug.Stack()))
				}
			}()
			d.notify.notifyReport(chatID, s)
		}()
	}
}

func (d *dashboard) cleanup(ctx context.Context) {
	for _, s := range d.sessions.expire() {
		if s.Table != "" && d.store != nil {
			if err := d.store.Drop(ctx, s.Table); err != nil {
				d.logger.Warn("drop expired table", "table", s.Table, "error", err)
			}
		}
	}
	if err := removeOldFiles(d.cfg.UploadDir, time.Now().Add(-d.cfg.SessionTTL)); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("remove old uploads", "dir", d.cfg.UploadDir, "error", err)
	}
}

// janitor expires sessions and uploads until ctx is done.
func (d *dashboard) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.cleanup(ctx)
		}
	}
}

func removeOldFiles(dirPath string, maxAge time.Time) error {
	files, err := os.ReadDir(dirPath)
	if err != nil {
		return err
	}

	for _, file := range files {
		filePath := filepath.Join(dirPath, file.Name())
		if file.IsDir() {
			if err := removeOldFiles(filePath, maxAge); err != nil {
				return err
			}
			info, err := file.Info()
			if err != nil {
				return err
			}
			if rest, err := os.ReadDir(filePath); err == nil && len(rest) == 0 && info.ModTime().Before(maxAge) {
				_ = os.Remove(filePath)
			}
			continue
		}
		info, err := file.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(maxAge) {
			if err := os.Remove(filePath); err != nil {
				return err
			}
		}
	}
	return nil
}
