package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pivolan/stats_dashboard/config"
	"github.com/pivolan/stats_dashboard/domain/models"
	"github.com/pivolan/stats_dashboard/store"
)

func newTestDashboard(t *testing.T) *dashboard {
	t.Helper()
	cfg := &config.Config{
		HTTPAddr:    ":0",
		PublicURL:   "http://stats.test/",
		UploadDir:   t.TempDir(),
		SessionTTL:  time.Hour,
		MaxUploadMB: 1,
	}
	return newDashboard(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeStore keeps saved datasets in memory and answers every query with
// result, or with err when set.
type fakeStore struct {
	mu      sync.Mutex
	saved   map[string]models.Dataset
	dropped []string
	result  models.Dataset
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]models.Dataset{}}
}

func (f *fakeStore) Save(ctx context.Context, name string, d models.Dataset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := "t_" + name
	f.saved[table] = d
	return table, nil
}

func (f *fakeStore) Query(ctx context.Context, table, query string) (models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Dataset{}, f.err
	}
	if _, ok := f.saved[table]; !ok {
		return models.Dataset{}, &store.QueryError{Query: query, Reason: "unknown table", Err: store.ErrUnsupportedQuery}
	}
	return f.result, nil
}

func (f *fakeStore) Drop(ctx context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, table)
	f.dropped = append(f.dropped, table)
	return nil
}

func numbersDataset(t *testing.T, name string, values ...float64) models.Dataset {
	t.Helper()
	col := models.Column{Name: name}
	for _, v := range values {
		col.Values = append(col.Values, models.NumberValue(v))
	}
	d, err := models.NewDataset(col)
	require.NoError(t, err)
	return d
}
