package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/stats_dashboard/ingest"
	"github.com/pivolan/stats_dashboard/report"
)

func sampleReport(t *testing.T) *report.Report {
	t.Helper()
	d, err := ingest.Sample("sales")
	require.NoError(t, err)
	r, err := report.Analyze("sales", d)
	require.NoError(t, err)
	return r
}

func TestSessions(t *testing.T) {
	s := newSessions(time.Hour)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	sess := s.add("sales", sampleReport(t), "t_sales")
	got, ok := s.get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, "t_sales", got.Table)
	assert.Equal(t, 1, s.count())

	_, ok = s.last(42)
	assert.False(t, ok)
	s.setLast(42, sess.ID)
	last, ok := s.last(42)
	require.True(t, ok)
	assert.Equal(t, sess.ID, last.ID)

	link := s.linkUpload(42)
	chatID, ok := s.chatForUpload(link)
	require.True(t, ok)
	assert.Equal(t, int64(42), chatID)

	now = now.Add(30 * time.Minute)
	assert.Empty(t, s.expire())

	now = now.Add(time.Hour)
	removed := s.expire()
	require.Len(t, removed, 1)
	assert.Equal(t, sess.ID, removed[0].ID)
	_, ok = s.get(sess.ID)
	assert.False(t, ok)
	_, ok = s.last(42)
	assert.False(t, ok)
	_, ok = s.chatForUpload(link)
	assert.False(t, ok)
}

func TestCleanupDropsTablesAndFiles(t *testing.T) {
	dash := newTestDashboard(t)
	fs := newFakeStore()
	dash.store = fs

	sess, err := dash.addDataset(context.Background(), "sales", numbersDataset(t, "x", 1, 2, 3))
	require.NoError(t, err)
	require.Equal(t, "t_sales", sess.Table)

	old := filepath.Join(dash.cfg.UploadDir, "abc", "old.csv")
	fresh := filepath.Join(dash.cfg.UploadDir, "fresh.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(old), 0o755))
	require.NoError(t, os.WriteFile(old, []byte("x\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x\n1\n"), 0o644))
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	dash.sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	dash.cleanup(context.Background())

	assert.Equal(t, []string{"t_sales"}, fs.dropped)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestRemoveOldFilesMissingDir(t *testing.T) {
	err := removeOldFiles(filepath.Join(t.TempDir(), "missing"), time.Now())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
