package phh_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/game"
	"github.com/lox/holdemgym/internal/phh"
)

func newTestWriter(t *testing.T, dir string, flushEvery int, perHand bool) *phh.Writer {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC))

	w, err := phh.NewWriter(phh.WriterConfig{
		Dir:        dir,
		Options:    phh.Options{Table: "gym"},
		FlushEvery: flushEvery,
		PerHand:    perHand,
		Clock:      clock,
	}, nil)
	require.NoError(t, err)
	return w
}

func recordN(n int) game.HandRecord {
	rec := showdownRecord()
	rec.ID = fmt.Sprintf("hand-%d", n)
	rec.Number = n
	return rec
}

func TestWriterBuffersAndNumbersSections(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, dir, 2, false)

	require.NoError(t, w.RecordHand(recordN(1)))
	_, err := os.Stat(w.Path())
	assert.True(t, os.IsNotExist(err), "first hand should still be buffered")

	require.NoError(t, w.RecordHand(recordN(2)))
	require.NoError(t, w.RecordHand(recordN(3)))
	require.NoError(t, w.Close())
	assert.Error(t, w.RecordHand(recordN(4)))

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "[1]\n"))
	assert.Contains(t, content, "\n\n[2]\n")
	assert.Contains(t, content, "\n\n[3]\n")

	hands, err := phh.ReadSession(w.Path())
	require.NoError(t, err)
	require.Len(t, hands, 3)
	for i, h := range hands {
		assert.Equal(t, fmt.Sprintf("hand-%d", i+1), h.HandID)
		assert.Equal(t, "gym", h.Table)
		assert.Equal(t, "12:00:00", h.Time)
		assert.Equal(t, 2026, h.Year)
	}
}

func TestWriterResumesSectionNumbering(t *testing.T) {
	dir := t.TempDir()
	first := newTestWriter(t, dir, 1, false)
	require.NoError(t, first.RecordHand(recordN(1)))
	require.NoError(t, first.RecordHand(recordN(2)))
	require.NoError(t, first.Close())

	second := newTestWriter(t, dir, 1, false)
	require.NoError(t, second.RecordHand(recordN(3)))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(filepath.Join(dir, "session.phhs"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[3]\n")

	hands, err := phh.ReadSession(filepath.Join(dir, "session.phhs"))
	require.NoError(t, err)
	require.Len(t, hands, 3)
	assert.Equal(t, "hand-3", hands[2].HandID)
}

func TestWriterPerHandFiles(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, dir, 1, true)
	require.NoError(t, w.RecordHand(recordN(7)))
	require.NoError(t, w.Close())

	f, err := os.Open(filepath.Join(dir, "hand-7.phh"))
	require.NoError(t, err)
	defer f.Close()

	hand, err := phh.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "hand-7", hand.HandID)
	assert.Equal(t, []int{1030, 970}, hand.FinishingStacks)

	// No temp files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp.")
	}
}

func TestWriteHandFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hand.phh")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	hist := phh.FromRecord(recordN(1), phh.Options{})
	require.NoError(t, phh.WriteHandFile(path, hist))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hand = "hand-1"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteHandFileKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hand.phh")
	hist := phh.FromRecord(recordN(2), phh.Options{})
	require.NoError(t, phh.WriteHandFile(path, hist))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Error(t, phh.WriteHandFile(path, nil))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hand.phh", entries[0].Name())
}

func TestNewWriterRequiresDir(t *testing.T) {
	_, err := phh.NewWriter(phh.WriterConfig{}, nil)
	assert.Error(t, err)
}
