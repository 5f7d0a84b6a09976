package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_RunNowRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "stale.csv")
	require.NoError(t, os.WriteFile(stale, []byte("a\n"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "fresh.csv")
	require.NoError(t, os.WriteFile(fresh, []byte("b\n"), 0o644))

	s := NewSweeper(dir, SweeperConfig{MaxAge: time.Hour})
	removed, err := s.RunNow()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestSweeper_RunNowMissingDir(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "absent"), SweeperConfig{})
	removed, err := s.RunNow()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweeper_StopIsIdempotent(t *testing.T) {
	s := NewSweeper(t.TempDir(), SweeperConfig{Interval: time.Hour})
	s.Start()
	s.Stop()
	s.Stop()
}
