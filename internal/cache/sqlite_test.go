package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "findings.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	first.Put(ctx, "abc", "v1", sampleFindings())
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	got, ok := second.Get(ctx, "abc", "v1")
	require.True(t, ok, "entries survive process restarts")
	assert.Equal(t, sampleFindings(), got)
}

func TestSQLite_MissOnDifferentVersion(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "findings.db"))
	require.NoError(t, err)
	defer s.Close()

	s.Put(ctx, "abc", "v1", sampleFindings())

	_, ok := s.Get(ctx, "abc", "v2")
	assert.False(t, ok)
}

func TestSQLite_EmptyHitIsNotAMiss(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "findings.db"))
	require.NoError(t, err)
	defer s.Close()

	s.Put(ctx, "clean-file", "v1", nil)

	got, ok := s.Get(ctx, "clean-file", "v1")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestSQLite_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "findings.db"))
	require.NoError(t, err)
	defer s.Close()

	s.Put(ctx, "abc", "v1", sampleFindings())
	s.Put(ctx, "abc", "v1", sampleFindings()[:1])

	got, ok := s.Get(ctx, "abc", "v1")
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestSQLite_GarbageFileRebuiltEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "findings.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a database"), 0o644))

	s, err := OpenSQLite(path)
	require.NoError(t, err, "corruption degrades to an empty cache, not a failed scan")
	defer s.Close()

	_, ok := s.Get(ctx, "abc", "v1")
	assert.False(t, ok)

	s.Put(ctx, "abc", "v1", sampleFindings())
	_, ok = s.Get(ctx, "abc", "v1")
	assert.True(t, ok, "rebuilt cache accepts writes")
}

func TestSQLite_PruneDropsOtherVersions(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "findings.db"))
	require.NoError(t, err)
	defer s.Close()

	s.Put(ctx, "abc", "v1", sampleFindings())
	s.Put(ctx, "def", "v2", sampleFindings())

	s.Prune(ctx, "v2")

	_, ok := s.Get(ctx, "abc", "v1")
	assert.False(t, ok, "stale version rows are gone")

	_, ok = s.Get(ctx, "def", "v2")
	assert.True(t, ok, "current version rows survive")
}

func TestSQLite_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "findings.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
