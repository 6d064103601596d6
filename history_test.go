package lineedit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAddDedupTail(t *testing.T) {
	h := newHistory(10)
	assert.True(t, h.add("one"))
	assert.True(t, h.add("two"))
	// duplicate of the most recent entry: suppressed.
	assert.False(t, h.add("two"))
	// not a duplicate of the tail, even though it's elsewhere in history.
	assert.True(t, h.add("one"))
	assert.Equal(t, []string{"one", "two", "one"}, h.list())
}

func TestHistoryAddZeroCapacity(t *testing.T) {
	h := newHistory(0)
	assert.False(t, h.add("one"))
	assert.Equal(t, 0, h.len())
}

func TestHistoryEviction(t *testing.T) {
	h := newHistory(2)
	h.add("one")
	h.add("two")
	h.add("three")
	assert.Equal(t, []string{"two", "three"}, h.list())
}

func TestHistoryGetSet(t *testing.T) {
	h := newHistory(10)
	h.add("one")
	h.add("two")
	h.add("three")
	assert.Equal(t, "three", h.get(0))
	assert.Equal(t, "two", h.get(1))
	assert.Equal(t, "one", h.get(2))

	h.set(0, "THREE")
	assert.Equal(t, []string{"one", "two", "THREE"}, h.list())
}

func TestHistoryPopNewest(t *testing.T) {
	h := newHistory(10)
	h.add("one")
	h.add("two")
	popped := h.pop(-1)
	assert.Equal(t, "two", popped)
	assert.Equal(t, []string{"one"}, h.list())
}

func TestHistoryPopOutOfRange(t *testing.T) {
	h := newHistory(10)
	assert.Equal(t, "", h.pop(-1))
	assert.Equal(t, "", h.pop(5))
}

func TestHistorySetMaxLenInvalid(t *testing.T) {
	h := newHistory(10)
	err := h.setMaxLen(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHistorySetMaxLenTrims(t *testing.T) {
	h := newHistory(10)
	h.add("one")
	h.add("two")
	h.add("three")
	require.NoError(t, h.setMaxLen(2))
	assert.Equal(t, []string{"two", "three"}, h.list())
}

func TestHistorySaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.txt")

	h := newHistory(10)
	h.add("one")
	h.add("two")
	h.add("three")
	require.NoError(t, h.save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded := newHistory(10)
	require.NoError(t, loaded.load(path))
	assert.Equal(t, h.list(), loaded.list())
}

func TestHistoryLoadMissingFileIsAnError(t *testing.T) {
	h := newHistory(10)
	err := h.load(filepath.Join(t.TempDir(), "nonexistent.txt"))
	assert.ErrorIs(t, err, ErrHistoryIO)
	assert.Equal(t, 0, h.len())
}

func TestHistorySaveIOError(t *testing.T) {
	h := newHistory(10)
	h.add("one")
	// A directory that doesn't exist can't be opened for writing.
	err := h.save(filepath.Join(t.TempDir(), "missing-dir", "history.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHistoryIO))
}
