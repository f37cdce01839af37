package uploadlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads.csv")

	l, err := Open(path)
	require.NoError(t, err)
	require.NotEmpty(t, l.BatchID())

	require.NoError(t, l.Record("Page:Book.pdf/1", StatusUploaded, ""))
	require.NoError(t, l.Record("Page:Book.pdf/2", StatusFailed, "save error"))
	require.NoError(t, l.Close())

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, l.BatchID(), entries[0].BatchID)
	assert.Equal(t, "Page:Book.pdf/1", entries[0].PageTitle)
	assert.Equal(t, StatusUploaded, entries[0].Status)
	assert.Equal(t, "Page:Book.pdf/2", entries[1].PageTitle)
	assert.Equal(t, "save error", entries[1].Detail)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestReopenAppendsNewBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads.csv")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Record("Page:Book.pdf/1", StatusUploaded, ""))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Record("Page:Book.pdf/2", StatusUploaded, ""))
	require.NoError(t, second.Close())

	assert.NotEqual(t, first.BatchID(), second.BatchID())

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.BatchID(), entries[0].BatchID)
	assert.Equal(t, second.BatchID(), entries[1].BatchID)
}

func TestUploaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads.csv")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record("Page:Book.pdf/1", StatusUploaded, ""))
	require.NoError(t, l.Record("Page:Book.pdf/2", StatusFailed, "boom"))
	require.NoError(t, l.Record("Page:Book.pdf/3", StatusSkipped, "exists"))
	require.NoError(t, l.Close())

	done, err := Uploaded(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"Page:Book.pdf/1": true}, done)
}

func TestUploadedMissingFile(t *testing.T) {
	done, err := Uploaded(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Empty(t, done)
}
