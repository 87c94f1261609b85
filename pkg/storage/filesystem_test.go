package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("students.csv", []byte("id,reg_no\nS001,2023001\n"))
	require.NoError(t, err)
	require.Equal(t, "students.csv", name)

	file, err := store.Open("students.csv")
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	data, err := os.ReadFile(file.Name())
	require.NoError(t, err)
	require.Contains(t, string(data), "S001")
}

func TestLocalStorageBackup(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	_, err = store.Save("students.csv", []byte("a,b\n"))
	require.NoError(t, err)
	_, err = store.Save("courses.csv", []byte("c,d\n"))
	require.NoError(t, err)

	rel, err := store.Backup()
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(base, rel))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	size, err := store.BackupSize()
	require.NoError(t, err)
	require.Equal(t, int64(8), size)
}

func TestLocalStorageBackupSizeEmpty(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	size, err := store.BackupSize()
	require.NoError(t, err)
	require.Zero(t, size)
}

func TestLocalStorageBackupSkipsPriorBackups(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	_, err = store.Save("students.csv", []byte("a,b\n"))
	require.NoError(t, err)

	first, err := store.Backup()
	require.NoError(t, err)

	second, err := store.Backup()
	require.NoError(t, err)

	// only top-level files are copied, never the backups tree itself
	entries, err := os.ReadDir(filepath.Join(base, second))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "students.csv", entries[0].Name())

	_ = first
}
