package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "README.md.lock")

	lock := NewFileLock(lockPath)
	require.NotNil(t, lock)
	assert.Equal(t, lockPath, lock.path)
}

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	require.NoError(t, lock.Lock(context.Background()))
	require.NoError(t, lock.Unlock())
}

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	first := NewFileLock(lockPath)
	require.NoError(t, first.Lock(context.Background()))
	defer first.Unlock()

	acquired, err := NewFileLock(lockPath).TryLock()
	require.NoError(t, err)
	assert.False(t, acquired, "a second lock must not be acquired while the first is held")
}

func TestLockHonorsContext(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock(context.Background()))
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := NewFileLock(lockPath).Lock(ctx)
	assert.Error(t, err)
}

func TestAtomicWrite(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		data     string
	}{
		{name: "new file", data: "# Title\n"},
		{name: "overwrite", existing: "old", data: "new"},
		{name: "empty content", existing: "old", data: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "README.md")
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0644))
			}

			require.NoError(t, AtomicWrite(path, []byte(tt.data)))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(got))
		})
	}
}

func TestAtomicWritePreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

	require.NoError(t, AtomicWrite(path, []byte("new")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAtomicWriteNewFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "guide.md")

	require.NoError(t, AtomicWrite(path, []byte("x")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestAtomicWriteNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AtomicWrite(filepath.Join(dir, "README.md"), []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".goodread-"), "leftover %s", entry.Name())
	}
}

func TestLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	ctx := context.Background()

	changed, err := LockAndWrite(ctx, path, []byte("v1"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = LockAndWrite(ctx, path, []byte("v1"))
	require.NoError(t, err)
	assert.False(t, changed, "identical content is not rewritten")

	changed, err = LockAndWrite(ctx, path, []byte("v2"))
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestConcurrentLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := LockAndWrite(context.Background(), path, []byte(fmt.Sprintf("writer %d\n", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^writer \d\n$`, string(got), "file holds exactly one complete write")
}
