package files

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/botmakerhq/hostbot/internal/errors"
)

func newTestStore(t *testing.T, policy Policy) *DiskStore {
	t.Helper()

	store, err := NewDiskStore(t.TempDir(), policy, testLogger())
	require.NoError(t, err)

	return store
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultPolicy() Policy {
	return Policy{MaxFiles: 10, MaxFileSize: 10 * 1024 * 1024}
}

func TestDiskStore_SaveAndExists(t *testing.T) {
	store := newTestStore(t, defaultPolicy())
	ctx := context.Background()

	err := store.Save(ctx, 42, "hello.txt", []byte("hello world, fifty bytes of text padding here....."))
	require.NoError(t, err)

	exists, err := store.Exists(ctx, 42, "hello.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, 42, "missing.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	// Another user never sees the file.
	exists, err = store.Exists(ctx, 43, "hello.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiskStore_SaveConflictKeepsOriginal(t *testing.T) {
	store := newTestStore(t, defaultPolicy())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 1, "bot.php", []byte("original")))

	err := store.Save(ctx, 1, "bot.php", []byte("replacement"))
	assert.ErrorIs(t, err, apperrors.NewNameConflictError("bot.php"))

	data, err := os.ReadFile(filepath.Join(store.baseDir, "1", "bot.php"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestDiskStore_SaveQuota(t *testing.T) {
	store := newTestStore(t, Policy{MaxFiles: 10, MaxFileSize: 1024})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Save(ctx, 7, "file"+string(rune('a'+i))+".txt", []byte("x")))
	}

	err := store.Save(ctx, 7, "eleventh.txt", []byte("x"))
	assert.ErrorIs(t, err, apperrors.NewQuotaExceededError(10))

	count, err := store.Count(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestDiskStore_SaveTooLarge(t *testing.T) {
	store := newTestStore(t, Policy{MaxFiles: 10, MaxFileSize: 4})
	ctx := context.Background()

	err := store.Save(ctx, 7, "big.txt", []byte("12345"))
	assert.ErrorIs(t, err, apperrors.NewTooLargeError("4 B"))

	exists, err := store.Exists(ctx, 7, "big.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiskStore_SaveInvalidName(t *testing.T) {
	store := newTestStore(t, defaultPolicy())
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		err := store.Save(ctx, 7, name, []byte("x"))
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestDiskStore_SavePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	store := newTestStore(t, defaultPolicy())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 9, "secret.php", []byte("<?php ?>")))

	info, err := os.Stat(filepath.Join(store.baseDir, "9", "secret.php"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestDiskStore_DeleteMissing(t *testing.T) {
	store := newTestStore(t, defaultPolicy())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 5, "keep.txt", []byte("x")))

	err := store.Delete(ctx, 5, "missing.txt")
	assert.ErrorIs(t, err, apperrors.NewNotFoundError("missing.txt"))

	count, err := store.Count(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDiskStore_DeleteThenGone(t *testing.T) {
	store := newTestStore(t, defaultPolicy())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 5, "gone.txt", []byte("x")))
	require.NoError(t, store.Delete(ctx, 5, "gone.txt"))

	exists, err := store.Exists(ctx, 5, "gone.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiskStore_ListEmptyAndOrdered(t *testing.T) {
	store := newTestStore(t, defaultPolicy())
	ctx := context.Background()

	list, err := store.List(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Save(ctx, 100, "b.txt", []byte("bb")))
	require.NoError(t, store.Save(ctx, 100, "a.txt", []byte("a")))

	list, err = store.List(ctx, 100)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.txt", list[0].Name)
	assert.Equal(t, int64(1), list[0].Size)
	assert.Equal(t, "b.txt", list[1].Name)
	assert.Equal(t, int64(2), list[1].Size)
}

func TestDiskStore_HealthCheck(t *testing.T) {
	store := newTestStore(t, defaultPolicy())
	assert.NoError(t, store.HealthCheck(context.Background()))
}
