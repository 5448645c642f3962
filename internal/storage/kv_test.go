package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runKVConformance exercises the behavior every driver must share.
func runKVConformance(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, kv.Put(ctx, "menuItems", []byte(`[{"id":"1"}]`)))
		got, err := kv.Get(ctx, "menuItems")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"1"}]`, string(got))
	})

	t.Run("put replaces wholesale", func(t *testing.T) {
		require.NoError(t, kv.Put(ctx, "menuItems", []byte(`[{"id":"1"},{"id":"2"}]`)))
		require.NoError(t, kv.Put(ctx, "menuItems", []byte(`[]`)))
		got, err := kv.Get(ctx, "menuItems")
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(got))
	})

	t.Run("invalid key", func(t *testing.T) {
		err := kv.Put(ctx, "../escape", []byte(`{}`))
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("concurrent writers leave a complete value", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = kv.Put(ctx, "race", []byte(fmt.Sprintf(`{"writer":%d}`, i)))
			}(i)
		}
		wg.Wait()

		got, err := kv.Get(ctx, "race")
		require.NoError(t, err)
		assert.Regexp(t, `^\{"writer": ?[0-7]\}$`, string(got))
	})
}

func TestMemory(t *testing.T) {
	runKVConformance(t, NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte(`{"a":1}`)
	require.NoError(t, m.Put(ctx, "k", value))

	value[2] = 'X'
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	got[2] = 'Y'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, `{"a":1}`, string(again))
}

func TestFile(t *testing.T) {
	kv, err := NewFile(t.TempDir())
	require.NoError(t, err)
	runKVConformance(t, kv)
}

func TestFile_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "menuItems", []byte(`[{"id":"7"}]`)))

	reopened, err := NewFile(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "menuItems")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"7"}]`, string(got))

	// no temp files are left behind
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFile_EmptyDir(t *testing.T) {
	_, err := NewFile("")
	assert.Error(t, err)
}

func TestFile_UnreadableValue(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFile(dir)
	require.NoError(t, err)

	// a directory where the value file should be makes ReadFile fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "broken.json"), 0o755))
	_, err = kv.Get(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestSQLite(t *testing.T) {
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "homebake.db"))
	require.NoError(t, err)
	defer kv.Close()
	runKVConformance(t, kv)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "redis"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_Memory(t *testing.T) {
	kv, err := Open(context.Background(), Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)
}
