package flash

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func media(t *testing.T) map[string]Medium {
	t.Helper()

	dir, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "flash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Medium{
		"memory": NewMemory(),
		"file":   dir,
		"sqlite": db,
	}
}

func TestMediumRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, m := range media(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, m.Put(ctx, "preset/03", []byte(`{"a":1}`)))

			got, err := m.Get(ctx, "preset/03")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(got))
		})
	}
}

func TestMediumOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, m := range media(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, m.Put(ctx, "index", []byte("1")))
			require.NoError(t, m.Put(ctx, "index", []byte("2")))

			got, err := m.Get(ctx, "index")
			require.NoError(t, err)
			assert.Equal(t, "2", string(got))
		})
	}
}

func TestMediumMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, m := range media(t) {
		t.Run(name, func(t *testing.T) {
			_, err := m.Get(ctx, "shared")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	v := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", v))
	v[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, m.Writes())
	assert.Equal(t, []string{"k"}, m.Keys())
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()
	assert.ErrorIs(t, m.Put(ctx, "k", nil), context.Canceled)
	assert.Empty(t, m.Keys())
}

func TestDirLayout(t *testing.T) {
	root := t.TempDir()
	d, err := OpenDir(root)
	require.NoError(t, err)

	require.NoError(t, d.Put(context.Background(), "preset/07", []byte("{}")))

	_, err = os.Stat(filepath.Join(root, "preset", "07.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "preset"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestDirRejectsEscapingKeys(t *testing.T) {
	d, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, d.Put(context.Background(), "../outside", []byte("x")))
	_, err = d.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flash.db")

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, "shared", []byte(`{"brightness":9}`)))
	require.NoError(t, s1.Put(ctx, "shared", []byte(`{"brightness":10}`)))
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, `{"brightness":10}`, string(got))

	n, err := s2.Writes(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpenBackends(t *testing.T) {
	root := t.TempDir()

	m, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	f, err := Open(BackendFile, root)
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, f)

	s, err := Open(BackendSQLite, root)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLite{}, s)
	assert.FileExists(t, filepath.Join(root, "flash.db"))

	_, err = Open("eeprom", root)
	assert.Error(t, err)
}
