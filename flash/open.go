package flash

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Medium is what every backend provides.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open returns the named backend rooted at path. For sqlite, path is the
// directory holding flash.db. An empty path uses DefaultDir.
func Open(backend, path string) (Medium, error) {
	if backend != BackendMemory && path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = dir
	}

	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return OpenDir(path)
	case BackendSQLite:
		d, err := OpenDir(path)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(filepath.Join(d.Root(), "flash.db"))
	}
	return nil, fmt.Errorf("unknown flash backend %q", backend)
}

// Close is a no-op for Memory.
func (m *Memory) Close() error { return nil }

// Close is a no-op for Dir.
func (d *Dir) Close() error { return nil }
