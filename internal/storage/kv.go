// Package storage is the durable key-value boundary the catalog persists into.
//
// Each driver stores one value per key and replaces it wholesale on Put, so a
// reader observes either the previous value or the new one, never a mix.
// Values are JSON documents.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/homebake/api/internal/enum"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrInvalidKey    = errors.New("invalid key")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// KV is satisfied by every driver in this package.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Options selects and configures a driver for Open.
type Options struct {
	Driver      string
	DatabaseURL string // postgres, mysql
	Path        string // file (directory), sqlite (database file)
}

// Open returns the KV driver named by opts.Driver.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case enum.StoreDriverMemory:
		return NewMemory(), nil
	case enum.StoreDriverFile:
		return NewFile(opts.Path)
	case enum.StoreDriverPostgres:
		return NewPostgres(ctx, opts.DatabaseURL)
	case enum.StoreDriverSQLite:
		return OpenSQLite(opts.Path)
	case enum.StoreDriverMySQL:
		return OpenMySQL(opts.DatabaseURL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
}

func validKey(key string) bool {
	if key == "" || len(key) > 128 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
