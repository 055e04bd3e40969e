package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Backend types.
const (
	TypeFile     = "file"
	TypeNutsDB   = "nutsdb"
	TypeValkey   = "valkey"
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// ErrNotFound is returned by Get when no record exists under the key.
var ErrNotFound = errors.New("storage: record not found")

// Backend is a durable key/value namespace.
type Backend interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the record stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Name returns the backend type for logs and metrics.
	Name() string

	// Close releases the backend's resources.
	Close() error
}

// Options selects and configures a Backend.
type Options struct {
	// Type is one of file, nutsdb, valkey, postgres, memory (default: file).
	Type string

	// Dir is the data directory for the file and nutsdb backends.
	Dir string

	// ValkeyURL is the Valkey server address, e.g. "localhost:6379".
	ValkeyURL string

	// ValkeyPassword is the optional Valkey password.
	ValkeyPassword string

	// DatabaseURL is the postgres connection string.
	DatabaseURL string
}

// ValidTypes lists the accepted backend types.
var ValidTypes = []string{TypeFile, TypeNutsDB, TypeValkey, TypePostgres, TypeMemory}

// Open constructs the backend selected by opts.Type.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Type {
	case "", TypeFile:
		return NewFile(opts.Dir)
	case TypeNutsDB:
		return NewNutsDB(opts.Dir)
	case TypeValkey:
		return NewValkey(opts.ValkeyURL, opts.ValkeyPassword)
	case TypePostgres:
		return NewPostgres(ctx, opts.DatabaseURL)
	case TypeMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", opts.Type)
	}
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateKey checks that key is usable by every backend (including as a file name).
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid storage key %q: must be 1-64 letters, digits, '-' or '_'", key)
	}
	return nil
}
