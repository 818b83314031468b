package backend

import (
	"context"

	"moneygrowth/internal/ports"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the backend instance and optional cleanup function.
type Result struct {
	Backend ports.Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// File backend specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string
}

// Type represents the kind of storage backend.
type Type string

const (
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
