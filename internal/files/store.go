// Package files implements the per-user file store with quota, size and
// naming policy enforcement.
package files

import (
	"context"
	"strings"
	"time"
)

// FileInfo describes a single stored file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store defines the persistence contract for per-user files. All per-user
// state is exclusively owned by that user; implementations must never expose
// one user's files to another.
type Store interface {
	// List returns the user's files ordered by name; an empty slice, not an
	// error, when the user has none.
	List(ctx context.Context, userID int64) ([]FileInfo, error)
	// Exists reports whether the named file is present for the user.
	Exists(ctx context.Context, userID int64, name string) (bool, error)
	// Save persists content under the sanitized name. It fails with a quota,
	// size or name-conflict error before writing anything; uploads never
	// overwrite.
	Save(ctx context.Context, userID int64, name string, content []byte) error
	// Delete removes the named file, failing with a not-found error when absent.
	Delete(ctx context.Context, userID int64, name string) error
	// Count returns the user's current file count.
	Count(ctx context.Context, userID int64) (int, error)
}

// Policy captures the file-acceptance regime selected at configuration time.
// The general regime carries no extension restriction and no content scan;
// the scripts regime restricts extensions and gates content.
type Policy struct {
	AllowedExtensions []string
	ScanUploads       bool
	MaxFiles          int
	MaxFileSize       int64
}

// ExtensionAllowed reports whether the sanitized name passes the extension
// restriction. An empty AllowedExtensions list allows everything.
func (p Policy) ExtensionAllowed(name string) bool {
	if len(p.AllowedExtensions) == 0 {
		return true
	}

	for _, ext := range p.AllowedExtensions {
		if strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(strings.TrimPrefix(ext, "."))) {
			return true
		}
	}

	return false
}

// validName rejects names that survived sanitization but still cannot be
// stored: empty strings and the dot entries that would resolve outside the
// user's directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`)
}
