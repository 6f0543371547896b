// Package artifact persists the index/sidecar pair. A FileStore abstracts
// the backend (local disk or S3) and Pair implements the generation
// replacement protocol on top of it.
package artifact

import (
	"context"
	"io"
)

// FileStore is a minimal interface for whole-file storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file. A missing file yields an error wrapping
	// os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	// Write opens the named file for writing, replacing any existing file.
	// The data becomes visible when the writer is closed without error.
	Write(ctx context.Context, path string) (io.WriteCloser, error)
	// Rename moves from to to, overwriting to if it exists.
	Rename(ctx context.Context, from, to string) error
	// Delete removes the named file; missing files are not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
