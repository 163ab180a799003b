package provider

import (
	"context"
	"errors"

	"github.com/vietdv277/autoclass/pkg/types"
)

// Common errors. Storage implementations wrap SDK errors with these so callers
// can classify failures with errors.Is.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrTransient        = errors.New("transient error")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Revision identifies the version of a bucket's metadata that a snapshot was
// read at. Zero means unknown and disables the patch precondition.
type Revision int64

// AutoclassPatch describes the Autoclass settings to write.
type AutoclassPatch struct {
	Enabled              bool
	TerminalStorageClass string
}

// BucketStore reads and patches bucket configuration within one session.
// A BucketStore is owned by a single task and must not be shared between
// concurrent callers.
type BucketStore interface {
	// GetBucket returns the current configuration of the named bucket
	GetBucket(ctx context.Context, name string) (types.BucketSnapshot, Revision, error)

	// PatchAutoclass writes the Autoclass settings, failing if the bucket
	// changed since rev was read
	PatchAutoclass(ctx context.Context, name string, patch AutoclassPatch, rev Revision) error

	// Close releases the session
	Close() error
}

// SessionOpener opens a BucketStore scoped to a project.
type SessionOpener interface {
	Open(ctx context.Context, projectID string) (BucketStore, error)
}
