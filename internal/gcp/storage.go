package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/vietdv277/autoclass/pkg/provider"
	"github.com/vietdv277/autoclass/pkg/types"
)

// StorageOpener implements provider.SessionOpener on top of Cloud Storage.
// Every Open creates a dedicated *storage.Client.
type StorageOpener struct {
	clientOpts    []option.ClientOption
	billToProject bool
}

// NewStorageOpener creates an opener that builds storage clients with opts.
func NewStorageOpener(billToProject bool, opts ...option.ClientOption) *StorageOpener {
	return &StorageOpener{clientOpts: opts, billToProject: billToProject}
}

// Open implements provider.SessionOpener.
func (o *StorageOpener) Open(ctx context.Context, projectID string) (provider.BucketStore, error) {
	client, err := storage.NewClient(ctx, o.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client for project %s: %w", projectID, err)
	}
	// Retries are driven by the caller's retry.Policy so attempts are counted once.
	client.SetRetry(storage.WithPolicy(storage.RetryNever))

	s := &session{client: client}
	if o.billToProject {
		s.userProject = projectID
	}
	return s, nil
}

// session is a provider.BucketStore bound to one storage client.
type session struct {
	client      *storage.Client
	userProject string
}

func (s *session) bucket(name string) *storage.BucketHandle {
	b := s.client.Bucket(name)
	if s.userProject != "" {
		b = b.UserProject(s.userProject)
	}
	return b
}

// GetBucket implements provider.BucketStore.
func (s *session) GetBucket(ctx context.Context, name string) (types.BucketSnapshot, provider.Revision, error) {
	attrs, err := s.bucket(name).Attrs(ctx)
	if err != nil {
		return types.BucketSnapshot{}, 0, Classify(err)
	}
	return snapshotFromAttrs(attrs), provider.Revision(attrs.MetaGeneration), nil
}

// PatchAutoclass implements provider.BucketStore.
func (s *session) PatchAutoclass(ctx context.Context, name string, patch provider.AutoclassPatch, rev provider.Revision) error {
	b := s.bucket(name)
	if rev != 0 {
		b = b.If(storage.BucketConditions{MetagenerationMatch: int64(rev)})
	}

	update := storage.BucketAttrsToUpdate{
		Autoclass: &storage.Autoclass{
			Enabled:              patch.Enabled,
			TerminalStorageClass: patch.TerminalStorageClass,
		},
	}
	if _, err := b.Update(ctx, update); err != nil {
		return Classify(err)
	}
	return nil
}

// Close implements provider.BucketStore.
func (s *session) Close() error {
	return s.client.Close()
}

func snapshotFromAttrs(attrs *storage.BucketAttrs) types.BucketSnapshot {
	snap := types.BucketSnapshot{
		StorageClass:  attrs.StorageClass,
		Location:      attrs.Location,
		LocationType:  attrs.LocationType,
		RequesterPays: attrs.RequesterPays,
	}
	if ac := attrs.Autoclass; ac != nil {
		snap.AutoclassEnabled = ac.Enabled
		snap.AutoclassTerminalStorageClass = ac.TerminalStorageClass
	}
	return snap
}
