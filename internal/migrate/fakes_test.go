package migrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vietdv277/autoclass/internal/retry"
	"github.com/vietdv277/autoclass/pkg/provider"
	"github.com/vietdv277/autoclass/pkg/types"
)

// fakeCloud is an in-memory bucket service shared by every fake session.
type fakeCloud struct {
	mu        sync.Mutex
	buckets   map[string]*fakeBucket
	getErrs   map[string][]error // returned, in order, before a get succeeds
	patchErrs map[string][]error
	openErr   error
	opens     int
	closes    int
}

type fakeBucket struct {
	snap    types.BucketSnapshot
	rev     provider.Revision
	patches int
	panics  bool
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		buckets:   map[string]*fakeBucket{},
		getErrs:   map[string][]error{},
		patchErrs: map[string][]error{},
	}
}

func key(project, bucket string) string { return project + "/" + bucket }

func (c *fakeCloud) add(project, bucket string, snap types.BucketSnapshot) *fakeBucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &fakeBucket{snap: snap, rev: 1}
	c.buckets[key(project, bucket)] = b
	return b
}

func (c *fakeCloud) patchCount(project, bucket string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.buckets[key(project, bucket)]; ok {
		return b.patches
	}
	return 0
}

func (c *fakeCloud) sessions() (opens, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens, c.closes
}

func (c *fakeCloud) Open(_ context.Context, projectID string) (provider.BucketStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.opens++
	return &fakeSession{cloud: c, project: projectID}, nil
}

type fakeSession struct {
	cloud   *fakeCloud
	project string
	closed  bool
}

func (s *fakeSession) GetBucket(ctx context.Context, name string) (types.BucketSnapshot, provider.Revision, error) {
	if err := ctx.Err(); err != nil {
		return types.BucketSnapshot{}, 0, err
	}
	c := s.cloud
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(s.project, name)
	if errs := c.getErrs[k]; len(errs) > 0 {
		c.getErrs[k] = errs[1:]
		return types.BucketSnapshot{}, 0, errs[0]
	}
	b, ok := c.buckets[k]
	if !ok {
		return types.BucketSnapshot{}, 0, fmt.Errorf("%w: storage: bucket doesn't exist", provider.ErrNotFound)
	}
	if b.panics {
		panic("corrupt bucket metadata")
	}
	return b.snap, b.rev, nil
}

func (s *fakeSession) PatchAutoclass(_ context.Context, name string, patch provider.AutoclassPatch, rev provider.Revision) error {
	c := s.cloud
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(s.project, name)
	if errs := c.patchErrs[k]; len(errs) > 0 {
		c.patchErrs[k] = errs[1:]
		return errs[0]
	}
	b, ok := c.buckets[k]
	if !ok {
		return fmt.Errorf("%w: storage: bucket doesn't exist", provider.ErrNotFound)
	}
	if rev != b.rev {
		return fmt.Errorf("%w: 412 precondition failed", provider.ErrTransient)
	}
	b.snap.AutoclassEnabled = patch.Enabled
	b.snap.AutoclassTerminalStorageClass = patch.TerminalStorageClass
	b.rev++
	b.patches++
	return nil
}

func (s *fakeSession) Close() error {
	s.cloud.mu.Lock()
	defer s.cloud.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.cloud.closes++
	}
	return nil
}

func transient(msg string) error {
	return fmt.Errorf("%w: %s", provider.ErrTransient, msg)
}

// fastPolicy retries like the default policy without sleeping.
func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: retry.DefaultMaxAttempts,
		Backoff:     retry.DefaultBackoff(),
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}
