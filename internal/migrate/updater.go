// Package migrate enables Autoclass on buckets: Updater handles one bucket,
// Orchestrator fans a list of buckets out over a bounded worker pool.
package migrate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vietdv277/autoclass/internal/retry"
	"github.com/vietdv277/autoclass/pkg/provider"
	"github.com/vietdv277/autoclass/pkg/types"
)

// DefaultTerminalStorageClass is the class Autoclass should settle cold objects into.
const DefaultTerminalStorageClass = "ARCHIVE"

// Updater migrates a single bucket: fetch, decide, and patch at most once.
type Updater struct {
	opener        provider.SessionOpener
	policy        retry.Policy
	terminalClass string
	dryRun        bool
	logger        *zap.Logger
}

// UpdaterOption is a functional option for configuring an Updater.
type UpdaterOption func(*Updater)

// WithPolicy sets the retry policy wrapped around each attempt.
func WithPolicy(p retry.Policy) UpdaterOption {
	return func(u *Updater) { u.policy = p }
}

// WithTerminalClass sets the desired Autoclass terminal storage class.
func WithTerminalClass(class string) UpdaterOption {
	return func(u *Updater) { u.terminalClass = class }
}

// WithDryRun makes the Updater report what it would change without patching.
func WithDryRun(dryRun bool) UpdaterOption {
	return func(u *Updater) { u.dryRun = dryRun }
}

// WithUpdaterLogger sets the logger.
func WithUpdaterLogger(l *zap.Logger) UpdaterOption {
	return func(u *Updater) { u.logger = l }
}

// NewUpdater creates an Updater that opens one session per bucket through opener.
func NewUpdater(opener provider.SessionOpener, opts ...UpdaterOption) *Updater {
	u := &Updater{
		opener:        opener,
		policy:        retry.DefaultPolicy(),
		terminalClass: DefaultTerminalStorageClass,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Plan reports which Autoclass settings of snap differ from the target.
func Plan(snap types.BucketSnapshot, terminalClass string) (needsAutoclass, needsTerminal bool) {
	return !snap.AutoclassEnabled, snap.AutoclassTerminalStorageClass != terminalClass
}

// Update migrates one bucket. It never returns an empty status: failures are
// reported as "Error: <message>" with an empty snapshot.
func (u *Updater) Update(ctx context.Context, id types.BucketIdentity) (res types.MigrationResult) {
	log := u.logger.With(zap.String("project", id.ProjectID), zap.String("bucket", id.BucketName))

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected failure: %v", r)
			log.Error("Error processing bucket", zap.Error(err), zap.Stack("stack"))
			res = types.ErrorResult(id, err)
		}
	}()

	store, err := u.opener.Open(ctx, id.ProjectID)
	if err != nil {
		log.Error("Error processing bucket", zap.Error(err))
		return types.ErrorResult(id, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close storage session", zap.Error(err))
		}
	}()

	policy := u.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("Retrying due to error",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	var (
		snap   types.BucketSnapshot
		status types.MigrationStatus
	)
	out := policy.Do(ctx, func(ctx context.Context, _ int) retry.Outcome {
		s, st, err := u.attempt(ctx, store, id)
		switch {
		case err == nil:
			snap, status = s, st
			return retry.Ok()
		case provider.IsTransient(err):
			return retry.Retry(err)
		default:
			return retry.Fail(err)
		}
	})

	if out.Failed() {
		log.Error("Error processing bucket",
			zap.Error(out.Err),
			zap.Stringer("outcome", out.Kind),
			zap.Int("attempts", out.Attempts),
		)
		failed := types.ErrorResult(id, out.Err)
		failed.Attempts = out.Attempts
		return failed
	}

	switch status {
	case types.StatusSkipped:
		log.Info("Skipped bucket: already in Autoclass with terminal class",
			zap.String("terminal_class", u.terminalClass))
	case types.StatusDryRun:
		log.Info("Dry run: bucket would be migrated", zap.String("terminal_class", u.terminalClass))
	default:
		log.Info("Migrated bucket", zap.String("terminal_class", u.terminalClass), zap.Int("attempts", out.Attempts))
	}

	return types.MigrationResult{
		Identity: id,
		Snapshot: snap,
		Status:   status,
		Attempts: out.Attempts,
	}
}

// attempt is one fetch-decide-patch cycle. Each attempt re-reads the bucket
// so a retried patch never acts on stale state.
func (u *Updater) attempt(ctx context.Context, store provider.BucketStore, id types.BucketIdentity) (types.BucketSnapshot, types.MigrationStatus, error) {
	snap, rev, err := store.GetBucket(ctx, id.BucketName)
	if err != nil {
		return types.BucketSnapshot{}, "", fmt.Errorf("get bucket %s: %w", id.BucketName, err)
	}

	needsAutoclass, needsTerminal := Plan(snap, u.terminalClass)
	if !needsAutoclass && !needsTerminal {
		return snap, types.StatusSkipped, nil
	}
	if u.dryRun {
		return snap, types.StatusDryRun, nil
	}

	patch := provider.AutoclassPatch{Enabled: true, TerminalStorageClass: u.terminalClass}
	if err := store.PatchAutoclass(ctx, id.BucketName, patch, rev); err != nil {
		return types.BucketSnapshot{}, "", fmt.Errorf("patch bucket %s: %w", id.BucketName, err)
	}

	snap.AutoclassEnabled = true
	snap.AutoclassTerminalStorageClass = u.terminalClass
	return snap, types.StatusMigrated, nil
}
