package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zaptest"

	"github.com/vietdv277/autoclass/pkg/types"
)

// migratorFunc adapts a function to the Migrator interface.
type migratorFunc func(ctx context.Context, id types.BucketIdentity) types.MigrationResult

func (f migratorFunc) Update(ctx context.Context, id types.BucketIdentity) types.MigrationResult {
	return f(ctx, id)
}

func identities(n int) []types.BucketIdentity {
	ids := make([]types.BucketIdentity, n)
	for i := range ids {
		ids[i] = types.BucketIdentity{ProjectID: fmt.Sprintf("p%d", i%3), BucketName: fmt.Sprintf("bucket-%03d", i), Line: i + 2}
	}
	return ids
}

func TestOrchestratorRun(t *testing.T) {
	Convey("Given buckets in several states", t, func() {
		cloud := newFakeCloud()
		ids := identities(60)
		for i, id := range ids {
			snap := types.BucketSnapshot{StorageClass: "STANDARD", Location: id.BucketName}
			if i%2 == 0 {
				snap.AutoclassEnabled = true
				snap.AutoclassTerminalStorageClass = "ARCHIVE"
			}
			if i%10 == 9 {
				continue // never created
			}
			cloud.add(id.ProjectID, id.BucketName, snap)
		}

		var progressed int
		o := NewOrchestrator(
			NewUpdater(cloud, WithPolicy(fastPolicy())),
			WithConcurrency(7),
			WithRunID("run-1"),
			WithLogger(zaptest.NewLogger(t)),
			WithProgress(func(types.MigrationResult) { progressed++ }),
		)

		results, summary := o.Run(context.Background(), ids)

		Convey("there is exactly one result per input row, in input order", func() {
			So(results, ShouldHaveLength, len(ids))
			for i, res := range results {
				So(res.Identity, ShouldResemble, ids[i])
				if !res.Status.IsError() {
					// snapshot fields belong to the row's own bucket
					So(res.Snapshot.Location, ShouldEqual, ids[i].BucketName)
				}
			}
			So(progressed, ShouldEqual, len(ids))
		})

		Convey("statuses follow each bucket's state", func() {
			for i, res := range results {
				switch {
				case i%10 == 9:
					So(res.Status.IsError(), ShouldBeTrue)
				case i%2 == 0:
					So(res.Status, ShouldEqual, types.StatusSkipped)
				default:
					So(res.Status, ShouldEqual, types.StatusMigrated)
				}
			}
		})

		Convey("the summary adds up", func() {
			So(summary.RunID, ShouldEqual, "run-1")
			So(summary.Total, ShouldEqual, 60)
			So(summary.Errors, ShouldEqual, 6)
			So(summary.Skipped, ShouldEqual, 30)
			So(summary.Migrated, ShouldEqual, 24)
			So(summary.Failed(), ShouldBeTrue)
		})
	})

	Convey("No more than the configured number of buckets run at once", t, func() {
		var inFlight, peak atomic.Int32
		m := migratorFunc(func(_ context.Context, id types.BucketIdentity) types.MigrationResult {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return types.MigrationResult{Identity: id, Status: types.StatusSkipped}
		})

		results, summary := NewOrchestrator(m, WithConcurrency(4)).Run(context.Background(), identities(40))
		So(results, ShouldHaveLength, 40)
		So(summary.Skipped, ShouldEqual, 40)
		So(peak.Load(), ShouldBeLessThanOrEqualTo, 4)
		So(peak.Load(), ShouldBeGreaterThan, 1)
	})

	Convey("A panicking migrator yields an error row instead of dropping it", t, func() {
		m := migratorFunc(func(_ context.Context, id types.BucketIdentity) types.MigrationResult {
			if id.BucketName == "bucket-002" {
				panic("boom")
			}
			return types.MigrationResult{Identity: id, Status: types.StatusMigrated}
		})

		results, summary := NewOrchestrator(m, WithConcurrency(2)).Run(context.Background(), identities(5))
		So(results, ShouldHaveLength, 5)
		So(string(results[2].Status), ShouldEqual, "Error: unexpected failure: boom")
		So(results[2].Identity.BucketName, ShouldEqual, "bucket-002")
		So(summary.Migrated, ShouldEqual, 4)
		So(summary.Errors, ShouldEqual, 1)
	})

	Convey("A migrator returning no status is reported as an error", t, func() {
		m := migratorFunc(func(context.Context, types.BucketIdentity) types.MigrationResult {
			return types.MigrationResult{}
		})
		results, _ := NewOrchestrator(m).Run(context.Background(), identities(1))
		So(results[0].Status.IsError(), ShouldBeTrue)
		So(results[0].Identity, ShouldResemble, identities(1)[0])
	})

	Convey("A cancelled run still reports every row", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		var once sync.Once
		m := migratorFunc(func(ctx context.Context, id types.BucketIdentity) types.MigrationResult {
			once.Do(cancel)
			if err := ctx.Err(); err != nil {
				return types.ErrorResult(id, err)
			}
			return types.MigrationResult{Identity: id, Status: types.StatusMigrated}
		})

		results, summary := NewOrchestrator(m, WithConcurrency(1)).Run(ctx, identities(25))
		So(results, ShouldHaveLength, 25)
		So(summary.Total, ShouldEqual, 25)
		So(summary.Errors, ShouldEqual, 25)
		for _, res := range results {
			So(errors.Is(res.Err, context.Canceled), ShouldBeTrue)
		}
	})

	Convey("An empty input produces an empty report", t, func() {
		results, summary := NewOrchestrator(migratorFunc(nil)).Run(context.Background(), nil)
		So(results, ShouldBeEmpty)
		So(summary.Total, ShouldEqual, 0)
		So(summary.RunID, ShouldNotBeBlank)
	})
}
