package types

import (
	"errors"
	"strings"
)

// BucketIdentity identifies one bucket to migrate, as read from the input CSV.
type BucketIdentity struct {
	ProjectID  string `json:"project_id"`
	BucketName string `json:"bucket_name"`
	Line       int    `json:"-"` // line of the row in the input file
}

// BucketSnapshot is the point-in-time configuration of a bucket.
// The zero value is the empty snapshot reported for failed rows.
type BucketSnapshot struct {
	StorageClass                  string `json:"storage_class"`
	Location                      string `json:"location"`
	LocationType                  string `json:"location_type"`
	AutoclassEnabled              bool   `json:"autoclass_enabled"`
	AutoclassTerminalStorageClass string `json:"autoclass_terminal_storage_class"`
	RequesterPays                 bool   `json:"requester_pays"`
}

// MigrationStatus is the per-row outcome written to the report.
type MigrationStatus string

const (
	StatusMigrated MigrationStatus = "Migrated"
	StatusSkipped  MigrationStatus = "Skipped"
	StatusDryRun   MigrationStatus = "DryRun"

	errorPrefix = "Error: "
)

// ErrorStatus builds the "Error: <message>" status for err.
func ErrorStatus(err error) MigrationStatus {
	if err == nil {
		err = errors.New("unknown error")
	}
	return MigrationStatus(errorPrefix + err.Error())
}

// IsError returns true if the status records a failure
func (s MigrationStatus) IsError() bool {
	return strings.HasPrefix(string(s), errorPrefix)
}

// MigrationResult is the outcome of migrating one bucket.
type MigrationResult struct {
	Identity BucketIdentity  `json:"identity"`
	Snapshot BucketSnapshot  `json:"snapshot"`
	Status   MigrationStatus `json:"migration_status"`
	Attempts int             `json:"attempts"`

	// Err holds the underlying error for failed rows; it is not written to the report.
	Err error `json:"-"`
}

// ErrorResult returns a failed result with an empty snapshot.
func ErrorResult(id BucketIdentity, err error) MigrationResult {
	return MigrationResult{
		Identity: id,
		Status:   ErrorStatus(err),
		Err:      err,
	}
}
