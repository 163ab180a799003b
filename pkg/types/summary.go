package types

import "time"

// Summary aggregates the results of one batch run.
type Summary struct {
	RunID    string        `json:"run_id"`
	Total    int           `json:"total"`
	Migrated int           `json:"migrated"`
	Skipped  int           `json:"skipped"`
	DryRun   int           `json:"dry_run"`
	Errors   int           `json:"errors"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Add counts one result
func (s *Summary) Add(res MigrationResult) {
	s.Total++
	switch {
	case res.Status == StatusMigrated:
		s.Migrated++
	case res.Status == StatusSkipped:
		s.Skipped++
	case res.Status == StatusDryRun:
		s.DryRun++
	default:
		s.Errors++
	}
}

// Failed returns true if any row ended in an error
func (s Summary) Failed() bool {
	return s.Errors > 0
}
