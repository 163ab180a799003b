// Package report reads the bucket list and writes the migration report, both CSV.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vietdv277/autoclass/pkg/types"
)

// Input columns.
const (
	ColumnProjectID  = "GOOGLE_PROJECT_ID"
	ColumnBucketName = "BUCKET_NAME"
)

// Header is the report's column order.
var Header = []string{
	"project_id",
	"bucket_name",
	"storage_class",
	"location",
	"location_type",
	"autoclass_enabled",
	"autoclass_terminal_storage_class",
	"requester_pays",
	"migration_status",
}

// ErrMissingColumn is returned when the input header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// OutputPaths derives the report and log paths from the input path:
// "<base>_output<ext>" and "<base>_output.log".
func OutputPaths(input string) (csvPath, logPath string) {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + "_output" + ext, base + "_output.log"
}

// ReadIdentities parses the input CSV. Columns may appear in any order and
// extra columns are ignored. Each identity records its line in the file.
func ReadIdentities(r io.Reader) ([]types.BucketIdentity, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: input is empty", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	projectCol, bucketCol := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case ColumnProjectID:
			projectCol = i
		case ColumnBucketName:
			bucketCol = i
		}
	}
	if projectCol < 0 {
		return nil, fmt.Errorf("%w %s", ErrMissingColumn, ColumnProjectID)
	}
	if bucketCol < 0 {
		return nil, fmt.Errorf("%w %s", ErrMissingColumn, ColumnBucketName)
	}

	var ids []types.BucketIdentity
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if isBlank(rec) {
			continue
		}

		line, _ := cr.FieldPos(0)
		id := types.BucketIdentity{
			ProjectID:  field(rec, projectCol),
			BucketName: field(rec, bucketCol),
			Line:       line,
		}
		if id.ProjectID == "" || id.BucketName == "" {
			return nil, fmt.Errorf("line %d: both %s and %s are required", line, ColumnProjectID, ColumnBucketName)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteResults writes the report header and one row per result.
func WriteResults(w io.Writer, results []types.MigrationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, res := range results {
		if err := cw.Write(Record(res)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Record renders a result in Header order.
func Record(res types.MigrationResult) []string {
	return []string{
		res.Identity.ProjectID,
		res.Identity.BucketName,
		res.Snapshot.StorageClass,
		res.Snapshot.Location,
		res.Snapshot.LocationType,
		formatBool(res.Snapshot.AutoclassEnabled),
		res.Snapshot.AutoclassTerminalStorageClass,
		formatBool(res.Snapshot.RequesterPays),
		string(res.Status),
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
