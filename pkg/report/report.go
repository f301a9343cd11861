package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/orgtools/orgdelta/pkg/delta"
)

var columns = []string{"Type", "FullName", "Status", "SourceHash", "DestHash"}

// Write renders the change report as CSV, one row per entry in the given
// order. Unchanged entries are omitted unless includeUnchanged is set.
// Output is a pure function of its inputs.
func Write(w io.Writer, entries []delta.Entry, includeUnchanged bool) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	for _, entry := range entries {
		if entry.Status == delta.StatusUnchanged && !includeUnchanged {
			continue
		}
		row := []string{
			entry.Type,
			entry.FullName,
			string(entry.Status),
			entry.SourceHash,
			entry.DestHash,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

// WriteFile writes the change report to path
func WriteFile(path string, entries []delta.Entry, includeUnchanged bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	if err := Write(f, entries, includeUnchanged); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
