// Package coverage loads coverage.py JSON reports and drives the external
// coverage harness that produces them.
package coverage

import (
	"bytes"
	"fmt"
	"strconv"
)

// MissingLines holds the missing_lines value of a summary. Harnesses emit
// either a count or, in verbose mode, the list of line numbers.
type MissingLines struct {
	Count int
	// Lines is only set when the harness emitted a list.
	Lines []int
}

// UnmarshalJSON accepts either an integer or an array of integers.
func (m *MissingLines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var lines []int
		if err := json.Unmarshal(data, &lines); err != nil {
			return fmt.Errorf("missing_lines list: %w", err)
		}
		m.Lines = lines
		m.Count = len(lines)
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("missing_lines must be an integer or list, got %s", data)
	}
	m.Count = n
	m.Lines = nil
	return nil
}

// String renders the missing count for the table.
func (m MissingLines) String() string {
	return strconv.Itoa(m.Count)
}

// DisplayValue is a pre-formatted value passed through verbatim. The JSON
// form may be a string ("80.00") or a bare number (80); numbers keep their
// literal text.
type DisplayValue string

// UnmarshalJSON keeps the literal text of numbers and the content of strings.
func (d *DisplayValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DisplayValue(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("display value must be a string or number, got %s", data)
	}
	*d = DisplayValue(data)
	return nil
}

// FileSummary is the per-file (or aggregate) statistics block.
type FileSummary struct {
	Statements int          `json:"num_statements"`
	Missing    MissingLines `json:"missing_lines"`
	// CoveredPercent is authoritative; it is never recomputed.
	CoveredPercent DisplayValue `json:"percent_covered_display"`
}

// FileEntry pairs a report file identifier with its summary.
type FileEntry struct {
	ID      string
	Summary FileSummary
}

// CoverageReport is the in-memory form of one harness report. Files keeps
// the order in which the report listed them.
type CoverageReport struct {
	Files  []FileEntry
	Totals FileSummary
}

// CoverageStats holds the headline numbers for display.
type CoverageStats struct {
	Files          int
	Statements     int
	Missing        int
	CoveredPercent string
}

// Stats summarizes the report using the harness totals.
func (r *CoverageReport) Stats() CoverageStats {
	return CoverageStats{
		Files:          len(r.Files),
		Statements:     r.Totals.Statements,
		Missing:        r.Totals.Missing.Count,
		CoveredPercent: string(r.Totals.CoveredPercent),
	}
}
