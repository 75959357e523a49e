package coverage

import (
	"errors"
	"fmt"
	"io/fs"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrFileNotFound is returned when the report file does not exist.
	ErrFileNotFound = errors.New("coverage report not found")
	// ErrParse is returned when the report is not well-formed JSON.
	ErrParse = errors.New("coverage report is not valid JSON")
	// ErrSchema is returned when a required key is absent or has the wrong shape.
	ErrSchema = errors.New("coverage report schema mismatch")
)

// Summary keys emitted by coverage.py.
const (
	KeyStatements = "num_statements"
	KeyMissing    = "missing_lines"
	KeyCovered    = "percent_covered_display"
)

var summaryKeys = []string{KeyStatements, KeyMissing, KeyCovered}

// Load reads and decodes the report at path.
func Load(fsys afero.Fs, path string) (*CoverageReport, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read coverage report %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes report bytes. File entries keep their document order.
func Parse(data []byte) (*CoverageReport, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrParse
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrSchema)
	}

	files := root.Get("files")
	if !files.Exists() {
		return nil, fmt.Errorf("%w: missing %q", ErrSchema, "files")
	}
	if !files.IsObject() {
		return nil, fmt.Errorf("%w: %q must be an object", ErrSchema, "files")
	}
	totals := root.Get("totals")
	if !totals.Exists() {
		return nil, fmt.Errorf("%w: missing %q", ErrSchema, "totals")
	}

	report := &CoverageReport{}
	var decodeErr error
	files.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		summary := value.Get("summary")
		if !summary.Exists() {
			decodeErr = fmt.Errorf("%w: file %q has no summary", ErrSchema, id)
			return false
		}
		fsum, err := decodeSummary(summary)
		if err != nil {
			decodeErr = fmt.Errorf("file %q: %w", id, err)
			return false
		}
		report.Files = append(report.Files, FileEntry{ID: id, Summary: fsum})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	t, err := decodeSummary(totals)
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	report.Totals = t
	return report, nil
}

func decodeSummary(r gjson.Result) (FileSummary, error) {
	var s FileSummary
	if !r.IsObject() {
		return s, fmt.Errorf("%w: summary must be an object", ErrSchema)
	}
	for _, k := range summaryKeys {
		if !r.Get(k).Exists() {
			return s, fmt.Errorf("%w: missing %q", ErrSchema, k)
		}
	}
	if err := json.Unmarshal([]byte(r.Raw), &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if s.Statements < 0 {
		return s, fmt.Errorf("%w: %s is negative (%d)", ErrSchema, KeyStatements, s.Statements)
	}
	return s, nil
}
