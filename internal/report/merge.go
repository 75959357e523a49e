package report

import (
	"fmt"

	"github.com/zjy-dev/covdoc/internal/coverage"
)

// Merger replaces the content of managed blocks with a fresh coverage table.
type Merger struct {
	markers Markers
	namer   ModuleNamer
}

// NewMerger creates a Merger. Zero-valued marker fields fall back to DefaultMarkers.
func NewMerger(markers Markers, namer ModuleNamer) *Merger {
	if markers.Start == "" {
		markers.Start = DefaultMarkers.Start
	}
	if markers.End == "" {
		markers.End = DefaultMarkers.End
	}
	return &Merger{markers: markers, namer: namer}
}

// Markers returns the markers in use.
func (m *Merger) Markers() Markers {
	return m.markers
}

// mergeState is reset at the start of every Merge.
type mergeState struct {
	insideManagedBlock bool
	replaced           int
}

// Merge scans lines once, top to bottom. Every line outside a managed block
// is copied unchanged. For each block the start marker line is kept, followed
// by the rendered table; the old content is dropped; a blank line and the
// existing end marker line close the block.
//
// A document without a start marker comes back unchanged, and an end marker
// outside a block is ordinary text. It returns the new lines and the number
// of blocks replaced.
func (m *Merger) Merge(lines []string, r *coverage.CoverageReport) ([]string, int, error) {
	var st mergeState
	out := make([]string, 0, len(lines)+len(r.Files)+4)

	var table []string
	startLine := 0
	for i, line := range lines {
		switch {
		case st.insideManagedBlock && m.markers.isEnd(line):
			out = append(out, "\n", line)
			st.insideManagedBlock = false
			st.replaced++

		case st.insideManagedBlock:
			// stale content from a previous run

		case m.markers.isStart(line):
			if table == nil {
				table = RenderTable(r, m.namer)
			}
			out = append(out, line)
			out = append(out, table...)
			st.insideManagedBlock = true
			startLine = i + 1

		default:
			out = append(out, line)
		}
	}

	if st.insideManagedBlock {
		return nil, st.replaced, fmt.Errorf("%w: %q opened on line %d, expected %q",
			ErrUnterminatedBlock, m.markers.Start, startLine, m.markers.End)
	}
	return out, st.replaced, nil
}

// MergeString is Merge over a whole document.
func (m *Merger) MergeString(content string, r *coverage.CoverageReport) (string, int, error) {
	out, n, err := m.Merge(SplitLines(content), r)
	if err != nil {
		return "", n, err
	}
	return JoinLines(out), n, nil
}
