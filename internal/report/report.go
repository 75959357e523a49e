// Package report renders coverage tables and merges them into the managed
// block of a markdown document.
package report

import (
	"errors"
	"strings"
)

// ErrUnterminatedBlock is returned when a start marker has no matching end marker.
var ErrUnterminatedBlock = errors.New("managed block has no end marker")

// ModuleNamer maps a report file identifier to the name shown in the table.
type ModuleNamer interface {
	ModuleName(fileID string) string
}

// Markers delimit the managed block. A line matches when it contains the
// marker text anywhere.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers are the README headings that bracket the coverage section.
var DefaultMarkers = Markers{
	Start: "### Code coverage",
	End:   "### Docs",
}

func (m Markers) isStart(line string) bool {
	return strings.Contains(line, m.Start)
}

func (m Markers) isEnd(line string) bool {
	return strings.Contains(line, m.End)
}

// SplitLines splits content into lines that keep their terminators, so that
// joining them reproduces content byte for byte.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines concatenates lines produced by SplitLines or Merge.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}
