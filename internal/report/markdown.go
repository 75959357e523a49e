package report

import (
	"fmt"

	"github.com/zjy-dev/covdoc/internal/coverage"
)

const (
	tableHeader    = "| Name | Stmts | Miss | Cover |\n"
	tableSeparator = "|------|-------|------|-------|\n"
)

// RenderTable renders the coverage table as newline-terminated lines: header,
// separator, one row per file in report order, then the bold Total row.
// A nil namer shows raw identifiers.
func RenderTable(r *coverage.CoverageReport, namer ModuleNamer) []string {
	lines := make([]string, 0, len(r.Files)+3)
	lines = append(lines, tableHeader, tableSeparator)

	for _, f := range r.Files {
		name := f.ID
		if namer != nil {
			name = namer.ModuleName(f.ID)
		}
		lines = append(lines, fileRow(name, f.Summary))
	}

	return append(lines, totalRow(r.Totals))
}

// Per-file rows close the cover cell without a space before the pipe; the
// total row keeps one. Both layouts render identically.
func fileRow(name string, s coverage.FileSummary) string {
	return fmt.Sprintf("| `%s` | %d | %s | %s%%|\n", name, s.Statements, s.Missing, s.CoveredPercent)
}

func totalRow(s coverage.FileSummary) string {
	return fmt.Sprintf("| **Total** | %d | %s | %s%% |\n", s.Statements, s.Missing, s.CoveredPercent)
}
