package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ErrMalformedTable is returned when a managed block does not parse as the
// expected markdown table.
var ErrMalformedTable = errors.New("managed block is not a valid coverage table")

const tableColumns = 4

// Verify parses every managed block in lines as GitHub-flavored markdown and
// checks that it holds one table with four columns and wantRows body rows.
func (m *Merger) Verify(lines []string, wantRows int) error {
	blocks := m.blocks(lines)
	if len(blocks) == 0 {
		return nil
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	for i, block := range blocks {
		src := []byte(block)
		doc := md.Parser().Parse(text.NewReader(src))

		var tables []*extast.Table
		err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			if t, ok := n.(*extast.Table); ok {
				tables = append(tables, t)
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		})
		if err != nil {
			return fmt.Errorf("block %d: %w", i+1, err)
		}
		if len(tables) != 1 {
			return fmt.Errorf("%w: block %d has %d tables", ErrMalformedTable, i+1, len(tables))
		}

		header, rows := 0, 0
		for c := tables[0].FirstChild(); c != nil; c = c.NextSibling() {
			switch c.Kind() {
			case extast.KindTableHeader:
				header = c.ChildCount()
			case extast.KindTableRow:
				rows++
			}
		}
		if header != tableColumns {
			return fmt.Errorf("%w: block %d has %d columns, want %d", ErrMalformedTable, i+1, header, tableColumns)
		}
		if rows != wantRows {
			return fmt.Errorf("%w: block %d has %d rows, want %d", ErrMalformedTable, i+1, rows, wantRows)
		}
	}
	return nil
}

// blocks returns the text strictly between each start/end marker pair.
func (m *Merger) blocks(lines []string) []string {
	var (
		out    []string
		cur    strings.Builder
		inside bool
	)
	for _, line := range lines {
		switch {
		case inside && m.markers.isEnd(line):
			out = append(out, cur.String())
			cur.Reset()
			inside = false
		case inside:
			cur.WriteString(line)
		case m.markers.isStart(line):
			inside = true
		}
	}
	return out
}
