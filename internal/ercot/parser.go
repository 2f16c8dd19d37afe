package ercot

import (
	"fmt"
	"html"
	"strings"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// RawTable is the ordered sequence of cell strings extracted from one fetch
// of the source document. It is only well-formed when its length is a
// positive multiple of models.RowColumns.
type RawTable []string

// NumRows returns the number of complete rows in the table.
func (t RawTable) NumRows() int {
	return len(t) / models.RowColumns
}

// LastRow returns the final complete row. Rows are ordered chronologically
// ascending in the source, so the last row is the most recent interval.
func (t RawTable) LastRow() []string {
	return t[len(t)-models.RowColumns:]
}

// Parse extracts the ordered cell values from a raw ERCOT real-time SPP
// document and validates the structural shape. It performs no semantic
// validation of cell contents; Extract owns that. Parse is stateless.
//
// It returns ErrMalformedDocument when no table cells are found and
// ErrColumnCount when the cell count is not a positive multiple of the
// fixed row width.
func Parse(rawText string) (RawTable, error) {
	cells := scanCells(rawText)
	if len(cells) == 0 {
		return nil, ErrMalformedDocument
	}
	if len(cells)%models.RowColumns != 0 {
		return nil, fmt.Errorf("%w: got %d cells, row width %d",
			ErrColumnCount, len(cells), models.RowColumns)
	}
	return RawTable(cells), nil
}

// scanCells walks the document once, collecting the text content of every
// <td> element. Markup inside a cell is stripped; cells whose content is
// empty after trimming are skipped, matching the source table's shape where
// every data cell carries visible text.
func scanCells(doc string) []string {
	var cells []string
	rest := doc
	for {
		start := indexTagFold(rest, "td")
		if start < 0 {
			break
		}
		rest = rest[start:]
		open := strings.IndexByte(rest, '>')
		if open < 0 {
			break
		}
		rest = rest[open+1:]

		end := indexTagFold(rest, "/td")
		var body string
		if end < 0 {
			// Unterminated cell; take what text remains before the next tag.
			body = rest
			rest = ""
		} else {
			body = rest[:end]
			rest = rest[end:]
		}

		if text := strings.TrimSpace(html.UnescapeString(stripTags(body))); text != "" {
			cells = append(cells, text)
		}
		if rest == "" {
			break
		}
	}
	return cells
}

// indexTagFold returns the offset of the next "<name" occurrence where name
// matches case-insensitively and is followed by a tag delimiter, or -1.
func indexTagFold(s, name string) int {
	for from := 0; ; {
		i := strings.IndexByte(s[from:], '<')
		if i < 0 {
			return -1
		}
		i += from
		tag := s[i+1:]
		if len(tag) >= len(name) && strings.EqualFold(tag[:len(name)], name) {
			switch {
			case len(tag) == len(name):
				return i
			default:
				c := tag[len(name)]
				if c == '>' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' {
					return i
				}
			}
		}
		from = i + 1
	}
}

// stripTags removes any markup embedded inside a cell body, keeping only
// text content.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastUpdated extracts the "Last Updated: ..." banner the source page
// renders above the table, e.g. "Oct 01, 2025 10:17". It returns an empty
// string when the banner is absent; the banner is informational and its
// absence is not a parse failure.
func LastUpdated(rawText string) string {
	const marker = "Last Updated:"
	i := strings.Index(rawText, marker)
	if i < 0 {
		return ""
	}
	rest := rawText[i+len(marker):]
	if j := strings.IndexAny(rest, "<\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
