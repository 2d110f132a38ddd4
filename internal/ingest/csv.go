package ingest

import (
	"strings"
)

// parseDelimitedLine splits one line of delimited text into trimmed
// field values. A double quote toggles quoted mode, inside which commas
// are literal; quote characters themselves are stripped from the
// parsed value. The trailing field is always emitted, even when the
// line does not end with a separator.
//
// This is deliberately looser than encoding/csv: quotes may appear
// mid-field, there is no escape sequence, and every field is trimmed
// of surrounding whitespace after extraction.
func parseDelimitedLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

// splitLines breaks decoded file content into lines, accepting both
// LF and CRLF endings. A trailing newline does not produce an empty
// final line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// blankLine reports whether a raw line contains no characters besides
// whitespace and separators.
func blankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

// blankRow reports whether every cell of a parsed row is blank.
func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
