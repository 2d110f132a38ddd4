// Package ingest reads header rows and bounded row batches from
// delimited text and spreadsheet source files. It owns format
// detection, encoding autodetection, and the quoted-field parsing
// rules; everything it returns is plain string cells aligned by
// column index.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Supported source file extensions, lowercase with leading dot.
var supportedExtensions = []string{".csv", ".xlsx", ".xls"}

// spreadsheetRowEstimate is the coarse row-count estimate reported for
// spreadsheet formats; exact counting is not worth an extra full read
// here and callers treat the value as non-authoritative.
const spreadsheetRowEstimate = 1000

// FileDetails describes a source file without fully parsing it.
type FileDetails struct {
	Name                string    `json:"name"`
	Size                int64     `json:"size"`
	Extension           string    `json:"extension"`
	LastModified        time.Time `json:"lastModified"`
	EstimatedRowCount   int       `json:"estimatedRowCount"`
	DetectedEncoding    string    `json:"detectedEncoding"`
	DetectedColumnCount int       `json:"detectedColumnCount"`
}

// Ingestor reads headers and sample rows from source files. It is
// stateless; a zero value is ready to use.
type Ingestor struct{}

// New returns a ready Ingestor.
func New() *Ingestor { return &Ingestor{} }

// SupportedExtensions returns the fixed set of supported extensions.
func (ing *Ingestor) SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// ReadHeader returns the column names found on the 1-based headerRow
// of the file, each trimmed of surrounding whitespace.
//
// An empty slice (with nil error) means the target row is missing or
// blank; callers must treat that as "no header available", not as a
// usable header.
func (ing *Ingestor) ReadHeader(path string, headerRow int) ([]string, error) {
	rows, err := ing.readAll(path)
	if err != nil {
		return nil, err
	}
	if headerRow < 1 || headerRow > len(rows) {
		return nil, nil
	}
	header := rows[headerRow-1]
	if blankRow(header) {
		return nil, nil
	}
	return header, nil
}

// ReadRows returns up to maxRows data rows found strictly after the
// header row. Fully blank rows are skipped and do not count toward
// the cap.
func (ing *Ingestor) ReadRows(path string, headerRow, maxRows int) ([][]string, error) {
	rows, err := ing.readAll(path)
	if err != nil {
		return nil, err
	}
	if headerRow < 0 {
		headerRow = 0
	}

	var out [][]string
	for i := headerRow; i < len(rows) && len(out) < maxRows; i++ {
		if blankRow(rows[i]) {
			continue
		}
		out = append(out, rows[i])
	}
	return out, nil
}

// FileInfo returns basic information about a source file: size,
// modification time, estimated row count, detected encoding, and the
// column count sampled from the first data row.
//
// The row estimate is exact for delimited text (a line count) and a
// fixed coarse value for spreadsheets.
func (ing *Ingestor) FileInfo(path string) (FileDetails, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return FileDetails{}, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	details := FileDetails{
		Name:             stat.Name(),
		Size:             stat.Size(),
		Extension:        ext,
		LastModified:     stat.ModTime(),
		DetectedEncoding: "utf-8",
	}

	switch ext {
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return FileDetails{}, fmt.Errorf("read %s: %w", path, err)
		}
		decoded, encoding, err := detectAndDecode(data)
		if err != nil {
			// Cosmetic degradation only: keep the default encoding name.
			slog.Warn("encoding detection failed", "file", path, "error", err)
			decoded = data
		} else {
			details.DetectedEncoding = encoding
		}
		details.EstimatedRowCount = len(splitLines(string(decoded)))
	case ".xlsx", ".xls":
		details.EstimatedRowCount = spreadsheetRowEstimate
	default:
		return FileDetails{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	sample, err := ing.ReadRows(path, 1, 1)
	if err != nil {
		return FileDetails{}, err
	}
	if len(sample) > 0 {
		details.DetectedColumnCount = len(sample[0])
	}

	return details, nil
}

// Validate reports whether the file can be processed: it exists, has a
// supported extension, is non-empty, and yields a non-empty header on
// row 1. It is a convenience composite over the other reads.
func (ing *Ingestor) Validate(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !extensionSupported(strings.ToLower(filepath.Ext(path))) {
		return false
	}
	if stat.Size() == 0 {
		return false
	}
	header, err := ing.ReadHeader(path, 1)
	if err != nil || len(header) == 0 {
		return false
	}
	return true
}

// readAll loads every row of the file as parsed string cells.
func (ing *Ingestor) readAll(path string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return ing.readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// readCSV decodes and parses a delimited text file into rows of cells.
// Blank lines are preserved as empty rows so that header row indexes
// stay aligned with what the user sees in an editor.
func (ing *Ingestor) readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(data) == 0 {
		// No rows at all; ReadHeader turns this into an empty header,
		// which callers must treat as "no header available".
		return nil, nil
	}

	decoded, _, err := detectAndDecode(data)
	if err != nil {
		// Detection failure degrades to reading the raw bytes as UTF-8.
		slog.Warn("encoding detection failed, assuming utf-8", "file", path, "error", err)
		decoded = data
	}

	lines := splitLines(string(decoded))
	rows := make([][]string, len(lines))
	for i, line := range lines {
		if blankLine(line) {
			rows[i] = nil
			continue
		}
		rows[i] = parseDelimitedLine(line)
	}
	return rows, nil
}

func extensionSupported(ext string) bool {
	for _, s := range supportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}
