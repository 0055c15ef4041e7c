package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for a source format other than csv or jsonl.
	ErrUnsupportedFormat = errors.New("pipeline: unsupported format")
	// ErrMissingHeader is returned when a required column is absent.
	ErrMissingHeader = errors.New("pipeline: missing column")
	// ErrRowWidth is returned when a CSV row has more fields than the header.
	ErrRowWidth = errors.New("pipeline: row wider than header")
)

// Format names a tabular source encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// FormatFor resolves the format of location. A non-empty override wins;
// otherwise .jsonl and .ndjson select JSON Lines and anything else CSV.
func FormatFor(location, override string) (Format, error) {
	if override != "" {
		switch f := Format(strings.ToLower(override)); f {
		case FormatCSV, FormatJSONL:
			return f, nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, override)
		}
	}
	clean := location
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	switch strings.ToLower(path.Ext(clean)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return FormatCSV, nil
	}
}

// Row is one raw source record keyed by column name. Cells absent from the
// source read as the empty string.
type Row map[string]string

// Get returns the cell stored under column.
func (r Row) Get(column string) string {
	return r[column]
}

// RowReader yields rows until io.EOF.
type RowReader interface {
	Next() (Row, error)
}

// NewRowReader returns a reader for format that checks the required columns
// are present before the first row is returned.
func NewRowReader(r io.Reader, format Format, required []string) (RowReader, error) {
	switch format {
	case FormatCSV:
		return newCSVRowReader(r, required)
	case FormatJSONL:
		return newJSONLRowReader(r, required), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

type csvRowReader struct {
	reader *csv.Reader
	header []string
}

func newCSVRowReader(r io.Reader, required []string) (*csvRowReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty source", ErrMissingHeader)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	present := make(map[string]struct{}, len(header))
	for _, column := range header {
		present[column] = struct{}{}
	}
	for _, column := range required {
		if _, ok := present[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, column)
		}
	}

	return &csvRowReader{reader: reader, header: header}, nil
}

func (c *csvRowReader) Next() (Row, error) {
	record, err := c.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read csv record: %w", err)
	}
	if len(record) > len(c.header) {
		line, _ := c.reader.FieldPos(0)
		return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrRowWidth, line, len(record), len(c.header))
	}

	row := make(Row, len(c.header))
	for i, column := range c.header {
		if i < len(record) {
			row[column] = record[i]
		} else {
			row[column] = ""
		}
	}
	return row, nil
}

type jsonlRowReader struct {
	scanner  *bufio.Scanner
	required []string
	line     int
	checked  bool
}

func newJSONLRowReader(r io.Reader, required []string) *jsonlRowReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &jsonlRowReader{scanner: scanner, required: required}
}

func (j *jsonlRowReader) Next() (Row, error) {
	for j.scanner.Scan() {
		j.line++
		line := bytes.TrimSpace(j.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		decoder := json.NewDecoder(bytes.NewReader(line))
		decoder.UseNumber()
		var object map[string]any
		if err := decoder.Decode(&object); err != nil {
			return nil, fmt.Errorf("decode jsonl line %d: %w", j.line, err)
		}

		if !j.checked {
			for _, column := range j.required {
				if _, ok := object[column]; !ok {
					return nil, fmt.Errorf("%w: %s", ErrMissingHeader, column)
				}
			}
			j.checked = true
		}

		row := make(Row, len(object))
		for column, value := range object {
			row[column] = cellText(value)
		}
		return row, nil
	}
	if err := j.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return nil, io.EOF
}

// cellText flattens a decoded JSON value into cell text. Arrays keep their
// JSON spelling, which the list parser accepts as a list literal.
func cellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// ReadRows drains rr, stopping after limit rows when limit is positive.
func ReadRows(rr RowReader, limit int) ([]Row, error) {
	var rows []Row
	for limit <= 0 || len(rows) < limit {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
