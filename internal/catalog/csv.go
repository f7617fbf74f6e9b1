package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrInvalidUTF8     = errors.New("file is not valid UTF-8")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrTooManyFields   = errors.New("too many fields")
)

// naMarkers are cell values read as absent in addition to blank cells.
var naMarkers = map[string]struct{}{
	"NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

// Decode parses a comma separated file whose first record is the header.
// Header names are matched case-insensitively after trimming, unknown columns
// are ignored and missing columns leave the matching Row field absent.
// An empty input yields no rows. Any structural problem fails the whole file.
func Decode(data []byte) ([]Row, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	r := csv.NewReader(transform.NewReader(bytes.NewReader(data), unicode.UTF8BOM.NewDecoder()))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	rows := []Row{}
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("row %d: %w: expected %d, saw %d", line, ErrTooManyFields, len(header), len(record))
		}

		row := Row{Line: line}
		for pos, column := range index {
			if pos < len(record) {
				row.set(column, cell(record[pos]))
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// headerIndex maps record positions to recognized column names.
func headerIndex(header []string) (map[int]string, error) {
	index := make(map[int]string, len(Columns))
	seen := make(map[string]struct{}, len(Columns))
	probe := Row{}

	for pos, name := range header {
		column := strings.ToLower(strings.TrimSpace(name))
		if !probe.set(column, nil) {
			continue
		}
		if _, dup := seen[column]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, column)
		}
		seen[column] = struct{}{}
		index[pos] = column
	}

	return index, nil
}

func cell(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	if _, ok := naMarkers[v]; ok {
		return nil
	}
	return &v
}
