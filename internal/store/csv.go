package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// tableReader reads one relation from CSV, addressing columns by header name.
type tableReader struct {
	table   string
	reader  *csv.Reader
	headers map[string]int
	columns []string
}

func newTableReader(table string, r io.Reader, required ...string) (*tableReader, error) {
	br := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	if len(head) == 0 {
		return nil, fmt.Errorf("%s: %w", table, ErrEmptyFile)
	}
	if !validPrefix(head) {
		return nil, fmt.Errorf("%s: %w", table, ErrInvalidEncoding)
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", table, ErrMissingHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", table, err)
	}

	t := &tableReader{table: table, reader: cr, headers: make(map[string]int, len(header)), columns: make([]string, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.headers[h] = i
		t.columns[i] = h
	}

	for _, col := range required {
		if _, ok := t.headers[col]; !ok {
			return nil, fmt.Errorf("%s: %w: %q", table, ErrMissingColumn, col)
		}
	}

	return t, nil
}

// validPrefix tolerates a rune cut in half by the peek window. It only
// rejects binary files early; every field is checked again in next.
func validPrefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0 && !utf8.Valid(b); i++ {
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// next returns io.EOF once the table is exhausted.
func (t *tableReader) next() (*record, error) {
	fields, err := t.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, newRowError(t.table, perr.Line, "", ErrCodeMalformedRow, perr.Err.Error(), "")
		}
		return nil, fmt.Errorf("read %s: %w", t.table, err)
	}

	line, _ := t.reader.FieldPos(0)
	for i, f := range fields {
		if !utf8.ValidString(f) {
			return nil, t.encodingError(line, i, f)
		}
	}
	return &record{table: t.table, line: line, fields: fields, headers: t.headers}, nil
}

func (t *tableReader) encodingError(line, field int, value string) *RowError {
	col := ""
	if field < len(t.columns) {
		col = t.columns[field]
	}
	err := newRowError(t.table, line, col, ErrCodeInvalidUTF8, "value is not valid UTF-8", strings.ToValidUTF8(value, "\uFFFD"))
	err.cause = ErrInvalidEncoding
	return err
}

type record struct {
	table   string
	line    int
	fields  []string
	headers map[string]int
}

func (r *record) get(col string) string {
	i, ok := r.headers[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r *record) required(col string) (string, error) {
	v := r.get(col)
	if v == "" {
		return "", newRowError(r.table, r.line, col, ErrCodeRequiredField, "value is required", "")
	}
	return v, nil
}

func (r *record) decimal(col string) (decimal.Decimal, error) {
	v, err := r.required(col)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, newRowError(r.table, r.line, col, ErrCodeInvalidFormat, "not a decimal number", v)
	}
	return d, nil
}

func (r *record) timestamp(col string) (time.Time, error) {
	v, err := r.required(col)
	if err != nil {
		return time.Time{}, err
	}
	ts, ok := parseTimestamp(v)
	if !ok {
		return time.Time{}, newRowError(r.table, r.line, col, ErrCodeInvalidFormat, "not a timestamp", v)
	}
	return ts, nil
}

func parseTimestamp(v string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func (r *record) duplicate(col, value string) error {
	return newRowError(r.table, r.line, col, ErrCodeDuplicateKey, "duplicate key", value)
}
