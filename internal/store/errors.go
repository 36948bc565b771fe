package store

import (
	"errors"
	"fmt"
)

const (
	ErrCodeMissingColumn  = "ERR_LOAD_MISSING_COLUMN"
	ErrCodeRequiredField  = "ERR_LOAD_REQUIRED_FIELD"
	ErrCodeInvalidFormat  = "ERR_LOAD_INVALID_FORMAT"
	ErrCodeDuplicateKey   = "ERR_LOAD_DUPLICATE_KEY"
	ErrCodeMalformedRow   = "ERR_LOAD_MALFORMED_ROW"
	ErrCodeInvalidUTF8    = "ERR_LOAD_INVALID_UTF8"
	ErrCodeSourceUnusable = "ERR_LOAD_SOURCE"
)

var (
	ErrEmptyFile       = errors.New("csv file is empty")
	ErrInvalidEncoding = errors.New("csv file is not valid UTF-8")
	ErrMissingHeader   = errors.New("csv file missing header row")
	ErrMissingColumn   = errors.New("required column missing")
	ErrCacheStale      = errors.New("snapshot cache is stale")
)

// RowError pins a load failure to a table, line and column.
type RowError struct {
	Table   string `json:"table"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`

	cause error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s row %d, column '%s': %s", e.Table, e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("%s row %d: %s", e.Table, e.Row, e.Message)
}

// Unwrap exposes the sentinel behind the row failure, if any.
func (e *RowError) Unwrap() error {
	return e.cause
}

func newRowError(table string, row int, column, code, message, value string) *RowError {
	return &RowError{
		Table:   table,
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
		Value:   value,
	}
}
