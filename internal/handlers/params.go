package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const (
	dateLayout = "2006-01-02"
	maxLimit   = 100
)

// resolveRange turns the start/end strings of a request into a DateRange.
// A blank bound falls back to the corresponding end of bounds. An inverted
// range is passed through; it selects no orders.
func resolveRange(start, end string, bounds models.DateRange) (models.DateRange, error) {
	r := bounds

	if s := strings.TrimSpace(start); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return models.DateRange{}, errors.BadRequestWrap(err, fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", start))
		}
		r.Start = t
	}

	if e := strings.TrimSpace(end); e != "" {
		t, err := time.Parse(dateLayout, e)
		if err != nil {
			return models.DateRange{}, errors.BadRequestWrap(err, fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", end))
		}
		r.End = t
	}

	return r, nil
}

// parseLimit reads a positive row limit, defaulting to def when absent.
func parseLimit(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, errors.BadRequest(fmt.Sprintf("invalid limit %q, must be between 1 and %d", raw, maxLimit))
	}
	return n, nil
}
