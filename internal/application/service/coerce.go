package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxEpochMillis bounds epoch dates to +/-100,000,000 days around 1970
const maxEpochMillis = 8.64e15

// dateLayouts are tried in order when a date arrives as a string.
// Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceAmount converts a JSON number or numeric string into a finite float64
func CoerceAmount(raw json.RawMessage) (float64, error) {
	text, err := scalarText(raw, "amount")
	if err != nil {
		return 0, err
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a number", ErrInvalidField, text)
	}

	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: amount %q is out of range", ErrInvalidField, text)
	}

	return f, nil
}

// CoerceDate converts an ISO-8601 style string or epoch milliseconds into a UTC timestamp
func CoerceDate(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] != '"' {
		return epochDate(raw)
	}

	text, err := scalarText(raw, "date")
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: date %q is not a valid date", ErrInvalidField, text)
}

func epochDate(raw json.RawMessage) (time.Time, error) {
	if string(raw) == "null" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrInvalidField)
	}

	ms, err := decimal.NewFromString(string(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %s is not a valid date", ErrInvalidField, raw)
	}

	if ms.Abs().GreaterThan(decimal.NewFromFloat(maxEpochMillis)) {
		return time.Time{}, fmt.Errorf("%w: date %s is out of range", ErrInvalidField, raw)
	}

	whole := ms.IntPart()
	frac := ms.Sub(decimal.NewFromInt(whole)).Shift(6).IntPart()
	return time.UnixMilli(whole).Add(time.Duration(frac)).UTC(), nil
}

// scalarText extracts the text of a JSON number or string value
func scalarText(raw json.RawMessage, field string) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidField, field)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidField, field, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidField, field)
		}
		return s, nil
	case '{', '[', 't', 'f':
		return "", fmt.Errorf("%w: %s must be a number or a string", ErrInvalidField, field)
	default:
		return string(raw), nil
	}
}
