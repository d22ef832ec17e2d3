package motd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartTimeLayout is the upstream startDateTime format. Times are UTC.
const StartTimeLayout = "1/2/2006 3:04:05 PM"

// Field names of a getmotd entry.
const (
	FieldStartDateTime = "startDateTime"
	FieldName          = "name"
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldGameMode      = "gameMode"
	FieldTeam1GodsCSV  = "team1GodsCSV"
	FieldTeam2GodsCSV  = "team2GodsCSV"
	FieldMaxPlayers    = "maxPlayers"
)

var ErrInvalidStartTime = errors.New("invalid start time")

// RawRecord is one MOTD exactly as returned by the upstream API. Numbers are
// kept as json.Number so that re-encoding does not alter them.
type RawRecord map[string]any

// DecodeRecord decodes a stored canonical value.
func DecodeRecord(value string) (RawRecord, error) {
	var r RawRecord
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("failed to decode record: not an object")
	}
	return r, nil
}

// String returns the field as a string. Missing and null fields are empty.
func (r RawRecord) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// StartTime parses startDateTime as UTC.
func (r RawRecord) StartTime() (time.Time, error) {
	raw := r.String(FieldStartDateTime)
	t, err := time.ParseInLocation(StartTimeLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidStartTime, raw, err)
	}
	return t, nil
}

// Key derives the store key: the start time in epoch seconds.
func (r RawRecord) Key() (int64, error) {
	t, err := r.StartTime()
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// MaxPlayers returns the maxPlayers field. It is absent when missing, null,
// an empty string or the number zero. The string "0" counts as present.
func (r RawRecord) MaxPlayers() (n int, ok bool, err error) {
	switch v := r[FieldMaxPlayers].(type) {
	case nil:
		return 0, false, nil
	case string:
		if v == "" {
			return 0, false, nil
		}
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return 0, false, nil
		}
	case float64:
		if v == 0 {
			return 0, false, nil
		}
	}

	raw := strings.TrimSpace(r.String(FieldMaxPlayers))
	n, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid maxPlayers %q: %w", raw, err)
	}
	return n, true, nil
}

// Canonical encodes the record with sorted keys and no insignificant
// whitespace.
func (r RawRecord) Canonical() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(r)); err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
