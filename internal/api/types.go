package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UploadResult is the backend reply to an upload.
type UploadResult struct {
	Success   bool     `json:"success"`
	SessionID string   `json:"session_id"`
	Preview   []Record `json:"preview"`
	Columns   []string `json:"columns"`
	Rows      int      `json:"rows"`
}

// ProfileResult describes every column of an uploaded dataset.
type ProfileResult struct {
	Success bool         `json:"success"`
	Profile []ColumnStat `json:"profile"`
	Preview []Record     `json:"preview"`
	Rows    int          `json:"rows"`
	Columns []string     `json:"columns"`
}

// Kind groups a column by which type-dependent statistics it carries.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
	KindOther   Kind = "other"
)

// Stats is the type-dependent part of a ColumnStat: NumericStats or TextStats.
type Stats interface {
	kind() Kind
}

// NumericStats is present on numeric columns. A nil field was not reported.
type NumericStats struct {
	Min  *float64
	Max  *float64
	Mean *float64
	Std  *float64
}

func (NumericStats) kind() Kind { return KindNumeric }

// TextStats is present on string columns. A nil field was not reported.
type TextStats struct {
	MinLength *float64
	MaxLength *float64
	AvgLength *float64
}

func (TextStats) kind() Kind { return KindText }

// ColumnStat is the profile of a single column.
type ColumnStat struct {
	Column      string
	Type        string
	MissingPct  float64
	UniqueCount int
	Stats       Stats
}

// Kind reports which statistics variant the column carries.
func (c ColumnStat) Kind() Kind {
	if c.Stats == nil {
		return KindOther
	}
	return c.Stats.kind()
}

// Numeric returns the numeric statistics, if any.
func (c ColumnStat) Numeric() (NumericStats, bool) {
	n, ok := c.Stats.(NumericStats)
	return n, ok
}

// Text returns the string-length statistics, if any.
func (c ColumnStat) Text() (TextStats, bool) {
	s, ok := c.Stats.(TextStats)
	return s, ok
}

// columnStatWire is the flat object the backend sends.
type columnStatWire struct {
	Column      string   `json:"column"`
	Type        string   `json:"type"`
	MissingPct  float64  `json:"missing_pct"`
	UniqueCount int      `json:"unique_count"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Mean        *float64 `json:"mean,omitempty"`
	Std         *float64 `json:"std,omitempty"`
	MinLength   *float64 `json:"min_length,omitempty"`
	MaxLength   *float64 `json:"max_length,omitempty"`
	AvgLength   *float64 `json:"avg_length,omitempty"`
}

func (c *ColumnStat) UnmarshalJSON(data []byte) error {
	var w columnStatWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = ColumnStat{
		Column:      w.Column,
		Type:        w.Type,
		MissingPct:  w.MissingPct,
		UniqueCount: w.UniqueCount,
	}
	switch {
	case w.Min != nil || w.Max != nil || w.Mean != nil || w.Std != nil:
		c.Stats = NumericStats{Min: w.Min, Max: w.Max, Mean: w.Mean, Std: w.Std}
	case w.MinLength != nil || w.MaxLength != nil || w.AvgLength != nil:
		c.Stats = TextStats{MinLength: w.MinLength, MaxLength: w.MaxLength, AvgLength: w.AvgLength}
	}
	return nil
}

func (c ColumnStat) MarshalJSON() ([]byte, error) {
	w := columnStatWire{
		Column:      c.Column,
		Type:        c.Type,
		MissingPct:  c.MissingPct,
		UniqueCount: c.UniqueCount,
	}
	switch s := c.Stats.(type) {
	case NumericStats:
		w.Min, w.Max, w.Mean, w.Std = s.Min, s.Max, s.Mean, s.Std
	case TextStats:
		w.MinLength, w.MaxLength, w.AvgLength = s.MinLength, s.MaxLength, s.AvgLength
	}
	return json.Marshal(w)
}

// Record is one preview row. It keeps the key order of the JSON object it
// was decoded from, which fixes the column order of the grid.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord builds a record from parallel keys and values.
func NewRecord(keys []string, values []any) Record {
	r := Record{keys: make([]string, 0, len(keys)), values: make(map[string]any, len(keys))}
	for i, k := range keys {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.Set(k, v)
	}
	return r
}

// Keys returns the field names in their original order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set stores a value, appending the key if it is new.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	*r = Record{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("record: field %q: %w", key, err)
		}
		r.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CleanOptions selects the cleaning steps to run.
type CleanOptions struct {
	ImputeMissing  bool `json:"impute_missing"`
	RemoveOutliers bool `json:"remove_outliers"`
	Deduplicate    bool `json:"deduplicate"`
}

// Transformation is one change reported by the cleaning pipeline.
type Transformation struct {
	Column  string `json:"column"`
	Action  string `json:"action"`
	Details Text   `json:"details"`
}

// CleanSummary totals a cleaning run.
type CleanSummary struct {
	RowsProcessed   int              `json:"rows_processed"`
	RowsCleaned     int              `json:"rows_cleaned"`
	Transformations []Transformation `json:"transformations"`
}

// CleanResult is the cleaned dataset as positional rows.
type CleanResult struct {
	Success bool         `json:"success"`
	Data    [][]any      `json:"data"`
	Summary CleanSummary `json:"summary"`
}

// AuditLog is one recorded operation for a session.
type AuditLog struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Details   Text   `json:"details"`
}

func (a *AuditLog) UnmarshalJSON(data []byte) error {
	var w struct {
		Timestamp string `json:"timestamp"`
		CreatedAt string `json:"created_at"`
		Action    string `json:"action"`
		Details   Text   `json:"details"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a.Timestamp = w.Timestamp
	if a.Timestamp == "" {
		a.Timestamp = w.CreatedAt
	}
	a.Action = w.Action
	a.Details = w.Details
	return nil
}

// Time parses the timestamp; ok is false when it is not RFC 3339 or ISO 8601.
func (a AuditLog) Time() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, a.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Text is a string field that also accepts non-string JSON, kept in its
// compact encoded form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	if string(data) == "null" {
		*t = ""
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

func (t Text) String() string { return string(t) }

// FeatureSuggestion proposes a derived column.
type FeatureSuggestion struct {
	Column     string   `json:"column,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Type       string   `json:"type,omitempty"`
	Parts      []string `json:"parts,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// Target names the column or columns the suggestion applies to.
func (f FeatureSuggestion) Target() string {
	if f.Column != "" {
		return f.Column
	}
	return strings.Join(f.Columns, ", ")
}

// FeatureSuggestions is the reply of the feature endpoint.
type FeatureSuggestions struct {
	Success     bool                `json:"success"`
	Suggestions []FeatureSuggestion `json:"suggestions"`
}
