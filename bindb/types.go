package bindb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names of a full bindb record
const (
	FieldBin         = "bin"
	FieldCountryCode = "country_code"
	FieldVendor      = "vendor"
	FieldType        = "type"
	FieldLevel       = "level"
	FieldIsPrepaid   = "is_prepaid"
	FieldIssuer      = "issuer"
)

// Info is the fixed schema of a full, unfiltered bindb record.
type Info struct {
	Bin         int64  `json:"bin"`
	CountryCode string `json:"country_code"`
	Vendor      string `json:"vendor"`
	Type        string `json:"type"`
	Level       string `json:"level"`
	IsPrepaid   bool   `json:"is_prepaid"`
	Issuer      string `json:"issuer"`
}

// Record is a lookup result. Fields keep the order in which the service sent
// them, or the order of the field filter when one is active.
//
// A nil *Record is the "not found" marker.
type Record struct {
	keys   []string
	values map[string]any
}

func newRecord(size int) *Record {
	return &Record{
		keys:   make([]string, 0, size),
		values: make(map[string]any, size),
	}
}

func (r *Record) set(key string, value any) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Keys returns the field names in order
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Get returns the value of a field
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of fields
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Map returns the record as a plain map. Integral JSON numbers are int64,
// other numbers float64.
func (r *Record) Map() map[string]any {
	if r == nil {
		return nil
	}
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Info converts the record to the fixed schema. Missing fields are left zero.
func (r *Record) Info() Info {
	var info Info
	if r == nil {
		return info
	}
	if v, ok := r.values[FieldBin]; ok {
		info.Bin = toInt64(v)
	}
	info.CountryCode = r.str(FieldCountryCode)
	info.Vendor = r.str(FieldVendor)
	info.Type = r.str(FieldType)
	info.Level = r.str(FieldLevel)
	info.Issuer = r.str(FieldIssuer)
	if b, ok := r.values[FieldIsPrepaid].(bool); ok {
		info.IsPrepaid = b
	}
	return info
}

func (r *Record) str(key string) string {
	switch v := r.values[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// project narrows the record to the given fields, in the given order.
func (r *Record) project(fields []string) *Record {
	if len(fields) == 0 {
		return r
	}
	out := newRecord(len(fields))
	for _, f := range fields {
		if v, ok := r.values[f]; ok {
			out.set(f, v)
		}
	}
	return out
}

// MarshalJSON encodes the record as a JSON object in field order
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the record as "key=value" pairs
func (r *Record) String() string {
	if r == nil {
		return "<not found>"
	}
	parts := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, r.values[k]))
	}
	return strings.Join(parts, " ")
}

// errorDetails is the payload of a failed lookup
type errorDetails struct {
	Message string
	Code    int
}

// remoteError reports whether the record is an {"error": true} response
func (r *Record) remoteError() (*errorDetails, bool) {
	if flag, ok := r.values["error"].(bool); !ok || !flag {
		return nil, false
	}
	details := &errorDetails{Message: "unknown error"}
	if m, ok := r.values["errorDetails"].(map[string]any); ok {
		if msg, ok := m["message"].(string); ok {
			details.Message = msg
		}
		if code, ok := m["code"]; ok {
			details.Code = int(toInt64(code))
		}
	}
	return details, true
}

// decodeRecord decodes a flat JSON object, keeping key order
func decodeRecord(body []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected JSON object", ErrInvalidResponse)
	}

	rec := newRecord(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected object key", ErrInvalidResponse)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidResponse, key, err)
		}
		rec.set(key, normalize(value))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return rec, nil
}

// normalize replaces json.Number with int64 or float64, recursively
func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, inner := range val {
			val[k] = normalize(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = normalize(inner)
		}
		return val
	default:
		return v
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}
