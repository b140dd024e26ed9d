package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record field names as exposed by the remote API
const (
	FieldFilial = "ZB1_FILIAL"
	FieldCNPJ   = "ZB1_CGCEMI"
	FieldDoc    = "ZB1_DOC"
	FieldEmit   = "ZB1_EMIT"
	FieldTotVal = "ZB1_TOTVAL"
	FieldDtLib  = "ZB1_DTLIB"
	FieldStatus = "ZB1_STATUS"
)

// RecordFields lists the editable record fields in column order
var RecordFields = []string{
	FieldFilial,
	FieldCNPJ,
	FieldDoc,
	FieldEmit,
	FieldTotVal,
	FieldDtLib,
	FieldStatus,
}

// Record errors
var (
	ErrUnknownField    = errors.New("unknown record field")
	ErrInvalidRecordID = errors.New("invalid record id")
)

const idKey = "id"

// Record is one freight-document (CT-e) row of the ZB1 table.
//
// The row is kept as the JSON object the API sent. Writing a field replaces
// that key only, so a PUT carries every other attribute exactly as it came,
// nulls and number formatting included.
// @Description Freight-document row as returned by GET /tabela
type Record struct {
	ID     int64
	fields map[string]json.RawMessage
}

// NewRecord builds a record from Go values. json.Number keeps a numeric
// literal as written.
func NewRecord(id int64, values map[string]interface{}) Record {
	r := Record{
		ID:     id,
		fields: map[string]json.RawMessage{idKey: json.RawMessage(strconv.FormatInt(id, 10))},
	}
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			continue
		}
		r.fields[key] = data
	}
	return r
}

// UnmarshalJSON keeps the object as sent and parses its id. The id may be a
// JSON number or a numeric string.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("%w: record is null", ErrInvalidRecordID)
	}

	id, err := parseID(fields[idKey])
	if err != nil {
		return err
	}

	r.ID = id
	r.fields = fields
	return nil
}

// MarshalJSON writes the object back
func (r Record) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.fields)+1)
	for key, value := range r.fields {
		fields[key] = value
	}
	if _, ok := fields[idKey]; !ok {
		fields[idKey] = json.RawMessage(strconv.FormatInt(r.ID, 10))
	}
	return json.Marshal(fields)
}

func parseID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing", ErrInvalidRecordID)
	}

	var value interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRecordID, raw)
	}

	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidRecordID, raw)
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRecordID, raw)
	}
	return id, nil
}

// IsField reports whether name is a record field
func IsField(name string) bool {
	for _, field := range RecordFields {
		if field == name {
			return true
		}
	}
	return false
}

// Field returns the text of the named field. ok is false for names that are
// not record fields.
func (r Record) Field(name string) (string, bool) {
	if !IsField(name) {
		return "", false
	}
	return r.Text(name), true
}

// Text renders any attribute as text: strings unquoted, null or absent as
// "", anything else as its JSON literal.
func (r Record) Text(key string) string {
	raw, ok := r.fields[key]
	if !ok {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// Raw returns the attribute as sent by the API
func (r Record) Raw(key string) (json.RawMessage, bool) {
	raw, ok := r.fields[key]
	return raw, ok
}

// Total parses ZB1_TOTVAL for display. ok is false when it is absent, null
// or not a number.
func (r Record) Total() (decimal.Decimal, bool) {
	text := strings.TrimSpace(r.Text(FieldTotVal))
	if text == "" {
		return decimal.Decimal{}, false
	}
	total, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return total, true
}

// WithField returns a copy of the record with the named field set to value.
// The value is written as a JSON string, as typed.
func (r Record) WithField(name, value string) (Record, error) {
	if !IsField(name) {
		return r, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return r, err
	}
	out := r.Clone()
	if out.fields == nil {
		out.fields = make(map[string]json.RawMessage)
	}
	out.fields[name] = data
	return out, nil
}

// Merge overlays staged values on a copy of the record
func (r Record) Merge(staged map[string]string) (Record, error) {
	names := make([]string, 0, len(staged))
	for name := range staged {
		names = append(names, name)
	}
	sort.Strings(names)

	out := r.Clone()
	for _, name := range names {
		next, err := out.WithField(name, staged[name])
		if err != nil {
			return r, err
		}
		out = next
	}
	return out, nil
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	out := Record{ID: r.ID}
	if r.fields != nil {
		out.fields = make(map[string]json.RawMessage, len(r.fields))
		for key, value := range r.fields {
			out.fields[key] = append(json.RawMessage(nil), value...)
		}
	}
	return out
}

// Equal reports whether both records carry the same id and attributes
func (r Record) Equal(other Record) bool {
	if r.ID != other.ID || len(r.fields) != len(other.fields) {
		return false
	}
	for key, value := range r.fields {
		theirs, ok := other.fields[key]
		if !ok || !sameJSON(value, theirs) {
			return false
		}
	}
	return true
}

func sameJSON(a, b json.RawMessage) bool {
	var left, right bytes.Buffer
	if json.Compact(&left, a) != nil || json.Compact(&right, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(left.Bytes(), right.Bytes())
}

// FindRecord returns the record with the given id and its position
func FindRecord(records []Record, id int64) (Record, int, bool) {
	for i, record := range records {
		if record.ID == id {
			return record, i, true
		}
	}
	return Record{}, -1, false
}
