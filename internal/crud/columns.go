package crud

import (
	"bytes"
	"encoding/json"
)

// Column is one list column.
type Column struct {
	Key       string `json:"-"`
	Label     string `json:"label"`
	Sortable  bool   `json:"$sort"`
	Direction string `json:"$direction"`
	Width     string `json:"width,omitempty"`
}

// ColumnSpec is an ordered list of columns. It encodes as a JSON object
// keyed by column key, preserving order.
type ColumnSpec []Column

// Lookup returns the column with key.
func (s ColumnSpec) Lookup(key string) (Column, bool) {
	for _, c := range s {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Keys returns the column keys in display order.
func (s ColumnSpec) Keys() []string {
	keys := make([]string, len(s))
	for i, c := range s {
		keys[i] = c.Key
	}
	return keys
}

// MarshalJSON implements json.Marshaler.
func (s ColumnSpec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
