package crud

import (
	"strconv"
	"strings"
	"time"
)

// The admin frontend posts every field as it was typed. These helpers are
// used by input filters to bring values into the shape the entity expects.

// CoerceNumbers parses numeric strings of keys into float64. Empty strings
// are removed so the stored value stays untouched.
func CoerceNumbers(in Input, keys ...string) Input {
	for _, k := range keys {
		s, ok := in[k].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			delete(in, k)
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			in[k] = f
		}
	}
	return in
}

// CoerceBools parses boolean-like values of keys ("1", "true", 1) into bool.
func CoerceBools(in Input, keys ...string) Input {
	for _, k := range keys {
		v, ok := in[k]
		if !ok || v == nil {
			continue
		}
		if _, isBool := v.(bool); isBool {
			continue
		}
		in[k] = truthy(v)
	}
	return in
}

var inputTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// CoerceTimes parses date strings of keys into RFC 3339. Empty strings
// become nil.
func CoerceTimes(in Input, keys ...string) Input {
	for _, k := range keys {
		s, ok := in[k].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			in[k] = nil
			continue
		}
		for _, layout := range inputTimeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				in[k] = t.Format(time.RFC3339)
				break
			}
		}
	}
	return in
}
