package crud

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Cast converts a raw list cell into its display value.
type Cast func(v any) any

// Currency formats numeric cells with thousand separators and two decimals.
func Currency(symbol string) Cast {
	return func(v any) any {
		f, ok := toFloat(v)
		if !ok {
			return v
		}
		return symbol + humanize.FormatFloat("#,###.##", f)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date formats time cells with layout. Unparseable values pass through.
func Date(layout string) Cast {
	return func(v any) any {
		switch t := v.(type) {
		case time.Time:
			return t.Format(layout)
		case *time.Time:
			if t == nil {
				return nil
			}
			return t.Format(layout)
		case string:
			for _, l := range dateLayouts {
				if parsed, err := time.Parse(l, t); err == nil {
					return parsed.Format(layout)
				}
			}
		}
		return v
	}
}

// YesNo renders boolean-like cells as "Yes" or "No".
func YesNo() Cast {
	return func(v any) any {
		if truthy(v) {
			return "Yes"
		}
		return "No"
	}
}

// NotDefined replaces empty cells with a placeholder.
func NotDefined(placeholder string) Cast {
	return func(v any) any {
		if blank(v) {
			return placeholder
		}
		if b, ok := v.([]byte); ok && len(b) == 0 {
			return placeholder
		}
		return v
	}
}

// Labels maps raw cell values to labels. Unknown values use fallback.
func Labels(labels map[string]string, fallback string) Cast {
	return func(v any) any {
		key := ""
		switch t := v.(type) {
		case string:
			key = t
		case []byte:
			key = string(t)
		}
		if label, ok := labels[key]; ok {
			return label
		}
		return fallback
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case []byte:
		f, err := strconv.ParseFloat(string(t), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	case float64:
		return t != 0
	case []byte:
		return truthy(string(t))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	}
	return false
}

func toUint(v any) uint {
	switch t := v.(type) {
	case int64:
		if t > 0 {
			return uint(t)
		}
	case int:
		if t > 0 {
			return uint(t)
		}
	case int32:
		if t > 0 {
			return uint(t)
		}
	case uint:
		return t
	case uint64:
		return uint(t)
	case float64:
		if t > 0 {
			return uint(t)
		}
	case []byte:
		n, _ := strconv.ParseUint(string(t), 10, 64)
		return uint(n)
	case string:
		n, _ := strconv.ParseUint(t, 10, 64)
		return uint(n)
	}
	return 0
}
