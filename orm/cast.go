package orm

import (
	"encoding/json"
	"time"
)

// applyCastRead coerces a raw attribute value for reading, per spec §4.4
// ("Casts: int, bool ..., json (decode on read, encode on write), datetime").
func applyCastRead(kind CastKind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case CastInt:
		return toInt(v)
	case CastBool:
		return toBool(v)
	case CastJSON:
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err == nil {
				return out
			}
		}
		return v
	case CastDatetime:
		if t, ok := toTime(v); ok {
			return t
		}
		return v
	default:
		return v
	}
}

// applyCastWrite coerces a value being assigned, per the same cast registry.
func applyCastWrite(kind CastKind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case CastInt:
		return toInt(v)
	case CastBool:
		return toBool(v)
	case CastJSON:
		if _, ok := v.(string); ok {
			return v
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(encoded)
	case CastDatetime:
		if t, ok := toTime(v); ok {
			return t
		}
		return v
	default:
		return v
	}
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var out int64
		for _, r := range n {
			if r < '0' || r > '9' {
				return 0
			}
			out = out*10 + int64(r-'0')
		}
		return out
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// toBool implements the falsy set spec §4.4 defines: {0, "0", "", "false",
// "False", null} ⇒ false, everything else ⇒ true.
func toBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case nil:
		return false
	case string:
		switch val {
		case "0", "", "false", "False":
			return false
		default:
			return true
		}
	case int64:
		return val != 0
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

func toTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
