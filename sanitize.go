package logship

import (
	"fmt"
	"time"
)

// SanitizeOptions controls what survives into the wire representation of a
// record's context.
type SanitizeOptions struct {
	// MaxDepth is the number of nesting levels kept; values below it are
	// rendered as strings. Zero means DefaultMaxDepth.
	MaxDepth int
	// MaxStringLen truncates longer string values. Zero means unlimited.
	MaxStringLen int
	// StripKeys are removed from every mapping level.
	StripKeys []string
}

const DefaultMaxDepth = 10

// Sanitize returns a transmission-safe copy of ctx: stripped keys removed,
// nesting capped at MaxDepth, long strings truncated, and values without a
// natural wire representation rendered as strings. The input is never
// modified.
func Sanitize(ctx map[string]any, opts SanitizeOptions) map[string]any {
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}

	strip := make(map[string]struct{}, len(opts.StripKeys))
	for _, k := range opts.StripKeys {
		strip[k] = struct{}{}
	}

	out := sanitizeMap(ctx, opts, strip, depth)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

func sanitizeMap(m map[string]any, opts SanitizeOptions, strip map[string]struct{}, depth int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, skip := strip[k]; skip {
			continue
		}
		out[k] = sanitizeValue(v, opts, strip, depth-1)
	}
	return out
}

func sanitizeValue(v any, opts SanitizeOptions, strip map[string]struct{}, depth int) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return truncate(val, opts.MaxStringLen)
	case bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case time.Time:
		return val
	case error:
		return truncate(val.Error(), opts.MaxStringLen)
	case map[string]any:
		if depth <= 0 {
			return truncate(fmt.Sprintf("%v", val), opts.MaxStringLen)
		}
		return sanitizeMap(val, opts, strip, depth)
	case []any:
		if depth <= 0 {
			return truncate(fmt.Sprintf("%v", val), opts.MaxStringLen)
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item, opts, strip, depth-1)
		}
		return out
	default:
		return truncate(fmt.Sprint(val), opts.MaxStringLen)
	}
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
