package logship

// NormalizeContext coerces an arbitrary context value into a mapping.
// Errors take precedence over the mapping check and become {"error": value};
// any other non-mapping value becomes {"extra": value}. Mappings are shallow
// copied so later merges never touch the caller's map.
func NormalizeContext(v any) map[string]any {
	switch c := v.(type) {
	case nil:
		return map[string]any{}
	case error:
		return map[string]any{"error": c}
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, val := range c {
			out[k] = val
		}
		return out
	default:
		return map[string]any{"extra": v}
	}
}

// renderContext copies ctx with error values replaced by their messages so
// the result survives a JSON round trip. Keeps everything else as-is.
func renderContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		switch val := v.(type) {
		case error:
			out[k] = val.Error()
		case map[string]any:
			out[k] = renderContext(val)
		default:
			out[k] = v
		}
	}
	return out
}

// MergeContext overlays over onto base; on key conflict over wins.
func MergeContext(base, over map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}
