package logship

import "runtime"

// callerContext resolves the log call site into {file, line, function}.
// skip counts frames above callerContext itself. Missing call-site metadata
// is not an error; it degrades to an empty mapping.
func callerContext(skip int) map[string]any {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return map[string]any{}
	}

	ctx := map[string]any{
		"file": file,
		"line": line,
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		ctx["function"] = fn.Name()
	}
	return ctx
}
