package lottieschema

// FindingAt creates a Finding at the given path with provided severity, code, message and params map.
// This is a convenience helper to improve readability at call sites with many parameters.
func FindingAt(p PathRef, sev Severity, code, msg string, params map[string]string) Finding {
	return Finding{Severity: sev, Path: p.Pointer(), Code: code, Message: msg, Params: params}
}
