package lottieschema

import "fmt"

// Severity expresses the severity level for findings.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Ignore:
		return "ignore"
	case Warn:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText renders the severity as "ignore", "warning" or "error".
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the MarshalText forms plus "warn".
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ignore":
		*s = Ignore
	case "warn", "warning":
		*s = Warn
	case "error":
		*s = Error
	default:
		return fmt.Errorf("lottieschema: unknown severity %q", b)
	}
	return nil
}
