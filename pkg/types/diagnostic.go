package types

import "fmt"

// Severity ranks a diagnostic
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityNotice   Severity = "notice"
)

// Rank orders severities from most (0) to least severe
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	default:
		return 3
	}
}

// ParseSeverity maps a user-supplied name onto a Severity
func ParseSeverity(name string) (Severity, error) {
	switch Severity(name) {
	case SeverityCritical, SeverityError, SeverityWarning, SeverityNotice:
		return Severity(name), nil
	case "crit":
		return SeverityCritical, nil
	case "err":
		return SeverityError, nil
	case "warn":
		return SeverityWarning, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, name)
}

// Diagnostic is a single problem found while reflecting a file
type Diagnostic struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d: [%s] %s", d.File, d.Line, d.Severity, d.Message)
}

// Marker is an inline TODO/FIXME style annotation
type Marker struct {
	Term string `json:"term"`
	File string `json:"file"`
	Line int    `json:"line"`
	Note string `json:"note"`
}
