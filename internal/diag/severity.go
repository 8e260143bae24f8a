package diag

// Severity ranks a diagnostic. Configuration and lowering failures are
// errors and stop a kernel from producing IR; lifetime findings are
// warnings (a buffer that leaks) or informational (a free the analysis
// could not match to an allocation).
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{"info", "warning", "error"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}
