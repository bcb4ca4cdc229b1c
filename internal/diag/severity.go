package diag

// Severity ranks how serious a diagnostic is.
type Severity uint8

const (
	// SevInfo reports something worth knowing, such as an applied repair.
	// It never affects the exit status.
	SevInfo Severity = iota
	// SevWarning flags a suspicious construct that does not fail the run.
	SevWarning
	// SevError marks a real problem; any error makes the run exit non-zero.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
