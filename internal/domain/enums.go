package domain

// WarningCategory classifies non-fatal conditions surfaced alongside
// partial results.
type WarningCategory string

const (
	WarnDetectionEmpty    WarningCategory = "detection_empty"
	WarnParseError        WarningCategory = "parse_error"
	WarnOCRError          WarningCategory = "ocr_error"
	WarnSolverUnavailable WarningCategory = "solver_unavailable"
	WarnSolverInfeasible  WarningCategory = "solver_infeasible"
	WarnTargetIgnored     WarningCategory = "target_ignored"
	WarnBoilerplate       WarningCategory = "boilerplate_filtered"
)

// Warning is a machine-distinguishable non-fatal condition.
type Warning struct {
	Category WarningCategory `json:"category"`
	Message  string          `json:"message"`
}
