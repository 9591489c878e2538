package diag

// Handler is the "diagnostic-handler scope that accumulates errors" of
// spec.md §4.8. A driver opens one per compilation, passes it down
// through ingestion/verification/pipeline running, and inspects
// HasErrors/Errors once the run finishes.
type Handler struct {
	diagnostics []Diagnostic
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Report records d.
func (h *Handler) Report(d Diagnostic) {
	h.diagnostics = append(h.diagnostics, d)
}

// Diagnostics returns every diagnostic reported so far, in report
// order.
func (h *Handler) Diagnostics() []Diagnostic {
	return h.diagnostics
}

// HasErrors reports whether any accumulated diagnostic is at
// LevelError — the condition spec.md §4.8 dumps and fails on.
func (h *Handler) HasErrors() bool {
	for _, d := range h.diagnostics {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Errors returns only the LevelError diagnostics, in report order.
func (h *Handler) Errors() []Diagnostic {
	var errs []Diagnostic
	for _, d := range h.diagnostics {
		if d.Level == LevelError {
			errs = append(errs, d)
		}
	}
	return errs
}
