package ui

// Unicode symbols for status indicators.
const (
	SymbolFail     = "✗" // Step failed
	SymbolPending  = "○" // Step not yet started
	SymbolComplete = "●" // Step done
	SymbolSkipped  = "⊘" // Step skipped
)
