// Package ui provides inline terminal output for the one-shot commands.
//
// The full-screen dashboard lives in internal/dashboard. This package covers
// the simpler case of printing progress for `mcwatch stop` and
// `mcwatch backup`: one spinner line per step, replaced by a final status
// symbol and elapsed time when the step ends.
//
// # Components Overview
//
//	Spinner      - Animated status indicator for a long-running step
//	StepPrinter  - Turns shutdown step events into a column of spinners
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Successful steps
//	ColorError     (red)    - Failed steps
//	ColorWarning   (yellow) - Skipped steps
//	ColorMuted     (gray)   - Timings and secondary text
package ui
