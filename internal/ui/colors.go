package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary lipgloss.Color = "7" // White/default
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
)

// GradientColors cycle under the spinner frames. Grass to sky, like a
// Bedrock title screen.
var GradientColors = []lipgloss.Color{
	"#5FD75F",
	"#5FD7AF",
	"#5FD7D7",
	"#5FAFD7",
}
