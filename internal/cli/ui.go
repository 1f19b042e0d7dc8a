package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kinboard/pkg/family"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, self member
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - male accent
	colorPink   = lipgloss.Color("211") // Pink - female accent
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleSelf    = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconSelf    = "★"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// printError prints an error message.
func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// memberTable renders members with their relationship to the self member.
func memberTable(members []family.Member, relations map[string]string, localize bool) string {
	t := newTable("", "ID", "Name", "Role", "Born", "Relation", "Position")
	for _, m := range members {
		mark := ""
		if m.IsSelf {
			mark = styleSelf.Render(iconSelf)
		}
		rel, ok := relations[m.ID]
		if !ok {
			rel = StyleDim.Render("—")
		}
		t.Row(mark, shortID(m.ID), m.DisplayName(localize), m.Role, m.BirthDate, rel,
			fmt.Sprintf("%.0f, %.0f", m.X, m.Y))
	}
	return t.Render()
}

// connectionTable renders connections with their endpoint names.
func connectionTable(s family.Snapshot, localize bool) string {
	t := newTable("ID", "From", "", "To", "Label", "Style")
	for _, c := range s.Connections {
		t.Row(shortID(c.ID), endpointName(s, c.SourceID, localize), iconArrow,
			endpointName(s, c.TargetID, localize), c.DisplayLabel(localize), connStyle(c))
	}
	return t.Render()
}

func endpointName(s family.Snapshot, id string, localize bool) string {
	if m, ok := s.Member(id); ok {
		return m.DisplayName(localize)
	}
	return StyleWarning.Render("missing " + shortID(id))
}

func connStyle(c family.Connection) string {
	parts := []string{c.StrokeColor()}
	if c.LineStyle != "" {
		parts = append(parts, string(c.LineStyle))
	}
	return strings.Join(parts, " ")
}

// shortID trims generated UUIDs for display; short ids are kept whole.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
