package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/axonote/pkg/analysis"
	"github.com/matzehuels/axonote/pkg/graph"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Summaries
// =============================================================================

// printStats prints node and edge counts on a single line, tagged with
// whether the layout came from the cache.
func printStats(nodeCount, edgeCount int, cached bool) {
	parts := []string{fmt.Sprintf("%d nodes", nodeCount), fmt.Sprintf("%d edges", edgeCount)}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  " + StyleDim.Render(strings.Join(parts, " · "))
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Println(line)
}

// printAnalysis prints the structural summary of a document.
func printAnalysis(s analysis.Stats) {
	printKeyValue("Nodes", fmt.Sprintf("%d (%d hidden)", s.Nodes, s.HiddenNodes))
	printKeyValue("Edges", fmt.Sprintf("%d (%d hidden)", s.Edges, s.HiddenEdges))
	printKeyValue("Roots", joinOrDash(s.Roots))
	printKeyValue("Depth", fmt.Sprintf("%d", s.Depth))
	printKeyValue("Types", formatTypeCounts(s.TypeCounts))
	for _, cycle := range s.Cycles {
		printWarning("cycle: %s", strings.Join(cycle, " → "))
	}
}

// formatTypeCounts renders counts in AllNodeTypes order, skipping absent
// types, e.g. "text 3 · formula 1".
func formatTypeCounts(counts map[graph.NodeType]int) string {
	var parts []string
	for _, t := range graph.AllNodeTypes {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", t, n))
		}
	}
	return joinOrDash(parts)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "—"
	}
	if len(items) > 5 {
		items = append(slices.Clone(items[:5]), fmt.Sprintf("+%d more", len(items)-5))
	}
	return strings.Join(items, " · ")
}
