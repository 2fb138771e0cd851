package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/npmmeta/pkg/batch"
	"github.com/matzehuels/npmmeta/pkg/resolve"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
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

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleTag         = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
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

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// =============================================================================
// Query Output
// =============================================================================

func printLatest(res batch.Result[*resolve.ResolvedVersion]) {
	for _, item := range res.Items {
		fmt.Println(formatLatest(item))
	}
}

// formatLatest renders one line: "✓ vite@^5 → 5.1.0  2024-01-02".
func formatLatest(item batch.Item[*resolve.ResolvedVersion]) string {
	if item.Failed() {
		return styleIconError.Render(iconError) + " " + item.Err.Name + StyleDim.Render(": "+item.Err.Error)
	}

	r := item.Value
	label := r.Name + "@" + r.Specifier
	if r.Version == nil {
		return StyleWarning.Render("!") + " " + label + " " + StyleDim.Render(iconArrow+" no matching version")
	}

	line := styleIconSuccess.Render(iconSuccess) + " " + label + " " +
		StyleDim.Render(iconArrow) + " " + StyleHighlight.Render(*r.Version)
	if r.PublishedAt != nil {
		line += "  " + StyleDim.Render(shortDate(*r.PublishedAt))
	}
	if r.VersionMeta != nil && r.Deprecated != "" {
		line += "  " + StyleWarning.Render("deprecated")
	}
	return line
}

func printVersions(res batch.Result[*resolve.VersionsInfo]) {
	for i, item := range res.Items {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(formatVersions(item))
	}
}

// formatVersions renders a title line followed by the versions, newest
// first, with their dist-tags.
func formatVersions(item batch.Item[*resolve.VersionsInfo]) string {
	if item.Failed() {
		return styleIconError.Render(iconError) + " " + item.Err.Name + StyleDim.Render(": "+item.Err.Error)
	}

	info := item.Value
	var b strings.Builder
	b.WriteString(StyleTitle.Render(info.Name+"@"+info.Specifier) + " " +
		StyleDim.Render(fmt.Sprintf("(%d versions)", len(info.Versions))))

	tags := tagsByVersion(info.DistTags)
	for i := len(info.Versions) - 1; i >= 0; i-- {
		v := info.Versions[i]
		b.WriteString("\n  " + StyleValue.Render(fmt.Sprintf("%-20s", v)))
		if published := publishedAt(info, v); published != "" {
			b.WriteString(" " + StyleDim.Render(shortDate(published)))
		}
		if t := tags[v]; len(t) > 0 {
			b.WriteString(" " + styleTag.Render(strings.Join(t, ", ")))
		}
	}
	return b.String()
}

func tagsByVersion(distTags map[string]string) map[string][]string {
	out := make(map[string][]string, len(distTags))
	for tag, v := range distTags {
		out[v] = append(out[v], tag)
	}
	for _, t := range out {
		sort.Strings(t)
	}
	return out
}

func publishedAt(info *resolve.VersionsInfo, v string) string {
	if info.VersionsMeta != nil {
		return info.VersionsMeta[v].Time
	}
	return info.Time[v]
}

// shortDate trims an ISO timestamp to its date.
func shortDate(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
