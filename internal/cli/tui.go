package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/npmmeta/pkg/manifest"
	"github.com/matzehuels/npmmeta/pkg/resolve"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// VersionListModel - Interactive version browser
// =============================================================================

// VersionListModel is the bubbletea model behind "versions --browse". It
// lists versions newest first with their publish date, dist-tags and
// engines, and shows the deprecation notice of the selected version.
type VersionListModel struct {
	Name     string
	Versions []string
	Meta     map[string]manifest.VersionMeta
	Tags     map[string][]string
	Cursor   int
	Height   int
	Offset   int
}

// NewVersionListModel creates a browser for info.
func NewVersionListModel(info *resolve.VersionsInfo) VersionListModel {
	versions := make([]string, len(info.Versions))
	for i, v := range info.Versions {
		versions[len(versions)-1-i] = v
	}
	meta := info.VersionsMeta
	if meta == nil {
		meta = make(map[string]manifest.VersionMeta, len(info.Time))
		for v, t := range info.Time {
			meta[v] = manifest.VersionMeta{Time: t}
		}
	}
	return VersionListModel{
		Name:     info.Name,
		Versions: versions,
		Meta:     meta,
		Tags:     tagsByVersion(info.DistTags),
		Height:   15,
	}
}

func (m VersionListModel) Init() tea.Cmd {
	return nil
}

func (m VersionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Versions)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Versions)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m VersionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Versions) == 0 {
		b.WriteString(listDimStyle.Render("  no matching versions"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Versions))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		v := m.Versions[i]
		meta := m.Meta[v]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		published := "—"
		if meta.Time != "" {
			published = formatRelativeTime(meta.Time)
		}
		rows = append(rows, []string{cursor, v, published, strings.Join(m.Tags[v], ", "), formatEngines(meta.Engines)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Version", "Published", "Tags", "Engines").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Versions) {
				return lipgloss.NewStyle()
			}
			v := m.Versions[idx]
			base := lipgloss.NewStyle()
			switch {
			case m.Meta[v].Deprecated != "":
				base = base.Foreground(colorDim).Strikethrough(col == 1)
			case col == 3:
				base = base.Foreground(colorGreen)
			case col == 2 || col == 4:
				base = base.Foreground(colorGray)
			}
			if idx == m.Cursor {
				base = base.Bold(true)
				if m.Meta[v].Deprecated == "" && col == 1 {
					base = base.Foreground(colorCyan)
				}
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	if d := m.Meta[m.Versions[m.Cursor]].Deprecated; d != "" {
		b.WriteString(StyleWarning.Render("deprecated: " + d))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Versions))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatEngines(engines map[string]string) string {
	if len(engines) == 0 {
		return "—"
	}
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + engines[name]
	}
	return strings.Join(parts, ", ")
}

func formatRelativeTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}

	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
