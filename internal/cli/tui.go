package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shaderflow/shaderflow/pkg/compile"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// passBrowser is the bubbletea model for interactive pass inspection: a
// scrollable pass list with a source view toggled per pass.
type passBrowser struct {
	passes     []*compile.RenderPass
	cursor     int
	showSource bool
	height     int
	offset     int
}

func newPassBrowser(passes []*compile.RenderPass) passBrowser {
	return passBrowser{passes: passes, height: 15}
}

func (m passBrowser) Init() tea.Cmd {
	return nil
}

func (m passBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.showSource {
				m.showSource = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.showSource && m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if !m.showSource && m.cursor < len(m.passes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			if len(m.passes) > 0 {
				m.showSource = !m.showSource
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m passBrowser) View() string {
	if m.showSource {
		return m.sourceView()
	}
	return m.listView()
}

func (m passBrowser) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Render Passes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ source  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.passes) {
		end = len(m.passes)
	}

	for i := m.offset; i < end; i++ {
		p := m.passes[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		var traits []string
		if len(p.Inputs) > 0 {
			traits = append(traits, fmt.Sprintf("%d tex", len(p.Inputs)))
		}
		if len(p.Uniforms) > 0 {
			traits = append(traits, fmt.Sprintf("%d uniforms", len(p.Uniforms)))
		}
		if p.Feedback != nil {
			traits = append(traits, "feedback")
		}
		if p.Loop > 1 {
			traits = append(traits, fmt.Sprintf("×%d", p.Loop))
		}

		line := fmt.Sprintf("%s%-30s  %s", cursor, p.ID, listDimStyle.Render(strings.Join(traits, " · ")))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.passes))))
	return b.String()
}

func (m passBrowser) sourceView() string {
	p := m.passes[m.cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render(p.ID))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")
	b.WriteString(p.Source)
	return b.String()
}
