// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"probe/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

var (
	upKey     = key.NewBinding(key.WithKeys("up", "k"))
	downKey   = key.NewBinding(key.WithKeys("down", "j"))
	selectKey = key.NewBinding(key.WithKeys("enter"))
	quitKey   = key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))
)

// PortPickerModel is the Bubble Tea model for choosing a capture port.
type PortPickerModel struct {
	ports         []audio.PortInfo
	selectedIndex int
	viewport      viewport.Model
	ready         bool

	chosen    bool
	cancelled bool
}

// NewPortPickerModel creates a picker over ports.
func NewPortPickerModel(ports []audio.PortInfo) PortPickerModel {
	return PortPickerModel{ports: ports}
}

func (m PortPickerModel) Init() tea.Cmd {
	return nil
}

func (m PortPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderPorts())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, quitKey):
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(msg, upKey):
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}

		case key.Matches(msg, downKey):
			if m.selectedIndex < len(m.ports)-1 {
				m.selectedIndex++
			}

		case key.Matches(msg, selectKey):
			if len(m.ports) > 0 {
				m.chosen = true
				return m, tea.Quit
			}
		}
		m.viewport.SetContent(m.renderPorts())
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m PortPickerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Capture Ports")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Observe • q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m PortPickerModel) renderPorts() string {
	if len(m.ports) == 0 {
		return "No capture ports found."
	}

	var sb strings.Builder
	for i, p := range m.ports {
		line := fmt.Sprintf("  [%d] %s\n", p.DeviceID, p.Name)
		if i == m.selectedIndex {
			line = highlightStyle.Render("▶" + line[1:])
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Selected returns the highlighted port and whether the user confirmed it.
func (m PortPickerModel) Selected() (audio.PortInfo, bool) {
	if !m.chosen || m.cancelled || len(m.ports) == 0 {
		return audio.PortInfo{}, false
	}
	return m.ports[m.selectedIndex], true
}

// StartPortPicker runs the picker full screen and returns the chosen port.
// ok is false when the user quits without choosing.
func StartPortPicker(ports []audio.PortInfo) (port audio.PortInfo, ok bool, err error) {
	p := tea.NewProgram(
		NewPortPickerModel(ports),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return audio.PortInfo{}, false, err
	}
	port, ok = final.(PortPickerModel).Selected()
	return port, ok, nil
}
