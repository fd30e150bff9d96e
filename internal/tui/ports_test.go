// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"

	"probe/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

func testPorts() []audio.PortInfo {
	return []audio.PortInfo{
		{DeviceID: 0, Channel: 1, Name: "Mic:capture_1"},
		{DeviceID: 0, Channel: 2, Name: "Mic:capture_2"},
		{DeviceID: 3, Channel: 1, Name: "USB:capture_1"},
	}
}

func press(t *testing.T, m PortPickerModel, msgs ...tea.Msg) (PortPickerModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(PortPickerModel)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyJ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func TestPortPickerSelect(t *testing.T) {
	m, cmd := press(t, NewPortPickerModel(testPorts()),
		tea.WindowSizeMsg{Width: 80, Height: 20}, keyDown, keyJ, keyJ, keyUp, keyEnter)

	port, ok := m.Selected()
	if !ok {
		t.Fatal("expected a selection")
	}
	if port.Name != "Mic:capture_2" {
		t.Errorf("selected %q, want Mic:capture_2", port.Name)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestPortPickerCancel(t *testing.T) {
	m, cmd := press(t, NewPortPickerModel(testPorts()), keyDown, keyQ)
	if _, ok := m.Selected(); ok {
		t.Error("q should cancel without a selection")
	}
	if cmd == nil {
		t.Error("q should quit the program")
	}
}

func TestPortPickerEmpty(t *testing.T) {
	m, cmd := press(t, NewPortPickerModel(nil), tea.WindowSizeMsg{Width: 80, Height: 20}, keyEnter)
	if _, ok := m.Selected(); ok {
		t.Error("empty picker cannot select")
	}
	if cmd != nil {
		t.Error("enter on an empty list should not quit")
	}
	if !strings.Contains(m.View(), "No capture ports found.") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestPortPickerView(t *testing.T) {
	m := NewPortPickerModel(testPorts())
	if m.View() != "Initializing..." {
		t.Errorf("View() before size = %q", m.View())
	}
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	view := m.View()
	for _, want := range []string{"Capture Ports", "[3] USB:capture_1", "Mic:capture_1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
