// Copyright 2023 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/binkynet/LampFire/pkg/service/bridge"
	"github.com/binkynet/LampFire/pkg/service/flicker"
	"github.com/binkynet/LampFire/pkg/service/status"
)

const (
	defaultBarWidth = 48
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(8)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type keyMap struct {
	Quit key.Binding
}

// ShortHelp returns the bindings shown in the help line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

// FullHelp returns all bindings.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// snapshotMsg carries a new controller snapshot into the UI.
type snapshotMsg status.Snapshot

// Root is the model showing both lamps.
type Root struct {
	width    int
	snapshot status.Snapshot
	help     help.Model
}

var _ tea.Model = Root{}

// NewRoot creates the root model.
func NewRoot() Root {
	return Root{
		help: help.New(),
	}
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (r Root) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		s := status.Snapshot(msg)
		if s.Seq > r.snapshot.Seq {
			r.snapshot = s
		}
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.help.Width = msg.Width
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return r, tea.Quit
		}
	}
	return r, nil
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (r Root) View() string {
	var sb strings.Builder
	s := r.snapshot
	sb.WriteString(titleStyle.Render("LampFire"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s  %.1f Hz", phaseName(s.Phase), flicker.PWMFrequencyHz)))
	sb.WriteString("\n\n")
	for _, ch := range bridge.Channels {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("Lamp %d", ch)))
		sb.WriteString(r.lampBar(s, ch))
		sb.WriteString(fmt.Sprintf(" %3d\n", s.Duty[ch]))
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("cycles %s  delay %2d ms  prg 0x%04X",
		humanize.Comma(int64(s.Cycles)), s.DelayMS, s.State)))
	sb.WriteString("\n")
	sb.WriteString(r.help.View(keys))
	sb.WriteString("\n")
	return sb.String()
}

// lampBar renders the brightness of a lamp.
func (r Root) lampBar(s status.Snapshot, ch bridge.Channel) string {
	width := defaultBarWidth
	if r.width > 0 && r.width-16 < width {
		width = r.width - 16
	}
	if width < 1 {
		width = 1
	}
	var level float64
	switch s.Phase {
	case status.PhaseSelfTest:
		if s.Enabled[ch] {
			level = 1
		}
	case status.PhasePWMSetup, status.PhaseRunning:
		level = brightness(s.Duty[ch])
	}
	filled := int(level*float64(width) + 0.5)
	bar := lipgloss.NewStyle().Foreground(flameColor(level)).Render(strings.Repeat("█", filled))
	return bar + dimStyle.Render(strings.Repeat("░", width-filled))
}

// brightness returns the fraction of a PWM period the lamp is on.
func brightness(duty uint8) float64 {
	return float64(flicker.PWM.HighTime(duty)) / float64(flicker.PWM.Period())
}

// flameColor goes from dark red (off) to yellow (full on).
func flameColor(level float64) lipgloss.Color {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	red := 0x80 + int(level*0x7F)
	green := int(level * 0xD0)
	return lipgloss.Color(fmt.Sprintf("#%02X%02X00", red, green))
}

func phaseName(p status.Phase) string {
	if p == status.PhaseIdle {
		return "starting"
	}
	return string(p)
}
