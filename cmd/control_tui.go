// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	refreshIntervalSeconds = 5 // Re-query status every N seconds while idle
	maxLogEntries          = 100
)

// remoteKeys maps TUI keys to projector remote buttons. Arrow keys stay with
// the source list.
var remoteKeys = map[string]escvp.Key{
	"m": escvp.KeyMenu,
	"x": escvp.KeyEsc,
	" ": escvp.KeyEnter,
	"w": escvp.KeyUp,
	"s": escvp.KeyDown,
	"a": escvp.KeyLeft,
	"d": escvp.KeyRight,
	"i": escvp.KeySource,
}

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// sourceItem is one selectable input in the source list
type sourceItem struct {
	source escvp.Source
	active bool
}

// Implement list.Item interface
func (s sourceItem) Title() string {
	if s.active {
		return s.source.String() + " *"
	}
	return s.source.String()
}

func (s sourceItem) Description() string {
	code, _ := s.source.Code()
	return fmt.Sprintf("code 0x%02X", code)
}

func (s sourceItem) FilterValue() string { return s.source.String() }

type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	backend  controlBackend
	connInfo string

	status      *projector.Status
	lastRefresh time.Time

	// busy is set while a command is running; the controller serializes
	// anyway, this just keeps the UI from queueing presses.
	busy    bool
	pending string

	sourceList list.Model
	spinner    spinner.Model
	eventLog   []eventLogEntry

	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type statusMsg struct {
	status projector.Status
	err    error
}

type commandDoneMsg struct {
	desc string
	err  error
}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(backend controlBackend, connInfo string) controlModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	sourceList := list.New(sourceItems(nil), delegate, 30, 12)
	sourceList.Title = "Sources"
	sourceList.SetShowStatusBar(false)
	sourceList.SetShowHelp(false)
	sourceList.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return controlModel{
		backend:    backend,
		connInfo:   connInfo,
		sourceList: sourceList,
		spinner:    sp,
		eventLog:   make([]eventLogEntry, 0),
		width:      80,
		height:     24,
		busy:       true,
		pending:    "Reading status",
	}
}

func sourceItems(active *escvp.Source) []list.Item {
	sources := escvp.Sources()
	items := make([]list.Item, 0, len(sources))
	for _, src := range sources {
		items = append(items, sourceItem{source: src, active: active != nil && *active == src})
	}
	return items
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func queryStatusCmd(backend controlBackend) tea.Cmd {
	return func() tea.Msg {
		st, err := backend.Status()
		return statusMsg{status: st, err: err}
	}
}

func runCommandCmd(desc string, op func() error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{desc: desc, err: op()}
	}
}

func reconnectCmd(backend controlBackend) tea.Cmd {
	return func() tea.Msg {
		connInfo, ok := backend.Reconnect()
		if !ok {
			return nil
		}
		return reconnectedMsg{connInfo: connInfo}
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(controlTickCmd(), m.spinner.Tick, queryStatusCmd(m.backend))
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sourceList.SetSize(30, max(msg.Height-16, 6))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case controlTickMsg:
		if !m.busy && !m.connectionLost &&
			time.Since(m.lastRefresh) >= refreshIntervalSeconds*time.Second {
			m.busy = true
			m.pending = "Refreshing"
			return m, tea.Batch(controlTickCmd(), queryStatusCmd(m.backend))
		}
		return m, controlTickCmd()

	case statusMsg:
		m.busy = false
		m.pending = ""
		m.lastRefresh = time.Now()
		if msg.err != nil {
			return m.handleFailure("Status query", msg.err)
		}
		st := msg.status
		m.status = &st
		cmd := m.sourceList.SetItems(sourceItems(st.Source))
		return m, cmd

	case commandDoneMsg:
		if msg.err != nil {
			m.busy = false
			m.pending = ""
			return m.handleFailure(msg.desc, msg.err)
		}
		m.addLogEntry(msg.desc+" done", false)
		m.pending = "Reading status"
		return m, queryStatusCmd(m.backend)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
		m.busy = true
		m.pending = "Reading status"
		return m, queryStatusCmd(m.backend)
	}

	return m, nil
}

func (m controlModel) handleFailure(desc string, err error) (tea.Model, tea.Cmd) {
	m.addLogEntry(fmt.Sprintf("%s failed: %v", desc, err), true)
	if linkLost(err) && !m.connectionLost {
		m.connectionLost = true
		m.addLogEntry("Connection lost - reconnecting...", true)
		return m, reconnectCmd(m.backend)
	}
	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k", "down", "j":
		var cmd tea.Cmd
		m.sourceList, cmd = m.sourceList.Update(msg)
		return m, cmd
	}

	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}
	if m.busy {
		return m, nil
	}

	switch key {
	case "r":
		return m.start("Reading status", queryStatusCmd(m.backend))

	case "p":
		target := escvp.PowerOn
		if m.status != nil && m.status.Power == escvp.PowerOn {
			target = escvp.PowerOff
		}
		desc := fmt.Sprintf("Power %s", target)
		return m.start(desc, runCommandCmd(desc, func() error { return m.backend.SetPower(target) }))

	case "enter":
		item, ok := m.sourceList.SelectedItem().(sourceItem)
		if !ok {
			return m, nil
		}
		desc := fmt.Sprintf("Source %s", item.source)
		return m.start(desc, runCommandCmd(desc, func() error { return m.backend.SetSource(item.source) }))
	}

	if k, ok := remoteKeys[key]; ok {
		desc := fmt.Sprintf("Key %s", k)
		return m.start(desc, runCommandCmd(desc, func() error { return m.backend.SendKey(k) }))
	}

	return m, nil
}

func (m controlModel) start(desc string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.pending = desc
	return m, cmd
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	offStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("EPSONCTL CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit p=power r=refresh Enter=source", connStatus)))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(" remote: m=menu x=esc space=enter i=source w/a/s/d=arrows"))
	s.WriteString("\n\n")

	leftWidth := 34
	rightWidth := max(m.width-leftWidth-5, 30)

	listPanel := boxStyle.Width(leftWidth).Render(m.sourceList.View())
	statusPanel := boxStyle.Width(rightWidth).Render(m.renderStatus(labelStyle, valueStyle, offStyle, warningStyle, headerStyle))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listPanel, " ", statusPanel))
	s.WriteString("\n")

	s.WriteString(m.renderEventLog(labelStyle, warningStyle, offStyle, headerStyle, boxStyle))
	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderStatus(labelStyle, valueStyle, offStyle, warningStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("PROJECTOR"))
	s.WriteString("\n\n")

	if m.status == nil {
		s.WriteString(headerStyle.Render("No status yet"))
	} else {
		power := valueStyle.Render(m.status.Power.String())
		if m.status.Power != escvp.PowerOn {
			power = offStyle.Render(m.status.Power.String())
		}
		code, _ := m.status.PowerStatus.Code()
		s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Power: "), power))
		s.WriteString(fmt.Sprintf("%s %s (0x%02X)\n", labelStyle.Render("Status:"), m.status.PowerStatus, code))
		if m.status.Source != nil {
			s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Source:"), valueStyle.Render(m.status.Source.String())))
		} else {
			s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Source:"), headerStyle.Render("(projector off)")))
		}
		s.WriteString(headerStyle.Render(fmt.Sprintf("\nupdated %s", m.lastRefresh.Format("15:04:05"))))
	}

	if m.busy {
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), warningStyle.Render(m.pending+"...")))
	}
	return s.String()
}

func (m controlModel) renderEventLog(labelStyle, warningStyle, errorStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := min(8, len(m.eventLog))
	startIdx := len(m.eventLog) - logHeight

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(max(m.width-4, 40)).Render(s.String())
}
