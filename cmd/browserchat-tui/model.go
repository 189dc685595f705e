package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"browserchat/internal/logging"
	"browserchat/internal/session"
	"browserchat/internal/transcript"
)

const (
	inputCharLimit        = 4000
	connectedPlaceholder  = "Enter a task..."
	offlinePlaceholder    = "disconnected"
	connectingPlaceholder = "connecting..."
)

type tabID int

const (
	tabChat tabID = iota
	tabHelp
	tabCount
)

// agentConn is the part of *session.Conn the model drives.
type agentConn interface {
	session.Transport
	Endpoint() string
	Events() <-chan session.ConnEvent
	Open(ctx context.Context)
	Close() error
}

type connEventMsg struct {
	event session.ConnEvent
}

type connDoneMsg struct{}

type model struct {
	cfg    appConfig
	ctx    context.Context
	cancel context.CancelFunc
	conn   agentConn
	sess   *session.Session

	connecting   bool
	streamDone   bool
	working      bool
	quitConfirm  bool
	showExamples bool
	exampleIndex int
	activeTab    tabID
	statusLine   string

	width  int
	height int

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model

	theme       uiTheme
	renderer    *glamour.TermRenderer
	rendererW   int
	resultCache map[uint64]string
}

func newModel(ctx context.Context, cancel context.CancelFunc, cfg appConfig, conn agentConn, sess *session.Session) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = inputCharLimit
	input.Placeholder = connectingPlaceholder
	input.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	timeline := viewport.New(0, 0)
	timeline.MouseWheelEnabled = true
	timeline.MouseWheelDelta = 4

	return model{
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		conn:        conn,
		sess:        sess,
		connecting:  true,
		activeTab:   tabChat,
		statusLine:  "connecting to " + conn.Endpoint(),
		input:       input,
		timeline:    timeline,
		spinner:     sp,
		theme:       newTheme(),
		resultCache: map[uint64]string{},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.openCmd(),
		waitConnMsg(m.conn.Events()),
	)
}

func (m model) openCmd() tea.Cmd {
	conn, ctx := m.conn, m.ctx
	return func() tea.Msg {
		conn.Open(ctx)
		return nil
	}
}

// waitConnMsg pulls exactly one connection event; Update re-arms it after
// each event so frames are applied one at a time in delivery order.
func waitConnMsg(ch <-chan session.ConnEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return connDoneMsg{}
		}
		return connEventMsg{event: ev}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case connEventMsg:
		m.applyConnEvent(msg.event)
		cmds = append(cmds, waitConnMsg(m.conn.Events()))
	case connDoneMsg:
		m.streamDone = true
		m.connecting = false
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.quitConfirm || m.activeTab != tabChat {
			break
		}
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.quitConfirm {
			switch msg.String() {
			case "y", "Y", "enter":
				return m, m.quit()
			case "n", "N", "esc":
				m.quitConfirm = false
				m.statusLine = "quit canceled"
				m.renderPanes()
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "esc":
			if m.activeTab == tabChat {
				m.beginQuitConfirm()
				return m, tea.Batch(cmds...)
			}
			m.switchTab(tabChat)
			return m, tea.Batch(cmds...)
		case "tab":
			m.switchTab((m.activeTab + 1) % tabCount)
			return m, tea.Batch(cmds...)
		case "shift+tab":
			m.switchTab((m.activeTab + tabCount - 1) % tabCount)
			return m, tea.Batch(cmds...)
		}

		if m.activeTab != tabChat {
			return m, tea.Batch(cmds...)
		}
		switch msg.String() {
		case "enter":
			m.submitInput()
			return m, tea.Batch(cmds...)
		case "ctrl+e":
			m.cycleExample()
			return m, tea.Batch(cmds...)
		case "pgup", "ctrl+b":
			m.timeline.LineUp(8)
			return m, tea.Batch(cmds...)
		case "pgdown", "ctrl+f":
			m.timeline.LineDown(8)
			return m, tea.Batch(cmds...)
		case "up":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineUp(4)
				return m, tea.Batch(cmds...)
			}
		case "down":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineDown(4)
				return m, tea.Batch(cmds...)
			}
		case "home":
			m.timeline.GotoTop()
			return m, tea.Batch(cmds...)
		case "end":
			m.timeline.GotoBottom()
			return m, tea.Batch(cmds...)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) applyConnEvent(ev session.ConnEvent) {
	appended := m.sess.Handle(ev)
	switch ev.Kind {
	case session.ConnOpened:
		m.connecting = false
		m.statusLine = "connected · " + m.conn.Endpoint()
	case session.ConnClosed:
		m.connecting = false
		m.working = false
		m.statusLine = "disconnected · press Esc to quit"
	case session.ConnTransportError:
		m.statusLine = "connection error: " + compactSingleLine(fmt.Sprint(ev.Err), 140)
	case session.ConnFrame:
		for _, msg := range appended {
			if taskSettled(msg.Kind) {
				m.working = false
			}
		}
		if n := len(appended); n > 0 {
			last := appended[n-1]
			m.statusLine = fmt.Sprintf("agent %s · %s", last.Kind, compactSingleLine(last.Text, 120))
		}
	}
	m.syncInput()
	m.renderPanes()
}

// taskSettled reports whether a message of this kind ends the visible
// "working" state. Tasks are not correlated, so this is only a display hint.
func taskSettled(kind transcript.Kind) bool {
	switch kind {
	case transcript.KindCompletion, transcript.KindResult, transcript.KindProducts, transcript.KindFormResult, transcript.KindError:
		return true
	default:
		return false
	}
}

// syncInput disables the input while the session cannot send.
func (m *model) syncInput() {
	switch {
	case m.sess.Connected():
		m.input.Placeholder = connectedPlaceholder
		if m.activeTab == tabChat && !m.quitConfirm {
			m.input.Focus()
		}
	case m.connecting:
		m.input.Placeholder = connectingPlaceholder
		m.input.Blur()
	default:
		m.input.Placeholder = offlinePlaceholder
		m.input.Blur()
	}
}

func (m *model) submitInput() {
	raw := m.input.Value()
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, "/") {
		m.input.SetValue("")
		m.handleSlash(trimmed)
		return
	}
	if !m.sess.Submit(raw) {
		m.statusLine = "not connected · task not sent"
		return
	}
	m.input.SetValue("")
	m.working = true
	m.showExamples = false
	m.statusLine = "task sent · " + compactSingleLine(trimmed, 120)
	m.timeline.GotoBottom()
	m.renderPanes()
}

func (m *model) handleSlash(raw string) {
	parts := strings.Fields(raw)
	cmd := strings.ToLower(parts[0])
	tail := parts[1:]
	switch cmd {
	case "/help":
		m.switchTab(tabHelp)
	case "/quit", "/exit":
		m.beginQuitConfirm()
	case "/examples":
		m.showExamples = !m.showExamples
		m.statusLine = ternary(m.showExamples, "examples shown · /example <n> to use one", "examples hidden")
		m.renderPanes()
	case "/example":
		if len(tail) == 0 {
			m.cycleExample()
			return
		}
		n, err := strconv.Atoi(tail[0])
		if err != nil || n < 1 || n > len(m.cfg.Examples) {
			m.statusLine = fmt.Sprintf("usage: /example 1-%d", len(m.cfg.Examples))
			return
		}
		m.loadExample(n - 1)
	default:
		m.statusLine = "unknown command: " + cmd
	}
}

func (m *model) cycleExample() {
	if len(m.cfg.Examples) == 0 {
		m.statusLine = "no example tasks configured"
		return
	}
	m.loadExample(m.exampleIndex)
	m.exampleIndex = (m.exampleIndex + 1) % len(m.cfg.Examples)
}

func (m *model) loadExample(idx int) {
	m.input.SetValue(m.cfg.Examples[idx])
	m.input.CursorEnd()
	m.statusLine = fmt.Sprintf("example %d/%d loaded · Enter to send", idx+1, len(m.cfg.Examples))
}

func (m *model) switchTab(tab tabID) {
	m.activeTab = tab
	if tab == tabChat {
		m.syncInput()
	} else {
		m.input.Blur()
	}
	m.renderPanes()
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.input.Blur()
	m.statusLine = "quit browserchat?"
}

// quit tears the session down: the socket is closed with a normal closure
// and the connection context is cancelled.
func (m *model) quit() tea.Cmd {
	if err := m.conn.Close(); err != nil {
		logging.Warn("close connection", logging.FieldSession, m.sess.ID(), logging.FieldError, err)
	}
	if m.cancel != nil {
		m.cancel()
	}
	return tea.Quit
}
