package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"browserchat/internal/logging"
	"browserchat/internal/protocol"
	"browserchat/internal/transcript"
)

const welcomeExamples = 2

func (m model) View() string {
	out := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderInput(),
		m.renderFooter(),
	)
	if m.quitConfirm {
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m *model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabChat, "Chat"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+3)
	segments = append(segments, m.theme.title.Render("Browser Agent")+" ")
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	indicator := m.theme.offline.Render(" ○")
	if m.sess.Connected() {
		indicator = m.theme.online.Render(" ●")
	}
	segments = append(segments, indicator, m.theme.helpText.Render(" "+m.conn.Endpoint()))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m *model) renderContent() string {
	contentHeight := maxInt(8, m.height-11)
	contentWidth := maxInt(40, m.width-4)
	panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
	switch m.activeTab {
	case tabHelp:
		return panel.Render(m.theme.panelTitle.Render("Help") + "\n" + m.renderHelp())
	default:
		return panel.Render(m.theme.panelTitle.Render("Transcript") + "\n" + m.timeline.View())
	}
}

func (m *model) renderInput() string {
	contentWidth := maxInt(40, m.width-4)
	if m.activeTab != tabChat {
		return m.theme.inputPanel.Width(contentWidth).Render(m.theme.helpText.Render("Input disabled outside Chat tab. Press Tab to return."))
	}
	inputView := m.input.View()
	switch {
	case m.connecting:
		inputView = m.spinner.View() + " connecting... " + inputView
	case m.working:
		inputView = m.spinner.View() + " working... " + inputView
	}
	return m.theme.inputPanel.Width(contentWidth).Render(inputView)
}

func (m *model) renderFooter() string {
	contentWidth := maxInt(40, m.width-4)
	statusStyle := m.theme.status
	lowered := strings.ToLower(m.statusLine)
	if strings.Contains(lowered, "error") || strings.Contains(lowered, "disconnected") || strings.Contains(lowered, "not connected") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	hints := m.theme.helpText.Render("Keys: Enter send · Ctrl+E example · Tab switch view · PgUp/PgDn scroll · Esc quit prompt · Ctrl+C quit")
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + hints)
}

func (m *model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.56), 32, 72)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}

	note := "The agent connection will be closed."
	if !m.sess.Connected() {
		note = "The agent connection is already closed."
	}
	body := strings.Join([]string{
		m.theme.errorStatus.Render("QUIT BROWSERCHAT?"),
		"",
		m.theme.helpText.Render(note),
		m.theme.helpText.Render("The transcript is not saved."),
		"",
		m.theme.modalPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#120924")),
	)
}

// renderPanes refreshes the timeline content, following new messages unless
// the user has scrolled away from the bottom.
func (m *model) renderPanes() {
	prevYOffset := m.timeline.YOffset
	prevAtBottom := m.timeline.AtBottom()

	contentHeight := maxInt(8, m.height-11)
	contentWidth := maxInt(40, m.width-4)
	m.timeline.Width = maxInt(20, contentWidth-4)
	m.timeline.Height = maxInt(5, contentHeight-1)

	m.timeline.SetContent(m.renderTimeline())
	if prevAtBottom {
		m.timeline.GotoBottom()
	} else {
		m.timeline.SetYOffset(prevYOffset)
	}
}

func (m *model) resize() {
	contentWidth := maxInt(40, m.width-4)
	m.input.Width = maxInt(20, contentWidth-6)
}

func (m *model) renderTimeline() string {
	messages := m.sess.Transcript()
	var b strings.Builder
	if m.showExamples || !hasUserMessage(messages) {
		b.WriteString(m.renderWelcome())
		b.WriteString("\n\n")
	}
	width := maxInt(24, m.timeline.Width-2)
	for _, msg := range messages {
		header := fmt.Sprintf("%s [%s]", msg.Timestamp(), msg.Role)
		b.WriteString(m.theme.labelStyle(msg.Role).Render(header))
		b.WriteString("\n")
		b.WriteString(m.renderMessageBody(msg, width))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func hasUserMessage(messages []transcript.Message) bool {
	for _, msg := range messages {
		if msg.Role == transcript.RoleUser {
			return true
		}
	}
	return false
}

func (m *model) renderWelcome() string {
	lines := []string{m.theme.panelTitle.Render("Try these examples:")}
	limit := len(m.cfg.Examples)
	if !m.showExamples {
		limit = minInt(limit, welcomeExamples)
	}
	for i, example := range m.cfg.Examples[:limit] {
		label := m.theme.exampleKey.Render(fmt.Sprintf("%d.", i+1))
		lines = append(lines, label+" "+m.theme.example.Render(wrapText(example, maxInt(20, m.timeline.Width-6))))
	}
	lines = append(lines, m.theme.helpText.Render("Ctrl+E loads the next example into the input; /example <n> picks one."))
	return strings.Join(lines, "\n")
}

func (m *model) renderMessageBody(msg transcript.Message, width int) string {
	style := m.theme.bodyStyle(msg.Kind)
	switch msg.Kind {
	case transcript.KindProducts:
		return m.renderProducts(msg, width)
	case transcript.KindResult:
		if looksLikeJSON(msg.Text) {
			return m.renderJSONResult(msg, width)
		}
		return style.Render(wrapText(msg.Text, width))
	case transcript.KindAction:
		return style.Render(wrapText("▶ "+msg.Text, width))
	default:
		return style.Render(wrapText(msg.Text, width))
	}
}

func (m *model) renderProducts(msg transcript.Message, width int) string {
	lines := []string{m.theme.bodyStyle(msg.Kind).Render(msg.Text)}
	if msg.Products == nil {
		return lines[0]
	}
	for i, product := range msg.Products.Items {
		lines = append(lines, m.theme.productName.Render(wrapText(fmt.Sprintf("%d. %s", i+1, nullCoalesce(product.Name, "(unnamed)")), width)))
		if meta := productMeta(product); meta != "" {
			lines = append(lines, m.theme.productMeta.Render("   "+meta))
		}
		if product.URL != "" {
			lines = append(lines, m.theme.productLink.Render("   "+truncate(product.URL, maxInt(10, width-3))))
		}
		if product.ImageURL != "" {
			lines = append(lines, m.theme.helpText.Render("   image: "+truncate(product.ImageURL, maxInt(10, width-10))))
		}
	}
	return strings.Join(lines, "\n")
}

func productMeta(product protocol.Product) string {
	parts := make([]string, 0, 2)
	if product.Price != "" {
		parts = append(parts, "Price: "+product.Price)
	}
	if product.Rating != "" {
		parts = append(parts, "Rating: "+product.Rating)
	}
	return strings.Join(parts, " · ")
}

// renderJSONResult highlights a structured result. Output is cached per
// message since stored messages never change; the cache is reset whenever
// the wrap width changes.
func (m *model) renderJSONResult(msg transcript.Message, width int) string {
	if cached, ok := m.resultCache[msg.ID]; ok && m.rendererW == width {
		return cached
	}
	renderer := m.markdownRenderer(width)
	fallback := m.theme.bodyStyle(msg.Kind).Render(msg.Text)
	if renderer == nil {
		return fallback
	}
	out, err := renderer.Render("```json\n" + msg.Text + "\n```")
	if err != nil {
		logging.Debug("render result", logging.FieldMessageID, msg.ID, logging.FieldError, err)
		return fallback
	}
	out = strings.Trim(out, "\n")
	m.resultCache[msg.ID] = out
	return out
}

func (m *model) markdownRenderer(width int) *glamour.TermRenderer {
	if m.renderer != nil && m.rendererW == width {
		return m.renderer
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logging.Warn("glamour renderer unavailable", logging.FieldError, err)
		return nil
	}
	m.renderer = renderer
	m.rendererW = width
	m.resultCache = map[uint64]string{}
	return renderer
}

func (m *model) renderHelp() string {
	lines := []string{
		"Core Keys",
		"- Enter: send the task in the input (Chat tab, while connected)",
		"- Ctrl+E: load the next example task into the input",
		"- Tab / Shift+Tab: switch views",
		"- PgUp/PgDn, Up/Down (input empty), Home/End: scroll the transcript",
		"- Esc in chat: quit confirmation",
		"- Ctrl+C: quit",
		"",
		"Slash Commands",
		"- /examples: show or hide all example tasks",
		"- /example [n]: load example n (or the next one) into the input",
		"- /help",
		"- /quit",
		"",
		"Transcript",
		"- ● connected, ○ disconnected; the connection is never retried",
		"- Messages are timestamped and kept until exit",
		"- Product results list at most " + fmt.Sprint(protocol.MaxProducts) + " items",
		"- Structured results are shown as highlighted JSON",
		"",
		"Session",
		"- Endpoint: " + m.conn.Endpoint(),
		"- Session id: " + m.sess.ID(),
		"- Config file: " + nullCoalesce(m.cfg.configPath, "(none)"),
		"- Log file: " + nullCoalesce(m.cfg.LogFile, "(disabled)"),
	}
	return m.theme.helpText.Render(strings.Join(lines, "\n"))
}
