package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/pomo/pkg/budget"
	"github.com/stefanpenner/pomo/pkg/output"
	"github.com/stefanpenner/pomo/pkg/timer"
)

const minWidth = 40
const minHeight = 10

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}

	if m.showDeleteConfirm {
		return placeOverlay(m.renderDeleteModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 2
	footerLines := 2

	// Search or input bar takes a line if active
	barActive := m.isSearching || m.state.Query != "" || m.inputStage != inputNone
	if barActive {
		headerLines++
	}

	contentHeight := h - headerLines - footerLines

	if barActive {
		b.WriteString(m.renderInputBar(w))
		b.WriteString("\n")
	}

	leftWidth, rightWidth := m.panelWidths()
	leftPanel := m.renderTaskPanel(leftWidth, contentHeight)
	rightPanel := m.renderTimerPanel(rightWidth, contentHeight)

	sep := lipgloss.NewStyle().Foreground(ColorGrayDim).Render("│")
	for i := 0; i < contentHeight; i++ {
		b.WriteString(getLine(leftPanel, i, leftWidth))
		b.WriteString(sep)
		b.WriteString(getLine(rightPanel, i, rightWidth))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// panelWidths splits the screen between the task list and the timer.
func (m Model) panelWidths() (left, right int) {
	w := max(m.width, minWidth)
	left = max(w/2, 20)
	right = max(w-left-1, 20) // 1 char for divider
	return left, right
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("pomo")

	completed := 0
	for _, t := range m.state.Tasks {
		if t.IsCompleted() {
			completed++
		}
	}
	statsText := fmt.Sprintf("%d/%d tasks complete", completed, len(m.state.Tasks))
	if m.opts.Server != "" {
		statsText += "  " + m.opts.Server
	}
	stats := HeaderCountStyle.Render(statsText)

	status := ""
	if m.statusMsg != "" {
		style := StatusMsgStyle
		if m.statusIsErr {
			style = ErrorMsgStyle
		}
		status = "  " + style.Render(m.statusMsg) + "  "
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(stats) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return title + status + strings.Repeat(" ", gap) + stats
}

func (m Model) renderInputBar(width int) string {
	switch m.inputStage {
	case inputTitle:
		return InputPromptStyle.Render(" New task: ") + m.textInput.View()
	case inputHours:
		return InputPromptStyle.Render(" Hours for "+m.pendingTitle+": ") + m.textInput.View()
	}

	query := m.searchQuery
	cursor := ""
	if m.isSearching {
		cursor = SearchBarStyle.Render("█")
	} else {
		query = m.state.Query
	}
	left := SearchBarStyle.Render(" / "+query) + cursor

	count := 0
	for _, item := range m.visibleItems {
		if !item.IsSectionHeader {
			count++
		}
	}
	countStr := SearchCountStyle.Render(fmt.Sprintf(" %d matches", count))

	padWidth := width - lipgloss.Width(left) - lipgloss.Width(countStr)
	if padWidth < 1 {
		padWidth = 1
	}
	return left + strings.Repeat(" ", padWidth) + countStr
}

func (m Model) renderTaskPanel(width, height int) string {
	var lines []string

	if len(m.visibleItems) == 0 {
		lines = append(lines, FooterStyle.Render(" No tasks yet. Press 'a' to add one."))
	}

	// Scrolling window
	startIdx := 0
	endIdx := len(m.visibleItems)
	if len(m.visibleItems) > height {
		startIdx = max(0, m.cursor-height/2)
		endIdx = startIdx + height
		if endIdx > len(m.visibleItems) {
			endIdx = len(m.visibleItems)
			startIdx = max(0, endIdx-height)
		}
	}

	for i := startIdx; i < endIdx; i++ {
		item := m.visibleItems[i]
		if item.IsSectionHeader {
			lines = append(lines, m.renderSectionHeader(item, width))
			continue
		}
		lines = append(lines, m.renderTaskItem(item, i == m.cursor, width))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderSectionHeader(item ListItem, width int) string {
	label := statusStyle(string(item.Status)).Bold(true).Render("── " + item.Name + " ")
	remaining := width - lipgloss.Width(label)
	if remaining > 0 {
		label += lipgloss.NewStyle().Foreground(ColorGrayDim).Render(strings.Repeat("─", remaining))
	}
	return label
}

func (m Model) renderTaskItem(item ListItem, isSelected bool, width int) string {
	t := item.Task
	isActive := m.state.HasActive() && m.state.ActiveID == t.ID

	var icon string
	switch {
	case isActive:
		icon = IconActive
	case t.IsCompleted():
		icon = CompleteStyle.Render(IconComplete)
	case t.IsInProgress():
		icon = InProgressStyle.Render(IconInProgress)
	default:
		icon = TodoStyle.Render(IconTodo)
	}

	bar := output.Bar(t.Budget.Percentage(), 8) //nolint:mnd // row bar width
	right := " " + bar + " " + t.Budget.String()
	if t.Budget.Overrun() {
		right = OverrunStyle.Render(right)
	} else {
		right = BudgetStyle.Render(right)
	}

	name := item.Name
	nameWidth := width - 4 - lipgloss.Width(right)
	if nameWidth < 4 {
		nameWidth = 4
	}
	if lipgloss.Width(name) > nameWidth {
		name = truncate(name, nameWidth)
	}

	line := "  " + icon + " " + name
	gap := width - lipgloss.Width(line) - lipgloss.Width(right)
	if gap > 0 {
		line += strings.Repeat(" ", gap)
	}
	line += right

	switch {
	case isSelected:
		line = SelectedStyle.Render(line)
	case isActive:
		line = ActiveStyle.Render(line)
	}
	return line
}

func (m Model) renderTimerPanel(width, height int) string {
	st := m.state.Timer
	var lines []string

	label := "Work Time"
	style := WorkStyle
	if st.Subphase == timer.Break {
		label = "Break Time"
		style = BreakStyle
	}
	phase := ""
	switch {
	case st.Completed():
		phase = "done"
	case st.Phase != timer.Running:
		phase = st.Phase.String()
	}
	head := " " + style.Render(label)
	if phase != "" {
		head += PhaseStyle.Render("  (" + phase + ")")
	}
	lines = append(lines, head, "")

	clock := ClockStyle.Render(formatClock(st.Remaining))
	for _, l := range strings.Split(clock, "\n") {
		lines = append(lines, " "+l)
	}

	sub := fmt.Sprintf(" %s left in %s", formatClock(st.SubphaseRemaining()), st.Subphase)
	lines = append(lines, PhaseStyle.Render(sub))
	lines = append(lines, " "+m.timerBar.ViewAs(st.Progress()))
	lines = append(lines, PhaseStyle.Render(" Cycle: "+formatDurations(st.Durations)))
	if st.Pending != nil {
		lines = append(lines, PhaseStyle.Render(" Next:  "+formatDurations(*st.Pending)))
	}
	lines = append(lines, "")

	if a := m.state.Active; a != nil {
		lines = append(lines, " "+ActiveStyle.Render(IconActive+" Tracking: "+displayName(a)))
		lines = append(lines, " "+m.budgetBar.ViewAs(a.Budget.Percentage()/100))
		lines = append(lines, BudgetStyle.Render(fmt.Sprintf(" %s  (%s left)",
			a.Budget.String(), budget.MustFormat(a.Budget.RemainingHours()))))
	} else {
		lines = append(lines, FooterStyle.Render(" No task selected. Press enter on a task to track it."))
	}
	lines = append(lines, strings.Repeat("─", width))

	if m.detail != "" {
		lines = append(lines, strings.Split(m.detail, "\n")...)
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	help := m.keys.ShortHelp()
	switch {
	case m.inputStage != inputNone:
		help = "enter confirm  esc cancel"
	case m.isSearching:
		help = "type to filter  enter search server  esc clear"
	case m.state.Query != "":
		help = "esc clear search  ↑↓ nav  enter track"
	case m.statusMsg != "":
		help = "esc dismiss  " + help
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(10)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderDeleteModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Delete Task"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Delete '%s'?\n", displayName(&m.deleteTarget)))
	if m.state.HasActive() && m.state.ActiveID == m.deleteTarget.ID {
		b.WriteString(FooterStyle.Render("This is the task being tracked; the timer will reset."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorGreen).Render("[y]") + " Yes  ")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorRed).Render("[n]") + " No")

	return ModalStyle.Render(b.String())
}

// Helper functions

func truncate(s string, width int) string {
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		lineWidth := lipgloss.Width(line)
		if lineWidth < width {
			return line + strings.Repeat(" ", width-lineWidth)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}

	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}
