package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"interviewer/beep"
	"interviewer/clipboard"
	"interviewer/interview"
	"interviewer/transcript"
)

// controller is the part of the coordinator the TUI drives. Every call
// posts to the coordinator loop and may block, so the model only makes
// them from tea.Cmd goroutines.
type controller interface {
	Start(role string)
	Submit(text string)
	ToggleMic()
	Reset()
	State() interview.State
	Transcript() []transcript.Turn
}

// TUI message types
type chatMsg struct {
	kind interview.MessageKind
	text string
}
type draftMsg struct{ text string }
type inputMsg struct{ enabled bool }
type micMsg struct{ available, listening bool }
type statusMsg struct{ text string }
type feedbackMsg struct {
	report string
	final  bool
}
type clearMsg struct{}
type noticeMsg struct{ text string }
type tickMsg time.Time

type chatLine struct {
	kind interview.MessageKind
	text string
}

type tuiModel struct {
	ctl  controller
	role string

	lines         []chatLine
	draft         string
	inputEnabled  bool
	micAvailable  bool
	listening     bool
	status        string
	feedback      string
	finalFeedback bool
	notice        string

	width, height int
	frame         int
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	roleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	interviewerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	candidateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	systemStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	paneTitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	feedbackStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	recStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	answerBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)

func newTUIModel(ctl controller, role string) tuiModel {
	return tuiModel{ctl: ctl, role: role}
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

// do runs fn off the bubbletea loop.
func do(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case chatMsg:
		m.lines = append(m.lines, chatLine(msg))

	case draftMsg:
		m.draft = msg.text

	case inputMsg:
		m.inputEnabled = msg.enabled

	case micMsg:
		m.micAvailable = msg.available
		m.listening = msg.listening

	case statusMsg:
		m.status = msg.text

	case feedbackMsg:
		m.feedback = msg.report
		m.finalFeedback = msg.final

	case clearMsg:
		m.lines = nil
		m.draft = ""
		m.feedback = ""
		m.finalFeedback = false
		m.notice = ""

	case noticeMsg:
		m.notice = msg.text
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl, role := m.ctl, m.role

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+s":
		m.notice = ""
		return m, do(func() { ctl.Start(role) })
	case "ctrl+t":
		return m, do(ctl.ToggleMic)
	case "ctrl+r":
		m.notice = ""
		return m, do(ctl.Reset)
	case "ctrl+y":
		feedback := m.feedback
		return m, func() tea.Msg {
			report := clipboard.Report(role, ctl.Transcript(), feedback)
			if err := clipboard.Copy(report); err != nil {
				return noticeMsg{text: "Copy failed: " + err.Error()}
			}
			return noticeMsg{text: "Interview copied to clipboard."}
		}
	case "tab":
		if ctl.State() == interview.Idle {
			m.role = nextRole(m.role)
		}
		return m, nil
	}

	if !m.inputEnabled {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.draft)
		if text == "" {
			return m, nil
		}
		return m, do(func() { ctl.Submit(text) })
	case tea.KeyBackspace:
		if r := []rune(m.draft); len(r) > 0 {
			m.draft = string(r[:len(r)-1])
		}
	case tea.KeyCtrlU:
		m.draft = ""
	case tea.KeySpace:
		m.draft += " "
	case tea.KeyRunes:
		m.draft += string(msg.Runes)
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := titleStyle.Render("Mock Interview") + "  " + roleStyle.Render(roleLabel(m.role))
	if m.role == "" {
		header = titleStyle.Render("Mock Interview") + "  " + roleStyle.Render("(press Tab to choose a role)")
	}

	footer := m.renderFooter()
	bodyHeight := m.height - 2 - lipgloss.Height(footer)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	feedbackWidth := m.width * 2 / 5
	if feedbackWidth < 20 {
		feedbackWidth = 20
	}
	chatWidth := m.width - feedbackWidth - 1
	if chatWidth < 20 {
		chatWidth = 20
	}

	chatPanel := lipgloss.NewStyle().
		Width(chatWidth).
		Height(bodyHeight).
		Render(m.renderChat(chatWidth-1, bodyHeight))

	feedbackPanel := lipgloss.NewStyle().
		Width(feedbackWidth).
		Height(bodyHeight).
		PaddingLeft(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("238")).
		Render(m.renderFeedback(feedbackWidth-3, bodyHeight))

	body := lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, feedbackPanel)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, footer)
}

// renderChat returns the last height wrapped lines of the conversation.
func (m tuiModel) renderChat(width, height int) string {
	if len(m.lines) == 0 {
		return dimStyle.Render("No questions yet. Press Ctrl+S to start.")
	}
	var out []string
	for i, l := range m.lines {
		if i > 0 {
			out = append(out, "")
		}
		var style lipgloss.Style
		prefix := ""
		switch l.kind {
		case interview.Interviewer:
			style, prefix = interviewerStyle, "Interviewer: "
		case interview.Candidate:
			style, prefix = candidateStyle, "You: "
		default:
			style = systemStyle
		}
		for _, w := range wrapText(prefix+l.text, width) {
			out = append(out, style.Render(w))
		}
	}
	if len(out) > height {
		out = out[len(out)-height:]
	}
	return strings.Join(out, "\n")
}

func (m tuiModel) renderFeedback(width, height int) string {
	title := "Live Feedback"
	if m.finalFeedback {
		title = "Full Interview Review"
	}
	out := []string{paneTitleStyle.Render(title), ""}
	if m.feedback == "" {
		out = append(out, dimStyle.Render("Feedback appears after your first answer."))
	} else {
		for _, w := range wrapText(m.feedback, width) {
			out = append(out, feedbackStyle.Render(w))
		}
	}
	if len(out) > height {
		out = out[:height]
	}
	return strings.Join(out, "\n")
}

func (m tuiModel) renderFooter() string {
	var mic string
	switch {
	case !m.micAvailable:
		mic = dimStyle.Render("mic unavailable")
	case m.listening:
		dot := "●"
		if (m.frame/4)%2 == 1 {
			dot = " "
		}
		mic = recStyle.Render(dot + " LISTENING")
	default:
		mic = dimStyle.Render("○ MIC OFF")
	}
	statusLine := mic + "  " + m.status
	if m.notice != "" {
		statusLine += "  " + noticeStyle.Render(m.notice)
	}

	boxWidth := m.width - 2
	if boxWidth < 10 {
		boxWidth = 10
	}
	var answer string
	if m.inputEnabled {
		answer = "> " + m.draft + "█"
	} else if m.draft != "" {
		answer = dimStyle.Render("> " + m.draft)
	} else {
		answer = dimStyle.Render("> ")
	}
	box := answerBoxStyle.Width(boxWidth).Render(answer)

	help := helpKeyStyle.Render("Ctrl+S") + helpStyle.Render(" start  ") +
		helpKeyStyle.Render("Enter") + helpStyle.Render(" send  ") +
		helpKeyStyle.Render("Ctrl+T") + helpStyle.Render(" mic  ") +
		helpKeyStyle.Render("Ctrl+R") + helpStyle.Render(" restart  ") +
		helpKeyStyle.Render("Ctrl+Y") + helpStyle.Render(" copy  ") +
		helpKeyStyle.Render("Tab") + helpStyle.Render(" role  ") +
		helpKeyStyle.Render("Ctrl+C") + helpStyle.Render(" quit  ") +
		helpStyle.Render(version)

	return lipgloss.JoinVertical(lipgloss.Left, statusLine, box, help)
}

// wrapText breaks text on spaces so no line is wider than width runes.
// Newlines in text are kept.
func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		r := []rune(para)
		if len(r) == 0 {
			lines = append(lines, "")
			continue
		}
		for len(r) > width {
			// Find last space within width
			splitAt := width
			for i := width; i > 0; i-- {
				if r[i] == ' ' {
					splitAt = i
					break
				}
			}
			lines = append(lines, string(r[:splitAt]))
			r = []rune(strings.TrimLeft(string(r[splitAt:]), " "))
		}
		if len(r) > 0 {
			lines = append(lines, string(r))
		}
	}
	return lines
}

// teaUI forwards coordinator output into the bubbletea program. Send blocks
// until the program takes the message and returns at once after it exits.
type teaUI struct {
	p *tea.Program
}

func (u *teaUI) Message(kind interview.MessageKind, text string) {
	u.p.Send(chatMsg{kind: kind, text: text})
}

func (u *teaUI) SetDraft(text string) { u.p.Send(draftMsg{text: text}) }

func (u *teaUI) SetInputEnabled(enabled bool) { u.p.Send(inputMsg{enabled: enabled}) }

func (u *teaUI) SetMic(available, listening bool) {
	u.p.Send(micMsg{available: available, listening: listening})
}

func (u *teaUI) SetStatus(text string) { u.p.Send(statusMsg{text: text}) }

func (u *teaUI) ShowFeedback(report string, final bool) {
	u.p.Send(feedbackMsg{report: report, final: final})
}

func (u *teaUI) Clear() { u.p.Send(clearMsg{}) }

// cueUI plays a beep when the microphone opens or closes and when an
// error is reported.
type cueUI struct {
	interview.UI
	listening bool
}

func withCues(ui interview.UI) interview.UI {
	return &cueUI{UI: ui}
}

func (c *cueUI) SetMic(available, listening bool) {
	switch {
	case listening && !c.listening:
		beep.PlayStart()
	case !listening && c.listening:
		beep.PlayEnd()
	}
	c.listening = listening
	c.UI.SetMic(available, listening)
}

func (c *cueUI) SetStatus(text string) {
	if strings.Contains(strings.ToLower(text), "error") {
		beep.PlayError()
	}
	c.UI.SetStatus(text)
}
