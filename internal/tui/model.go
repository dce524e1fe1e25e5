package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/onepointconsulting/murli-chat/internal/models"
	"github.com/onepointconsulting/murli-chat/internal/types"
)

const answerTimeout = 2 * time.Minute

// Model is the Bubble Tea model for the chat TUI. Conversation history is
// kept here and passed explicitly to the answerer on every turn.
type Model struct {
	answerer types.Answerer
	input    textinput.Model
	viewport viewport.Model
	history  []models.Exchange
	status   string
	waiting  bool
	ready    bool
}

type answerMsg struct {
	question string
	answer   models.Answer
	err      error
}

// New creates a new TUI model instance.
func New(answerer types.Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the Murlis and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		answerer: answerer,
		input:    ti,
		viewport: vp,
		status:   "Ready. Type a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + input box + spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "The assistant is temporarily unavailable. Please try again."
		} else {
			m.history = append(m.history, models.Exchange{
				Question: msg.question,
				Answer:   msg.answer.Text,
			})
			if len(msg.answer.Sources) > 0 {
				m.status = "Sources: " + strings.Join(msg.answer.Sources, ", ")
			} else {
				m.status = "Answered."
			}
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			question := strings.TrimSpace(m.input.Value())
			if question != "" {
				m.input.Reset()
				m.waiting = true
				m.status = "Thinking..."
				return m, m.ask(question)
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	history := m.history
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()
		answer, err := m.answerer.Answer(ctx, question, history)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// View renders the TUI layout and the conversation so far.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Ask questions about the Murlis")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		return "No questions asked yet."
	}
	var b strings.Builder
	for _, turn := range m.history {
		b.WriteString(questionStyle.Render(fmt.Sprintf("You: %s", turn.Question)))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Assistant: %s", turn.Answer))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
