package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

type fakeAnswerer struct {
	question string
	history  []models.Exchange
	reply    string
	err      error
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, history []models.Exchange) (models.Answer, error) {
	f.question = question
	f.history = history
	if f.err != nil {
		return models.Answer{}, f.err
	}
	return models.Answer{Text: f.reply, Sources: []string{"murli"}}, nil
}

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	m = updated.(Model)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestAskAndAnswer(t *testing.T) {
	answerer := &fakeAnswerer{reply: "The answer."}
	m := New(answerer)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	m, cmd := typeAndEnter(t, m, "What is X?")
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)

	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	require.NoError(t, answer.err)
	assert.Equal(t, "What is X?", answerer.question)

	updated, _ = m.Update(answer)
	m = updated.(Model)
	assert.False(t, m.waiting)
	require.Len(t, m.history, 1)
	assert.Equal(t, "The answer.", m.history[0].Answer)
	assert.Contains(t, m.status, "murli")
	assert.Contains(t, m.View(), "The answer.")
}

func TestHistoryPassedOnNextTurn(t *testing.T) {
	answerer := &fakeAnswerer{reply: "ok"}
	m := New(answerer)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	m, cmd := typeAndEnter(t, m, "first?")
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	m, cmd = typeAndEnter(t, m, "second?")
	cmd()

	require.Len(t, answerer.history, 1)
	assert.Equal(t, "first?", answerer.history[0].Question)
}

func TestFailureShowsStatusNotCrash(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("provider down")}
	m := New(answerer)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	m, cmd := typeAndEnter(t, m, "What is X?")
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	assert.Empty(t, m.history)
	assert.True(t, strings.Contains(m.status, "temporarily unavailable"))
}

func TestEnterIgnoredWhileWaiting(t *testing.T) {
	answerer := &fakeAnswerer{reply: "ok"}
	m := New(answerer)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	m, cmd := typeAndEnter(t, m, "first?")
	require.NotNil(t, cmd)

	// still waiting; a second enter must not fire another ask, so the
	// input keeps its text instead of being reset
	m, _ = typeAndEnter(t, m, "second?")
	assert.True(t, m.waiting)
	assert.Equal(t, "second?", m.input.Value())
}
