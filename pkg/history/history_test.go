package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onepointconsulting/murli-chat/pkg/history"
)

func TestAppendAndQuestions(t *testing.T) {
	store, err := history.NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Append("What is soul consciousness?"))
	require.NoError(t, store.Append("Who is Baba?"))
	require.NoError(t, store.Append("What is soul consciousness?")) // duplicate
	require.NoError(t, store.Append("   "))                         // blank, ignored

	questions, err := store.Questions()
	require.NoError(t, err)
	assert.Equal(t, []string{"What is soul consciousness?", "Who is Baba?"}, questions)
}

func TestQuestions_NoFileYet(t *testing.T) {
	store, err := history.NewStore(t.TempDir())
	require.NoError(t, err)

	questions, err := store.Questions()
	require.NoError(t, err)
	assert.Empty(t, questions)
}
