package corpus_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onepointconsulting/murli-chat/pkg/corpus"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "murli_en_1972-07-16.txt"),
		[]byte("Om shanti.\n\n\nToday's murli."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "murli_en_2002-11-23.txt"),
		[]byte("The second murli."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"),
		[]byte("not part of the corpus"), 0o644))

	docs, failed, err := corpus.NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Zero(t, failed)
	require.Len(t, docs, 2)

	// Name order, blank-line runs collapsed
	assert.Equal(t, filepath.Join(dir, "murli_en_1972-07-16.txt"), docs[0].Source)
	assert.Equal(t, "Om shanti.\nToday's murli.", docs[0].Content)
	assert.Equal(t, "The second murli.", docs[1].Content)
}

func TestLoad_EmptyDirectory(t *testing.T) {
	docs, failed, err := corpus.NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Empty(t, docs)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, _, err := corpus.NewLoader(filepath.Join(t.TempDir(), "nope")).Load()
	assert.Error(t, err)
}
