package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

type fakeAnswerer struct {
	histories [][]models.Exchange
	reply     string
	err       error
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, history []models.Exchange) (models.Answer, error) {
	recorded := make([]models.Exchange, len(history))
	copy(recorded, history)
	f.histories = append(f.histories, recorded)
	if f.err != nil {
		return models.Answer{}, f.err
	}
	return models.Answer{Text: f.reply, Sources: []string{"murli_en_2002-11-23"}}, nil
}

func dial(t *testing.T, answerer *fakeAnswerer) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(NewWSServer(answerer).Handler())
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHandleQuestion(t *testing.T) {
	answerer := &fakeAnswerer{reply: "The answer."}
	conn, cleanup := dial(t, answerer)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "What is X?"}))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "answer", reply.Type)
	assert.Equal(t, "The answer.", reply.Content)
	assert.Equal(t, []string{"murli_en_2002-11-23"}, reply.Sources)
}

func TestHistoryCarriesAcrossTurns(t *testing.T) {
	answerer := &fakeAnswerer{reply: "ok"}
	conn, cleanup := dial(t, answerer)
	defer cleanup()

	var reply Message
	require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "first?"}))
	require.NoError(t, conn.ReadJSON(&reply))
	require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "second?"}))
	require.NoError(t, conn.ReadJSON(&reply))

	require.Len(t, answerer.histories, 2)
	assert.Empty(t, answerer.histories[0])
	require.Len(t, answerer.histories[1], 1)
	assert.Equal(t, "first?", answerer.histories[1][0].Question)
	assert.Equal(t, "ok", answerer.histories[1][0].Answer)
}

func TestFailureSurfacesAsErrorMessage(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("provider down")}
	conn, cleanup := dial(t, answerer)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "What is X?"}))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Content, "temporarily unavailable")
}

func TestHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewWSServer(&fakeAnswerer{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
