package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/onepointconsulting/murli-chat/internal/models"
	"github.com/onepointconsulting/murli-chat/internal/types"
)

const answerTimeout = 2 * time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string   `json:"type"`
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"`
}

// WSServer serves the chat over a websocket. Each connection is one
// session; its conversation history lives on the connection handler and is
// passed explicitly to the answerer, never stored in the core.
type WSServer struct {
	answerer     types.Answerer
	historyLimit int
}

func NewWSServer(answerer types.Answerer) *WSServer {
	return &WSServer{
		answerer:     answerer,
		historyLimit: 20,
	}
}

// Handler returns the HTTP handler with the websocket and health endpoints.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe runs the server on the given address.
func (s *WSServer) ListenAndServe(addr string) error {
	log.Printf("Starting WebSocket server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	log.Printf("session %s connected", session)

	var history []models.Exchange
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Printf("session %s closed: %v", session, err)
			break
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			// allow bare-text clients as well
			msg = Message{Type: "question", Content: string(payload)}
		}

		history = s.handleQuestion(conn, session, msg.Content, history)
	}
}

func (s *WSServer) handleQuestion(conn *websocket.Conn, session, raw string, history []models.Exchange) []models.Exchange {
	question := strings.TrimSpace(raw)
	if question == "" {
		return history
	}

	ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
	defer cancel()

	answer, err := s.answerer.Answer(ctx, question, history)
	if err != nil {
		log.Printf("session %s answer failed: %v", session, err)
		s.sendMessage(conn, Message{
			Type:    "error",
			Content: "The assistant is temporarily unavailable. Please try again.",
		})
		return history
	}

	s.sendMessage(conn, Message{
		Type:    "answer",
		Content: answer.Text,
		Sources: answer.Sources,
	})

	history = append(history, models.Exchange{Question: question, Answer: answer.Text})
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}
	return history
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
