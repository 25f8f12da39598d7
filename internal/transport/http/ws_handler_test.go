package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizpin/internal/domain"
	"quizpin/internal/game"
	memorystore "quizpin/internal/store/memory"
)

func TestWebSocketGameFlow(t *testing.T) {
	st := memorystore.New()
	mutator := game.NewMutator(st)
	questions := []domain.Question{
		{Title: "Round 1", Body: "2+2?", Answers: []string{"3", "4"}, RightAnswer: 1},
	}
	if err := mutator.CreateSession(context.Background(), "1234", questions); err != nil {
		t.Fatalf("host session: %v", err)
	}

	wsHandler := NewWSHandler(st)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	base := "ws" + server.URL[len("http"):]

	admin := dial(t, base+"/ws?userId=h1&name=Host&pin=1234&admin=true")
	defer admin.Close()
	player := dial(t, base+"/ws?userId=p1&name=Alice&pin=1234")
	defer player.Close()

	waitForScreen(t, player, "waiting")
	waitForScreen(t, admin, "waiting")

	if err := admin.WriteJSON(map[string]any{"type": "begin"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	waitForScreen(t, player, "question")

	if err := player.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"answer": 1}}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := admin.WriteJSON(map[string]any{"type": "done"}); err != nil {
		t.Fatalf("done: %v", err)
	}

	payload := waitForScreen(t, player, "winners")
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected screen data, got %+v", payload)
	}
	ranked, ok := data["ranked"].([]any)
	if !ok || len(ranked) == 0 {
		t.Fatalf("expected ranked winners, got %+v", data)
	}
	first, _ := ranked[0].(map[string]any)
	if first["key"] != "p1" || first["score"] != float64(1000) {
		t.Fatalf("expected alice winning with 1000, got %+v", first)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	wsHandler := NewWSHandler(memorystore.New())
	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?userId=u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNonAdminHostActionsError(t *testing.T) {
	st := memorystore.New()
	mutator := game.NewMutator(st)
	if err := mutator.CreateSession(context.Background(), "1234", []domain.Question{{}}); err != nil {
		t.Fatalf("host session: %v", err)
	}

	wsHandler := NewWSHandler(st)
	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	conn := dial(t, "ws"+server.URL[len("http"):]+"?userId=p1&name=Alice&pin=1234")
	defer conn.Close()
	waitForScreen(t, conn, "waiting")

	if err := conn.WriteJSON(map[string]any{"type": "begin"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	typ, _ := readNext(t, conn)
	if typ != "error" {
		t.Fatalf("expected error for non-admin begin, got %s", typ)
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

// waitForScreen reads messages until a screen of the wanted kind arrives.
func waitForScreen(t *testing.T, conn *websocket.Conn, kind string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		typ, payload := readNext(t, conn)
		if typ == "screen" && payload["screen"] == kind {
			return payload
		}
	}
	t.Fatalf("never saw %s screen", kind)
	return nil
}

func readNext(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}
