package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizpin/internal/client"
	"quizpin/internal/domain"
	"quizpin/internal/game"
	"quizpin/internal/identity"
	"quizpin/internal/store"
)

// WSHandler bridges thin clients onto the document store: each connection
// gets its own game client, screens stream out, actions stream in.
type WSHandler struct {
	store    store.Store
	upgrader websocket.Upgrader
}

func NewWSHandler(st store.Store) *WSHandler {
	return &WSHandler{
		store: st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type pinPayload struct {
	Pin string `json:"pin"`
}

type answerPayload struct {
	Answer int `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type screenPayload struct {
	Screen string      `json:"screen"`
	Data   game.Screen `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs a game client for the connection.
// Identity arrives in the query string; pin may also be supplied up front or
// later via a pin message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	if userID == "" || name == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}
	pin := r.URL.Query().Get("pin")
	isAdmin := r.URL.Query().Get("admin") == "true"

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ident := identity.Static(domain.User{Key: userID, Name: name})
	opts := []client.Option{}
	if isAdmin {
		opts = append(opts, client.AsAdmin())
	}
	gameClient := client.New(h.store, ident, opts...)
	defer gameClient.Close()

	ctx, cancelRun := context.WithCancel(r.Context())
	defer cancelRun()
	go func() {
		_ = gameClient.Run(ctx)
	}()

	if pin != "" {
		if err := gameClient.EnterPIN(ctx, pin); err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
	}

	screens, cancelScreens := gameClient.Screens()
	defer cancelScreens()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	screensDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(screensDone)
		for {
			select {
			case screen, ok := <-screens:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "screen", Payload: screenPayload{Screen: screen.Kind(), Data: screen}}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "pin":
			var payload pinPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid pin payload")
				continue
			}
			if err := gameClient.EnterPIN(ctx, payload.Pin); err != nil {
				send <- errMsg(err.Error())
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid answer payload")
				continue
			}
			if err := gameClient.Answer(ctx, payload.Answer); err != nil {
				send <- errMsg(err.Error())
			}
		case "begin":
			if err := gameClient.Begin(ctx); err != nil {
				send <- errMsg(err.Error())
			}
		case "done":
			if err := gameClient.Reveal(ctx); err != nil {
				send <- errMsg(err.Error())
			}
		case "next":
			if err := gameClient.Next(ctx); err != nil {
				send <- errMsg(err.Error())
			}
		default:
			send <- errMsg("unsupported message type")
		}
	}

	close(closeSignals)
	<-screensDone
	close(send)
	<-writerDone
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
