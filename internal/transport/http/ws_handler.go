package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"learnearnzone-service/internal/app"
	"learnearnzone-service/internal/auth"
	"learnearnzone-service/internal/domain"
)

// WSHandler streams wallet updates to a member's open dashboards.
type WSHandler struct {
	feed     *app.WalletFeed
	accounts *app.AccountService
	logger   *slog.Logger
	upgrader websocket.Upgrader
	write    func(conn *websocket.Conn, v any) error
}

func NewWSHandler(feed *app.WalletFeed, accounts *app.AccountService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		feed:     feed,
		accounts: accounts,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		write: func(conn *websocket.Conn, v any) error { return conn.WriteJSON(v) },
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades an authenticated request and forwards wallet updates until
// the client disconnects. Clients may send {"type":"ping"} to receive a
// fresh balance.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	memberID := auth.MemberFromContext(r.Context())
	if memberID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Subscribe before reading the snapshot so no credit is missed in between.
	updates, cancel := h.feed.Subscribe(memberID)
	defer cancel()

	snapshot, err := h.snapshot(r, memberID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "Member not found"}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	// A failed write closes the connection so the read loop below ends too.
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := h.write(conn, msg); err != nil {
				h.logger.Debug("ws write error", "member", memberID, "err", err)
				_ = conn.Close()
				return
			}
		}
	}()

	enqueue := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "wallet", Payload: update}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	ok := enqueue(outboundMessage[any]{Type: "wallet", Payload: snapshot})
	for ok {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "ping":
			current, err := h.snapshot(r, memberID)
			if err != nil {
				ok = enqueue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "Member not found"}})
				continue
			}
			ok = enqueue(outboundMessage[any]{Type: "wallet", Payload: current})
		default:
			ok = enqueue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) snapshot(r *http.Request, memberID string) (domain.WalletUpdate, error) {
	member, err := h.accounts.GetMember(r.Context(), memberID)
	if err != nil {
		return domain.WalletUpdate{}, err
	}
	return domain.WalletUpdate{MemberID: member.ID, Wallet: member.Wallet, UpdatedAt: time.Now()}, nil
}
