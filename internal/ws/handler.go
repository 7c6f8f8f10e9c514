package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/game"
	"github.com/jdmadden/planning-poker-backend/internal/hub"
	"github.com/jdmadden/planning-poker-backend/internal/room"
	"github.com/jdmadden/planning-poker-backend/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades /ws?game=<link> connections and bridges them to the
// session's room: one writer goroutine draining the room outbox, a reader
// loop decoding client commands onto the room inbox.
func Handler(h *hub.Hub, svc *game.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := r.URL.Query().Get("game")
		if link == "" {
			http.Error(w, "missing game link", http.StatusBadRequest)
			return
		}

		if _, err := svc.GameInfo(r.Context(), link); err != nil {
			if errors.Is(err, game.ErrGameNotFound) {
				http.Error(w, "game not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{Link: link, Reply: reply}
		rm := <-reply

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan types.ServerMessage, 16)

		rm.Inbox() <- room.Connect{ConnID: connID, Outbox: out}
		defer func() { rm.Inbox() <- room.Disconnect{ConnID: connID} }()

		log.Debug("connection opened", zap.String("link", link), zap.String("conn", connID))

		// Writer goroutine. The room closes out on disconnect or drop.
		writeCtx, writeCancel := context.WithCancel(context.Background())
		defer writeCancel()
		go func() {
			for m := range out {
				payload, err := json.Marshal(m)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Disconnect cleanup happens in the defer either way.
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			msg, ok := toRoomMsg(cm, link, connID)
			if !ok {
				writeError(r.Context(), conn, "unknown command")
				continue
			}

			rm.Inbox() <- msg
		}
	}
}

// toRoomMsg maps a wire command onto a room message. The connection is bound
// to one session at upgrade time; a command naming a different link is
// rejected rather than routed.
func toRoomMsg(m types.ClientMessage, link, connID string) (room.Msg, bool) {
	if m.GameLink != "" && m.GameLink != link {
		return nil, false
	}

	switch m.Type {
	case types.CmdJoinGame:
		if m.PlayerName == "" {
			return nil, false
		}
		return room.Join{ConnID: connID, PlayerName: m.PlayerName}, true
	case types.CmdJoinGameAsHost:
		return room.JoinAsHost{ConnID: connID}, true
	case types.CmdSubmitVote:
		return room.SubmitVote{ConnID: connID, Card: m.Card}, true
	case types.CmdStartRound:
		return room.StartRound{ConnID: connID, RoundName: m.RoundName}, true
	case types.CmdEndRound:
		return room.EndRound{ConnID: connID}, true
	case types.CmdResetVotes:
		return room.ResetVotes{ConnID: connID}, true
	case types.CmdGetGameState:
		return room.GetState{ConnID: connID}, true
	case types.CmdGetPlayerGameState:
		return room.GetState{ConnID: connID, PlayerView: true}, true
	default:
		return nil, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: types.EvtError, Error: msg})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
