// Package room runs one actor per session. Every command for a session goes
// through its room's inbox and is handled to completion before the next one,
// which is what makes auto-reveal fire exactly once per round. Rooms for
// different sessions are independent goroutines.
package room

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/game"
	"github.com/jdmadden/planning-poker-backend/internal/types"
)

type Msg interface{ isRoomMsg() }

// Connect registers a connection's outbox with the room. The connection can
// receive caller-only replies from then on; it joins the broadcast group only
// once a Join or JoinAsHost command succeeds.
type Connect struct {
	ConnID string
	Outbox chan types.ServerMessage
}

// Disconnect drops the connection and removes its player from the game.
type Disconnect struct{ ConnID string }

type Join struct {
	ConnID     string
	PlayerName string
}

type JoinAsHost struct{ ConnID string }

type SubmitVote struct {
	ConnID string
	Card   string
}

type StartRound struct {
	ConnID    string
	RoundName string
}

type EndRound struct{ ConnID string }

type ResetVotes struct{ ConnID string }

// GetState requests a caller-only state replay. PlayerView selects the
// ReceivePlayerGameState reply the join page listens for.
type GetState struct {
	ConnID     string
	PlayerView bool
}

type Shutdown struct{}

// Inspect reflects internal state without data races. Test-only.
type Inspect struct{ Reply chan View }

type View struct {
	NumClients int
	NumJoined  int
}

func (Connect) isRoomMsg()    {}
func (Disconnect) isRoomMsg() {}
func (Join) isRoomMsg()       {}
func (JoinAsHost) isRoomMsg() {}
func (SubmitVote) isRoomMsg() {}
func (StartRound) isRoomMsg() {}
func (EndRound) isRoomMsg()   {}
func (ResetVotes) isRoomMsg() {}
func (GetState) isRoomMsg()   {}
func (Shutdown) isRoomMsg()   {}
func (Inspect) isRoomMsg()    {}

type client struct {
	out    chan types.ServerMessage
	joined bool
}

type Room struct {
	link    string
	inbox   chan Msg
	svc     *game.Service
	clients map[string]*client
	onEmpty func()
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRoom starts the room's actor goroutine. onEmpty, when non-nil, is called
// from the room loop each time the last connection goes away, so the owner
// can retire the room. May be nil.
func NewRoom(parent context.Context, link string, svc *game.Service, log *zap.Logger, onEmpty func()) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		link:    link,
		inbox:   make(chan Msg, 64),
		svc:     svc,
		clients: make(map[string]*client),
		onEmpty: onEmpty,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Connect:
				r.clients[msg.ConnID] = &client{out: msg.Outbox}

			case Disconnect:
				r.handleDisconnect(msg.ConnID)

			case Join:
				r.handleJoin(msg)

			case JoinAsHost:
				r.handleJoinAsHost(msg)

			case SubmitVote:
				r.handleSubmitVote(msg)

			case StartRound:
				r.handleStartRound(msg)

			case EndRound:
				r.handleEndRound(msg)

			case ResetVotes:
				r.handleResetVotes(msg)

			case GetState:
				r.handleGetState(msg)

			case Inspect:
				v := View{NumClients: len(r.clients)}
				for _, c := range r.clients {
					if c.joined {
						v.NumJoined++
					}
				}
				msg.Reply <- v

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	_, players, err := r.svc.Join(r.ctx, r.link, msg.PlayerName, msg.ConnID)
	if err != nil {
		r.replyErr(msg.ConnID, err)
		return
	}
	if c := r.clients[msg.ConnID]; c != nil {
		c.joined = true
	}
	r.broadcast(types.ServerMessage{Type: types.EvtUpdatePlayerList, Players: players})
}

func (r *Room) handleJoinAsHost(msg JoinAsHost) {
	_, players, err := r.svc.JoinAsHost(r.ctx, r.link, msg.ConnID)
	if err != nil {
		r.replyErr(msg.ConnID, err)
		return
	}
	if c := r.clients[msg.ConnID]; c != nil {
		c.joined = true
	}
	r.broadcast(types.ServerMessage{Type: types.EvtUpdatePlayerList, Players: players})
}

func (r *Room) handleSubmitVote(msg SubmitVote) {
	res, err := r.svc.SubmitVote(r.ctx, r.link, msg.Card, msg.ConnID)
	if err != nil {
		r.replyErr(msg.ConnID, err)
		return
	}
	// The card itself is never broadcast at submission time.
	r.broadcast(types.ServerMessage{Type: types.EvtPlayerVoted, PlayerName: res.PlayerName})
	if res.Revealed {
		r.broadcast(types.ServerMessage{Type: types.EvtVotesRevealed, Votes: res.Votes})
	}
}

func (r *Room) handleStartRound(msg StartRound) {
	if err := r.svc.StartRound(r.ctx, r.link, msg.RoundName, msg.ConnID); err != nil {
		r.replyErr(msg.ConnID, err)
		return
	}
	r.broadcast(types.ServerMessage{Type: types.EvtRoundStarted, RoundName: msg.RoundName})
}

func (r *Room) handleEndRound(msg EndRound) {
	votes, err := r.svc.EndRound(r.ctx, r.link, msg.ConnID)
	if err != nil {
		r.replyErr(msg.ConnID, err)
		return
	}
	r.broadcast(types.ServerMessage{Type: types.EvtVotesRevealed, Votes: votes})
}

func (r *Room) handleResetVotes(msg ResetVotes) {
	if err := r.svc.ResetVotes(r.ctx, r.link, msg.ConnID); err != nil {
		r.replyErr(msg.ConnID, err)
		return
	}
	r.broadcast(types.ServerMessage{Type: types.EvtVotesReset})
}

func (r *Room) handleGetState(msg GetState) {
	st, err := r.svc.State(r.ctx, r.link, msg.ConnID)
	if err != nil {
		r.replyErr(msg.ConnID, err)
		return
	}
	evt := types.EvtGameState
	if msg.PlayerView {
		evt = types.EvtPlayerGameState
	}
	r.toCaller(msg.ConnID, types.ServerMessage{Type: evt, State: &st})
}

func (r *Room) handleDisconnect(connID string) {
	if c, ok := r.clients[connID]; ok {
		close(c.out)
		delete(r.clients, connID)
	}

	// Removal runs even when the client was already dropped for being slow,
	// so the seat never outlives its connection. Idempotent for connections
	// that never joined.
	players, removed, err := r.svc.RemovePlayer(r.ctx, r.link, connID)
	if err != nil {
		r.log.Error("disconnect cleanup failed", zap.String("conn", connID), zap.Error(err))
		return
	}
	if removed {
		r.broadcast(types.ServerMessage{Type: types.EvtUpdatePlayerList, Players: players})
	}
	r.notifyIfEmpty()
}

func (r *Room) notifyIfEmpty() {
	if len(r.clients) == 0 && r.onEmpty != nil {
		r.onEmpty()
	}
}

// replyErr converts a command failure into a caller-only Error event. Domain
// errors carry their own message; anything else (a store failure) is reported
// as an internal error and logged.
func (r *Room) replyErr(connID string, err error) {
	msg := "internal error"
	if isDomainErr(err) {
		msg = err.Error()
	} else {
		r.log.Error("command failed", zap.String("link", r.link), zap.Error(err))
	}
	r.toCaller(connID, types.ServerMessage{Type: types.EvtError, Error: msg})
}

func (r *Room) toCaller(connID string, m types.ServerMessage) {
	c, ok := r.clients[connID]
	if !ok {
		return
	}
	select {
	case c.out <- m:
	default:
		// Caller can't keep up with its own replies - drop it.
		r.drop(connID, c)
	}
}

// broadcast delivers to every joined connection, fire-and-forget. A client
// with a full outbox is dropped rather than allowed to block its siblings.
func (r *Room) broadcast(m types.ServerMessage) {
	for id, c := range r.clients {
		if !c.joined {
			continue
		}
		select {
		case c.out <- m:
		default:
			r.drop(id, c)
		}
	}
}

func (r *Room) drop(connID string, c *client) {
	close(c.out)
	delete(r.clients, connID)
	r.log.Warn("dropped slow client", zap.String("link", r.link), zap.String("conn", connID))
	r.notifyIfEmpty()
}

func (r *Room) shutdown() {
	for id, c := range r.clients {
		close(c.out)
		delete(r.clients, id)
	}
	r.cancel()
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		game.ErrGameNotFound,
		game.ErrGameFull,
		game.ErrUnauthorized,
		game.ErrNoActiveRound,
		game.ErrPlayerNotInGame,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
