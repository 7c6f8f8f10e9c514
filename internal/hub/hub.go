package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/game"
	"github.com/jdmadden/planning-poker-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type GetRoom struct {
	Link  string
	Reply chan *room.Room
}

// EnsureRoom returns the room for a session link, creating it on first use.
type EnsureRoom struct {
	Link  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Link string
}

type ShutdownHub struct{}

func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub owns the session-link to room map. All map access happens on the hub
// loop; rooms run their own loops.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	svc    *game.Service
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, svc *game.Service, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		svc:    svc,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetRoom:
				msg.Reply <- h.rooms[msg.Link] // may be nil

			case EnsureRoom:
				if rm := h.rooms[msg.Link]; rm != nil {
					msg.Reply <- rm
					break
				}
				link := msg.Link
				rm := room.NewRoom(h.ctx, link, h.svc, h.log.With(zap.String("link", link)), func() {
					// Runs on the room's loop; the send keeps map access
					// on the hub loop.
					h.inbox <- RemoveRoom{Link: link}
				})
				h.rooms[link] = rm
				h.log.Info("room created", zap.String("link", link))
				msg.Reply <- rm

			case RemoveRoom:
				if rm := h.rooms[msg.Link]; rm != nil {
					rm.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.Link)
					h.log.Info("room retired", zap.String("link", msg.Link))
				}

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}
