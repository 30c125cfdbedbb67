// Package ws fans membership events out to websocket subscribers of a
// team.
package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/userset"
	"go.uber.org/zap"
)

// Subscriber abstracts a streaming client. Send must not block.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub manages subscriptions by team id. All map access happens on the run
// goroutine.
//
// Delivery follows read access: channel events reach only the channel's
// members, a team.updated event drops subscribers who are no longer in the
// team, and team.deleted closes every subscriber of the team.
type Hub struct {
	clients   map[uuid.UUID]map[Subscriber]string
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
	count     chan chan int
	done      chan struct{}
	logger    *zap.Logger
}

type message struct {
	teamID  uuid.UUID
	typ     models.EventType
	payload []byte
	// audience is nil when every subscriber of the team may receive it.
	audience userset.Set
}

type subscription struct {
	teamID   uuid.UUID
	username string
	client   Subscriber
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[uuid.UUID]map[Subscriber]string),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
		count:     make(chan chan int),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for c := range clients {
					c.Close()
				}
			}
			h.clients = nil
			return
		case sub := <-h.register:
			if _, ok := h.clients[sub.teamID]; !ok {
				h.clients[sub.teamID] = make(map[Subscriber]string)
			}
			h.clients[sub.teamID][sub.client] = sub.username
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.teamID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.teamID)
				}
			}
		case msg := <-h.broadcast:
			h.deliver(msg)
		case reply := <-h.count:
			n := 0
			for _, clients := range h.clients {
				n += len(clients)
			}
			reply <- n
		}
	}
}

func (h *Hub) deliver(msg message) {
	clients, ok := h.clients[msg.teamID]
	if !ok {
		return
	}
	for c, username := range clients {
		if msg.audience != nil && !msg.audience.Has(username) {
			if msg.typ == models.EventTeamUpdated {
				h.logger.Debug("subscriber left team, closing stream",
					zap.String("team_id", msg.teamID.String()),
					zap.String("username", username),
				)
				c.Close()
				delete(clients, c)
			}
			continue
		}
		if err := c.Send(msg.payload); err != nil {
			h.logger.Warn("dropping subscriber",
				zap.String("team_id", msg.teamID.String()),
				zap.String("username", username),
				zap.Error(err),
			)
			c.Close()
			delete(clients, c)
		}
	}
	if msg.typ == models.EventTeamDeleted {
		for c := range clients {
			c.Close()
		}
		delete(h.clients, msg.teamID)
		return
	}
	if len(clients) == 0 {
		delete(h.clients, msg.teamID)
	}
}

// Register adds username's client to a team stream. It is a no-op once the
// hub has stopped.
func (h *Hub) Register(teamID uuid.UUID, username string, client Subscriber) {
	select {
	case h.register <- subscription{teamID: teamID, username: username, client: client}:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(teamID uuid.UUID, client Subscriber) {
	select {
	case h.unreg <- subscription{teamID: teamID, client: client}:
	case <-h.done:
	}
}

// Publish encodes ev and queues it for the team's subscribers. It never
// blocks the caller on a slow hub; a full queue drops the event.
func (h *Hub) Publish(ev models.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	msg := message{teamID: ev.TeamID, typ: ev.Type, payload: payload}
	switch {
	case ev.ChannelID != nil:
		msg.audience = userset.Of(ev.Members...).Union(userset.Of(ev.Previous...))
	case ev.Type == models.EventTeamUpdated:
		msg.audience = userset.Of(ev.Members...)
	}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("event queue full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("team_id", ev.TeamID.String()),
		)
	}
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}
