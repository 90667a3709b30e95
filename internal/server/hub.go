package server

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CardDAO/truco-sub000/custody"
	"github.com/CardDAO/truco-sub000/internal/cache"
	"github.com/CardDAO/truco-sub000/internal/config"
	"github.com/CardDAO/truco-sub000/internal/database"
	"github.com/CardDAO/truco-sub000/internal/match"
	"github.com/CardDAO/truco-sub000/internal/protocol"
)

// clientMessage pairs a decoded envelope with its sender.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

// Hub owns the live matches and routes peer envelopes to them. One
// goroutine (Run) serializes registration and message dispatch;
// per-match serialization is the match's own lock.
type Hub struct {
	cfg config.Config
	db  *database.Service

	clients       map[*Client]bool
	matches       map[string]*match.Match
	matchClients  map[string][]*Client
	clientToMatch map[*Client]string
	actionIndex   map[string]int

	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client

	mu sync.RWMutex
}

// NewHub creates a hub backed by the given results store. db may be
// nil when persistence is disabled.
func NewHub(cfg config.Config, db *database.Service) *Hub {
	return &Hub{
		cfg:            cfg,
		db:             db,
		clients:        make(map[*Client]bool),
		matches:        make(map[string]*match.Match),
		matchClients:   make(map[string][]*Client),
		clientToMatch:  make(map[*Client]string),
		actionIndex:    make(map[string]int),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logrus.WithField("remote", client.conn.RemoteAddr()).Info("client connected")

		case client := <-h.unregister:
			h.dropClient(client)

		case cm := <-h.processMessage:
			h.handleMessage(cm.client, cm.message)
		}
	}
}

// dropClient removes a disconnected client. The match itself stays
// alive; the absent player is eventually resigned by their opponent's
// timeout, which arrives as an ordinary resign command.
func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if matchID, ok := h.clientToMatch[client]; ok {
		delete(h.clientToMatch, client)
		peers := h.matchClients[matchID]
		remaining := peers[:0]
		for _, c := range peers {
			if c != client {
				remaining = append(remaining, c)
			}
		}
		h.matchClients[matchID] = remaining
		logrus.WithFields(logrus.Fields{
			"match_id": matchID,
			"player":   client.Identity,
		}).Info("client left match")
	}
}

// matchFor resolves the sender's match.
func (h *Hub) matchFor(client *Client) (*match.Match, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	matchID, ok := h.clientToMatch[client]
	if !ok {
		return nil, false
	}
	m, ok := h.matches[matchID]
	return m, ok
}

// sendTo queues an encoded message for one client, dropping the
// connection if its queue is stuck.
func (h *Hub) sendTo(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		logrus.WithField("player", client.Identity).Warn("send queue full, dropping client")
		go func() { h.unregister <- client }()
	}
}

// broadcastToMatch queues a message for every client of a match.
func (h *Hub) broadcastToMatch(matchID string, message []byte) {
	h.mu.RLock()
	peers := make([]*Client, len(h.matchClients[matchID]))
	copy(peers, h.matchClients[matchID])
	h.mu.RUnlock()

	for _, c := range peers {
		h.sendTo(c, message)
	}
}

// sendError reports a rejection back to the sender.
func (h *Hub) sendError(client *Client, err error) {
	msg, encErr := protocol.NewMessage("error", 0, protocol.ErrorPayload{Message: err.Error()})
	if encErr != nil {
		return
	}
	h.sendTo(client, msg)
}

// wireNotifications attaches the hub's notification fan-out to a
// match. Callbacks run under the match lock, so they only queue
// outbound messages.
func (h *Hub) wireNotifications(m *match.Match) {
	matchID := m.ID.String()

	m.OnTurnSwitch = func(p custody.Identity) {
		msg, err := protocol.NewMessage("turn_switch", 0, protocol.TurnSwitchPayload{Player: p})
		if err != nil {
			return
		}
		h.broadcastToMatch(matchID, msg)
	}

	m.OnNewDealRequired = func(shuffler custody.Identity, dealNonce uint32) {
		msg, err := protocol.NewMessage("new_deal_required", 0, protocol.NewDealRequiredPayload{
			Shuffler:  shuffler,
			DealNonce: dealNonce,
		})
		if err != nil {
			return
		}
		h.broadcastToMatch(matchID, msg)
	}

	m.OnMatchFinished = func(res match.Result) {
		msg, err := protocol.NewMessage("match_finished", 0, protocol.MatchFinishedPayload{
			Winner:      res.Winner,
			WinnerScore: res.WinnerScore,
			Loser:       res.Loser,
			LoserScore:  res.LoserScore,
			Bet:         res.Bet,
		})
		if err == nil {
			h.broadcastToMatch(matchID, msg)
		}
		h.persistResult(m, res)
	}
}

// persistResult stores a finished match and closes out its bookkeeping.
func (h *Hub) persistResult(m *match.Match, res match.Result) {
	h.mu.Lock()
	deals := int(m.DealNonce)
	delete(h.actionIndex, m.ID.String())
	h.mu.Unlock()

	if h.db == nil {
		return
	}
	rec := database.MatchRecord{
		ID:           m.ID.String(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Player1:      m.Players[0],
		Player2:      m.Players[1],
		Winner:       res.Winner,
		Player1Score: playerScore(res, m.Players[0]),
		Player2Score: playerScore(res, m.Players[1]),
		Bet:          int64(res.Bet),
		Deals:        deals,
	}
	go func() {
		if err := h.db.Insert(rec); err != nil {
			logrus.WithError(err).WithField("match_id", rec.ID).Error("persist match result")
		}
	}()
}

func playerScore(res match.Result, id custody.Identity) int {
	if res.Winner == id {
		return int(res.WinnerScore)
	}
	return int(res.LoserScore)
}

// logAction streams an applied command to the historian.
func (h *Hub) logAction(matchID string, actor custody.Identity, actionType string, dealNonce uint32, payload map[string]interface{}) {
	h.mu.Lock()
	h.actionIndex[matchID]++
	idx := h.actionIndex[matchID]
	h.mu.Unlock()

	rec := cache.MatchActionRecord{
		MatchID:     matchID,
		ActionIndex: idx,
		Actor:       actor,
		ActionType:  actionType,
		DealNonce:   dealNonce,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishMatchAction(ctx, rec); err != nil {
			logrus.WithError(err).WithField("match_id", matchID).Warn("publish match action")
		}
	}()
}
