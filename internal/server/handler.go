package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CardDAO/truco-sub000/custody"
	"github.com/CardDAO/truco-sub000/internal/cache"
	"github.com/CardDAO/truco-sub000/internal/match"
	"github.com/CardDAO/truco-sub000/internal/protocol"
)

var errNotInMatch = errors.New("not in a match")

// handleMessage routes one envelope to its topic handler.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Topic {
	case "create_match":
		h.handleCreateMatch(client, msg)
	case "join_match":
		h.handleJoinMatch(client, msg)
	case "new_deal":
		h.handleNewDeal(client, msg)
	case "spell_challenge":
		h.handleSpellChallenge(client, msg)
	case "accept_challenge":
		h.handleRespond(client, msg, false)
	case "accept_for_raising":
		h.handleRespond(client, msg, true)
	case "refuse_challenge":
		h.handleRefuse(client, msg)
	case "spell_envido_count":
		h.handleEnvidoCount(client, msg)
	case "play_card":
		h.handlePlayCard(client, msg)
	case "reveal_cards":
		h.handleRevealCards(client, msg)
	case "resign":
		h.handleResign(client, msg)
	case "match_state_request":
		h.handleMatchStateRequest(client, msg)
	case "ping":
		pong, _ := protocol.NewMessage("pong", msg.Nonce, nil)
		h.sendTo(client, pong)
	default:
		logrus.WithField("topic", msg.Topic).Warn("unknown envelope topic")
		h.sendError(client, errors.New("unknown topic"))
	}
}

func (h *Hub) handleCreateMatch(client *Client, msg protocol.Message) {
	var payload protocol.CreateMatchPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}

	m := match.New(payload.Bet, h.cfg.PointsToWin, nil)
	h.wireNotifications(m)
	matchID := m.ID.String()

	h.mu.Lock()
	h.matches[matchID] = m
	h.mu.Unlock()

	created, err := protocol.NewMessage("match_created", 0, protocol.MatchCreatedPayload{MatchID: matchID})
	if err == nil {
		h.sendTo(client, created)
	}
	logrus.WithField("match_id", matchID).Info("match created")

	h.joinMatch(client, matchID, payload.Identity, msg.Payload)
}

func (h *Hub) handleJoinMatch(client *Client, msg protocol.Message) {
	var payload protocol.JoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	h.joinMatch(client, payload.MatchID, payload.Identity, msg.Payload)
}

// joinMatch seats the client's identity in the match and binds the
// connection to it.
func (h *Hub) joinMatch(client *Client, matchID string, identity custody.Identity, raw json.RawMessage) {
	h.mu.RLock()
	m, ok := h.matches[matchID]
	h.mu.RUnlock()
	if !ok {
		h.sendError(client, errors.New("match not found"))
		return
	}

	// Register the connection before joining so the join's own
	// notifications (the first deal request) reach this client too.
	h.mu.Lock()
	client.Identity = identity
	h.clientToMatch[client] = matchID
	h.matchClients[matchID] = append(h.matchClients[matchID], client)
	h.mu.Unlock()

	snap, err := m.Join(identity)
	if err != nil {
		h.mu.Lock()
		delete(h.clientToMatch, client)
		peers := h.matchClients[matchID]
		remaining := peers[:0]
		for _, c := range peers {
			if c != client {
				remaining = append(remaining, c)
			}
		}
		h.matchClients[matchID] = remaining
		h.mu.Unlock()
		h.sendError(client, err)
		return
	}

	h.logAction(matchID, identity, "join", snap.DealNonce, actionPayload(raw))
	h.pushState(matchID, snap)
}

// actionPayload decodes a raw envelope payload for the action stream,
// so the historian can replay the command as submitted.
func actionPayload(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return decoded
}

// withMatch resolves the sender's match and applies a command,
// pushing the updated state or the rejection.
func (h *Hub) withMatch(client *Client, actionType string, dealNonce uint32, raw json.RawMessage, fn func(m *match.Match) (match.Snapshot, error)) {
	m, ok := h.matchFor(client)
	if !ok {
		h.sendError(client, errNotInMatch)
		return
	}
	snap, err := fn(m)
	if err != nil {
		h.sendError(client, err)
		return
	}
	h.logAction(m.ID.String(), client.Identity, actionType, dealNonce, actionPayload(raw))
	h.pushState(m.ID.String(), snap)
}

func (h *Hub) handleNewDeal(client *Client, msg protocol.Message) {
	var payload protocol.NewDealPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	raw, err := hex.DecodeString(payload.EncryptedDeck)
	if err != nil || len(raw) != custody.DeckSize {
		h.sendError(client, errors.New("malformed encrypted deck"))
		return
	}
	h.withMatch(client, "new_deal", payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		return m.NewDeal(client.Identity, payload.DealNonce, &custody.Deck{Encrypted: raw})
	})
}

func (h *Hub) handleSpellChallenge(client *Client, msg protocol.Message) {
	var payload protocol.SpellChallengePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	h.withMatch(client, "spell_challenge", payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		return m.SpellChallenge(client.Identity, payload.DealNonce, payload.Kind)
	})
}

func (h *Hub) handleRespond(client *Client, msg protocol.Message, raising bool) {
	var payload protocol.RespondChallengePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	action := "accept_challenge"
	if raising {
		action = "accept_for_raising"
	}
	h.withMatch(client, action, payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		if raising {
			return m.AcceptChallengeForRaising(client.Identity, payload.DealNonce)
		}
		return m.AcceptChallenge(client.Identity, payload.DealNonce)
	})
}

func (h *Hub) handleRefuse(client *Client, msg protocol.Message) {
	var payload protocol.RespondChallengePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	h.withMatch(client, "refuse_challenge", payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		return m.RefuseChallenge(client.Identity, payload.DealNonce)
	})
}

func (h *Hub) handleEnvidoCount(client *Client, msg protocol.Message) {
	var payload protocol.EnvidoCountPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	h.withMatch(client, "spell_envido_count", payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		return m.SpellEnvidoCount(client.Identity, payload.DealNonce, payload.Count)
	})
}

func (h *Hub) handlePlayCard(client *Client, msg protocol.Message) {
	var payload protocol.PlayCardPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	sig, err := hex.DecodeString(payload.Disclosure)
	if err != nil {
		h.sendError(client, errors.New("malformed disclosure signature"))
		return
	}
	h.withMatch(client, "play_card", payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		return m.PlayCard(client.Identity, payload.DealNonce, payload.Card, sig)
	})
}

func (h *Hub) handleRevealCards(client *Client, msg protocol.Message) {
	var payload protocol.RevealCardsPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	sig, err := hex.DecodeString(payload.Disclosure)
	if err != nil {
		h.sendError(client, errors.New("malformed disclosure signature"))
		return
	}
	h.withMatch(client, "reveal_cards", payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		return m.RevealCards(client.Identity, payload.DealNonce, payload.Cards, sig)
	})
}

func (h *Hub) handleResign(client *Client, msg protocol.Message) {
	var payload protocol.ResignPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, err)
		return
	}
	h.withMatch(client, "resign", payload.DealNonce, msg.Payload, func(m *match.Match) (match.Snapshot, error) {
		return m.Resign(client.Identity, payload.DealNonce)
	})
}

// handleMatchStateRequest serves a reconnecting client the latest
// snapshot: from the live match while the hub still owns it, otherwise
// from the snapshot cache.
func (h *Hub) handleMatchStateRequest(client *Client, msg protocol.Message) {
	var payload protocol.MatchStateRequestPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.sendError(client, err)
			return
		}
	}
	matchID := payload.MatchID
	if matchID == "" {
		h.mu.RLock()
		matchID = h.clientToMatch[client]
		h.mu.RUnlock()
	}
	if matchID == "" {
		h.sendError(client, errNotInMatch)
		return
	}

	h.mu.RLock()
	m, live := h.matches[matchID]
	h.mu.RUnlock()

	var snap match.Snapshot
	if live {
		snap = m.Snapshot()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.LoadSnapshot(ctx, matchID, &snap); err != nil {
			h.sendError(client, errors.New("match not found"))
			return
		}
	}
	out, err := protocol.NewMessage("match_state", msg.Nonce, protocol.MatchStatePayload{Snapshot: snap})
	if err != nil {
		logrus.WithError(err).Error("encode match state")
		return
	}
	h.sendTo(client, out)
}

// pushState broadcasts the updated snapshot and caches it for
// reconnecting clients.
func (h *Hub) pushState(matchID string, snap match.Snapshot) {
	msg, err := protocol.NewMessage("match_state", 0, protocol.MatchStatePayload{Snapshot: snap})
	if err != nil {
		logrus.WithError(err).Error("encode match state")
		return
	}
	h.broadcastToMatch(matchID, msg)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.StoreSnapshot(ctx, matchID, snap); err != nil {
			logrus.WithError(err).WithField("match_id", matchID).Warn("cache snapshot")
		}
	}()
}
