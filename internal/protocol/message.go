// Package protocol defines the wire envelope and payload types
// exchanged between the two match peers and the server.
package protocol

import (
	"encoding/json"

	"github.com/CardDAO/truco-sub000/engine"
	"github.com/CardDAO/truco-sub000/internal/match"
)

// Message is the signed envelope carrying every peer command and
// server notification. Nonce increases monotonically per sender;
// Signature covers the marshalled payload and is verified against the
// sender's identity before the command is applied.
type Message struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Nonce     uint64          `json:"nonce"`
	Signature string          `json:"signature,omitempty"` // hex schnorr signature
}

// --- Client -> Server Payload Structs ---

type CreateMatchPayload struct {
	Identity string `json:"identity"` // hex public key
	Bet      uint64 `json:"bet"`
}

type JoinPayload struct {
	MatchID  string `json:"match_id"`
	Identity string `json:"identity"` // hex public key
}

type NewDealPayload struct {
	DealNonce     uint32 `json:"deal_nonce"`
	EncryptedDeck string `json:"encrypted_deck"` // hex, 40 bytes
}

type SpellChallengePayload struct {
	DealNonce uint32               `json:"deal_nonce"`
	Kind      engine.ChallengeKind `json:"kind"`
}

type RespondChallengePayload struct {
	DealNonce uint32 `json:"deal_nonce"`
	Raising   bool   `json:"raising,omitempty"` // accept-for-raising
}

type EnvidoCountPayload struct {
	DealNonce uint32 `json:"deal_nonce"`
	Count     uint8  `json:"count"`
}

type PlayCardPayload struct {
	DealNonce  uint32      `json:"deal_nonce"`
	Card       engine.Card `json:"card"`
	Disclosure string      `json:"disclosure"` // hex signature over the card's disclosure digest
}

type RevealCardsPayload struct {
	DealNonce  uint32        `json:"deal_nonce"`
	Cards      []engine.Card `json:"cards"`
	Disclosure string        `json:"disclosure"`
}

type ResignPayload struct {
	DealNonce uint32 `json:"deal_nonce"`
}

// MatchStateRequestPayload asks for the latest snapshot, typically on
// reconnect. MatchID may be empty when the connection is already bound
// to a match.
type MatchStateRequestPayload struct {
	MatchID string `json:"match_id,omitempty"`
}

// --- Server -> Client Payload Structs ---

type MatchCreatedPayload struct {
	MatchID string `json:"match_id"`
}

type MatchStatePayload struct {
	Snapshot match.Snapshot `json:"snapshot"`
}

type TurnSwitchPayload struct {
	Player string `json:"player"`
}

type NewDealRequiredPayload struct {
	Shuffler  string `json:"shuffler"`
	DealNonce uint32 `json:"deal_nonce"`
}

type MatchFinishedPayload struct {
	Winner      string `json:"winner"`
	WinnerScore uint8  `json:"winner_score"`
	Loser       string `json:"loser"`
	LoserScore  uint8  `json:"loser_score"`
	Bet         uint64 `json:"bet"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage marshals payload into a wire envelope.
func NewMessage(topic string, nonce uint64, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Topic: topic, Nonce: nonce})
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Topic: topic, Nonce: nonce, Payload: payloadBytes})
}
