// Package match owns the per-match aggregate: phase transitions, deal
// lifecycle, stake bookkeeping and the command surface two players
// drive over the wire. The engine package holds the pure rules; this
// package is the single writer that applies validated commands to it.
package match

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.dedis.ch/kyber/v4"

	"github.com/CardDAO/truco-sub000/custody"
	"github.com/CardDAO/truco-sub000/engine"
)

// Phase is the match lifecycle state.
type Phase string

const (
	PhaseWaitingForPlayers Phase = "WAITING_FOR_PLAYERS"
	PhaseWaitingForDeal    Phase = "WAITING_FOR_DEAL"
	PhaseWaitingForPlay    Phase = "WAITING_FOR_PLAY"
	PhaseWaitingForReveal  Phase = "WAITING_FOR_REVEAL"
	PhaseFinished          Phase = "FINISHED"
)

var (
	// ErrMatchFull rejects a third join.
	ErrMatchFull = errors.New("match already has two players")

	// ErrAlreadyJoined rejects a duplicate join by the same identity.
	ErrAlreadyJoined = errors.New("identity already joined")

	// ErrUnknownPlayer rejects commands from identities outside the
	// match.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrWrongPhase rejects commands the current phase does not admit.
	ErrWrongPhase = errors.New("command not valid in current phase")

	// ErrStaleDeal rejects commands carrying a deal nonce that has
	// already moved on.
	ErrStaleDeal = errors.New("deal nonce out of date")

	// ErrWrongShuffler rejects a deal opened by the seat that is not
	// due to shuffle.
	ErrWrongShuffler = errors.New("not this seat's deal to shuffle")

	// ErrEnvidoCountMismatch rejects revealed cards whose computed
	// envido value does not equal the spelled count.
	ErrEnvidoCountMismatch = errors.New("revealed cards do not match the spelled envido count")

	// ErrRevealCardCount rejects reveals covering the wrong number of
	// cards.
	ErrRevealCardCount = errors.New("reveal must cover the cards played this deal")

	// ErrNotEnvidoWinner rejects reveals from the seat that does not
	// owe proof.
	ErrNotEnvidoWinner = errors.New("only the envido winner reveals")
)

// Result describes a finished match for settlement and notification.
type Result struct {
	Winner      custody.Identity
	WinnerScore uint8
	Loser       custody.Identity
	LoserScore  uint8
	Bet         uint64
}

// Match is the single-writer aggregate for one two-player match. All
// mutation goes through its command methods under Mu; callers hold a
// *Match and submit commands, never touch the engine state directly.
type Match struct {
	ID          uuid.UUID
	Bet         uint64
	PointsToWin uint8

	Players   [2]custody.Identity
	verifiers [2]*custody.Verifier
	seats     int
	oracle    kyber.Point // optional co-signer for disclosures

	// DealNonce increments on every new deal; commands carry the
	// nonce they target and anything stale is rejected.
	DealNonce uint32
	Phase     Phase
	Game      engine.GameState
	points    [2]uint8 // carried across deals

	// Deck is the current deal's encrypted deck commitment.
	Deck *custody.Deck

	pendingShuffler engine.PlayerIndex

	Mu sync.Mutex

	// Notification callbacks; nil callbacks are skipped.
	OnTurnSwitch      func(player custody.Identity)
	OnNewDealRequired func(shuffler custody.Identity, dealNonce uint32)
	OnMatchFinished   func(res Result)

	log *logrus.Entry
}

// New creates an empty match waiting for both players. oracle may be
// nil when no neutral co-signer is designated.
func New(bet uint64, pointsToWin uint8, oracle kyber.Point) *Match {
	id, _ := uuid.NewRandom()
	return &Match{
		ID:          id,
		Bet:         bet,
		PointsToWin: pointsToWin,
		Phase:       PhaseWaitingForPlayers,
		oracle:      oracle,
		// requireNewDeal flips the shuffler first, so seat 0 shuffles
		// the opening deal.
		pendingShuffler: 1,
		log:             logrus.WithField("match_id", id),
	}
}

// Snapshot is the caller-visible copy of a match returned by every
// accepted command.
type Snapshot struct {
	ID        uuid.UUID           `json:"id"`
	Players   [2]custody.Identity `json:"players"`
	Bet       uint64              `json:"bet"`
	DealNonce uint32              `json:"deal_nonce"`
	Phase     Phase               `json:"phase"`
	Game      engine.GameState    `json:"game"`
	Points    [2]uint8            `json:"points"`
}

// snapshot assumes Mu is held.
func (m *Match) snapshot() Snapshot {
	return Snapshot{
		ID:        m.ID,
		Players:   m.Players,
		Bet:       m.Bet,
		DealNonce: m.DealNonce,
		Phase:     m.Phase,
		Game:      m.Game,
		Points:    m.points,
	}
}

// Snapshot returns the current caller-visible state.
func (m *Match) Snapshot() Snapshot {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.snapshot()
}

// seatOf resolves an identity to its seat. Assumes Mu is held.
func (m *Match) seatOf(id custody.Identity) (engine.PlayerIndex, error) {
	for i := 0; i < m.seats; i++ {
		if m.Players[i] == id {
			return engine.PlayerIndex(i), nil
		}
	}
	return 0, ErrUnknownPlayer
}

// checkDeal validates phase and deal nonce. Assumes Mu is held.
func (m *Match) checkDeal(phase Phase, dealNonce uint32) error {
	if m.Phase != phase {
		return ErrWrongPhase
	}
	if dealNonce != m.DealNonce {
		return ErrStaleDeal
	}
	return nil
}

// notifyTurn emits TurnSwitch when the engine turn moved. Assumes Mu
// is held.
func (m *Match) notifyTurn(prev engine.PlayerIndex) {
	if m.Phase != PhaseWaitingForPlay || m.Game.PlayerTurn == prev {
		return
	}
	if m.OnTurnSwitch != nil {
		m.OnTurnSwitch(m.Players[m.Game.PlayerTurn])
	}
}

// requireNewDeal moves to WAITING_FOR_DEAL and announces the next
// shuffler and nonce. Assumes Mu is held.
func (m *Match) requireNewDeal() {
	m.pendingShuffler = m.pendingShuffler.Opponent()
	m.Phase = PhaseWaitingForDeal
	m.Deck = nil
	next := m.DealNonce + 1
	m.log.WithFields(logrus.Fields{
		"deal_nonce": next,
		"shuffler":   m.pendingShuffler,
	}).Info("new deal required")
	if m.OnNewDealRequired != nil {
		m.OnNewDealRequired(m.Players[m.pendingShuffler], next)
	}
}

// finish closes the match and emits the settlement notification.
// Assumes Mu is held.
func (m *Match) finish(winner engine.PlayerIndex) {
	m.Phase = PhaseFinished
	loser := winner.Opponent()
	res := Result{
		Winner:      m.Players[winner],
		WinnerScore: m.points[winner],
		Loser:       m.Players[loser],
		LoserScore:  m.points[loser],
		Bet:         m.Bet,
	}
	m.log.WithFields(logrus.Fields{
		"winner":       res.Winner,
		"winner_score": res.WinnerScore,
		"loser_score":  res.LoserScore,
	}).Info("match finished")
	if m.OnMatchFinished != nil {
		m.OnMatchFinished(res)
	}
}

// leader returns the seat currently ahead on points. Assumes Mu held.
func (m *Match) leader() engine.PlayerIndex {
	if m.points[1] > m.points[0] {
		return 1
	}
	return 0
}

// settleIfOver harvests the deal's points and advances the phase once
// the deal or the match is decided. Assumes Mu is held and the phase
// is WAITING_FOR_PLAY.
func (m *Match) settleIfOver() {
	if !m.Game.IsTrucoFinal() && !m.Game.HasReachedWin() {
		return
	}
	m.points = m.Game.TeamPoints

	if m.Game.CardsShouldBeRevealedForEnvido() {
		m.Phase = PhaseWaitingForReveal
		m.log.WithField("deal_nonce", m.DealNonce).Info("deal over, envido proof pending")
		return
	}
	m.settleDeal()
}

// settleDeal routes a settled deal to FINISHED or the next deal.
// Assumes Mu is held.
func (m *Match) settleDeal() {
	if m.Game.HasReachedWin() {
		m.finish(m.leader())
		return
	}
	m.requireNewDeal()
}
