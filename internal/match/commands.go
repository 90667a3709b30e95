package match

import (
	"github.com/sirupsen/logrus"

	"github.com/CardDAO/truco-sub000/custody"
	"github.com/CardDAO/truco-sub000/engine"
)

// Join seats an identity. Once both seats are taken the match asks
// seat 0 to shuffle the first deal.
func (m *Match) Join(id custody.Identity) (Snapshot, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Phase != PhaseWaitingForPlayers {
		return Snapshot{}, ErrWrongPhase
	}
	if m.seats >= 2 {
		return Snapshot{}, ErrMatchFull
	}
	for i := 0; i < m.seats; i++ {
		if m.Players[i] == id {
			return Snapshot{}, ErrAlreadyJoined
		}
	}
	pub, err := custody.ParseIdentity(id)
	if err != nil {
		return Snapshot{}, err
	}

	seat := m.seats
	m.Players[seat] = id
	m.verifiers[seat] = custody.NewVerifier(pub, m.oracle)
	m.seats++
	m.log.WithFields(logrus.Fields{"seat": seat, "player": id}).Info("player joined")

	if m.seats == 2 {
		m.requireNewDeal()
	}
	return m.snapshot(), nil
}

// NewDeal opens deal dealNonce with the shuffler's encrypted deck
// commitment. Only the announced shuffler may open it, and only with
// the announced nonce.
func (m *Match) NewDeal(id custody.Identity, dealNonce uint32, deck *custody.Deck) (Snapshot, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Phase != PhaseWaitingForDeal {
		return Snapshot{}, ErrWrongPhase
	}
	if dealNonce != m.DealNonce+1 {
		return Snapshot{}, ErrStaleDeal
	}
	seat, err := m.seatOf(id)
	if err != nil {
		return Snapshot{}, err
	}
	if seat != m.pendingShuffler {
		return Snapshot{}, ErrWrongShuffler
	}

	m.DealNonce = dealNonce
	m.Deck = deck
	m.Game = engine.NewGameState(seat, m.PointsToWin, m.points)
	m.Phase = PhaseWaitingForPlay
	m.log.WithFields(logrus.Fields{"deal_nonce": dealNonce, "shuffler": seat}).Info("deal opened")

	if m.OnTurnSwitch != nil {
		m.OnTurnSwitch(m.Players[m.Game.PlayerTurn])
	}
	return m.snapshot(), nil
}

// apply runs one engine command for id against the current deal,
// then settles the deal and emits turn notifications as needed.
func (m *Match) apply(id custody.Identity, dealNonce uint32, fn func(seat engine.PlayerIndex) error) (Snapshot, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if err := m.checkDeal(PhaseWaitingForPlay, dealNonce); err != nil {
		return Snapshot{}, err
	}
	seat, err := m.seatOf(id)
	if err != nil {
		return Snapshot{}, err
	}
	prev := m.Game.PlayerTurn
	if err := fn(seat); err != nil {
		return Snapshot{}, err
	}
	m.settleIfOver()
	m.notifyTurn(prev)
	return m.snapshot(), nil
}

// SpellChallenge proposes a Truco- or Envido-family challenge.
func (m *Match) SpellChallenge(id custody.Identity, dealNonce uint32, kind engine.ChallengeKind) (Snapshot, error) {
	return m.apply(id, dealNonce, func(seat engine.PlayerIndex) error {
		return m.Game.SpellChallenge(seat, kind)
	})
}

// AcceptChallenge accepts the pending challenge.
func (m *Match) AcceptChallenge(id custody.Identity, dealNonce uint32) (Snapshot, error) {
	return m.apply(id, dealNonce, func(seat engine.PlayerIndex) error {
		return m.Game.AcceptChallenge(seat)
	})
}

// AcceptChallengeForRaising accepts the pending challenge while
// keeping the turn, to raise the same ladder.
func (m *Match) AcceptChallengeForRaising(id custody.Identity, dealNonce uint32) (Snapshot, error) {
	return m.apply(id, dealNonce, func(seat engine.PlayerIndex) error {
		return m.Game.AcceptChallengeForRaising(seat)
	})
}

// RefuseChallenge refuses the pending challenge, conceding its
// current stake.
func (m *Match) RefuseChallenge(id custody.Identity, dealNonce uint32) (Snapshot, error) {
	return m.apply(id, dealNonce, func(seat engine.PlayerIndex) error {
		return m.Game.RefuseChallenge(seat)
	})
}

// SpellEnvidoCount submits id's envido count.
func (m *Match) SpellEnvidoCount(id custody.Identity, dealNonce uint32, count uint8) (Snapshot, error) {
	return m.apply(id, dealNonce, func(seat engine.PlayerIndex) error {
		return m.Game.SpellEnvidoCount(seat, count)
	})
}

// PlayCard reveals one card backed by its disclosure signature. The
// signature binds the revealer, the match, the deal and the card; it
// must verify under the player's key or the designated oracle's.
func (m *Match) PlayCard(id custody.Identity, dealNonce uint32, card engine.Card, sig []byte) (Snapshot, error) {
	return m.apply(id, dealNonce, func(seat engine.PlayerIndex) error {
		digest, err := custody.DisclosureDigest(id, m.ID.String(), dealNonce, []byte{byte(card)})
		if err != nil {
			return err
		}
		if err := m.verifiers[seat].VerifyDisclosure(digest, sig); err != nil {
			return err
		}
		return m.Game.PlayCard(seat, card)
	})
}

// RevealCards proves a spelled envido count after the deal ended. The
// revealer must be the envido winner, the reveal must cover exactly
// the cards they played this deal, the signature must verify, and the
// revealed cards must compute to the spelled count.
func (m *Match) RevealCards(id custody.Identity, dealNonce uint32, cards []engine.Card, sig []byte) (Snapshot, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if err := m.checkDeal(PhaseWaitingForReveal, dealNonce); err != nil {
		return Snapshot{}, err
	}
	seat, err := m.seatOf(id)
	if err != nil {
		return Snapshot{}, err
	}
	if seat != m.Game.Envido.Winner {
		return Snapshot{}, ErrNotEnvidoWinner
	}
	if len(cards) == 0 || len(cards) > custody.MaxDisclosedCards {
		return Snapshot{}, ErrRevealCardCount
	}
	if played := int(m.Game.CardsPlayed(seat)); played > 0 && len(cards) != played {
		return Snapshot{}, ErrRevealCardCount
	}

	raw := make([]byte, len(cards))
	for i, c := range cards {
		raw[i] = byte(c)
	}
	digest, err := custody.DisclosureDigest(id, m.ID.String(), dealNonce, raw)
	if err != nil {
		return Snapshot{}, err
	}
	if err := m.verifiers[seat].VerifyDisclosure(digest, sig); err != nil {
		return Snapshot{}, err
	}

	score, err := engine.EnvidoScore(cards)
	if err != nil {
		return Snapshot{}, err
	}
	if score != uint8(m.Game.Envido.Count[seat]) {
		// Phase stays WAITING_FOR_REVEAL; the proof is still owed.
		return Snapshot{}, ErrEnvidoCountMismatch
	}

	m.log.WithField("deal_nonce", dealNonce).Info("envido proof accepted")
	m.settleDeal()
	return m.snapshot(), nil
}

// pendingStake returns the stake of a challenge that is still live,
// meaning its points have not been paid out yet: one awaiting a
// response, an accepted Truco-family challenge in an unfinished deal,
// or an accepted envido whose counts are not all in. A settled
// challenge keeps its record on the deal but puts nothing on the
// table. Assumes Mu is held.
func (m *Match) pendingStake() uint8 {
	if m.Phase != PhaseWaitingForPlay {
		return 0
	}
	c := m.Game.Challenge
	switch {
	case c.Kind == engine.ChallengeNone:
		return 0
	case c.WaitingResponse:
		return c.PointsAtStake
	case c.Response != engine.ResponseAccept:
		return 0
	case c.Kind.IsTrucoFamily():
		return c.PointsAtStake
	case m.Game.Envido.Finished:
		return 0
	default:
		return c.PointsAtStake
	}
}

// Resign concedes on id's behalf: the opponent collects the stake of
// any still-live challenge, at least one point, and the match either
// moves to the next deal or finishes.
func (m *Match) Resign(id custody.Identity, dealNonce uint32) (Snapshot, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	switch m.Phase {
	case PhaseWaitingForPlay, PhaseWaitingForReveal, PhaseWaitingForDeal:
	default:
		return Snapshot{}, ErrWrongPhase
	}
	if dealNonce != m.DealNonce {
		return Snapshot{}, ErrStaleDeal
	}
	seat, err := m.seatOf(id)
	if err != nil {
		return Snapshot{}, err
	}

	award := m.pendingStake()
	if award < 1 {
		award = 1
	}
	opp := seat.Opponent()
	if m.Phase == PhaseWaitingForPlay || m.Phase == PhaseWaitingForReveal {
		m.points = m.Game.TeamPoints
	}
	m.points[opp] += award
	if m.points[opp] > m.PointsToWin {
		m.points[opp] = m.PointsToWin
	}
	m.log.WithFields(logrus.Fields{"seat": seat, "award": award}).Info("player resigned")

	// A resign between deals keeps the already announced shuffler and
	// nonce; only a deal that settled rotates the shuffle.
	if m.points[opp] >= m.PointsToWin {
		m.finish(opp)
	} else if m.Phase != PhaseWaitingForDeal {
		m.requireNewDeal()
	}
	return m.snapshot(), nil
}
