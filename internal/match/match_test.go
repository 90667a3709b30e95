package match

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CardDAO/truco-sub000/custody"
	"github.com/CardDAO/truco-sub000/engine"
)

// mockSink captures match notifications for assertions.
type mockSink struct {
	mu      sync.Mutex
	turns   []custody.Identity
	deals   []dealRequest
	results []Result
}

type dealRequest struct {
	shuffler custody.Identity
	nonce    uint32
}

func (s *mockSink) wire(m *Match) {
	m.OnTurnSwitch = func(p custody.Identity) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.turns = append(s.turns, p)
	}
	m.OnNewDealRequired = func(shuffler custody.Identity, nonce uint32) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.deals = append(s.deals, dealRequest{shuffler, nonce})
	}
	m.OnMatchFinished = func(res Result) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.results = append(s.results, res)
	}
}

func (s *mockSink) lastDeal() *dealRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deals) == 0 {
		return nil
	}
	return &s.deals[len(s.deals)-1]
}

func (s *mockSink) lastTurn() custody.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.turns) == 0 {
		return ""
	}
	return s.turns[len(s.turns)-1]
}

// setupMatch creates a match with two joined players and the first
// deal open. Seat 0 shuffles deal 1, so seat 1 is mano and holds the
// opening turn.
func setupMatch(t *testing.T, pointsToWin uint8) (*Match, [2]*custody.Signer, *mockSink) {
	t.Helper()

	m := New(100, pointsToWin, nil)
	sink := &mockSink{}
	sink.wire(m)

	signers := [2]*custody.Signer{custody.NewSigner(), custody.NewSigner()}
	_, err := m.Join(signers[0].Identity())
	require.NoError(t, err)
	snap, err := m.Join(signers[1].Identity())
	require.NoError(t, err)
	require.Equal(t, PhaseWaitingForDeal, snap.Phase)

	secret, err := custody.NewDealSecret()
	require.NoError(t, err)
	deck, err := custody.ShuffleAndEncrypt(secret)
	require.NoError(t, err)
	snap, err = m.NewDeal(signers[0].Identity(), 1, deck)
	require.NoError(t, err)
	require.Equal(t, PhaseWaitingForPlay, snap.Phase)
	require.Equal(t, engine.PlayerIndex(1), snap.Game.PlayerTurn, "mano opens")

	return m, signers, sink
}

// signCard produces a disclosure signature for one card.
func signCard(t *testing.T, m *Match, s *custody.Signer, nonce uint32, card engine.Card) []byte {
	t.Helper()
	digest, err := custody.DisclosureDigest(s.Identity(), m.ID.String(), nonce, []byte{byte(card)})
	require.NoError(t, err)
	sig, err := s.Sign(digest)
	require.NoError(t, err)
	return sig
}

// signCards produces a disclosure signature over a reveal set.
func signCards(t *testing.T, m *Match, s *custody.Signer, nonce uint32, cards []engine.Card) []byte {
	t.Helper()
	raw := make([]byte, len(cards))
	for i, c := range cards {
		raw[i] = byte(c)
	}
	digest, err := custody.DisclosureDigest(s.Identity(), m.ID.String(), nonce, raw)
	require.NoError(t, err)
	sig, err := s.Sign(digest)
	require.NoError(t, err)
	return sig
}

// play submits a properly signed card for the signer's seat.
func play(t *testing.T, m *Match, s *custody.Signer, card engine.Card) Snapshot {
	t.Helper()
	nonce := m.Snapshot().DealNonce
	snap, err := m.PlayCard(s.Identity(), nonce, card, signCard(t, m, s, nonce, card))
	require.NoError(t, err)
	return snap
}

func TestJoinFlow(t *testing.T) {
	m := New(50, 15, nil)
	sink := &mockSink{}
	sink.wire(m)

	a := custody.NewSigner()
	b := custody.NewSigner()

	snap, err := m.Join(a.Identity())
	require.NoError(t, err)
	assert.Equal(t, PhaseWaitingForPlayers, snap.Phase)

	_, err = m.Join(a.Identity())
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	snap, err = m.Join(b.Identity())
	require.NoError(t, err)
	assert.Equal(t, PhaseWaitingForDeal, snap.Phase)

	req := sink.lastDeal()
	require.NotNil(t, req, "second join should request the first deal")
	assert.Equal(t, a.Identity(), req.shuffler, "seat 0 shuffles first")
	assert.Equal(t, uint32(1), req.nonce)

	_, err = m.Join(custody.NewSigner().Identity())
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestJoinRejectsMalformedIdentity(t *testing.T) {
	m := New(50, 15, nil)
	_, err := m.Join("not a hex identity")
	assert.Error(t, err)
}

func TestNewDealValidation(t *testing.T) {
	m := New(50, 15, nil)
	a := custody.NewSigner()
	b := custody.NewSigner()
	_, err := m.Join(a.Identity())
	require.NoError(t, err)
	_, err = m.Join(b.Identity())
	require.NoError(t, err)

	secret, err := custody.NewDealSecret()
	require.NoError(t, err)
	deck, err := custody.ShuffleAndEncrypt(secret)
	require.NoError(t, err)

	_, err = m.NewDeal(b.Identity(), 1, deck)
	assert.ErrorIs(t, err, ErrWrongShuffler)

	_, err = m.NewDeal(a.Identity(), 2, deck)
	assert.ErrorIs(t, err, ErrStaleDeal)

	_, err = m.NewDeal(custody.NewSigner().Identity(), 1, deck)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	snap, err := m.NewDeal(a.Identity(), 1, deck)
	require.NoError(t, err)
	assert.Equal(t, PhaseWaitingForPlay, snap.Phase)
	assert.Equal(t, uint32(1), snap.DealNonce)

	_, err = m.NewDeal(a.Identity(), 2, deck)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestPlayCardRequiresValidSignature(t *testing.T) {
	m, signers, sink := setupMatch(t, 15)

	// A signature from the wrong key is rejected without mutation.
	before := m.Snapshot()
	badSig := signCard(t, m, signers[0], 1, 21)
	_, err := m.PlayCard(signers[1].Identity(), 1, 21, badSig)
	assert.ErrorIs(t, err, custody.ErrInvalidSignature)
	assert.Equal(t, before, m.Snapshot())

	snap := play(t, m, signers[1], 21)
	assert.Equal(t, engine.PlayerIndex(0), snap.Game.PlayerTurn)
	assert.Equal(t, signers[0].Identity(), sink.lastTurn())
}

func TestStaleDealNonceRejected(t *testing.T) {
	m, signers, _ := setupMatch(t, 15)
	before := m.Snapshot()

	sig := signCard(t, m, signers[1], 7, 21)
	_, err := m.PlayCard(signers[1].Identity(), 7, 21, sig)
	assert.ErrorIs(t, err, ErrStaleDeal)

	_, err = m.SpellChallenge(signers[1].Identity(), 0, engine.ChallengeTruco)
	assert.ErrorIs(t, err, ErrStaleDeal)
	assert.Equal(t, before, m.Snapshot())
}

func TestTrucoRefusalRotatesDeal(t *testing.T) {
	m, signers, sink := setupMatch(t, 15)

	_, err := m.SpellChallenge(signers[1].Identity(), 1, engine.ChallengeTruco)
	require.NoError(t, err)
	snap, err := m.RefuseChallenge(signers[0].Identity(), 1)
	require.NoError(t, err)

	assert.Equal(t, PhaseWaitingForDeal, snap.Phase)
	assert.Equal(t, [2]uint8{0, 1}, snap.Points, "refused Truco concedes one point")

	req := sink.lastDeal()
	require.NotNil(t, req)
	assert.Equal(t, uint32(2), req.nonce)
	assert.Equal(t, signers[1].Identity(), req.shuffler, "shuffler alternates")
}

func TestEnvidoRevealFlow(t *testing.T) {
	m, signers, sink := setupMatch(t, 15)
	b := signers[1] // mano, opening turn

	_, err := m.SpellChallenge(b.Identity(), 1, engine.ChallengeEnvido)
	require.NoError(t, err)
	_, err = m.AcceptChallenge(signers[0].Identity(), 1)
	require.NoError(t, err)
	_, err = m.SpellEnvidoCount(b.Identity(), 1, 26)
	require.NoError(t, err)
	snap, err := m.SpellEnvidoCount(signers[0].Identity(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, engine.PlayerIndex(1), snap.Game.Envido.Winner)

	// Winner plays two aces: they win the tricks but the table never
	// proves the spelled 26.
	play(t, m, b, engine.CardAceSwords)
	play(t, m, signers[0], 34)
	play(t, m, b, engine.CardAceClubs)
	snap = play(t, m, signers[0], 35)
	require.Equal(t, PhaseWaitingForReveal, snap.Phase)

	// Only the envido winner may reveal.
	sig := signCards(t, m, signers[0], 1, []engine.Card{2, 4})
	_, err = m.RevealCards(signers[0].Identity(), 1, []engine.Card{2, 4}, sig)
	assert.ErrorIs(t, err, ErrNotEnvidoWinner)

	// Wrong card count.
	sig = signCards(t, m, b, 1, []engine.Card{2})
	_, err = m.RevealCards(b.Identity(), 1, []engine.Card{2}, sig)
	assert.ErrorIs(t, err, ErrRevealCardCount)

	// Cards computing 25 do not prove the spelled 26; phase holds.
	sig = signCards(t, m, b, 1, []engine.Card{2, 3})
	_, err = m.RevealCards(b.Identity(), 1, []engine.Card{2, 3}, sig)
	assert.ErrorIs(t, err, ErrEnvidoCountMismatch)
	assert.Equal(t, PhaseWaitingForReveal, m.Snapshot().Phase)

	// 2 and 4 of Coins compute exactly 26.
	sig = signCards(t, m, b, 1, []engine.Card{2, 4})
	snap, err = m.RevealCards(b.Identity(), 1, []engine.Card{2, 4}, sig)
	require.NoError(t, err)
	assert.Equal(t, PhaseWaitingForDeal, snap.Phase)
	assert.Equal(t, [2]uint8{0, 3}, snap.Points, "2 for envido, 1 for the tricks")

	req := sink.lastDeal()
	require.NotNil(t, req)
	assert.Equal(t, uint32(2), req.nonce)
}

func TestResignAwardsPendingStake(t *testing.T) {
	m, signers, _ := setupMatch(t, 15)

	_, err := m.SpellChallenge(signers[1].Identity(), 1, engine.ChallengeTruco)
	require.NoError(t, err)
	_, err = m.AcceptChallenge(signers[0].Identity(), 1)
	require.NoError(t, err)

	snap, err := m.Resign(signers[0].Identity(), 1)
	require.NoError(t, err)
	assert.Equal(t, PhaseWaitingForDeal, snap.Phase)
	assert.Equal(t, [2]uint8{0, 2}, snap.Points, "resigning under accepted Truco concedes its stake")
}

func TestResignAfterEnvidoSettledAwardsOne(t *testing.T) {
	m, signers, _ := setupMatch(t, 15)
	b := signers[1]

	_, err := m.SpellChallenge(b.Identity(), 1, engine.ChallengeEnvido)
	require.NoError(t, err)
	_, err = m.AcceptChallenge(signers[0].Identity(), 1)
	require.NoError(t, err)
	_, err = m.SpellEnvidoCount(b.Identity(), 1, 26)
	require.NoError(t, err)
	snap, err := m.SpellEnvidoCount(signers[0].Identity(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, [2]uint8{0, 2}, snap.Game.TeamPoints)

	// The envido stake is already on seat 1's tally; resigning concedes
	// only the minimum point on top, not the stake a second time.
	snap, err = m.Resign(signers[0].Identity(), 1)
	require.NoError(t, err)
	assert.Equal(t, [2]uint8{0, 3}, snap.Points)
}

func TestResignBetweenDeals(t *testing.T) {
	m, signers, sink := setupMatch(t, 15)
	b := signers[1]

	_, err := m.SpellChallenge(b.Identity(), 1, engine.ChallengeTruco)
	require.NoError(t, err)
	_, err = m.AcceptChallenge(signers[0].Identity(), 1)
	require.NoError(t, err)

	// Seat 1 wins two straight rounds; the accepted Truco pays out and
	// deal 2 is announced for seat 1 to shuffle.
	play(t, m, b, engine.CardAceSwords)
	play(t, m, signers[0], 34)
	play(t, m, b, engine.CardAceClubs)
	snap := play(t, m, signers[0], 35)
	require.Equal(t, PhaseWaitingForDeal, snap.Phase)
	require.Equal(t, [2]uint8{0, 2}, snap.Points)
	require.Len(t, sink.deals, 2)

	// Resigning now concedes one point, not the settled Truco's stake,
	// and the pending shuffle announcement stands.
	snap, err = m.Resign(signers[0].Identity(), 1)
	require.NoError(t, err)
	assert.Equal(t, [2]uint8{0, 3}, snap.Points)
	assert.Equal(t, PhaseWaitingForDeal, snap.Phase)
	assert.Len(t, sink.deals, 2, "no duplicate deal announcement")

	secret, err := custody.NewDealSecret()
	require.NoError(t, err)
	deck, err := custody.ShuffleAndEncrypt(secret)
	require.NoError(t, err)
	_, err = m.NewDeal(b.Identity(), 2, deck)
	require.NoError(t, err, "announced shuffler still opens deal 2")
}

func TestResignAwardsAtLeastOne(t *testing.T) {
	m, signers, _ := setupMatch(t, 15)

	snap, err := m.Resign(signers[1].Identity(), 1)
	require.NoError(t, err)
	assert.Equal(t, [2]uint8{1, 0}, snap.Points)
}

func TestMatchFinishes(t *testing.T) {
	m, signers, sink := setupMatch(t, 1)

	_, err := m.SpellChallenge(signers[1].Identity(), 1, engine.ChallengeTruco)
	require.NoError(t, err)
	snap, err := m.RefuseChallenge(signers[0].Identity(), 1)
	require.NoError(t, err)

	assert.Equal(t, PhaseFinished, snap.Phase)
	require.Len(t, sink.results, 1)
	res := sink.results[0]
	assert.Equal(t, signers[1].Identity(), res.Winner)
	assert.Equal(t, uint8(1), res.WinnerScore)
	assert.Equal(t, signers[0].Identity(), res.Loser)
	assert.Equal(t, uint8(0), res.LoserScore)
	assert.Equal(t, uint64(100), res.Bet)

	_, err = m.SpellChallenge(signers[1].Identity(), 1, engine.ChallengeTruco)
	assert.ErrorIs(t, err, ErrWrongPhase)
}
