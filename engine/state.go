package engine

// PlayerIndex identifies one of the two seats.
type PlayerIndex uint8

// Opponent returns the other seat.
func (p PlayerIndex) Opponent() PlayerIndex { return 1 - p }

// ChallengeKind enumerates the two escalation ladders. The Truco
// family and the Envido family are mutually exclusive: a challenge can
// never be raised across families.
type ChallengeKind uint8

const (
	ChallengeNone ChallengeKind = iota
	ChallengeTruco
	ChallengeReTruco
	ChallengeValeCuatro
	ChallengeEnvido
	ChallengeEnvidoEnvido
	ChallengeRealEnvido
	ChallengeFaltaEnvido
)

// String returns the challenge name as spelled at the table.
func (k ChallengeKind) String() string {
	switch k {
	case ChallengeNone:
		return "None"
	case ChallengeTruco:
		return "Truco"
	case ChallengeReTruco:
		return "ReTruco"
	case ChallengeValeCuatro:
		return "ValeCuatro"
	case ChallengeEnvido:
		return "Envido"
	case ChallengeEnvidoEnvido:
		return "EnvidoEnvido"
	case ChallengeRealEnvido:
		return "RealEnvido"
	case ChallengeFaltaEnvido:
		return "FaltaEnvido"
	default:
		return "?"
	}
}

// IsTrucoFamily reports membership in the Truco→ReTruco→ValeCuatro ladder.
func (k ChallengeKind) IsTrucoFamily() bool {
	return k >= ChallengeTruco && k <= ChallengeValeCuatro
}

// IsEnvidoFamily reports membership in the Envido ladder.
func (k ChallengeKind) IsEnvidoFamily() bool {
	return k >= ChallengeEnvido && k <= ChallengeFaltaEnvido
}

// ResponseKind is a player's answer to a spelled challenge.
// ResponseNone is the "awaiting response" sentinel and is never a
// valid player-submitted response.
type ResponseKind uint8

const (
	ResponseNone ResponseKind = iota
	ResponseAccept
	ResponseRefuse
)

// Challenge is the current-challenge record.
//
// Invariant: WaitingResponse implies Response == ResponseNone; a
// closed challenge has Response in {Accept, Refuse} unless Kind is
// ChallengeNone. PointsAtStake always holds the points a refusal
// would award right now; acceptance escalates it to the accepted
// value of the spelled kind.
type Challenge struct {
	Kind            ChallengeKind
	Challenger      PlayerIndex
	PointsAtStake   uint8
	WaitingResponse bool
	Response        ResponseKind

	// acceptedStake is fixed at spell time and becomes PointsAtStake
	// once the challenge is accepted.
	acceptedStake uint8
}

// EnvidoCountNone marks a seat that has not spelled its count yet.
// The sentinel is out of the legal [0,33] range on purpose: spelling
// literally zero points is a legal input and must stay distinguishable
// from "not yet spelled".
const EnvidoCountNone int8 = -1

// EnvidoState tracks the envido side-bet within one deal.
type EnvidoState struct {
	Spelled        bool
	Count          [2]int8 // EnvidoCountNone until spelled
	PointsRewarded uint8
	Finished       bool
	Winner         PlayerIndex
	WonByRefusal   bool
}

// CountSpelled reports whether seat p has spelled its count.
func (e *EnvidoState) CountSpelled(p PlayerIndex) bool {
	return e.Count[p] != EnvidoCountNone
}

// GameState is the complete state of one deal. It is a flat value
// type: the orchestrator applies engine operations to a copy, so a
// rejected action can never leave a half-mutated aggregate behind.
type GameState struct {
	PlayerTurn        PlayerIndex
	PlayerWhoShuffled PlayerIndex
	PointsToWin       uint8
	Challenge         Challenge
	Revealed          [2][3]Card // masked sentinel until played
	Envido            EnvidoState
	TeamPoints        [2]uint8
}

// NewGameState starts a fresh deal. The non-shuffler is mano and
// holds the opening turn. Team points carry across deals, so the
// caller passes them in.
func NewGameState(shuffler PlayerIndex, pointsToWin uint8, teamPoints [2]uint8) GameState {
	g := GameState{
		PlayerWhoShuffled: shuffler,
		PointsToWin:       pointsToWin,
		TeamPoints:        teamPoints,
	}
	g.PlayerTurn = g.Mano()
	g.Envido.Count = [2]int8{EnvidoCountNone, EnvidoCountNone}
	return g
}

// Mano returns the seat that acts first this deal and wins envido
// ties and fully drawn deals: always the player who did not shuffle.
func (g *GameState) Mano() PlayerIndex {
	return g.PlayerWhoShuffled.Opponent()
}

// CardsPlayed returns how many cards seat p has revealed this deal.
func (g *GameState) CardsPlayed(p PlayerIndex) uint8 {
	var n uint8
	for _, c := range g.Revealed[p] {
		if c != CardMasked {
			n++
		}
	}
	return n
}

// HasReachedWin reports whether either seat reached the win threshold.
func (g *GameState) HasReachedWin() bool {
	return g.TeamPoints[0] >= g.PointsToWin || g.TeamPoints[1] >= g.PointsToWin
}

// roundsCompleted returns the number of rounds both seats have played.
func (g *GameState) roundsCompleted() uint8 {
	a, b := g.CardsPlayed(0), g.CardsPlayed(1)
	if a < b {
		return a
	}
	return b
}

// nextToPlay returns the seat that owes the next card: the seat that
// is behind in the current round, or the leader of a fresh round
// (mano for round one, afterwards the previous round's winner, with
// drawn rounds falling back to mano).
func (g *GameState) nextToPlay() PlayerIndex {
	a, b := g.CardsPlayed(0), g.CardsPlayed(1)
	if a < b {
		return 0
	}
	if b < a {
		return 1
	}
	r := a // both have played r cards; round r is about to start
	if r == 0 {
		return g.Mano()
	}
	winner, drawn := g.roundWinner(r - 1)
	if drawn {
		return g.Mano()
	}
	return winner
}

// awardPoints credits pts to seat p, capped at the win threshold.
func (g *GameState) awardPoints(p PlayerIndex, pts uint8) {
	g.TeamPoints[p] += pts
	if g.TeamPoints[p] > g.PointsToWin {
		g.TeamPoints[p] = g.PointsToWin
	}
}
