package engine

// raiseTable is the explicit escalation relation. A kind may only be
// proposed over a ladder position listed here; everything else is a
// lower/repeat/cross-family proposal and is rejected. Modeling the
// ladder as a lookup table (not integer comparison) makes invalid
// jumps such as Envido→ValeCuatro impossible to accept silently.
var raiseTable = map[ChallengeKind][]ChallengeKind{
	ChallengeNone:         {ChallengeTruco, ChallengeEnvido, ChallengeRealEnvido, ChallengeFaltaEnvido},
	ChallengeTruco:        {ChallengeReTruco},
	ChallengeReTruco:      {ChallengeValeCuatro},
	ChallengeValeCuatro:   {},
	ChallengeEnvido:       {ChallengeEnvidoEnvido, ChallengeRealEnvido, ChallengeFaltaEnvido},
	ChallengeEnvidoEnvido: {ChallengeRealEnvido, ChallengeFaltaEnvido},
	ChallengeRealEnvido:   {ChallengeFaltaEnvido},
	ChallengeFaltaEnvido:  {},
}

// canRaise reports whether proposed may be spelled over base.
func canRaise(base, proposed ChallengeKind) bool {
	for _, k := range raiseTable[base] {
		if k == proposed {
			return true
		}
	}
	return false
}

// acceptedStakeFor returns the points at stake once kind is accepted,
// given the ladder position it was spelled over.
func (g *GameState) acceptedStakeFor(kind ChallengeKind, prior Challenge) uint8 {
	switch kind {
	case ChallengeTruco:
		return 2
	case ChallengeReTruco:
		return 3
	case ChallengeValeCuatro:
		return 4
	case ChallengeEnvido:
		return 2
	case ChallengeEnvidoEnvido:
		return 4
	case ChallengeRealEnvido:
		if prior.Kind.IsEnvidoFamily() && prior.Response == ResponseAccept {
			return prior.PointsAtStake + 2
		}
		return 3
	case ChallengeFaltaEnvido:
		// Points remaining for either player to reach the threshold.
		lower := g.TeamPoints[0]
		if g.TeamPoints[1] < lower {
			lower = g.TeamPoints[1]
		}
		return g.PointsToWin - lower
	default:
		return 0
	}
}

// refusalStakeFor returns the points a refusal of kind would award:
// the already-accepted stake underneath it, or 1 for a fresh ladder.
func refusalStakeFor(prior Challenge) uint8 {
	if prior.Kind != ChallengeNone && prior.Response == ResponseAccept {
		return prior.PointsAtStake
	}
	return 1
}

// SpellChallenge proposes kind on behalf of player p. The proposal
// must strictly escalate its own ladder; envido-family proposals over
// an outstanding Truco-family challenge are only allowed "in first
// place", while p has revealed no card this deal.
func (g *GameState) SpellChallenge(p PlayerIndex, kind ChallengeKind) error {
	if kind == ChallengeNone {
		return ErrCannotLowerChallenge
	}
	if g.IsTrucoFinal() {
		return ErrDealFinished
	}
	if p != g.PlayerTurn {
		return ErrNotYourTurn
	}

	cur := g.Challenge
	base := cur

	switch {
	case cur.WaitingResponse:
		if kind.IsEnvidoFamily() && cur.Kind.IsTrucoFamily() {
			// Envido in first place: the responder may interrupt an
			// unanswered Truco as long as they have not revealed a
			// card yet. The Truco spell is superseded and must be
			// spelled again once the envido line closes.
			if g.Envido.Spelled || g.CardsPlayed(p) > 0 {
				return ErrChallengeAlreadyInPlace
			}
			base = Challenge{}
		} else if canRaise(cur.Kind, kind) {
			return ErrCannotRaiseWithoutAccepting
		} else {
			return ErrChallengeAlreadyInPlace
		}

	case cur.Kind == ChallengeNone:
		if kind.IsEnvidoFamily() && g.Envido.Spelled {
			return ErrChallengeAlreadyInPlace
		}

	case cur.Kind.IsEnvidoFamily():
		switch {
		case kind.IsEnvidoFamily():
			if g.Envido.Finished {
				// Envido is settled once per deal.
				return ErrChallengeAlreadyInPlace
			}
			// Raising an accepted envido is only open to the side
			// that accepted, and only before counting starts.
			if p == cur.Challenger || g.Envido.CountSpelled(0) || g.Envido.CountSpelled(1) {
				return ErrChallengeAlreadyInPlace
			}
		default: // truco family over an envido record
			if !g.Envido.Finished {
				return ErrChallengeAlreadyInPlace
			}
			base = Challenge{}
		}

	case cur.Kind.IsTrucoFamily():
		if kind.IsEnvidoFamily() {
			return ErrChallengeAlreadyInPlace
		}
		if p == cur.Challenger {
			return ErrChallengeAlreadyInPlace
		}
	}

	if !canRaise(base.Kind, kind) {
		return ErrCannotLowerChallenge
	}

	g.Challenge = Challenge{
		Kind:            kind,
		Challenger:      p,
		PointsAtStake:   refusalStakeFor(base),
		WaitingResponse: true,
		Response:        ResponseNone,
		acceptedStake:   g.acceptedStakeFor(kind, base),
	}
	if kind.IsEnvidoFamily() {
		g.Envido.Spelled = true
	}
	g.PlayerTurn = p.Opponent()
	return nil
}

// respond validates and closes the waiting challenge with response r.
func (g *GameState) respond(p PlayerIndex, r ResponseKind) error {
	if p != g.PlayerTurn {
		return ErrNotYourTurn
	}
	cur := &g.Challenge
	if cur.Kind == ChallengeNone {
		return ErrNoChallengeToAnswer
	}
	if !cur.WaitingResponse {
		return ErrResponseAlreadyGiven
	}
	cur.WaitingResponse = false
	cur.Response = r
	return nil
}

// AcceptChallenge accepts the waiting challenge ("quiero"), fixing the
// accepted points at stake. For an envido-family challenge the turn
// moves back to the challenger's side to open count-spelling; for a
// Truco-family challenge play resumes with whoever owes a card.
func (g *GameState) AcceptChallenge(p PlayerIndex) error {
	if err := g.respond(p, ResponseAccept); err != nil {
		return err
	}
	g.Challenge.PointsAtStake = g.Challenge.acceptedStake
	if g.Challenge.Kind.IsEnvidoFamily() {
		g.PlayerTurn = g.Challenge.Challenger
	} else {
		g.PlayerTurn = g.nextToPlay()
	}
	return nil
}

// AcceptChallengeForRaising accepts the waiting challenge but keeps
// the turn with the acceptor, who intends to raise the same ladder.
func (g *GameState) AcceptChallengeForRaising(p PlayerIndex) error {
	if err := g.respond(p, ResponseAccept); err != nil {
		return err
	}
	g.Challenge.PointsAtStake = g.Challenge.acceptedStake
	g.PlayerTurn = p
	return nil
}

// RefuseChallenge refuses the waiting challenge ("no quiero"),
// awarding the current points at stake to the challenger, never the
// would-be-raised value. A refused Truco-family challenge ends
// the deal; a refused envido returns the turn to mano and the closed
// record stays visible for the rest of the deal.
func (g *GameState) RefuseChallenge(p PlayerIndex) error {
	if err := g.respond(p, ResponseRefuse); err != nil {
		return err
	}
	cur := g.Challenge
	g.awardPoints(cur.Challenger, cur.PointsAtStake)

	if cur.Kind.IsEnvidoFamily() {
		g.Envido.Finished = true
		g.Envido.Winner = cur.Challenger
		g.Envido.WonByRefusal = true
		g.Envido.PointsRewarded = cur.PointsAtStake
		g.PlayerTurn = g.Mano()
	}
	// Truco refusal: the deal is over; the refuser's side never gains
	// the turn. It only changes with the next deal.
	return nil
}

// SpellEnvidoCount submits p's envido count. Legal only once the
// envido challenge is accepted, before both sides have counted, on
// p's turn, with the count in [0,33]. A count of literally zero is a
// legal input; the internal "not spelled" sentinel is out of range.
// Once both sides have counted, the higher count wins, ties going to
// the seat that did not shuffle this deal.
func (g *GameState) SpellEnvidoCount(p PlayerIndex, count uint8) error {
	if p != g.PlayerTurn {
		return ErrNotYourTurn
	}
	cur := g.Challenge
	if !cur.Kind.IsEnvidoFamily() || cur.WaitingResponse ||
		cur.Response != ResponseAccept || g.Envido.Finished {
		return ErrEnvidoNotPlayable
	}
	if count > 33 {
		return ErrInvalidEnvidoCount
	}
	if g.Envido.CountSpelled(p) {
		return ErrResponseAlreadyGiven
	}

	g.Envido.Count[p] = int8(count)

	opp := p.Opponent()
	if !g.Envido.CountSpelled(opp) {
		g.PlayerTurn = opp
		return nil
	}

	winner := g.Mano() // non-shuffler wins ties
	if g.Envido.Count[0] != g.Envido.Count[1] {
		if g.Envido.Count[0] > g.Envido.Count[1] {
			winner = 0
		} else {
			winner = 1
		}
	}
	g.Envido.Finished = true
	g.Envido.Winner = winner
	g.Envido.PointsRewarded = cur.PointsAtStake
	g.awardPoints(winner, cur.PointsAtStake)
	g.PlayerTurn = g.nextToPlay()
	return nil
}

// CardsShouldBeRevealedForEnvido reports whether the envido winner
// still owes a card reveal to prove the spelled count: true once the
// envido is finished by counting and the winner's cards on the table
// do not already add up to the count. An envido won by refusal never
// needs proof.
func (g *GameState) CardsShouldBeRevealedForEnvido() bool {
	if !g.Envido.Finished || g.Envido.WonByRefusal {
		return false
	}
	w := g.Envido.Winner
	var played []Card
	for _, c := range g.Revealed[w] {
		if c != CardMasked {
			played = append(played, c)
		}
	}
	score, err := EnvidoScore(played)
	if err != nil {
		return true
	}
	return score != uint8(g.Envido.Count[w])
}
