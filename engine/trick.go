package engine

// roundWinner compares the two cards of round r (0-based). It assumes
// both seats have played that round.
func (g *GameState) roundWinner(r uint8) (winner PlayerIndex, drawn bool) {
	a := g.Revealed[0][r].TrickStrength()
	b := g.Revealed[1][r].TrickStrength()
	switch {
	case a > b:
		return 0, false
	case b > a:
		return 1, false
	default:
		return 0, true
	}
}

// PlayCard reveals card for seat p in the next open round slot. The
// card's disclosure signature is verified by the orchestrator before
// this is called; the engine only enforces turn order, challenge
// quiescence and slot rules. When the play completes a round, the
// round winner takes the turn; a drawn round leaves it with mano.
func (g *GameState) PlayCard(p PlayerIndex, card Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	if g.IsTrucoFinal() {
		return ErrDealFinished
	}
	if p != g.PlayerTurn {
		return ErrNotYourTurn
	}
	// No card while any challenge response, or an accepted envido's
	// counting, is still pending.
	if g.Challenge.WaitingResponse {
		return ErrChallengeAwaitingResponse
	}
	if g.Challenge.Kind.IsEnvidoFamily() && !g.Envido.Finished {
		return ErrChallengeAwaitingResponse
	}
	for seat := PlayerIndex(0); seat < 2; seat++ {
		for _, c := range g.Revealed[seat] {
			if c == card {
				return ErrCardAlreadyRevealed
			}
		}
	}
	slot := g.CardsPlayed(p)
	if slot >= 3 {
		return ErrNoRevealSlot
	}

	g.Revealed[p][slot] = card

	if g.IsTrucoFinal() {
		winner, _ := g.TrucoWinner()
		g.awardPoints(winner, g.TrucoPoints())
		return nil
	}

	opp := p.Opponent()
	if g.CardsPlayed(opp) > slot {
		// Round just completed; its winner leads the next one.
		winner, drawn := g.roundWinner(slot)
		if drawn {
			g.PlayerTurn = g.Mano()
		} else {
			g.PlayerTurn = winner
		}
	} else {
		g.PlayerTurn = opp
	}
	return nil
}

// IsTrucoFinal reports whether the deal has reached a terminal trick
// or challenge outcome: a refused Truco-family challenge, one seat
// winning both of the first two rounds, two opening draws followed by
// a completed third round, or the third round completing.
func (g *GameState) IsTrucoFinal() bool {
	if g.Challenge.Kind.IsTrucoFamily() && g.Challenge.Response == ResponseRefuse {
		return true
	}
	done := g.roundsCompleted()
	if done >= 3 {
		return true
	}
	if done >= 2 {
		w0, d0 := g.roundWinner(0)
		w1, d1 := g.roundWinner(1)
		if !d0 && !d1 && w0 == w1 {
			return true
		}
	}
	return false
}

// TrucoWinner returns the winner of a finished deal. A refused Truco
// goes to the challenger outright; otherwise the seat with more round
// wins takes the deal, ties going to the winner of the earliest
// decisive round, and a fully drawn deal to mano.
func (g *GameState) TrucoWinner() (PlayerIndex, error) {
	if g.Challenge.Kind.IsTrucoFamily() && g.Challenge.Response == ResponseRefuse {
		return g.Challenge.Challenger, nil
	}
	if !g.IsTrucoFinal() {
		return 0, ErrDealNotFinished
	}

	var wins [2]uint8
	firstDecisive := PlayerIndex(0)
	haveDecisive := false
	for r := uint8(0); r < g.roundsCompleted(); r++ {
		w, drawn := g.roundWinner(r)
		if drawn {
			continue
		}
		wins[w]++
		if !haveDecisive {
			firstDecisive = w
			haveDecisive = true
		}
	}
	switch {
	case wins[0] > wins[1]:
		return 0, nil
	case wins[1] > wins[0]:
		return 1, nil
	case haveDecisive:
		return firstDecisive, nil
	default:
		// Every played round drew: mano wins outright.
		return g.Mano(), nil
	}
}

// TrucoPoints returns the points the deal's winner collects from the
// trick outcome: the accepted Truco-family stake, or 1 when the deal
// ran without a Truco-family challenge. Refusals award their points
// at refusal time and are not re-awarded here.
func (g *GameState) TrucoPoints() uint8 {
	if g.Challenge.Kind.IsTrucoFamily() && g.Challenge.Response == ResponseAccept {
		return g.Challenge.PointsAtStake
	}
	return 1
}
