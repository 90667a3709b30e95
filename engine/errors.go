package engine

import "errors"

// Rejection kinds. Every engine operation either applies completely or
// returns one of these with the state untouched; callers can rely on
// errors.Is to map a rejection to a client-facing reason.
var (
	// ErrInvalidCard rejects cards outside [1,40], including the
	// masked sentinel 0.
	ErrInvalidCard = errors.New("invalid card")

	// ErrNotYourTurn rejects an action by the player who does not
	// hold the turn.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrChallengeAlreadyInPlace rejects spelling a challenge while an
	// incompatible one (the other family, or an unfinished envido) is
	// in force.
	ErrChallengeAlreadyInPlace = errors.New("challenge already in place")

	// ErrCannotLowerChallenge rejects proposals that do not strictly
	// escalate the current ladder.
	ErrCannotLowerChallenge = errors.New("cannot lower or repeat challenge")

	// ErrCannotRaiseWithoutAccepting rejects a raise while the current
	// challenge is still awaiting its response.
	ErrCannotRaiseWithoutAccepting = errors.New("cannot raise a challenge without accepting it")

	// ErrResponseAlreadyGiven rejects responding to (or re-counting
	// for) a challenge whose response is already closed.
	ErrResponseAlreadyGiven = errors.New("response already given")

	// ErrNoChallengeToAnswer rejects accept/refuse when nothing is
	// awaiting a response.
	ErrNoChallengeToAnswer = errors.New("no challenge awaiting a response")

	// ErrInvalidEnvidoCount rejects envido counts outside [0,33] or
	// spelled out of sequence.
	ErrInvalidEnvidoCount = errors.New("invalid envido count")

	// ErrChallengeAwaitingResponse rejects playing a card while a
	// challenge response (or an envido count) is pending.
	ErrChallengeAwaitingResponse = errors.New("challenge awaiting a response")

	// ErrDealFinished rejects play once the deal has reached a
	// terminal trick or challenge outcome.
	ErrDealFinished = errors.New("deal already finished")

	// ErrDealNotFinished guards winner queries before finality.
	ErrDealNotFinished = errors.New("deal not finished")

	// ErrCardAlreadyRevealed rejects playing a card that is already on
	// the table this deal.
	ErrCardAlreadyRevealed = errors.New("card already revealed this deal")

	// ErrNoRevealSlot rejects a fourth card.
	ErrNoRevealSlot = errors.New("no reveal slot left this deal")

	// ErrEnvidoNotPlayable rejects envido actions when the envido
	// phase of the deal is over or not yet reachable.
	ErrEnvidoNotPlayable = errors.New("envido not playable")
)
