// Package engine implements the rules of two-player Argentine Truco
// with the Envido side-bet.
//
// The package is deliberately dependency-free: it holds the card model,
// the two challenge escalation ladders, envido scoring and trick
// resolution over a flat value-type GameState. Everything stateful
// (phases, custody, persistence, transport) lives in the packages
// around it.
package engine

// Suit identifies one of the four Spanish suits.
type Suit uint8

const (
	SuitCoins Suit = iota + 1
	SuitCups
	SuitSwords
	SuitClubs
)

// String returns the suit name.
func (s Suit) String() string {
	switch s {
	case SuitCoins:
		return "Coins"
	case SuitCups:
		return "Cups"
	case SuitSwords:
		return "Swords"
	case SuitClubs:
		return "Clubs"
	default:
		return "?"
	}
}

// Card is a number in [1,40]. Suit = ⌈n/10⌉ (Coins, Cups, Swords,
// Clubs); rank index = ((n-1) mod 10)+1 maps onto face values
// {1..7, 10, 11, 12}; the Spanish deck has no 8s or 9s.
type Card uint8

// CardMasked is the "not yet revealed" sentinel. It is never a valid
// playable card and every public operation rejects it.
const CardMasked Card = 0

// DeckSize is the number of cards in a Spanish-suited Truco deck.
const DeckSize = 40

// The four cards with their own trick strength (the "manillas").
const (
	CardSevenCoins  Card = 7  // siete de oro
	CardAceSwords   Card = 21 // espada
	CardSevenSwords Card = 27 // siete de espada
	CardAceClubs    Card = 31 // basto
)

// Validate returns ErrInvalidCard unless c is in [1,40]. The masked
// sentinel 0 fails this check; it must never be mistaken for a low
// card, so callers validate before doing any arithmetic on c.
func (c Card) Validate() error {
	if c < 1 || c > DeckSize {
		return ErrInvalidCard
	}
	return nil
}

// Suit returns the suit of a valid card.
func (c Card) Suit() Suit {
	return Suit((c-1)/10 + 1)
}

// rankIndex returns the 1-based rank position within the suit (1..10).
func (c Card) rankIndex() uint8 {
	return uint8((c-1)%10) + 1
}

// FaceValue returns the printed value of a valid card: 1..7 for the
// numeric ranks, then 10 (sota), 11 (caballo), 12 (rey).
func (c Card) FaceValue() uint8 {
	r := c.rankIndex()
	if r <= 7 {
		return r
	}
	return r + 2
}

// SameSuit reports whether two valid cards share a suit.
func SameSuit(a, b Card) bool {
	return a.Suit() == b.Suit()
}

// TrickStrength returns the trick-taking strength of a valid card.
// Higher beats lower; equal strength is a drawn round. The order is
// NOT the face-value order:
//
//	14  1 of Swords (espada)
//	13  1 of Clubs (basto)
//	12  7 of Swords
//	11  7 of Coins
//	10  3s     9  2s      8  remaining 1s
//	 7  12s    6  11s     5  10s
//	 4  remaining 7s      3  6s
//	 2  5s                1  4s
func (c Card) TrickStrength() uint8 {
	switch c {
	case CardAceSwords:
		return 14
	case CardAceClubs:
		return 13
	case CardSevenSwords:
		return 12
	case CardSevenCoins:
		return 11
	}
	switch c.rankIndex() {
	case 3:
		return 10
	case 2:
		return 9
	case 1:
		return 8
	case 10: // rey
		return 7
	case 9: // caballo
		return 6
	case 8: // sota
		return 5
	case 7:
		return 4
	case 6:
		return 3
	case 5:
		return 2
	default: // 4s
		return 1
	}
}

// EnvidoValue returns the card's contribution to an envido count:
// face cards (10, 11, 12) count zero, numeric cards their face value.
func (c Card) EnvidoValue() uint8 {
	if c.rankIndex() >= 8 {
		return 0
	}
	return c.rankIndex()
}

// NewDeck returns the 40 cards in ascending order.
func NewDeck() [DeckSize]Card {
	var d [DeckSize]Card
	for i := range d {
		d[i] = Card(i + 1)
	}
	return d
}

// EnvidoScore computes the envido count of up to three valid cards.
// With two or more cards of one suit the count is 20 plus the two
// highest envido values of that suit; otherwise it is the single
// highest envido value. The maximum reachable count is 33 (20+7+6).
// Masked or out-of-range cards are rejected with ErrInvalidCard.
func EnvidoScore(cards []Card) (uint8, error) {
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return 0, err
		}
	}

	var best uint8
	for _, c := range cards {
		if v := c.EnvidoValue(); v > best {
			best = v
		}
	}

	// Best same-suit pair, if any.
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			if !SameSuit(cards[i], cards[j]) {
				continue
			}
			sum := 20 + cards[i].EnvidoValue() + cards[j].EnvidoValue()
			if sum > best {
				best = sum
			}
		}
	}
	return best, nil
}
