package engine

import "testing"

// TestCardValidate verifies the [1,40] range and the masked sentinel.
func TestCardValidate(t *testing.T) {
	if err := CardMasked.Validate(); err != ErrInvalidCard {
		t.Errorf("masked sentinel: want ErrInvalidCard, got %v", err)
	}
	if err := Card(41).Validate(); err != ErrInvalidCard {
		t.Errorf("card 41: want ErrInvalidCard, got %v", err)
	}
	for c := Card(1); c <= DeckSize; c++ {
		if err := c.Validate(); err != nil {
			t.Fatalf("card %d: unexpected %v", c, err)
		}
	}
}

// TestCardSuitAndFace checks the suit/rank encoding at the seams.
func TestCardSuitAndFace(t *testing.T) {
	cases := []struct {
		card Card
		suit Suit
		face uint8
	}{
		{1, SuitCoins, 1},
		{10, SuitCoins, 12},
		{11, SuitCups, 1},
		{18, SuitCups, 10},
		{21, SuitSwords, 1},
		{30, SuitSwords, 12},
		{31, SuitClubs, 1},
		{40, SuitClubs, 12},
	}
	for _, tc := range cases {
		if got := tc.card.Suit(); got != tc.suit {
			t.Errorf("card %d suit: want %v, got %v", tc.card, tc.suit, got)
		}
		if got := tc.card.FaceValue(); got != tc.face {
			t.Errorf("card %d face: want %d, got %d", tc.card, tc.face, got)
		}
	}
}

// TestTrickStrengthOrder verifies the special cards outrank everything
// and the numeric order below them.
func TestTrickStrengthOrder(t *testing.T) {
	// Espada > basto > 7 swords > 7 coins > any 3.
	order := []Card{CardAceSwords, CardAceClubs, CardSevenSwords, CardSevenCoins, 3}
	for i := 0; i < len(order)-1; i++ {
		if order[i].TrickStrength() <= order[i+1].TrickStrength() {
			t.Errorf("card %d should outrank card %d", order[i], order[i+1])
		}
	}

	// 3 beats 2 beats plain ace beats rey beats caballo beats sota.
	descending := []Card{3, 2, 1, 10, 9, 8}
	for i := 0; i < len(descending)-1; i++ {
		if descending[i].TrickStrength() <= descending[i+1].TrickStrength() {
			t.Errorf("card %d should outrank card %d", descending[i], descending[i+1])
		}
	}

	// The plain aces (coins, cups) are equals, weaker than the manillas.
	if Card(1).TrickStrength() != Card(11).TrickStrength() {
		t.Error("1 of Coins and 1 of Cups should tie")
	}
	if Card(1).TrickStrength() >= CardAceClubs.TrickStrength() {
		t.Error("plain ace should not reach the basto")
	}

	// Same rank across suits draws: 2 of Coins vs 2 of Cups.
	if Card(2).TrickStrength() != Card(12).TrickStrength() {
		t.Error("2 of Coins vs 2 of Cups should be a draw")
	}
}

// TestEnvidoValue verifies that face cards count zero.
func TestEnvidoValue(t *testing.T) {
	for _, c := range []Card{8, 9, 10, 18, 40} {
		if got := c.EnvidoValue(); got != 0 {
			t.Errorf("face card %d envido value: want 0, got %d", c, got)
		}
	}
	if got := Card(7).EnvidoValue(); got != 7 {
		t.Errorf("7 of Coins envido value: want 7, got %d", got)
	}
}

// TestEnvidoScore covers the reference hands.
func TestEnvidoScore(t *testing.T) {
	cases := []struct {
		name  string
		cards []Card
		want  uint8
	}{
		{"three suits, faces count zero", []Card{18, 28, 5}, 5},
		{"two matching faces", []Card{8, 9}, 20},
		{"two plus three same suit", []Card{2, 3}, 25},
		{"best pair of three", []Card{7, 6, 25}, 33},
		{"single card", []Card{4}, 4},
		{"no cards", nil, 0},
	}
	for _, tc := range cases {
		got, err := EnvidoScore(tc.cards)
		if err != nil {
			t.Fatalf("%s: unexpected %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: want %d, got %d", tc.name, tc.want, got)
		}
	}

	if _, err := EnvidoScore([]Card{CardMasked}); err != ErrInvalidCard {
		t.Errorf("masked card in score: want ErrInvalidCard, got %v", err)
	}
}

// TestNewDeck verifies 40 distinct cards and no zero.
func TestNewDeck(t *testing.T) {
	d := NewDeck()
	seen := map[Card]bool{}
	for _, c := range d {
		if err := c.Validate(); err != nil {
			t.Fatalf("deck contains invalid card %d", c)
		}
		if seen[c] {
			t.Fatalf("deck contains duplicate card %d", c)
		}
		seen[c] = true
	}
	if len(seen) != DeckSize {
		t.Fatalf("deck size: want %d, got %d", DeckSize, len(seen))
	}
}
