package custody

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// DeckSize matches the engine's 40-card Spanish deck.
const DeckSize = 40

// SecretSize is the width of a deal secret.
const SecretSize = 32

// NewDealSecret draws a fresh random secret for one deal's custody.
func NewDealSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("draw deal secret: %w", err)
	}
	return secret, nil
}

// Deck is one deal's encrypted deck as held by the non-shuffling
// peer: 40 opaque bytes, committed to before any card is dealt. The
// shuffler can open any position by releasing that position's key
// byte; everyone can then check encrypted[i] XOR key == card.
type Deck struct {
	Encrypted []byte
}

// ShuffleAndEncrypt builds the 40-card deck, permutes it with
// randomness drawn from the secret's keystream and encrypts it
// byte-wise with the first 40 keystream bytes. The whole construction
// is deterministic in the secret, so the shuffler can re-derive every
// per-position key from the secret alone.
func ShuffleAndEncrypt(secret []byte) (*Deck, error) {
	// First DeckSize bytes encrypt; the tail feeds the shuffle.
	stream := DeriveKeystream(secret, DeckSize+2*DeckSize)

	cards := make([]byte, DeckSize)
	for i := range cards {
		cards[i] = byte(i + 1)
	}

	// Fisher-Yates driven by keystream material past the cipher bytes.
	entropy := stream[DeckSize:]
	off := 0
	for i := DeckSize - 1; i > 0; i-- {
		j := int(binary.BigEndian.Uint16(entropy[off:off+2])) % (i + 1)
		off += 2
		cards[i], cards[j] = cards[j], cards[i]
	}

	enc, err := EncryptCards(cards, stream[:DeckSize])
	if err != nil {
		return nil, err
	}
	return &Deck{Encrypted: enc}, nil
}

// PositionKey re-derives the decryption key byte for one position.
func PositionKey(secret []byte, pos int) (byte, error) {
	if pos < 0 || pos >= DeckSize {
		return 0, fmt.Errorf("deck position %d out of range", pos)
	}
	return DeriveKeystream(secret, DeckSize)[pos], nil
}

// Open decrypts the card at pos with its position key.
func (d *Deck) Open(pos int, key byte) (byte, error) {
	if pos < 0 || pos >= len(d.Encrypted) {
		return 0, fmt.Errorf("deck position %d out of range", pos)
	}
	return d.Encrypted[pos] ^ key, nil
}

// VerifyOpening checks that card really is the content of pos under
// key. Reveals carry a disclosure signature on top of this check.
func (d *Deck) VerifyOpening(pos int, key, card byte) bool {
	got, err := d.Open(pos, key)
	return err == nil && got == card
}
