package custody

import "encoding/binary"

// disclosureTag is the fixed domain literal prefixed to every
// disclosure message. Field order after the tag is player identity,
// match identity, deal nonce, then each card as a single byte. The
// order is part of the signed format and must not be rearranged.
const disclosureTag = "truco/v1/card-disclosure"

// MaxDisclosedCards bounds a single disclosure.
const MaxDisclosedCards = 3

// DisclosureDigest produces the exact message a player signs to prove
// authorship of a card reveal. It covers the revealer's identity, the
// match, the deal nonce and 1 to MaxDisclosedCards card bytes.
func DisclosureDigest(player, matchID string, dealNonce uint32, cards []byte) ([]byte, error) {
	if len(cards) == 0 || len(cards) > MaxDisclosedCards {
		return nil, ErrInvalidCardCount
	}
	var nonce [4]byte
	binary.BigEndian.PutUint32(nonce[:], dealNonce)
	return keccak256(
		[]byte(disclosureTag),
		[]byte(player),
		[]byte(matchID),
		nonce[:],
		cards,
	), nil
}
