// Package custody implements the card-custody primitives: a keccak
// hash-chain keystream, the self-inverse XOR stream cipher applied to
// card bytes, disclosure digests binding a reveal to a player, match
// and deal, and schnorr signature verification with an oracle
// fallback. Together they let two distrusting peers hide a dealt deck
// and later prove every disclosed card.
package custody

import (
	"errors"

	"golang.org/x/crypto/sha3"
)

// KeystreamBlockSize is the output width of one hash-chain block.
const KeystreamBlockSize = 32

var (
	// ErrInsufficientKeyMaterial rejects encryption with a keystream
	// shorter than the payload.
	ErrInsufficientKeyMaterial = errors.New("keystream shorter than payload")

	// ErrInvalidCardCount rejects disclosure digests over zero or
	// more than three cards.
	ErrInvalidCardCount = errors.New("disclosure must cover 1 to 3 cards")

	// ErrInvalidSignature rejects a disclosure signed by neither the
	// card owner nor the oracle.
	ErrInvalidSignature = errors.New("invalid disclosure signature")
)

// keccak256 hashes data with the legacy Keccak-256 permutation (the
// variant the cross-implementation signed messages use, not the
// padded NIST SHA3-256).
func keccak256(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	return h.Sum(nil)
}

// DeriveKeystream expands secret into at least length bytes, one
// 32-byte block per 32 bytes requested. Block i is
// keccak256(secret || byte(i)): the sequence index is appended as a
// single byte, not its decimal string form. This exact encoding is
// what other implementations of the protocol derive, so it must not
// change. The derivation is deterministic: the same secret and
// length always produce identical output.
func DeriveKeystream(secret []byte, length int) []byte {
	if length <= 0 {
		return nil
	}
	blocks := (length + KeystreamBlockSize - 1) / KeystreamBlockSize
	out := make([]byte, 0, blocks*KeystreamBlockSize)
	for i := 0; i < blocks; i++ {
		out = append(out, keccak256(secret, []byte{byte(i)})...)
	}
	return out
}

// EncryptCards XORs payload byte-wise against keystream. The cipher
// is self-inverse: applying it twice with the same keystream yields
// the original payload. The keystream must cover the payload.
func EncryptCards(payload, keystream []byte) ([]byte, error) {
	if len(keystream) < len(payload) {
		return nil, ErrInsufficientKeyMaterial
	}
	out := make([]byte, len(payload))
	for i, b := range payload {
		out[i] = b ^ keystream[i]
	}
	return out, nil
}

// DecryptCards is EncryptCards under its other name; the stream
// cipher does not distinguish directions.
func DecryptCards(payload, keystream []byte) ([]byte, error) {
	return EncryptCards(payload, keystream)
}
