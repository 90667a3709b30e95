package custody

import (
	"encoding/hex"
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
	"go.dedis.ch/kyber/v4/util/key"
)

var suite = suites.MustFind("Ed25519")

// Identity is a seat's public identity: the hex encoding of its
// schnorr public key. It doubles as the player field of disclosure
// digests, so it is stable for the lifetime of a key pair.
type Identity = string

// Signer holds one party's key pair and signs disclosure digests.
type Signer struct {
	private kyber.Scalar
	public  kyber.Point
}

// NewSigner generates a fresh key pair.
func NewSigner() *Signer {
	pair := key.NewKeyPair(suite)
	return &Signer{private: pair.Private, public: pair.Public}
}

// Sign signs a disclosure digest.
func (s *Signer) Sign(digest []byte) ([]byte, error) {
	return schnorr.Sign(suite, s.private, digest)
}

// Public returns the signer's public key.
func (s *Signer) Public() kyber.Point { return s.public }

// Identity returns the signer's hex identity.
func (s *Signer) Identity() Identity { return IdentityOf(s.public) }

// IdentityOf returns the hex identity of a public key.
func IdentityOf(p kyber.Point) Identity {
	b, err := p.MarshalBinary()
	if err != nil {
		// Ed25519 points always marshal; a failure here is a
		// programming-contract violation, not a runtime condition.
		panic(fmt.Sprintf("custody: marshal public key: %v", err))
	}
	return hex.EncodeToString(b)
}

// ParseIdentity decodes a hex identity back into a public key.
func ParseIdentity(id Identity) (kyber.Point, error) {
	b, err := hex.DecodeString(id)
	if err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return p, nil
}

// Verifier checks disclosure signatures against a card's owner, with
// a designated neutral oracle allowed to co-sign in the owner's
// stead ("I vouch this is what was sent").
type Verifier struct {
	owner  kyber.Point
	oracle kyber.Point // may be nil when no oracle is designated
}

// NewVerifier builds a verifier for one owner. oracle may be nil.
func NewVerifier(owner, oracle kyber.Point) *Verifier {
	return &Verifier{owner: owner, oracle: oracle}
}

// VerifyDisclosure accepts sig if it verifies under the owner's key
// or, failing that, under the oracle's. Anything else is
// ErrInvalidSignature.
func (v *Verifier) VerifyDisclosure(digest, sig []byte) error {
	if v.owner != nil && schnorr.Verify(suite, v.owner, digest, sig) == nil {
		return nil
	}
	if v.oracle != nil && schnorr.Verify(suite, v.oracle, digest, sig) == nil {
		return nil
	}
	return ErrInvalidSignature
}
