package custody

import (
	"errors"
	"testing"
)

func TestSignAndVerifyOwner(t *testing.T) {
	owner := NewSigner()
	digest, err := DisclosureDigest(owner.Identity(), "match-1", 1, []byte{27})
	if err != nil {
		t.Fatal(err)
	}
	sig, err := owner.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(owner.Public(), nil)
	if err := v.VerifyDisclosure(digest, sig); err != nil {
		t.Fatalf("owner signature should verify: %v", err)
	}
}

func TestVerifyOracleFallback(t *testing.T) {
	owner := NewSigner()
	oracle := NewSigner()
	digest, err := DisclosureDigest(owner.Identity(), "match-1", 1, []byte{27})
	if err != nil {
		t.Fatal(err)
	}
	sig, err := oracle.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(owner.Public(), oracle.Public())
	if err := v.VerifyDisclosure(digest, sig); err != nil {
		t.Fatalf("oracle co-signature should verify: %v", err)
	}
}

func TestVerifyRejectsThirdParty(t *testing.T) {
	owner := NewSigner()
	oracle := NewSigner()
	stranger := NewSigner()
	digest, err := DisclosureDigest(owner.Identity(), "match-1", 1, []byte{27})
	if err != nil {
		t.Fatal(err)
	}
	sig, err := stranger.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(owner.Public(), oracle.Public())
	if err := v.VerifyDisclosure(digest, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("want ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	owner := NewSigner()
	digest, err := DisclosureDigest(owner.Identity(), "match-1", 1, []byte{27})
	if err != nil {
		t.Fatal(err)
	}
	sig, err := owner.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	tampered, err := DisclosureDigest(owner.Identity(), "match-1", 2, []byte{27})
	if err != nil {
		t.Fatal(err)
	}
	v := NewVerifier(owner.Public(), nil)
	if err := v.VerifyDisclosure(tampered, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("want ErrInvalidSignature, got %v", err)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	s := NewSigner()
	id := s.Identity()
	p, err := ParseIdentity(id)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Equal(s.Public()) {
		t.Fatal("parsed identity should equal the original public key")
	}
	if _, err := ParseIdentity("not hex"); err == nil {
		t.Fatal("malformed identity should be rejected")
	}
}
