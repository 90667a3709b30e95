package custody

import (
	"bytes"
	"errors"
	"testing"
)

func TestDisclosureDigestStable(t *testing.T) {
	a, err := DisclosureDigest("player-a", "match-1", 7, []byte{21, 31})
	if err != nil {
		t.Fatal(err)
	}
	b, err := DisclosureDigest("player-a", "match-1", 7, []byte{21, 31})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same inputs should digest identically")
	}
	if len(a) != KeystreamBlockSize {
		t.Fatalf("digest width: want %d, got %d", KeystreamBlockSize, len(a))
	}
}

func TestDisclosureDigestBindsEveryField(t *testing.T) {
	base, err := DisclosureDigest("player-a", "match-1", 7, []byte{21})
	if err != nil {
		t.Fatal(err)
	}
	variants := [][]byte{}
	for _, v := range []struct {
		player, match string
		nonce         uint32
		cards         []byte
	}{
		{"player-b", "match-1", 7, []byte{21}},
		{"player-a", "match-2", 7, []byte{21}},
		{"player-a", "match-1", 8, []byte{21}},
		{"player-a", "match-1", 7, []byte{22}},
		{"player-a", "match-1", 7, []byte{21, 31}},
	} {
		d, err := DisclosureDigest(v.player, v.match, v.nonce, v.cards)
		if err != nil {
			t.Fatal(err)
		}
		variants = append(variants, d)
	}
	for i, d := range variants {
		if bytes.Equal(base, d) {
			t.Errorf("variant %d should change the digest", i)
		}
	}
}

func TestDisclosureDigestCardCount(t *testing.T) {
	if _, err := DisclosureDigest("p", "m", 0, nil); !errors.Is(err, ErrInvalidCardCount) {
		t.Fatalf("zero cards: want ErrInvalidCardCount, got %v", err)
	}
	if _, err := DisclosureDigest("p", "m", 0, []byte{1, 2, 3, 4}); !errors.Is(err, ErrInvalidCardCount) {
		t.Fatalf("four cards: want ErrInvalidCardCount, got %v", err)
	}
	if _, err := DisclosureDigest("p", "m", 0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("three cards should be legal, got %v", err)
	}
}
