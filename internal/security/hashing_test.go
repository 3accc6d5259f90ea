package security

import (
	"testing"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(4)
	password := "Sup3rSecret"
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned empty")
	}
	if hash == password {
		t.Fatal("hash must not equal plaintext")
	}
	if !h.Verify(password, hash) {
		t.Fatal("Verify should succeed for matching password")
	}
}

func TestHasher_VerifyWrongPassword(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash("Sup3rSecret")
	if h.Verify("wrong", hash) {
		t.Fatal("Verify with wrong password should fail")
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(4)
	for _, bad := range []string{"", "not-a-bcrypt-hash", "$2a$xx$garbage"} {
		if h.Verify("Sup3rSecret", bad) {
			t.Errorf("Verify with malformed hash %q should return false", bad)
		}
	}
}

func TestHasher_SaltUniqueness(t *testing.T) {
	h := NewHasher(4)
	password := "Sup3rSecret"
	h1, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same plaintext should differ (random salt)")
	}
	if !h.Verify(password, h1) || !h.Verify(password, h2) {
		t.Fatal("both hashes should verify against the plaintext")
	}
}

func TestHasher_Cost(t *testing.T) {
	h := NewHasher(12)
	if h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	h0 := NewHasher(0)
	if h0.Cost < 4 {
		t.Errorf("zero cost should be clamped to at least MinCost, got %d", h0.Cost)
	}
	h99 := NewHasher(99)
	if h99.Cost > 31 {
		t.Errorf("excess cost should be clamped to MaxCost, got %d", h99.Cost)
	}
}
