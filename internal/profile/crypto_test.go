package profile

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	salt, err := newSalt()
	if err != nil {
		t.Fatalf("newSalt() error: %v", err)
	}
	s, err := newSealer([]byte("pw"), salt)
	if err != nil {
		t.Fatalf("newSealer() error: %v", err)
	}
	sealed, err := s.seal([]byte("hello"))
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}
	again, _ := s.seal([]byte("hello"))
	if bytes.Equal(sealed, again) {
		t.Error("expected a fresh nonce per seal")
	}
	plain, err := s.open(sealed)
	if err != nil {
		t.Fatalf("open() error: %v", err)
	}
	if string(plain) != "hello" {
		t.Errorf("expected hello, got %q", plain)
	}
}

func TestOpenWithOtherKeyFails(t *testing.T) {
	salt, _ := newSalt()
	a, _ := newSealer([]byte("a"), salt)
	b, _ := newSealer([]byte("b"), salt)
	sealed, _ := a.seal([]byte("data"))
	if _, err := b.open(sealed); err == nil {
		t.Error("expected failure with the wrong password")
	}
	if _, err := a.open([]byte("x")); err == nil {
		t.Error("expected failure for short ciphertext")
	}
}
