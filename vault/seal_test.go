package vault

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer(testDeviceKey)
	if err != nil {
		t.Fatalf("sealer init failed: %v", err)
	}

	plaintext := []byte(`{"email":"a@b.com","password":"x"}`)
	sealed, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if bytes.Contains(sealed, []byte("password")) {
		t.Fatal("sealed blob leaks plaintext")
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: %s", opened)
	}
}

func TestSealerRejectsTamperedBlob(t *testing.T) {
	s, err := NewSealer(testDeviceKey)
	if err != nil {
		t.Fatalf("sealer init failed: %v", err)
	}

	sealed, err := s.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff

	if _, err := s.Open(sealed); !errors.Is(err, ErrSealCorrupt) {
		t.Fatalf("expected ErrSealCorrupt, got %v", err)
	}
}

func TestSealerRejectsTruncatedBlob(t *testing.T) {
	s, err := NewSealer(testDeviceKey)
	if err != nil {
		t.Fatalf("sealer init failed: %v", err)
	}

	if _, err := s.Open([]byte("short")); !errors.Is(err, ErrSealCorrupt) {
		t.Fatalf("expected ErrSealCorrupt, got %v", err)
	}
}

func TestSealerRejectsShortDeviceKey(t *testing.T) {
	if _, err := NewSealer([]byte("too-short")); err == nil {
		t.Fatal("expected error for short device key")
	}
}

func TestSealerKeysAreIndependent(t *testing.T) {
	a, err := NewSealer(testDeviceKey)
	if err != nil {
		t.Fatalf("sealer init failed: %v", err)
	}
	b, err := NewSealer([]byte("ffffffffffffffffffffffffffffffff"))
	if err != nil {
		t.Fatalf("sealer init failed: %v", err)
	}

	sealed, err := a.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := b.Open(sealed); !errors.Is(err, ErrSealCorrupt) {
		t.Fatalf("expected cross-key open to fail, got %v", err)
	}
}
