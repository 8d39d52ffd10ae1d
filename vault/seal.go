package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const minDeviceKeyLen = 16

// hkdfInfo binds derived keys to this use; rotating it invalidates every
// sealed credential.
const hkdfInfo = "tenauth/vault/v1"

// ErrSealCorrupt is returned when a sealed blob fails authentication or is
// too short to carry a nonce.
var ErrSealCorrupt = errors.New("sealed credential corrupt")

// Sealer authenticates-and-encrypts credential blobs at rest. The device
// key is expected to come from a platform keystore; this package never
// persists it.
type Sealer struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// NewSealer derives a sealing key from deviceKey via HKDF-SHA256 and returns
// a chacha20poly1305 sealer. deviceKey must be at least 16 bytes.
func NewSealer(deviceKey []byte) (*Sealer, error) {
	if len(deviceKey) < minDeviceKeyLen {
		return nil, fmt.Errorf("device key too short: need at least %d bytes", minDeviceKeyLen)
	}

	derived := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, deviceKey, nil, []byte(hkdfInfo)), derived); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("init sealer: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext under a fresh random nonce. Output layout is
// nonce || ciphertext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal. Tampered or truncated input yields
// [ErrSealCorrupt].
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, ErrSealCorrupt
	}

	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrSealCorrupt
	}
	return plaintext, nil
}
