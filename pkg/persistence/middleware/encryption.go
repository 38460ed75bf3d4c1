package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
)

// envelopeHeader prefixes every encrypted rendition.
var envelopeHeader = []byte("DMENC1\n")

// EncryptionConfig holds the AES-256 keys of the store.
type EncryptionConfig struct {
	// ActiveKey seals every new rendition.
	ActiveKey []byte

	// FallbackKeys are rotated-out keys, still tried when opening.
	FallbackKeys [][]byte
}

// Validate checks key sizes.
func (c EncryptionConfig) Validate() error {
	if len(c.ActiveKey) != 32 {
		return errors.New("active key must be 32 bytes (AES-256)")
	}
	for i, k := range c.FallbackKeys {
		if len(k) != 32 {
			return fmt.Errorf("fallback key %d must be 32 bytes (AES-256)", i)
		}
	}
	return nil
}

type encryptionMiddleware struct {
	next ports.Storage
	seal cipher.AEAD
	open []cipher.AEAD // seal first, then fallbacks
}

// NewEncryptionMiddleware seals renditions with AES-GCM before they reach the
// wrapped store. It panics on an invalid config; call Validate first when keys
// come from user input.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if err := config.Validate(); err != nil {
		panic(err.Error())
	}
	aeads := make([]cipher.AEAD, 0, 1+len(config.FallbackKeys))
	for _, key := range append([][]byte{config.ActiveKey}, config.FallbackKeys...) {
		aead, err := newAEAD(key)
		if err != nil {
			panic(err.Error())
		}
		aeads = append(aeads, aead)
	}
	return func(next ports.Storage) ports.Storage {
		return &encryptionMiddleware{next: next, seal: aeads[0], open: aeads}
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Save writes header, nonce and sealed data.
func (m *encryptionMiddleware) Save(ctx context.Context, name string, format domain.Format, data []byte) (domain.StoredFile, error) {
	nonce := make([]byte, m.seal.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to encrypt %s: %w", name, err)
	}

	out := make([]byte, 0, len(envelopeHeader)+len(nonce)+len(data)+m.seal.Overhead())
	out = append(out, envelopeHeader...)
	out = append(out, nonce...)
	out = m.seal.Seal(out, nonce, data, nil)
	return m.next.Save(ctx, name, format, out)
}

func (m *encryptionMiddleware) Load(ctx context.Context, path string) ([]byte, error) {
	stored, err := m.next.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	sealed, ok := bytes.CutPrefix(stored, envelopeHeader)
	if !ok {
		return nil, fmt.Errorf("%s is not an encrypted rendition", path)
	}
	for _, aead := range m.open {
		n := aead.NonceSize()
		if len(sealed) < n {
			break
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, fmt.Errorf("failed to decrypt %s: %w", path, ErrUndecryptable)
}

// ErrUndecryptable is returned when no configured key opens a rendition.
var ErrUndecryptable = errors.New("no configured key opens the data")
