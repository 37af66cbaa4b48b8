// Package cryptoutil encrypts secrets stored alongside business records, such as
// aggregator bearer tokens, with AES-GCM and support for key rotation.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Encryptor encrypts and decrypts values bound to associated data. A ciphertext
// only decrypts with the same associated data it was sealed with.
type Encryptor interface {
	Encrypt(associatedData, plaintext []byte) (string, error)
	Decrypt(associatedData []byte, ciphertext string) ([]byte, error)
}

const (
	cipherPrefixV1 = "v1:"
	noopPrefix     = "noop:"
)

var (
	// ErrNoKeys is returned by ParseKeys for an empty key list.
	ErrNoKeys = errors.New("at least one encryption key is required")
	// ErrDecrypt is returned when no configured key opens a ciphertext.
	ErrDecrypt = errors.New("unable to decrypt value with any configured key")
)

// AESGCMEncryptor seals with the current key and opens with the current key or
// any past key, so keys can be rotated without rewriting stored values.
type AESGCMEncryptor struct {
	current cipher.AEAD
	past    []cipher.AEAD
}

var _ Encryptor = (*AESGCMEncryptor)(nil)

// NewAESGCMEncryptor builds an encryptor. Keys must be 16 or 32 bytes.
func NewAESGCMEncryptor(current []byte, past ...[]byte) (*AESGCMEncryptor, error) {
	cur, err := newAEAD(current)
	if err != nil {
		return nil, err
	}
	e := &AESGCMEncryptor{current: cur}
	for i, k := range past {
		aead, err := newAEAD(k)
		if err != nil {
			return nil, fmt.Errorf("past key %d: %w", i, err)
		}
		e.past = append(e.past, aead)
	}
	return e, nil
}

// ParseKeys decodes a comma-separated list of unpadded URL-safe base64 keys.
// The first key is current; the rest are accepted for decryption only.
func ParseKeys(s string) (*AESGCMEncryptor, error) {
	var keys [][]byte
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part, "="))
		if err != nil {
			return nil, fmt.Errorf("decode key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	return NewAESGCMEncryptor(keys[0], keys[1:]...)
}

// GenerateKey returns a random 16-byte key encoded for ParseKeys.
func GenerateKey() (string, error) {
	key := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 16 && len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 16 or 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with a random nonce and returns a versioned base64 string.
func (e *AESGCMEncryptor) Encrypt(associatedData, plaintext []byte) (string, error) {
	nonce := make([]byte, e.current.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	// nonce||ciphertext
	sealed := e.current.Seal(nonce, nonce, plaintext, associatedData)
	return cipherPrefixV1 + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value created by Encrypt. Noop-encrypted values are accepted
// so records written before a key was configured stay readable.
func (e *AESGCMEncryptor) Decrypt(associatedData []byte, ciphertext string) ([]byte, error) {
	if strings.HasPrefix(ciphertext, noopPrefix) {
		return NoopEncryptor{}.Decrypt(associatedData, ciphertext)
	}
	if !strings.HasPrefix(ciphertext, cipherPrefixV1) {
		prefix := ciphertext
		if len(prefix) > 10 {
			prefix = prefix[:10]
		}
		return nil, fmt.Errorf("unknown ciphertext version (prefix: %s)", prefix)
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext[len(cipherPrefixV1):])
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	for _, aead := range append([]cipher.AEAD{e.current}, e.past...) {
		n := aead.NonceSize()
		if len(data) < n {
			return nil, errors.New("ciphertext too short")
		}
		if pt, openErr := aead.Open(nil, data[:n], data[n:], associatedData); openErr == nil {
			return pt, nil
		}
	}
	return nil, ErrDecrypt
}

// NoopEncryptor is useful for tests and local development; it stores plaintext with a prefix marker.
type NoopEncryptor struct{}

var _ Encryptor = NoopEncryptor{}

// Encrypt implements Encryptor.
func (NoopEncryptor) Encrypt(_, plaintext []byte) (string, error) {
	return noopPrefix + base64.StdEncoding.EncodeToString(plaintext), nil
}

// Decrypt implements Encryptor.
func (NoopEncryptor) Decrypt(_ []byte, ciphertext string) ([]byte, error) {
	if !strings.HasPrefix(ciphertext, noopPrefix) {
		return nil, errors.New("invalid noop ciphertext")
	}
	return base64.StdEncoding.DecodeString(ciphertext[len(noopPrefix):])
}

// AggregatorTokenAAD binds an aggregator bearer token ciphertext to its row.
func AggregatorTokenAAD(aggregatorID string) []byte {
	return []byte("aggregators/" + aggregatorID + "/bearer_token")
}
