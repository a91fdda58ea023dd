// Package crypto provides whole-document encryption for connection parameters.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
)

// ErrInvalidSecret is returned when the operator secret is empty.
var ErrInvalidSecret = errors.New("invalid encryption secret: must not be empty")

const (
	// keySalt is a fixed application-specific salt so the same operator
	// secret always derives the same key without storing the key itself.
	keySalt = "connector-engine-params"
	// keyIterations is the PBKDF2 iteration count.
	keyIterations = 100_000
	// keyLength is the derived AES-256 key length in bytes.
	keyLength = 32
)

// DeriveKey derives a stable 32-byte key from an operator secret using
// PBKDF2-SHA256 with a fixed salt and high iteration count.
func DeriveKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), []byte(keySalt), keyIterations, keyLength, sha256.New)
}

// ParamsCipher encrypts and decrypts whole connection-parameter documents
// with AES-256-GCM. The token format is base64(nonce || ciphertext || tag),
// self-contained and safe to store as an opaque string.
//
// Encryption is globally toggled: when disabled, both directions are
// canonical-JSON passthrough. This is the single control point for the
// toggle; flipping it is a one-way migration concern — existing rows are
// not re-encrypted.
type ParamsCipher struct {
	gcm     cipher.AEAD
	enabled bool
}

// NewParamsCipher creates a cipher from an operator secret.
// When enabled is false the secret may be empty and all operations are
// identity transforms over canonical JSON.
func NewParamsCipher(secret string, enabled bool) (*ParamsCipher, error) {
	if !enabled {
		return &ParamsCipher{enabled: false}, nil
	}
	if secret == "" {
		return nil, ErrInvalidSecret
	}

	block, err := aes.NewCipher(DeriveKey(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &ParamsCipher{gcm: gcm, enabled: true}, nil
}

// Enabled reports whether encryption is active.
func (c *ParamsCipher) Enabled() bool {
	return c.enabled
}

// EncryptDocument serializes the parameter document to canonical JSON and
// authenticated-encrypts it. The returned token is opaque to callers.
func (c *ParamsCipher) EncryptDocument(params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	plaintext, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}
	if !c.enabled {
		return string(plaintext), nil
	}
	return c.seal(plaintext)
}

// DecryptDocument inverts EncryptDocument. Tampered or corrupted tokens and
// key mismatches fail with apperrors.ErrDecryptionFailed. If the decrypted
// bytes are not a JSON object (legacy rows written as raw text), the
// plaintext is surfaced under the "raw" key rather than discarded.
func (c *ParamsCipher) DecryptDocument(token string) (map[string]any, error) {
	var plaintext []byte
	if c.enabled {
		opened, err := c.open(token)
		if err != nil {
			return nil, err
		}
		plaintext = opened
	} else {
		plaintext = []byte(token)
	}

	var params map[string]any
	if err := json.Unmarshal(plaintext, &params); err != nil {
		return map[string]any{"raw": string(plaintext)}, nil
	}
	return params, nil
}

func (c *ParamsCipher) seal(plaintext []byte) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends ciphertext and tag to nonce: nonce || ciphertext || tag.
	sealed := c.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *ParamsCipher) open(token string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode failed", apperrors.ErrDecryptionFailed)
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize+c.gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", apperrors.ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", apperrors.ErrDecryptionFailed)
	}
	return plaintext, nil
}
