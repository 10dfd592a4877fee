package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	nonceLength = 12 // bytes, GCM standard nonce
	tagLength   = 16 // bytes, GCM authentication tag
)

// fallbackSecret is hashed when no secret is configured. Records encrypted
// under it survive restarts, but the key is public knowledge.
const fallbackSecret = "fallback-receipt-secret"

// Vault encrypts receipt summaries at rest with AES-256-GCM. The envelope
// format is "nonce:ciphertext:tag", each segment base64-encoded.
type Vault struct {
	key    [32]byte
	logger *zap.Logger
}

func NewVault(secret string, logger *zap.Logger) *Vault {
	if secret == "" {
		logger.Warn("Encryption secret is not configured, using fallback key; set RECEIPT_ENC_KEY in production")
		secret = fallbackSecret
	}

	return &Vault{
		key:    sha256.Sum256([]byte(secret)),
		logger: logger,
	}
}

// Encrypt seals plaintext under a fresh random nonce.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the tag to the ciphertext; the envelope keeps it as its
	// own segment.
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(tag),
	}, ":"), nil
}

// Decrypt opens a "nonce:ciphertext:tag" envelope. Malformed envelopes
// (empty payload, missing segments, undecodable base64, wrong nonce length)
// return "" without error: callers treat that as "no summary available".
// A tag verification failure is returned as an error since it means the
// stored record was tampered with or the key changed.
func (v *Vault) Decrypt(envelope string) (string, error) {
	if envelope == "" {
		return "", nil
	}

	parts := strings.Split(envelope, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", nil
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceLength {
		return "", nil
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil
	}
	tag, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(tag) != tagLength {
		return "", nil
	}

	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt summary: %w", err)
	}

	return string(plaintext), nil
}
