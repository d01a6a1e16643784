// Package cryptox holds the symmetric primitives used to keep session data
// encrypted at rest: a Codec bound to a key derived from a configured secret,
// its error type, and a couple of hashing and randomness helpers.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// keySalt is fixed so the same secret always yields the same key across
// process restarts; the secret itself is the only variable input.
var keySalt = []byte("docdesk/session-storage/v1")

// ErrDecryption is matched by every DecryptionError.
var ErrDecryption = errors.New("decryption failed")

// DecryptionError reports ciphertext that is malformed, was tampered with,
// was sealed under another key, or decrypts to nothing.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decryption failed: %s: %v", e.Reason, e.Err)
	}
	return "decryption failed: " + e.Reason
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecryption) true for any DecryptionError.
func (e *DecryptionError) Is(target error) bool { return target == ErrDecryption }

// DeriveKey stretches a secret into a 32-byte AES-256 key with Argon2id.
// The result depends only on secret and salt.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Codec encrypts and decrypts strings with AES-GCM under a single key.
// It is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the key from secret and prepares the AEAD.
func NewCodec(secret string) (*Codec, error) {
	return NewCodecWithKey(DeriveKey([]byte(secret), keySalt))
}

// NewCodecWithKey builds a Codec from a raw 16, 24 or 32 byte key.
func NewCodecWithKey(key []byte) (*Codec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// base64(nonce || ciphertext).
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. An empty result is treated as failure: callers
// never receive "" as a successfully decrypted value.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", &DecryptionError{Reason: "malformed encoding", Err: err}
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", &DecryptionError{Reason: "ciphertext too short"}
	}
	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed", Err: err}
	}
	if len(plaintext) == 0 {
		return "", &DecryptionError{Reason: "empty plaintext"}
	}
	return string(plaintext), nil
}

// EncryptJSON serializes v to JSON and encrypts it.
func (c *Codec) EncryptJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return c.Encrypt(string(b))
}

// DecryptJSON decrypts ciphertext and unmarshals it into v. A plaintext that
// is not valid JSON is reported as a DecryptionError, since a foreign key can
// never produce it.
func (c *Codec) DecryptJSON(ciphertext string, v any) error {
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plaintext), v); err != nil {
		return &DecryptionError{Reason: "unparseable payload", Err: err}
	}
	return nil
}

// Hash returns the hex-encoded SHA-256 digest of input.
func Hash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// GenerateRandomString returns n random bytes, hex-encoded.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
