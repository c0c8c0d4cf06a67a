// Package credentials provides one-way password hashing and authenticated
// symmetric encryption for auxiliary secrets (e.g. stored third-party API keys).
// It makes no authorization decisions: callers get yes/no answers and nothing else.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// Hashing parameters are fixed constants shared between HashPassword and
// VerifyPassword. Changing any of them invalidates every stored hash, so a
// change requires versioning the encoded format.
const (
	saltLength          = 16
	keyLength           = 64
	kdfIterations       = 100_000
	encryptionKeyLength = 32 // AES-256
)

// keyDerivationSalt anchors the process-wide encryption key derivation.
// It is not secret; the configured secret is.
const keyDerivationSalt = "care-auth-secretbox"

// HashPassword derives a salted PBKDF2-SHA512 hash of the given password and
// encodes it as "salt_hex:key_hex". A fresh random salt is generated per call,
// so hashing the same password twice yields different encodings.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "[HashPassword] rand.Read")
	}
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, keyLength, sha512.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword re-derives the key from the candidate password and the stored
// salt and compares it against the stored key in constant time. Any malformed
// encoding fails closed: the caller cannot distinguish a corrupt record from a
// wrong password.
func VerifyPassword(password, encodedHash string) bool {
	saltHex, keyHex, ok := strings.Cut(encodedHash, ":")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != saltLength {
		return false
	}
	storedKey, err := hex.DecodeString(keyHex)
	if err != nil || len(storedKey) != keyLength {
		return false
	}
	derivedKey := pbkdf2.Key([]byte(password), salt, kdfIterations, keyLength, sha512.New)
	return subtle.ConstantTimeCompare(derivedKey, storedKey) == 1
}

// IsEncodedHash reports whether the stored value parses as a salt:key pair.
// Used to flag corrupt credential records for data-integrity logging without
// changing the caller-visible outcome.
func IsEncodedHash(encodedHash string) bool {
	saltHex, keyHex, ok := strings.Cut(encodedHash, ":")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != saltLength {
		return false
	}
	key, err := hex.DecodeString(keyHex)
	return err == nil && len(key) == keyLength
}

// SecretBox encrypts and decrypts short secrets with AES-256-GCM under a
// process-wide key derived once from a configured secret. The key never leaves
// the box and is never logged or serialized.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives the encryption key from the configured secret and
// prepares the AEAD. The secret must be non-empty.
func NewSecretBox(secret string) (*SecretBox, error) {
	if secret == "" {
		return nil, errors.New("[NewSecretBox] encryption secret is required")
	}
	key := pbkdf2.Key([]byte(secret), []byte(keyDerivationSalt), kdfIterations, encryptionKeyLength, sha512.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSecretBox] aes.NewCipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSecretBox] cipher.NewGCM")
	}
	return &SecretBox{aead: aead}, nil
}

// Encrypt seals the plaintext with a fresh random nonce and returns an
// "iv_hex:tag_hex:ciphertext_hex" envelope.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "[SecretBox.Encrypt] rand.Read")
	}
	sealed := b.aead.Seal(nil, iv, []byte(plaintext), nil)

	// GCM appends the tag to the ciphertext; the envelope keeps them separate.
	tagStart := len(sealed) - b.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt parses the envelope, verifies the authentication tag and returns the
// plaintext. A missing field, bad hex, or failed tag check returns an error and
// never any partial plaintext.
func (b *SecretBox) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", errors.New("[SecretBox.Decrypt] malformed envelope")
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != b.aead.NonceSize() {
		return "", errors.New("[SecretBox.Decrypt] malformed iv")
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != b.aead.Overhead() {
		return "", errors.New("[SecretBox.Decrypt] malformed auth tag")
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", errors.New("[SecretBox.Decrypt] malformed ciphertext")
	}

	plaintext, err := b.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", errors.New("[SecretBox.Decrypt] authentication failed")
	}
	return string(plaintext), nil
}
