// Package crypto implements the room cipher behind the join handshake.
//
// A token is base64url(salt || nonce || sealed) where the AEAD key is derived
// from the room password with argon2id. Tokens never contain spaces, so they
// fit a single protocol field.
package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltSize = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var ErrDecrypt = errorString("token does not decrypt")

type errorString string

func (e errorString) Error() string { return string(e) }

// Cipher encrypts and decrypts handshake tokens under a room password.
// The zero value is ready to use.
type Cipher struct{}

func NewCipher() Cipher { return Cipher{} }

func (Cipher) Encrypt(password, plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.New(deriveKey(password, salt))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	buf := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = append(buf, sealed...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (Cipher) Decrypt(password, token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) < saltSize+chacha20poly1305.NonceSize {
		return "", ErrDecrypt
	}

	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+chacha20poly1305.NonceSize]
	sealed := raw[saltSize+chacha20poly1305.NonceSize:]

	aead, err := chacha20poly1305.New(deriveKey(password, salt))
	if err != nil {
		return "", ErrDecrypt
	}

	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}
