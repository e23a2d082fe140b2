package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	// KeySize is the required key length for AES-256
	KeySize = 32
	// NonceSize is the GCM nonce length prepended to every sealed token
	NonceSize = 12
)

// Codec encrypts and decrypts tokens with a fixed key.
// A Codec is safe for concurrent use; the key is never mutated.
type Codec struct {
	key    []byte
	random io.Reader
}

// NewCodec creates a codec for the given key
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, newError(KindKeyConstruction, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key)))
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Codec{key: k, random: rand.Reader}, nil
}

// WithRandom returns a copy of the codec drawing nonces from r
func (c *Codec) WithRandom(r io.Reader) *Codec {
	return &Codec{key: c.key, random: r}
}

// Encrypt seals token and returns base64(nonce || ciphertext || tag)
func (c *Codec) Encrypt(token string) (string, error) {
	return encrypt(token, c.key, c.random)
}

// Decrypt opens a value produced by Encrypt
func (c *Codec) Decrypt(encoded string) (string, error) {
	return Decrypt(encoded, c.key)
}

// Encrypt seals token with key using a fresh random nonce
func Encrypt(token string, key []byte) (string, error) {
	return encrypt(token, key, rand.Reader)
}

// Decrypt opens encoded with key
func Decrypt(encoded string, key []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", newError(KindDecodeFailure, err)
	}
	if len(raw) < NonceSize {
		return "", newError(KindDecodeFailure, fmt.Errorf("payload shorter than nonce (%d bytes)", len(raw)))
	}

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce, sealed := raw[:NonceSize], raw[NonceSize:]
	plain, err := aead.Open(sealed[:0], nonce, sealed, nil)
	if err != nil {
		return "", newError(KindAuthenticationFailure, err)
	}
	if !utf8.Valid(plain) {
		return "", newError(KindDecodeFailure, errors.New("plaintext is not valid UTF-8"))
	}
	return string(plain), nil
}

func encrypt(token string, key []byte, random io.Reader) (out string, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize, NonceSize+len(token)+aead.Overhead())
	if _, err := io.ReadFull(random, nonce); err != nil {
		return "", newError(KindNonceGeneration, err)
	}

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = newError(KindSealFailure, fmt.Errorf("%v", r))
		}
	}()

	// nonce is the prefix; Seal appends ciphertext and tag after it
	sealed := aead.Seal(nonce, nonce, []byte(token), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newError(KindKeyConstruction, err)
	}
	if len(key) != KeySize {
		return nil, newError(KindKeyConstruction, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key)))
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newError(KindKeyConstruction, err)
	}
	return aead, nil
}
