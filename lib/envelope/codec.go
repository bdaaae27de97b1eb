package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jklemens/sKV/lib/store"
)

// --------------------------------------------------------------------------
// Constants and Errors
// --------------------------------------------------------------------------

const (
	// SaltLen is the number of random bytes appended to every plaintext
	// envelope before encryption.
	SaltLen = 32

	// IntegrityLen is the width of the base64-encoded SHA-512 digest that
	// precedes the salt.
	IntegrityLen = 88

	// trailerLen is what decode strips from the end of the decrypted
	// plaintext: the salt plus the single NUL that encode appends after it.
	trailerLen = SaltLen + 1
)

var (
	// ErrCiphertext is returned when decryption fails or the decrypted
	// bytes do not have the shape of an envelope.
	ErrCiphertext = errors.New("envelope: malformed ciphertext")

	// ErrIntegrity is returned when the envelope decrypts cleanly but its
	// integrity field does not match the body.
	ErrIntegrity = errors.New("envelope: integrity check failed")
)

// --------------------------------------------------------------------------
// Codec
// --------------------------------------------------------------------------

// Codec encrypts and decrypts record envelopes. It is stateless apart from
// the derived-key cache and safe for concurrent use.
type Codec struct {
	userName  string
	machineID string
	derived   *xsync.MapOf[string, keyMaterial]
}

// NewCodec creates a codec bound to the given user and machine identity.
// Records encoded by this codec can only be decoded by a codec constructed
// with the same identity.
func NewCodec(userName, machineID string) *Codec {
	return &Codec{
		userName:  userName,
		machineID: machineID,
		derived:   newKeyCache(),
	}
}

// Encode builds the plaintext envelope
//
//	tag(3) | valueText | base64(SHA512(tag|valueText))(88) | salt(32) | NUL
//
// and returns it encrypted with AES-256-CBC under the key and IV derived
// from dataKey. The salt is fresh per call, so repeated encodes of the same
// value yield different ciphertexts.
func (c *Codec) Encode(tag store.TypeTag, valueText string, dataKey string) ([]byte, error) {
	body := string(tag) + valueText

	sum := sha512.Sum512([]byte(body))
	integrity := base64.StdEncoding.EncodeToString(sum[:])

	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "envelope: salt generation failed")
	}

	plaintext := make([]byte, 0, len(body)+IntegrityLen+trailerLen+aes.BlockSize)
	plaintext = append(plaintext, body...)
	plaintext = append(plaintext, integrity...)
	plaintext = append(plaintext, salt...)
	// the original on-disk format encrypts one byte past the envelope, a
	// trailing NUL, and decode unconditionally strips salt+1 bytes
	plaintext = append(plaintext, 0)

	m := c.keysFor(dataKey)
	block, err := aes.NewCipher(m.key[:])
	if err != nil {
		return nil, errors.Wrap(err, "envelope: cipher setup failed")
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, m.iv[:]).CryptBlocks(ciphertext, padded)

	return ciphertext, nil
}

// Decode reverses Encode. It returns the type tag and value text of the
// envelope, ErrCiphertext when the bytes do not decrypt to an envelope
// shape, and ErrIntegrity when the integrity field disagrees with the body.
// Both failure modes are expected during replica voting and carry no cause
// detail beyond the sentinel.
func (c *Codec) Decode(ciphertext []byte, dataKey string) (store.TypeTag, string, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", "", ErrCiphertext
	}

	m := c.keysFor(dataKey)
	block, err := aes.NewCipher(m.key[:])
	if err != nil {
		return "", "", errors.Wrap(err, "envelope: cipher setup failed")
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, m.iv[:]).CryptBlocks(plaintext, ciphertext)

	plaintext, ok := pkcs7Unpad(plaintext, aes.BlockSize)
	if !ok {
		return "", "", ErrCiphertext
	}

	if len(plaintext) < trailerLen+store.TagLen+IntegrityLen {
		return "", "", ErrCiphertext
	}
	plaintext = plaintext[:len(plaintext)-trailerLen]

	split := len(plaintext) - IntegrityLen
	body, integrity := plaintext[:split], plaintext[split:]

	sum := sha512.Sum512(body)
	if base64.StdEncoding.EncodeToString(sum[:]) != string(integrity) {
		return "", "", ErrIntegrity
	}

	tag := store.TypeTag(body[:store.TagLen])
	if !tag.Valid() {
		return "", "", ErrCiphertext
	}

	return tag, string(body[store.TagLen:]), nil
}

// --------------------------------------------------------------------------
// PKCS#7 Padding
// --------------------------------------------------------------------------

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
