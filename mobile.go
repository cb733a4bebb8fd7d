package jobboard

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// MobileCipher encrypts mobile numbers at rest with AES-256-CBC.
// Ciphertext is stored as "<iv hex>:<payload hex>" with a random IV per
// value, so equal numbers do not produce equal ciphertexts.
type MobileCipher struct {
	key []byte
}

// NewMobileCipher expects a 32-byte key
func NewMobileCipher(key []byte) (*MobileCipher, error) {
	if len(key) != 32 {
		return nil, goerrors.New("mobile encryption key must be 32 bytes", goerrors.CategoryBadInput)
	}
	return &MobileCipher{key: key}, nil
}

// NormalizeMobile validates and formats a phone number to E.164 before
// it gets encrypted. The default region is used for numbers without a
// country prefix.
func NormalizeMobile(raw, defaultRegion string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid mobile number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid mobile number", goerrors.CategoryValidation)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Encrypt returns the iv:ciphertext hex encoding of the given number
func (m *MobileCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(m.key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt
func (m *MobileCipher) Decrypt(encoded string) (string, error) {
	parts := strings.SplitN(encoded, ":", 2)
	if len(parts) != 2 {
		return "", goerrors.New("malformed encrypted mobile number", goerrors.CategoryBadInput)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", err
	}

	payload, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", err
	}

	if len(iv) != aes.BlockSize || len(payload)%aes.BlockSize != 0 {
		return "", goerrors.New("malformed encrypted mobile number", goerrors.CategoryBadInput)
	}

	block, err := aes.NewCipher(m.key)
	if err != nil {
		return "", err
	}

	out := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, payload)

	return string(pkcs7Unpad(out)), nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	pad := make([]byte, n)
	for i := range pad {
		pad[i] = byte(n)
	}
	return append(b, pad...)
}

func pkcs7Unpad(b []byte) []byte {
	if len(b) == 0 {
		return b
	}
	n := int(b[len(b)-1])
	if n == 0 || n > len(b) {
		return b
	}
	return b[:len(b)-n]
}
