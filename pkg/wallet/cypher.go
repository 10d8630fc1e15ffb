package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"golang.org/x/crypto/scrypt"
)

const saltSize = 32

// ScryptN is the scrypt cost parameter used to stretch passphrases.
var ScryptN = 1 << 20

// EncryptMnemonic seals a valid mnemonic with AES-256-GCM under a key
// stretched out of passphrase. The output is base64(salt|nonce|sealed).
func EncryptMnemonic(mnemonic, passphrase string) (string, error) {
	if len(mnemonic) <= 0 {
		return "", ErrNullPlainText
	}
	if len(passphrase) <= 0 {
		return "", ErrNullPassphrase
	}
	if !hd.IsMnemonicValid(mnemonic) {
		return "", hd.ErrInvalidMnemonic
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	out := append(salt, nonce...)
	out = gcm.Seal(out, nonce, []byte(mnemonic), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptMnemonic opens a cypher made by EncryptMnemonic. A wrong passphrase
// results in ErrInvalidPassphrase.
func DecryptMnemonic(cypherText, passphrase string) (string, error) {
	if len(cypherText) <= 0 {
		return "", ErrNullCypherText
	}
	if len(passphrase) <= 0 {
		return "", ErrNullPassphrase
	}
	data, err := base64.StdEncoding.DecodeString(cypherText)
	if err != nil {
		return "", ErrInvalidCypherText
	}
	if len(data) <= saltSize {
		return "", fmt.Errorf("%w: cypher too short", ErrInvalidCypherText)
	}

	salt, data := data[:saltSize], data[saltSize:]
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: cypher too short", ErrInvalidCypherText)
	}

	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidPassphrase
	}
	return string(plaintext), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, ScryptN, 8, 1, 32)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
