package hd

import (
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// NewMnemonic generates a BIP39 mnemonic out of entropySize random bits.
func NewMnemonic(entropySize int) (string, error) {
	if entropySize < 128 || entropySize > 256 || entropySize%32 != 0 {
		return "", ErrInvalidEntropySize
	}
	entropy, err := bip39.NewEntropy(entropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// IsMnemonicValid ...
func IsMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

// SeedFromMnemonic validates the mnemonic and returns the BIP39 seed.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
