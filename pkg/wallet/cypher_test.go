package wallet

import (
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "flag output rich laptop hub lift list scout enjoy topic sister lab"

func init() {
	ScryptN = 1 << 10
}

func TestEncryptDecryptMnemonic(t *testing.T) {
	cypher, err := EncryptMnemonic(testMnemonic, "supersecurekey")
	require.NoError(t, err)

	again, err := EncryptMnemonic(testMnemonic, "supersecurekey")
	require.NoError(t, err)
	require.NotEqual(t, cypher, again)

	mnemonic, err := DecryptMnemonic(cypher, "supersecurekey")
	require.NoError(t, err)
	require.Equal(t, testMnemonic, mnemonic)

	_, err = DecryptMnemonic(cypher, "wrongkey")
	require.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestFailingEncryptMnemonic(t *testing.T) {
	tests := []struct {
		mnemonic   string
		passphrase string
		err        error
	}{
		{"", "supersecurekey", ErrNullPlainText},
		{testMnemonic, "", ErrNullPassphrase},
		{"not a mnemonic", "supersecurekey", hd.ErrInvalidMnemonic},
	}

	for _, tt := range tests {
		_, err := EncryptMnemonic(tt.mnemonic, tt.passphrase)
		require.ErrorIs(t, err, tt.err)
	}
}

func TestFailingDecryptMnemonic(t *testing.T) {
	tests := []struct {
		cypher     string
		passphrase string
		err        error
	}{
		{"", "supersecurekey", ErrNullCypherText},
		{"c2VjcmV0", "", ErrNullPassphrase},
		{"%%%", "supersecurekey", ErrInvalidCypherText},
		{"c2VjcmV0", "supersecurekey", ErrInvalidCypherText},
	}

	for _, tt := range tests {
		_, err := DecryptMnemonic(tt.cypher, tt.passphrase)
		require.ErrorIs(t, err, tt.err)
	}
}
