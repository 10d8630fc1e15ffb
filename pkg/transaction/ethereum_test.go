package transaction_test

import (
	"errors"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEthPriv    = "c668ddca8451a86f2575b57b30a0674154c339cf2337597f6be6470e6bab815e"
	testEthAddress = "0x2b555f102bB09726C8180d8C9C2e076FB140cC07"
	ethDestAddress = "0x97B6230a9cd1ADBA252ECEf29Cc24c8bA8519c7F"
)

func TestEthereumBuilderDefaults(t *testing.T) {
	c := coin.MustMakeCoin(coin.ETH)
	builder, err := transaction.NewBuilder(c)
	require.NoError(t, err)
	assert.Equal(t, coin.FromTo, builder.Scheme())

	b := builder.(*transaction.EthereumBuilder)
	assert.Equal(t, uint64(0), b.Nonce())
	assert.True(t, b.GasPrice().Equal(c.DefaultGasPrice))
	assert.Equal(t, c.DefaultGasLimit, b.GasLimit())
	assert.True(t, b.Value().IsZero())
	assert.Nil(t, b.To())
}

func TestEthereumBuilderSetters(t *testing.T) {
	b := transaction.NewEthereumBuilder(coin.MustMakeCoin(coin.ETH))

	assert.Equal(t, transaction.ErrNegativeNonce, b.SetNonce(-1))
	assert.NoError(t, b.SetNonce(4))
	assert.Equal(t, uint64(4), b.Nonce())

	assert.Equal(t, transaction.ErrNegativeGasLimit, b.SetGasLimit(-21000))
	assert.NoError(t, b.SetGasLimit(30000))

	err := b.SetGasPrice(decimal.RequireFromString("-0.1"))
	assert.True(t, errors.Is(err, coin.ErrValidation))
	assert.NoError(t, b.SetGasPrice(decimal.Zero))

	err = b.SetValue(decimal.New(1, -19))
	assert.True(t, errors.Is(err, coin.ErrValidation))
	assert.NoError(t, b.SetValue(decimal.RequireFromString("0.25")))

	err = b.SetDataHex("0xzz")
	assert.True(t, errors.Is(err, coin.ErrInvalidFormat))
	assert.NoError(t, b.SetDataHex("0xdeadbeef"))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b.Data())

	// failed assignments leave previous values untouched
	assert.Equal(t, uint64(4), b.Nonce())
	assert.Equal(t, uint64(30000), b.GasLimit())
	assert.Equal(t, "0.25", b.Value().String())

	b.Reset()
	assert.Equal(t, uint64(0), b.Nonce())
	assert.Nil(t, b.Data())
}

func TestEthereumBuilderRecipient(t *testing.T) {
	c := coin.MustMakeCoin(coin.ETH)
	b := transaction.NewEthereumBuilder(c)

	_, err := b.BuildUnsigned()
	assert.Equal(t, transaction.ErrMissingRecipient, err)

	// contract creation
	b.SetData([]byte{0x60, 0x80})
	tx, err := b.BuildUnsigned()
	require.NoError(t, err)
	assert.Nil(t, tx.(*transaction.EthereumTransaction).To())
	assert.False(t, tx.IsSigned())

	assert.NoError(t, b.SetTo(nil))
	assert.Error(t, b.SetTo(coin.NewAddress(c.KeyFormat(), 0, []byte{1, 2, 3})))
}

func TestEthereumBuilderSign(t *testing.T) {
	c := coin.MustMakeCoin(coin.ETH)
	key, err := c.KeyFormat().ParsePrivateKey(testEthPriv)
	require.NoError(t, err)
	to, err := c.KeyFormat().ParseAddress(ethDestAddress)
	require.NoError(t, err)

	b := transaction.NewEthereumBuilder(c)
	require.NoError(t, b.SetTo(to))
	require.NoError(t, b.SetNonce(7))
	require.NoError(t, b.SetValue(decimal.RequireFromString("0.01")))

	_, err = b.BuildSigned(nil)
	assert.Equal(t, transaction.ErrInvalidKeyCount, err)
	_, err = b.BuildSigned([]*coin.PrivateKey{key, key})
	assert.Equal(t, transaction.ErrInvalidKeyCount, err)

	signed, err := b.BuildSigned([]*coin.PrivateKey{key})
	require.NoError(t, err)
	assert.True(t, signed.IsSigned())

	eth := signed.(*transaction.EthereumTransaction)
	from, err := eth.From()
	require.NoError(t, err)
	assert.Equal(t, testEthAddress, from.String())
	assert.Equal(t, ethDestAddress, eth.To().String())
	assert.Equal(t, uint64(7), eth.Nonce())
	assert.Equal(t, "0.01", eth.Value().String())
	assert.True(t, eth.GasPrice().Equal(c.DefaultGasPrice))
	assert.Equal(t, int64(1), eth.Raw().ChainId().Int64())

	raw, err := signed.Bytes()
	require.NoError(t, err)
	decoded, err := transaction.DecodeEthereumTransaction(c, raw)
	require.NoError(t, err)
	assert.True(t, decoded.IsSigned())
	assert.Equal(t, signed.TxID(), decoded.TxID())
}

func TestEthereumReplayProtection(t *testing.T) {
	key, err := coin.MustMakeCoin(coin.ETH).KeyFormat().ParsePrivateKey(testEthPriv)
	require.NoError(t, err)

	txids := make(map[string]bool)
	for _, unit := range []coin.Unit{coin.ETH, coin.ETHt} {
		c := coin.MustMakeCoin(unit)
		to, err := c.KeyFormat().ParseAddress(ethDestAddress)
		require.NoError(t, err)

		b := transaction.NewEthereumBuilder(c)
		require.NoError(t, b.SetTo(to))
		signed, err := b.BuildSigned([]*coin.PrivateKey{key})
		require.NoError(t, err)
		txids[signed.TxID()] = true
	}
	assert.Len(t, txids, 2)
}
