package transaction_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWIF           = "KweVy16eqarDrxvVENsDsCmEQPL3BG9ViHS3TVUy2MvEbBiQxFVk"
	testAddress       = "138YZBjQH64shbppyHHRjHPhrBFDNxCdFZ"
	testSegWitAddress = "33YvApNWoxSZtx3NXVe5SGH1aJVBNJtp7Z"
	destAddress       = "15Wmq5V7ojGWCTWtjdWKsJCQB29gTB6VMa"
)

// fundingTx returns a transaction paying value satoshis to addr.
func fundingTx(t *testing.T, c *coin.Coin, addr string, value int64) (*transaction.BIPTransaction, []byte) {
	parsed, err := c.KeyFormat().ParseAddress(addr)
	require.NoError(t, err)

	var script []byte
	if c.IsScriptHashAddress(parsed) {
		script, err = txscript.NewScriptBuilder().
			AddOp(txscript.OP_HASH160).AddData(parsed.Bytes).AddOp(txscript.OP_EQUAL).
			Script()
	} else {
		script, err = txscript.NewScriptBuilder().
			AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).AddData(parsed.Bytes).
			AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
			Script()
	}
	require.NoError(t, err)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{1}, 0), []byte{0x51}, nil))
	tx.AddTxOut(wire.NewTxOut(value, script))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	prev, err := transaction.DecodeBIPTransaction(c, buf.Bytes())
	require.NoError(t, err)
	return prev, script
}

func verifyInput(t *testing.T, signed transaction.Transaction, idx int, prevScript []byte, value int64) {
	raw, err := signed.Bytes()
	require.NoError(t, err)
	decoded, err := transaction.DecodeBIPTransaction(signed.Coin(), raw)
	require.NoError(t, err)
	tx := decoded.MsgTx()

	fetcher := txscript.NewCannedPrevOutputFetcher(prevScript, value)
	vm, err := txscript.NewEngine(
		prevScript, tx, idx, txscript.StandardVerifyFlags, nil,
		txscript.NewTxSigHashes(tx, fetcher), value, fetcher,
	)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}

func mustAddress(t *testing.T, c *coin.Coin, str string) *coin.Address {
	addr, err := c.KeyFormat().ParseAddress(str)
	require.NoError(t, err)
	return addr
}

func TestBIPBuilderSignLegacy(t *testing.T) {
	c := coin.MustMakeCoin(coin.BTC)
	key, err := c.KeyFormat().ParsePrivateKey(testWIF)
	require.NoError(t, err)

	prev, prevScript := fundingTx(t, c, testAddress, 100000000)

	builder, err := transaction.NewBuilder(c)
	require.NoError(t, err)
	assert.Equal(t, coin.InputsOutputs, builder.Scheme())
	b := builder.(*transaction.BIPBuilder)

	idx, err := b.AddInputFromTx(prev, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = b.AddOutput(mustAddress(t, c, destAddress), decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	idx, err = b.AddOutput(mustAddress(t, c, testAddress), decimal.RequireFromString("0.4999"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	unsigned, err := b.BuildUnsigned()
	require.NoError(t, err)
	assert.False(t, unsigned.IsSigned())

	signed, err := b.BuildSigned([]*coin.PrivateKey{key})
	require.NoError(t, err)
	assert.True(t, signed.IsSigned())
	assert.NotEqual(t, unsigned.TxID(), signed.TxID())

	verifyInput(t, signed, 0, prevScript, 100000000)

	raw, err := signed.Bytes()
	require.NoError(t, err)
	decoded, err := transaction.DecodeBIPTransaction(c, raw)
	require.NoError(t, err)
	assert.Equal(t, signed.TxID(), decoded.TxID())
	assert.True(t, decoded.IsSigned())
	assert.Equal(t, int64(50000000), decoded.MsgTx().TxOut[0].Value)
}

func TestBIPBuilderSignNestedSegWit(t *testing.T) {
	c := coin.MustMakeCoin(coin.BTC, coin.WithSegWit(true))
	key, err := c.KeyFormat().ParsePrivateKey(testWIF)
	require.NoError(t, err)

	prev, prevScript := fundingTx(t, c, testSegWitAddress, 20000)

	b := transaction.NewBIPBuilder(c)
	_, err = b.AddInputFromTx(prev, 0)
	require.NoError(t, err)
	_, err = b.AddOutput(mustAddress(t, c, testSegWitAddress), decimal.RequireFromString("0.0001"))
	require.NoError(t, err)

	signed, err := b.BuildSigned([]*coin.PrivateKey{key})
	require.NoError(t, err)
	verifyInput(t, signed, 0, prevScript, 20000)
}

func TestBIPBuilderSegWitNeedsValue(t *testing.T) {
	c := coin.MustMakeCoin(coin.BTC, coin.WithSegWit(true))
	key, err := c.KeyFormat().ParsePrivateKey(testWIF)
	require.NoError(t, err)

	b := transaction.NewBIPBuilder(c)
	_, err = b.AddInput(chainhash.Hash{2}.String(), 1)
	require.NoError(t, err)
	_, err = b.AddOutput(mustAddress(t, c, destAddress), decimal.RequireFromString("0.0001"))
	require.NoError(t, err)

	_, err = b.BuildSigned([]*coin.PrivateKey{key})
	assert.True(t, errors.Is(err, transaction.ErrMissingPrevOutValue))
}

func TestBIPBuilderValidation(t *testing.T) {
	c := coin.MustMakeCoin(coin.BTC)
	b := transaction.NewBIPBuilder(c)
	dest := mustAddress(t, c, destAddress)

	_, err := b.AddInput("nothex", 0)
	assert.True(t, errors.Is(err, coin.ErrInvalidFormat))

	txid := chainhash.Hash{3}.String()
	_, err = b.AddInput(txid, 0, transaction.WithSequence(0xfffffffd))
	require.NoError(t, err)
	_, err = b.AddInput(txid, 0)
	assert.Equal(t, transaction.ErrDuplicateInput, err)
	idx, err := b.AddInput(txid, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	for _, amount := range []string{"0", "-1", "0.000000001"} {
		_, err = b.AddOutput(dest, decimal.RequireFromString(amount))
		assert.True(t, errors.Is(err, coin.ErrValidation), amount)
	}

	dashAddr := mustAddress(t, coin.MustMakeCoin(coin.DASH), "XhkqBcJaeqezeHkbcx1PRktseaG4fKnGso")
	_, err = b.AddOutput(dashAddr, decimal.RequireFromString("1"))
	assert.True(t, errors.Is(err, coin.ErrInvalidFormat))

	key, err := c.KeyFormat().ParsePrivateKey(testWIF)
	require.NoError(t, err)
	_, err = b.BuildSigned(nil)
	assert.Equal(t, transaction.ErrInvalidKeyCount, err)
	_, err = b.BuildSigned([]*coin.PrivateKey{key, key, key})
	assert.Equal(t, transaction.ErrInvalidKeyCount, err)

	b.SetLockTime(500000)
	b.SetVersion(2)
	unsigned, err := b.BuildUnsigned()
	require.NoError(t, err)
	tx := unsigned.(*transaction.BIPTransaction).MsgTx()
	assert.Equal(t, uint32(500000), tx.LockTime)
	assert.Equal(t, int32(2), tx.Version)
	assert.Equal(t, uint32(0xfffffffd), tx.TxIn[0].Sequence)
	assert.Equal(t, uint32(wire.MaxTxInSequenceNum), tx.TxIn[1].Sequence)

	b.Reset()
	empty, err := b.BuildUnsigned()
	require.NoError(t, err)
	assert.Empty(t, empty.(*transaction.BIPTransaction).MsgTx().TxIn)

	// the outpoint is free again after a reset
	_, err = b.AddInput(txid, 0)
	assert.NoError(t, err)
}

func TestBIPBuilderPartialSigning(t *testing.T) {
	c := coin.MustMakeCoin(coin.BTC)
	key, err := c.KeyFormat().ParsePrivateKey(testWIF)
	require.NoError(t, err)

	first, _ := fundingTx(t, c, testAddress, 1000)
	second, _ := fundingTx(t, c, testAddress, 2000)

	b := transaction.NewBIPBuilder(c)
	_, err = b.AddInputFromTx(first, 0)
	require.NoError(t, err)
	_, err = b.AddInputFromTx(second, 0, transaction.WithSequence(1))
	require.NoError(t, err)
	_, err = b.AddOutput(mustAddress(t, c, destAddress), decimal.RequireFromString("0.00002"))
	require.NoError(t, err)

	partial, err := b.BuildSigned([]*coin.PrivateKey{key})
	require.NoError(t, err)
	assert.False(t, partial.IsSigned())

	_, err = b.AddInputFromTx(first, 5)
	assert.Equal(t, transaction.ErrOutputIndexOutOfRange, err)
}
