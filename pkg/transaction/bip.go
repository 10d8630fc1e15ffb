package transaction

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
)

// BIPTransaction is a transaction of a UTXO coin.
type BIPTransaction struct {
	coin   *coin.Coin
	tx     *wire.MsgTx
	signed bool
}

// DecodeBIPTransaction parses a serialized transaction.
func DecodeBIPTransaction(c *coin.Coin, raw []byte) (*BIPTransaction, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: transaction: %v", coin.ErrInvalidFormat, err)
	}

	signed := len(tx.TxIn) > 0
	for _, in := range tx.TxIn {
		if len(in.SignatureScript) <= 0 && len(in.Witness) <= 0 {
			signed = false
		}
	}
	return &BIPTransaction{coin: c, tx: tx, signed: signed}, nil
}

// DecodeBIPTransactionHex ...
func DecodeBIPTransactionHex(c *coin.Coin, str string) (*BIPTransaction, error) {
	raw, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction is not hex: %v", coin.ErrInvalidFormat, err)
	}
	return DecodeBIPTransaction(c, raw)
}

func (t *BIPTransaction) Coin() *coin.Coin {
	return t.coin
}

func (t *BIPTransaction) Scheme() coin.TransactionScheme {
	return coin.InputsOutputs
}

func (t *BIPTransaction) TxID() string {
	return t.tx.TxHash().String()
}

func (t *BIPTransaction) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *BIPTransaction) IsSigned() bool {
	return t.signed
}

// MsgTx returns a copy of the wire transaction.
func (t *BIPTransaction) MsgTx() *wire.MsgTx {
	return t.tx.Copy()
}

type inputInfo struct {
	prevScript []byte
	prevValue  int64
	hasValue   bool
}

// InputOption ...
type InputOption func(in *wire.TxIn, info *inputInfo)

// WithSequence overrides the default final sequence number.
func WithSequence(sequence uint32) InputOption {
	return func(in *wire.TxIn, _ *inputInfo) {
		in.Sequence = sequence
	}
}

// WithPrevOutScript sets the script of the spent output, which selects the
// signing style.
func WithPrevOutScript(script []byte) InputOption {
	return func(_ *wire.TxIn, info *inputInfo) {
		info.prevScript = script
	}
}

// WithPrevOutValue sets the value of the spent output, in base units.
// Segwit inputs cannot be signed without it.
func WithPrevOutValue(value int64) InputOption {
	return func(_ *wire.TxIn, info *inputInfo) {
		info.prevValue = value
		info.hasValue = true
	}
}

// BIPBuilder builds transactions of UTXO coins.
type BIPBuilder struct {
	coin   *coin.Coin
	tx     *wire.MsgTx
	inputs []inputInfo
}

// NewBIPBuilder ...
func NewBIPBuilder(c *coin.Coin) *BIPBuilder {
	b := &BIPBuilder{coin: c}
	b.Reset()
	return b
}

func (b *BIPBuilder) Scheme() coin.TransactionScheme {
	return coin.InputsOutputs
}

func (b *BIPBuilder) Reset() {
	b.tx = wire.NewMsgTx(wire.TxVersion)
	b.inputs = nil
}

// AddInput spends output vout of transaction txid and returns the input
// index.
func (b *BIPBuilder) AddInput(txid string, vout uint32, opts ...InputOption) (int, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return -1, fmt.Errorf("%w: txid %s: %v", coin.ErrInvalidFormat, txid, err)
	}
	outpoint := wire.NewOutPoint(hash, vout)
	for _, in := range b.tx.TxIn {
		if in.PreviousOutPoint == *outpoint {
			return -1, ErrDuplicateInput
		}
	}

	in := wire.NewTxIn(outpoint, nil, nil)
	info := inputInfo{}
	for _, opt := range opts {
		opt(in, &info)
	}

	b.tx.AddTxIn(in)
	b.inputs = append(b.inputs, info)
	return len(b.tx.TxIn) - 1, nil
}

// AddInputFromTx spends an output of a known transaction, taking its script
// and value from it.
func (b *BIPBuilder) AddInputFromTx(prev *BIPTransaction, vout uint32, opts ...InputOption) (int, error) {
	if int(vout) >= len(prev.tx.TxOut) {
		return -1, ErrOutputIndexOutOfRange
	}
	out := prev.tx.TxOut[vout]
	opts = append(
		[]InputOption{WithPrevOutScript(out.PkScript), WithPrevOutValue(out.Value)},
		opts...,
	)
	return b.AddInput(prev.TxID(), vout, opts...)
}

// AddOutput pays amount, in coin units, to the address and returns the
// output index.
func (b *BIPBuilder) AddOutput(addr *coin.Address, amount decimal.Decimal) (int, error) {
	if addr == nil {
		return -1, ErrNullAddress
	}
	if err := b.coin.ValidateAmount(amount, false); err != nil {
		return -1, err
	}

	script, err := b.outputScript(addr)
	if err != nil {
		return -1, err
	}
	b.tx.AddTxOut(wire.NewTxOut(b.coin.ToBaseUnits(amount).Int64(), script))
	return len(b.tx.TxOut) - 1, nil
}

func (b *BIPBuilder) SetLockTime(lockTime uint32) {
	b.tx.LockTime = lockTime
}

func (b *BIPBuilder) SetVersion(version int32) {
	b.tx.Version = version
}

func (b *BIPBuilder) BuildUnsigned() (Transaction, error) {
	return &BIPTransaction{coin: b.coin, tx: b.tx.Copy()}, nil
}

// BuildSigned signs input i with keys[i]. Inputs beyond the given keys are
// left unsigned.
func (b *BIPBuilder) BuildSigned(keys []*coin.PrivateKey) (Transaction, error) {
	if len(keys) <= 0 || len(keys) > len(b.tx.TxIn) {
		return nil, ErrInvalidKeyCount
	}

	tx := b.tx.Copy()
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range tx.TxIn {
		info := b.inputs[i]
		fetcher.AddPrevOut(in.PreviousOutPoint, wire.NewTxOut(info.prevValue, info.prevScript))
	}
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i, key := range keys {
		if err := b.signInput(tx, sigHashes, i, key); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	return &BIPTransaction{
		coin:   b.coin,
		tx:     tx,
		signed: len(keys) == len(tx.TxIn),
	}, nil
}

func (b *BIPBuilder) signInput(
	tx *wire.MsgTx, sigHashes *txscript.TxSigHashes, idx int, key *coin.PrivateKey,
) error {
	if key == nil {
		return coin.ErrNullPrivateKey
	}
	privKey, pubKey := btcec.PrivKeyFromBytes(key.Bytes)
	keyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	info := b.inputs[idx]

	class := txscript.PubKeyHashTy
	if len(info.prevScript) > 0 {
		class = txscript.GetScriptClass(info.prevScript)
	} else if b.coin.UseSegWit() {
		class = txscript.ScriptHashTy
	}

	switch class {
	case txscript.PubKeyHashTy:
		script, err := payToPubKeyHashScript(keyHash)
		if err != nil {
			return err
		}
		sigScript, err := txscript.SignatureScript(
			tx, idx, script, txscript.SigHashAll, privKey, true,
		)
		if err != nil {
			return err
		}
		tx.TxIn[idx].SignatureScript = sigScript
		return nil

	case txscript.ScriptHashTy, txscript.WitnessV0PubKeyHashTy:
		if !info.hasValue {
			return ErrMissingPrevOutValue
		}
		program, err := payToWitnessPubKeyHashScript(keyHash)
		if err != nil {
			return err
		}
		witness, err := txscript.WitnessSignature(
			tx, sigHashes, idx, info.prevValue, program, txscript.SigHashAll, privKey, true,
		)
		if err != nil {
			return err
		}
		tx.TxIn[idx].Witness = witness
		if class == txscript.ScriptHashTy {
			sigScript, err := txscript.NewScriptBuilder().AddData(program).Script()
			if err != nil {
				return err
			}
			tx.TxIn[idx].SignatureScript = sigScript
		}
		return nil

	default:
		return fmt.Errorf("%w: script class %s", coin.ErrUnsupportedOperation, class)
	}
}

func (b *BIPBuilder) outputScript(addr *coin.Address) ([]byte, error) {
	if b.coin.IsScriptHashAddress(addr) {
		return payToScriptHashScript(addr.Bytes)
	}
	if addr.Version != b.coin.Network.PubKeyHashAddrID {
		return nil, &coin.AddressVersionError{
			Address: addr.String(),
			Expected: []byte{
				b.coin.Network.PubKeyHashAddrID, b.coin.Network.ScriptHashAddrID,
			},
			Actual: addr.Version,
		}
	}
	return payToPubKeyHashScript(addr.Bytes)
}

func payToPubKeyHashScript(keyHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(keyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

func payToScriptHashScript(scriptHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(scriptHash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

func payToWitnessPubKeyHashScript(keyHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(keyHash).
		Script()
}
