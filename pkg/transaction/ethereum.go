package transaction

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// EthereumTransaction is a legacy, replay protected, account transaction.
type EthereumTransaction struct {
	coin   *coin.Coin
	tx     *types.Transaction
	signed bool
}

// DecodeEthereumTransaction parses a RLP encoded transaction.
func DecodeEthereumTransaction(c *coin.Coin, raw []byte) (*EthereumTransaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: transaction: %v", coin.ErrInvalidFormat, err)
	}
	v, r, s := tx.RawSignatureValues()
	signed := v != nil && r != nil && s != nil && r.Sign() != 0 && s.Sign() != 0
	return &EthereumTransaction{coin: c, tx: tx, signed: signed}, nil
}

func (t *EthereumTransaction) Coin() *coin.Coin {
	return t.coin
}

func (t *EthereumTransaction) Scheme() coin.TransactionScheme {
	return coin.FromTo
}

func (t *EthereumTransaction) TxID() string {
	return t.tx.Hash().Hex()
}

func (t *EthereumTransaction) Bytes() ([]byte, error) {
	return t.tx.MarshalBinary()
}

func (t *EthereumTransaction) IsSigned() bool {
	return t.signed
}

// Raw returns the underlying go-ethereum transaction.
func (t *EthereumTransaction) Raw() *types.Transaction {
	return t.tx
}

func (t *EthereumTransaction) signer() types.Signer {
	return types.NewEIP155Signer(big.NewInt(t.coin.ChainID))
}

// From recovers the sender of a signed transaction.
func (t *EthereumTransaction) From() (*coin.Address, error) {
	sender, err := types.Sender(t.signer(), t.tx)
	if err != nil {
		return nil, err
	}
	return coin.NewAddress(t.coin.KeyFormat(), 0, sender.Bytes()), nil
}

// To returns nil for contract creations.
func (t *EthereumTransaction) To() *coin.Address {
	if t.tx.To() == nil {
		return nil
	}
	return coin.NewAddress(t.coin.KeyFormat(), 0, t.tx.To().Bytes())
}

func (t *EthereumTransaction) Nonce() uint64 {
	return t.tx.Nonce()
}

func (t *EthereumTransaction) Value() decimal.Decimal {
	return t.coin.FromBaseUnits(t.tx.Value())
}

func (t *EthereumTransaction) GasPrice() decimal.Decimal {
	return t.coin.FromBaseUnits(t.tx.GasPrice())
}

func (t *EthereumTransaction) GasLimit() uint64 {
	return t.tx.Gas()
}

func (t *EthereumTransaction) Data() []byte {
	return t.tx.Data()
}

// EthereumBuilder builds account transactions. Setters validate their input
// right away.
type EthereumBuilder struct {
	coin     *coin.Coin
	nonce    uint64
	gasPrice decimal.Decimal
	gasLimit uint64
	value    decimal.Decimal
	data     []byte
	to       *coin.Address
}

// NewEthereumBuilder ...
func NewEthereumBuilder(c *coin.Coin) *EthereumBuilder {
	b := &EthereumBuilder{coin: c}
	b.Reset()
	return b
}

func (b *EthereumBuilder) Scheme() coin.TransactionScheme {
	return coin.FromTo
}

// Reset restores the coin defaults for gas and clears everything else.
func (b *EthereumBuilder) Reset() {
	b.nonce = 0
	b.gasPrice = b.coin.DefaultGasPrice
	b.gasLimit = b.coin.DefaultGasLimit
	b.value = decimal.Zero
	b.data = nil
	b.to = nil
}

func (b *EthereumBuilder) SetNonce(nonce int64) error {
	if nonce < 0 {
		return ErrNegativeNonce
	}
	b.nonce = uint64(nonce)
	return nil
}

// SetGasPrice sets the price of a gas unit in coin units.
func (b *EthereumBuilder) SetGasPrice(price decimal.Decimal) error {
	if err := b.coin.ValidateAmount(price, true); err != nil {
		return fmt.Errorf("gas price: %w", err)
	}
	b.gasPrice = price
	return nil
}

func (b *EthereumBuilder) SetGasLimit(limit int64) error {
	if limit < 0 {
		return ErrNegativeGasLimit
	}
	b.gasLimit = uint64(limit)
	return nil
}

func (b *EthereumBuilder) SetValue(value decimal.Decimal) error {
	if err := b.coin.ValidateAmount(value, true); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	b.value = value
	return nil
}

func (b *EthereumBuilder) SetData(data []byte) {
	b.data = append([]byte(nil), data...)
}

// SetDataHex accepts the payload as hex, with or without 0x prefix.
func (b *EthereumBuilder) SetDataHex(str string) error {
	str = strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	data, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("%w: data is not hex: %v", coin.ErrInvalidFormat, err)
	}
	b.SetData(data)
	return nil
}

// SetTo sets the recipient, nil clears it.
func (b *EthereumBuilder) SetTo(addr *coin.Address) error {
	if addr != nil && len(addr.Bytes) != common.AddressLength {
		return fmt.Errorf("%w: recipient has %d bytes", coin.ErrInvalidFormat, len(addr.Bytes))
	}
	b.to = addr
	return nil
}

func (b *EthereumBuilder) Nonce() uint64 { return b.nonce }
func (b *EthereumBuilder) GasPrice() decimal.Decimal { return b.gasPrice }
func (b *EthereumBuilder) GasLimit() uint64 { return b.gasLimit }
func (b *EthereumBuilder) Value() decimal.Decimal { return b.value }
func (b *EthereumBuilder) Data() []byte { return b.data }
func (b *EthereumBuilder) To() *coin.Address { return b.to }

func (b *EthereumBuilder) unsigned() (*types.Transaction, error) {
	if b.to == nil && len(b.data) <= 0 {
		return nil, ErrMissingRecipient
	}

	var to *common.Address
	if b.to != nil {
		addr := common.BytesToAddress(b.to.Bytes)
		to = &addr
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    b.nonce,
		GasPrice: b.coin.ToBaseUnits(b.gasPrice),
		Gas:      b.gasLimit,
		To:       to,
		Value:    b.coin.ToBaseUnits(b.value),
		Data:     b.data,
	}), nil
}

func (b *EthereumBuilder) BuildUnsigned() (Transaction, error) {
	tx, err := b.unsigned()
	if err != nil {
		return nil, err
	}
	return &EthereumTransaction{coin: b.coin, tx: tx}, nil
}

// BuildSigned signs with exactly one key.
func (b *EthereumBuilder) BuildSigned(keys []*coin.PrivateKey) (Transaction, error) {
	if len(keys) != 1 || keys[0] == nil {
		return nil, ErrInvalidKeyCount
	}
	tx, err := b.unsigned()
	if err != nil {
		return nil, err
	}

	key, err := crypto.ToECDSA(keys[0].Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", coin.ErrInvalidFormat, err)
	}
	signer := types.NewEIP155Signer(big.NewInt(b.coin.ChainID))
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		return nil, err
	}
	return &EthereumTransaction{coin: b.coin, tx: signed, signed: true}, nil
}
