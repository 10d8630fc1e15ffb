package transaction

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
)

var (
	// ErrNullCoin ...
	ErrNullCoin = errors.New("coin must not be null")
	// ErrMissingRecipient is returned when neither a recipient nor a contract
	// creation payload is set.
	ErrMissingRecipient = fmt.Errorf("%w: missing recipient", coin.ErrValidation)
	// ErrInvalidKeyCount ...
	ErrInvalidKeyCount = fmt.Errorf("%w: unexpected number of private keys", coin.ErrValidation)
	// ErrNegativeNonce ...
	ErrNegativeNonce = fmt.Errorf("%w: nonce must not be negative", coin.ErrValidation)
	// ErrNegativeGasLimit ...
	ErrNegativeGasLimit = fmt.Errorf("%w: gas limit must not be negative", coin.ErrValidation)
	// ErrDuplicateInput ...
	ErrDuplicateInput = fmt.Errorf("%w: input already spent by this transaction", coin.ErrValidation)
	// ErrOutputIndexOutOfRange ...
	ErrOutputIndexOutOfRange = fmt.Errorf("%w: output index out of range", coin.ErrValidation)
	// ErrMissingPrevOutValue is returned when signing a segwit input whose
	// previous output value is unknown.
	ErrMissingPrevOutValue = fmt.Errorf("%w: previous output value is required", coin.ErrValidation)
	// ErrNullAddress ...
	ErrNullAddress = errors.New("address must not be null")
	// ErrWrongScheme ...
	ErrWrongScheme = fmt.Errorf("%w: transaction scheme", coin.ErrUnsupportedOperation)
)

// Transaction is a built transaction, signed or not.
type Transaction interface {
	Coin() *coin.Coin
	Scheme() coin.TransactionScheme
	TxID() string
	// Bytes is the network serialization.
	Bytes() ([]byte, error)
	IsSigned() bool
}

// Hex returns the hex encoded network serialization of tx.
func Hex(tx Transaction) (string, error) {
	raw, err := tx.Bytes()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Builder accumulates the fields of a transaction. Reset clears them so the
// builder can be reused.
type Builder interface {
	Scheme() coin.TransactionScheme
	BuildUnsigned() (Transaction, error)
	BuildSigned(keys []*coin.PrivateKey) (Transaction, error)
	Reset()
}

// NewBuilder returns the builder matching the coin transaction scheme, either
// a *BIPBuilder or an *EthereumBuilder.
func NewBuilder(c *coin.Coin) (Builder, error) {
	if c == nil {
		return nil, ErrNullCoin
	}
	switch c.TransactionScheme {
	case coin.InputsOutputs:
		return NewBIPBuilder(c), nil
	case coin.FromTo:
		return NewEthereumBuilder(c), nil
	default:
		return nil, fmt.Errorf("%w %s", ErrWrongScheme, c.TransactionScheme)
	}
}
