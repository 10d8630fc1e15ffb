// Package wallet composes coins, key derivation, balance computation and
// network synchronization over a single wallet snapshot.
package wallet

import (
	"errors"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/coinselect"
)

var (
	// ErrTxNotFound is returned when asking the balance of an unknown
	// transaction.
	ErrTxNotFound = fmt.Errorf("%w: transaction", coin.ErrNotFound)
	// ErrAddressNotFound is returned when an address is not part of the
	// wallet.
	ErrAddressNotFound = fmt.Errorf("%w: wallet address", coin.ErrNotFound)
	// ErrInsufficientFunds is returned when the confirmed balance cannot
	// cover a payment plus its fee.
	ErrInsufficientFunds = coinselect.ErrInsufficientFunds
	// ErrUnknownBalanceScheme ...
	ErrUnknownBalanceScheme = errors.New("unknown balance scheme")
	// ErrUnknownTransactionScheme ...
	ErrUnknownTransactionScheme = errors.New("unknown transaction scheme")
	// ErrTxNotSigned ...
	ErrTxNotSigned = errors.New("transaction must be signed")
	// ErrCoinMismatch is returned when data of another coin is handed to a
	// provider.
	ErrCoinMismatch = errors.New("coin does not match the wallet coin")
	// ErrNullCoin ...
	ErrNullCoin = errors.New("coin must not be null")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrNullWalletData ...
	ErrNullWalletData = errors.New("wallet data must not be null")
	// ErrNoNetwork is returned by operations needing a network provider
	// when none has been attached.
	ErrNoNetwork = errors.New("no network provider attached")
	// ErrInvalidBatchSize ...
	ErrInvalidBatchSize = errors.New("batch size must be greater than zero")

	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cypher to decrypt must not be null")
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
	// ErrInvalidPassphrase ...
	ErrInvalidPassphrase = errors.New("passphrase is invalid")
)

// DefaultBatchSize is the number of addresses synchronized per request.
const DefaultBatchSize = 10
