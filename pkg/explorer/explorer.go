// Package explorer defines the contract shared by the blockchain backends a
// wallet synchronizes against, along with the request limiter, bulk fetching
// and the push tracker listener registry the adapters build upon.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotImplemented is returned by adapters for calls their backend does
	// not support.
	ErrNotImplemented = fmt.Errorf("%w: not implemented", coin.ErrUnsupportedOperation)
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = fmt.Errorf("%w: resource", coin.ErrNotFound)
	// ErrTransport wraps network failures and unexpected backend answers.
	ErrTransport = errors.New("transport error")
	// ErrLimiterStopped is returned for requests queued or submitted after
	// the limiter has been stopped.
	ErrLimiterStopped = errors.New("limiter stopped")
	// ErrClosed is returned by clients after Close.
	ErrClosed = errors.New("client closed")
	// ErrNullCoin ...
	ErrNullCoin = errors.New("coin must not be null")
	// ErrMissingURL ...
	ErrMissingURL = errors.New("adapter url must not be empty")
	// ErrNoAddresses ...
	ErrNoAddresses = errors.New("there are no addresses to request")
	// ErrWrongFamily is returned when an adapter is created for a coin it
	// cannot serve.
	ErrWrongFamily = fmt.Errorf("%w: coin family", coin.ErrUnsupportedOperation)
)

// DefaultPriority is used for requests submitted without explicit priority.
const DefaultPriority = 5

// AdapterOptions configure a backend adapter.
type AdapterOptions struct {
	URL    string
	WSURL  string
	APIKey string
	// Timeout bounds every http request.
	Timeout time.Duration
	// RequestInterval overrides the adapter's own rate limit when not zero.
	RequestInterval time.Duration
	// Extra holds adapter specific settings.
	Extra map[string]string
}

// APIURL ...
func (o AdapterOptions) APIURL() string {
	return o.URL
}

// EnabledWS tells whether a push endpoint is configured.
func (o AdapterOptions) EnabledWS() bool {
	return o.WSURL != ""
}

// Client is a blockchain backend translated into wallet entities.
type Client interface {
	Coin() *coin.Coin
	Options() AdapterOptions
	// GetTx returns nil without error if the backend does not know txid.
	GetTx(ctx context.Context, txid string) (entity.WalletTransaction, error)
	GetBlock(ctx context.Context, hash string) (*entity.Block, error)
	// GetAddressTxs returns the address history in ascending block order.
	GetAddressTxs(ctx context.Context, address string) ([]entity.WalletTransaction, error)
	GetBulkAddrsTxs(ctx context.Context, addresses []string) ([]entity.WalletTransaction, error)
	BroadcastTransaction(ctx context.Context, tx transaction.Transaction) (string, error)
	// GetTracker returns the push sub-client, ErrNotImplemented if the
	// backend has none.
	GetTracker() (TrackerClient, error)
	Close() error
}

// FeeEstimator is implemented by backends able to estimate the fee per byte
// of ledger-style coins. Values are expressed in coin units.
type FeeEstimator interface {
	EstimateFeePerByte(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error)
}

// GasPriceEstimator is implemented by backends of account-style coins.
// Values are expressed in coin units.
type GasPriceEstimator interface {
	SuggestGasPrice(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error)
}

// NonceSource returns the next nonce of an account, pending txs included.
type NonceSource interface {
	PendingNonce(ctx context.Context, address string) (uint64, error)
}
