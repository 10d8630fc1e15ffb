package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/circuitbreaker"
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type member struct {
	name    string
	client  explorer.Client
	breaker *gobreaker.CircuitBreaker
}

// NetworkProvider is an explorer.Client delegating every call to its clients
// in order. A client is skipped when it fails with a transport error, does
// not support the call, or when its circuit breaker is open. Any other
// outcome is returned as is.
type NetworkProvider struct {
	coin    *coin.Coin
	members []member
}

// NewNetworkProvider instantiates one adapter per props. Clients already
// created are closed if a later one fails.
func NewNetworkProvider(c *coin.Coin, props ...AdapterProps) (*NetworkProvider, error) {
	if c == nil {
		return nil, explorer.ErrNullCoin
	}
	if len(props) == 0 {
		return nil, ErrNoAdapters
	}

	clients := make([]explorer.Client, 0, len(props))
	names := make([]string, 0, len(props))
	for i, p := range props {
		client, err := NewClient(c, p)
		if err != nil {
			for _, cl := range clients {
				cl.Close()
			}
			return nil, fmt.Errorf("adapter %d (%s): %w", i, p.Type, err)
		}
		clients = append(clients, client)
		names = append(names, fmt.Sprintf("%s-%s-%d", c.Unit, p.Type, i))
	}
	return newNetworkProvider(c, clients, names), nil
}

// NewNetworkProviderFromClients combines already created clients. They must
// all serve the same coin.
func NewNetworkProviderFromClients(clients ...explorer.Client) (*NetworkProvider, error) {
	if len(clients) == 0 {
		return nil, ErrNoAdapters
	}

	c := clients[0].Coin()
	names := make([]string, 0, len(clients))
	for i, cl := range clients {
		if cl.Coin().Unit != c.Unit {
			return nil, fmt.Errorf(
				"client %d serves %s, expected %s", i, cl.Coin().Unit, c.Unit,
			)
		}
		names = append(names, fmt.Sprintf("%s-%d", c.Unit, i))
	}
	return newNetworkProvider(c, clients, names), nil
}

func newNetworkProvider(
	c *coin.Coin, clients []explorer.Client, names []string,
) *NetworkProvider {
	members := make([]member, 0, len(clients))
	for i, cl := range clients {
		members = append(members, member{
			name:    names[i],
			client:  cl,
			breaker: circuitbreaker.NewCircuitBreaker(names[i]),
		})
	}
	return &NetworkProvider{c, members}
}

func (p *NetworkProvider) Coin() *coin.Coin {
	return p.coin
}

// Options are the ones of the preferred client.
func (p *NetworkProvider) Options() explorer.AdapterOptions {
	return p.members[0].client.Options()
}

// Clients returns the underlying clients in order of preference.
func (p *NetworkProvider) Clients() []explorer.Client {
	out := make([]explorer.Client, 0, len(p.members))
	for _, m := range p.members {
		out = append(out, m.client)
	}
	return out
}

func (p *NetworkProvider) GetTx(ctx context.Context, txid string) (entity.WalletTransaction, error) {
	return failover(ctx, p, "GetTx", func(cl explorer.Client) (entity.WalletTransaction, error) {
		return cl.GetTx(ctx, txid)
	})
}

func (p *NetworkProvider) GetBlock(ctx context.Context, hash string) (*entity.Block, error) {
	return failover(ctx, p, "GetBlock", func(cl explorer.Client) (*entity.Block, error) {
		return cl.GetBlock(ctx, hash)
	})
}

func (p *NetworkProvider) GetAddressTxs(ctx context.Context, address string) ([]entity.WalletTransaction, error) {
	return failover(ctx, p, "GetAddressTxs", func(cl explorer.Client) ([]entity.WalletTransaction, error) {
		return cl.GetAddressTxs(ctx, address)
	})
}

func (p *NetworkProvider) GetBulkAddrsTxs(ctx context.Context, addresses []string) ([]entity.WalletTransaction, error) {
	return failover(ctx, p, "GetBulkAddrsTxs", func(cl explorer.Client) ([]entity.WalletTransaction, error) {
		return cl.GetBulkAddrsTxs(ctx, addresses)
	})
}

func (p *NetworkProvider) BroadcastTransaction(ctx context.Context, tx transaction.Transaction) (string, error) {
	return failover(ctx, p, "BroadcastTransaction", func(cl explorer.Client) (string, error) {
		return cl.BroadcastTransaction(ctx, tx)
	})
}

// GetTracker returns the tracker of the first client that has one.
func (p *NetworkProvider) GetTracker() (explorer.TrackerClient, error) {
	var lastErr error
	for _, m := range p.members {
		tracker, err := m.client.GetTracker()
		if err == nil {
			return tracker, nil
		}
		if !errors.Is(err, explorer.ErrNotImplemented) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (p *NetworkProvider) EstimateFeePerByte(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error) {
	return failover(ctx, p, "EstimateFeePerByte", func(cl explorer.Client) (decimal.Decimal, error) {
		estimator, ok := cl.(explorer.FeeEstimator)
		if !ok {
			return decimal.Zero, explorer.ErrNotImplemented
		}
		return estimator.EstimateFeePerByte(ctx, feeType)
	})
}

func (p *NetworkProvider) SuggestGasPrice(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error) {
	return failover(ctx, p, "SuggestGasPrice", func(cl explorer.Client) (decimal.Decimal, error) {
		estimator, ok := cl.(explorer.GasPriceEstimator)
		if !ok {
			return decimal.Zero, explorer.ErrNotImplemented
		}
		return estimator.SuggestGasPrice(ctx, feeType)
	})
}

func (p *NetworkProvider) PendingNonce(ctx context.Context, address string) (uint64, error) {
	return failover(ctx, p, "PendingNonce", func(cl explorer.Client) (uint64, error) {
		source, ok := cl.(explorer.NonceSource)
		if !ok {
			return 0, explorer.ErrNotImplemented
		}
		return source.PendingNonce(ctx, address)
	})
}

// Close closes every client.
func (p *NetworkProvider) Close() error {
	errs := make([]error, 0)
	for _, m := range p.members {
		if err := m.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.name, err))
		}
	}
	return errors.Join(errs...)
}

// failover runs fn against each member until one of them answers. Only
// transport errors count as failures for the breaker of a member.
func failover[T any](
	ctx context.Context, p *NetworkProvider, op string,
	fn func(explorer.Client) (T, error),
) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for _, m := range p.members {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		var (
			res     T
			callErr error
		)
		_, err := m.breaker.Execute(func() (interface{}, error) {
			res, callErr = fn(m.client)
			if errors.Is(callErr, explorer.ErrTransport) {
				return nil, callErr
			}
			return nil, nil
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState),
			errors.Is(err, gobreaker.ErrTooManyRequests):
			log.WithField("client", m.name).Debugf("skipping %s, circuit breaker open", op)
			lastErr = fmt.Errorf("%w: %s: %s", explorer.ErrTransport, m.name, err)
			continue
		case callErr == nil:
			return res, nil
		case errors.Is(callErr, explorer.ErrTransport):
			log.WithError(callErr).WithField("client", m.name).Warnf(
				"%s failed, trying next client", op,
			)
			lastErr = callErr
			continue
		case errors.Is(callErr, explorer.ErrNotImplemented):
			if lastErr == nil {
				lastErr = callErr
			}
			continue
		default:
			return res, callErr
		}
	}
	return zero, lastErr
}
