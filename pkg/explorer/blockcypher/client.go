// Package blockcypher implements explorer.Client for BIP coins on top of the
// Blockcypher REST API. The backend offers no push tracker.
package blockcypher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
)

const (
	// DefaultRequestInterval keeps under the free plan limit.
	DefaultRequestInterval = 350 * time.Millisecond
	// PageSize is the number of transactions requested per page.
	PageSize = 50
)

// Client ...
type Client struct {
	coin    *coin.Coin
	opts    explorer.AdapterOptions
	http    *explorer.HTTPClient
	limiter *explorer.Limiter
}

// NewClient returns a Blockcypher client for a coin of the BIP family.
func NewClient(c *coin.Coin, opts explorer.AdapterOptions) (*Client, error) {
	if c == nil {
		return nil, explorer.ErrNullCoin
	}
	if c.Family != coin.FamilyBIP {
		return nil, fmt.Errorf("%w: blockcypher serves BIP coins only", explorer.ErrWrongFamily)
	}
	if opts.URL == "" {
		return nil, explorer.ErrMissingURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	interval := opts.RequestInterval
	if interval <= 0 {
		interval = DefaultRequestInterval
	}

	return &Client{
		coin:    c,
		opts:    opts,
		http:    explorer.NewHTTPClient(opts.URL, opts.Timeout, nil),
		limiter: explorer.NewLimiter(interval),
	}, nil
}

func (c *Client) Coin() *coin.Coin {
	return c.coin
}

func (c *Client) Options() explorer.AdapterOptions {
	return c.opts
}

func (c *Client) GetTx(ctx context.Context, txid string) (entity.WalletTransaction, error) {
	var raw tx
	if err := c.get(ctx, "/txs/"+url.PathEscape(txid), nil, &raw); err != nil {
		if errors.Is(err, explorer.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return raw.toWalletTx(c.coin), nil
}

func (c *Client) GetBlock(ctx context.Context, hash string) (*entity.Block, error) {
	var raw block
	if err := c.get(ctx, "/blocks/"+url.PathEscape(hash), nil, &raw); err != nil {
		return nil, err
	}
	return raw.toBlock(), nil
}

// GetAddressTxs walks the full address endpoint backwards in height until
// the backend reports no more transactions.
func (c *Client) GetAddressTxs(ctx context.Context, address string) ([]entity.WalletTransaction, error) {
	raws := make([]tx, 0)
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", PageSize))

	for {
		var page addressFull
		path := "/addrs/" + url.PathEscape(address) + "/full"
		if err := c.get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		raws = append(raws, page.Txs...)
		if !page.HasMore || len(page.Txs) <= 0 {
			break
		}

		before := int64(-1)
		for _, t := range page.Txs {
			if t.isConfirmed() && (before < 0 || t.BlockHeight < before) {
				before = t.BlockHeight
			}
		}
		if before < 0 {
			break
		}
		query.Set("before", fmt.Sprintf("%d", before))
	}

	sortByHeight(raws)
	txs := make([]entity.WalletTransaction, 0, len(raws))
	for _, raw := range raws {
		txs = append(txs, raw.toWalletTx(c.coin))
	}
	return explorer.MergeTxs(txs), nil
}

func (c *Client) GetBulkAddrsTxs(ctx context.Context, addresses []string) ([]entity.WalletTransaction, error) {
	return explorer.FetchBulk(ctx, addresses, c.GetAddressTxs)
}

func (c *Client) BroadcastTransaction(ctx context.Context, t transaction.Transaction) (string, error) {
	rawtx, err := transaction.Hex(t)
	if err != nil {
		return "", err
	}

	var resp pushResponse
	err = c.limiter.Do(ctx, 1, func(ctx context.Context) error {
		return c.http.PostJSON(ctx, c.withToken("/txs/push", nil), pushRequest{rawtx}, &resp)
	})
	if err != nil {
		return "", err
	}
	if resp.Tx.Hash != "" {
		return resp.Tx.Hash, nil
	}
	return resp.Hash, nil
}

func (c *Client) GetTracker() (explorer.TrackerClient, error) {
	return nil, fmt.Errorf("%w: blockcypher tracker", explorer.ErrNotImplemented)
}

func (c *Client) Close() error {
	c.limiter.Stop()
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.limiter.Do(ctx, explorer.DefaultPriority, func(ctx context.Context) error {
		return c.http.GetJSON(ctx, c.withToken(path, query), out)
	})
}

func (c *Client) withToken(path string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.opts.APIKey != "" {
		q.Set("token", c.opts.APIKey)
	}
	if len(q) <= 0 {
		return path
	}
	return path + "?" + q.Encode()
}
