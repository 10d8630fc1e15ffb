// Package insight implements explorer.Client on top of an Insight API
// backend, the push tracker included.
package insight

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultRequestInterval ...
	DefaultRequestInterval = 500 * time.Millisecond
	// PageSize is the number of transactions requested per page.
	PageSize = 50

	broadcastPriority = 1
	bytesPerKB        = 1024
)

// feeBlocks maps each fee tier to its confirmation target.
var feeBlocks = map[coin.FeeType]int{
	coin.FeeLow:      12,
	coin.FeeStandard: 3,
	coin.FeeHigh:     1,
}

// Client ...
type Client struct {
	coin    *coin.Coin
	opts    explorer.AdapterOptions
	http    *explorer.HTTPClient
	limiter *explorer.Limiter

	trackerOpts TrackerOptions
	lock        sync.Mutex
	tracker     *Tracker
	closed      bool
}

// NewClient returns an Insight client for a coin of the BIP family.
func NewClient(c *coin.Coin, opts explorer.AdapterOptions) (*Client, error) {
	if c == nil {
		return nil, explorer.ErrNullCoin
	}
	if c.Family != coin.FamilyBIP {
		return nil, fmt.Errorf("%w: insight serves BIP coins only", explorer.ErrWrongFamily)
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
		coin:        c,
		opts:        opts,
		http:        explorer.NewHTTPClient(opts.URL, opts.Timeout, nil),
		limiter:     explorer.NewLimiter(interval),
		trackerOpts: DefaultTrackerOptions(),
	}, nil
}

// SetTrackerOptions configures the tracker created by the next GetTracker.
func (c *Client) SetTrackerOptions(opts TrackerOptions) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.trackerOpts = opts
}

func (c *Client) Coin() *coin.Coin {
	return c.coin
}

func (c *Client) Options() explorer.AdapterOptions {
	return c.opts
}

func (c *Client) GetTx(ctx context.Context, txid string) (entity.WalletTransaction, error) {
	var raw tx
	if err := c.get(ctx, explorer.DefaultPriority, "/tx/"+txid, &raw); err != nil {
		if errors.Is(err, explorer.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if raw.TxID == "" {
		return nil, nil
	}
	return raw.toWalletTx(c.coin.Unit), nil
}

func (c *Client) GetBlock(ctx context.Context, hash string) (*entity.Block, error) {
	var raw block
	if err := c.get(ctx, explorer.DefaultPriority, "/block/"+hash, &raw); err != nil {
		return nil, err
	}
	return raw.toBlock(), nil
}

func (c *Client) GetAddressTxs(ctx context.Context, address string) ([]entity.WalletTransaction, error) {
	return c.getAddrsTxs(ctx, []string{address})
}

// GetBulkAddrsTxs uses the multi address endpoint, a single paginated query
// serves the whole list.
func (c *Client) GetBulkAddrsTxs(ctx context.Context, addresses []string) ([]entity.WalletTransaction, error) {
	return c.getAddrsTxs(ctx, addresses)
}

func (c *Client) BroadcastTransaction(ctx context.Context, t transaction.Transaction) (string, error) {
	rawtx, err := transaction.Hex(t)
	if err != nil {
		return "", err
	}

	var resp sendTxResponse
	err = c.limiter.Do(ctx, broadcastPriority, func(ctx context.Context) error {
		return c.http.PostJSON(ctx, "/tx/send", sendTxRequest{rawtx}, &resp)
	})
	if err != nil {
		return "", err
	}
	return resp.TxID, nil
}

// EstimateFeePerByte asks the backend for the fee rate of the tier, falling
// back to the static coin fee when the backend has no estimate.
func (c *Client) EstimateFeePerByte(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error) {
	blocks, ok := feeBlocks[feeType]
	if !ok {
		blocks = feeBlocks[coin.FeeStandard]
	}

	var fees map[string]decimal.Decimal
	path := fmt.Sprintf("/utils/estimatefee?nbBlocks=%d", blocks)
	if err := c.get(ctx, explorer.DefaultPriority, path, &fees); err != nil {
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		log.WithError(err).WithField("coin", c.coin.Unit).Warn(
			"unable to estimate fee, using static fee",
		)
		return c.coin.StaticFee(feeType), nil
	}

	perKB, ok := fees[fmt.Sprintf("%d", blocks)]
	if !ok || !perKB.IsPositive() {
		return c.coin.StaticFee(feeType), nil
	}
	return perKB.Div(decimal.NewFromInt(bytesPerKB)).Round(8), nil
}

// GetTracker returns the websocket tracker, creating it on first call.
func (c *Client) GetTracker() (explorer.TrackerClient, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return nil, explorer.ErrClosed
	}
	if !c.opts.EnabledWS() {
		return nil, fmt.Errorf("%w: websocket url not configured", explorer.ErrNotImplemented)
	}
	if c.tracker == nil {
		c.tracker = NewTracker(c.opts.WSURL, c, c.trackerOpts)
	}
	return c.tracker, nil
}

// Close tears down the tracker and fails pending requests.
func (c *Client) Close() error {
	c.lock.Lock()
	tracker := c.tracker
	c.tracker = nil
	c.closed = true
	c.lock.Unlock()

	if tracker != nil {
		tracker.Close()
	}
	c.limiter.Stop()
	return nil
}

func (c *Client) getAddrsTxs(ctx context.Context, addresses []string) ([]entity.WalletTransaction, error) {
	if len(addresses) <= 0 {
		return nil, explorer.ErrNoAddresses
	}

	escaped := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		escaped = append(escaped, url.PathEscape(addr))
	}
	joined := strings.Join(escaped, ",")

	raws := make([]tx, 0)
	for from := 0; ; {
		var page addrsTxs
		path := fmt.Sprintf("/addrs/%s/txs?from=%d&to=%d", joined, from, from+PageSize)
		if err := c.get(ctx, explorer.DefaultPriority, path, &page); err != nil {
			return nil, err
		}
		raws = append(raws, page.Items...)

		from += len(page.Items)
		if len(page.Items) <= 0 || from >= page.TotalItems {
			break
		}
	}

	sortByHeight(raws)
	txs := make([]entity.WalletTransaction, 0, len(raws))
	for _, raw := range raws {
		txs = append(txs, raw.toWalletTx(c.coin.Unit))
	}
	return explorer.MergeTxs(txs), nil
}

func (c *Client) get(ctx context.Context, priority int, path string, out interface{}) error {
	return c.limiter.Do(ctx, priority, func(ctx context.Context) error {
		return c.http.GetJSON(ctx, path, out)
	})
}
