// Package etherscan implements explorer.Client for account coins on top of
// the Etherscan API: the account module serves address histories, the proxy
// module serves transactions, broadcast, gas price and nonces.
package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultRequestInterval keeps under the free plan limit of 5 calls per
	// second.
	DefaultRequestInterval = 200 * time.Millisecond
	// PageSize is the number of transactions requested per page.
	PageSize = 50

	noTransactionsFound = "No transactions found"
)

// Client ...
type Client struct {
	coin    *coin.Coin
	opts    explorer.AdapterOptions
	http    *explorer.HTTPClient
	limiter *explorer.Limiter
	now     func() time.Time
}

// NewClient returns an Etherscan client for a coin of the Ethereum family.
func NewClient(c *coin.Coin, opts explorer.AdapterOptions) (*Client, error) {
	if c == nil {
		return nil, explorer.ErrNullCoin
	}
	if c.Family != coin.FamilyEthereum {
		return nil, fmt.Errorf("%w: etherscan serves ethereum coins only", explorer.ErrWrongFamily)
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
		now:     time.Now,
	}, nil
}

func (c *Client) Coin() *coin.Coin {
	return c.coin
}

func (c *Client) Options() explorer.AdapterOptions {
	return c.opts
}

// GetTx combines the transaction with its receipt and block once mined.
func (c *Client) GetTx(ctx context.Context, txid string) (entity.WalletTransaction, error) {
	var raw *rpcTx
	if err := c.proxy(ctx, "eth_getTransactionByHash", url.Values{"txhash": {txid}}, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	wtx, err := raw.toWalletTx(c.coin)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s: %s", explorer.ErrTransport, txid, err)
	}
	if raw.BlockNumber == nil || raw.BlockHash == nil {
		wtx.ReceiveTime = c.now().UnixMilli()
		return wtx, nil
	}

	var receipt *rpcReceipt
	if err := c.proxy(ctx, "eth_getTransactionReceipt", url.Values{"txhash": {txid}}, &receipt); err != nil {
		return nil, err
	}
	if receipt != nil {
		if err := receipt.apply(wtx); err != nil {
			return nil, fmt.Errorf("%w: receipt %s: %s", explorer.ErrTransport, txid, err)
		}
	}

	var block *rpcBlock
	params := url.Values{"tag": {*raw.BlockNumber}, "boolean": {"false"}}
	if err := c.proxy(ctx, "eth_getBlockByNumber", params, &block); err != nil {
		return nil, err
	}
	height, err := hexutil.DecodeUint64(*raw.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: block number: %s", explorer.ErrTransport, err)
	}
	var blockTime int64
	if block != nil {
		ts, err := hexutil.DecodeUint64(block.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: block timestamp: %s", explorer.ErrTransport, err)
		}
		blockTime = int64(ts) * 1000
	}
	wtx.ReceiveTime = blockTime
	wtx.Confirm(*raw.BlockHash, int64(height), blockTime)
	return wtx, nil
}

// GetBlock is not served by the proxy module.
func (c *Client) GetBlock(ctx context.Context, hash string) (*entity.Block, error) {
	return nil, fmt.Errorf("%w: etherscan block by hash", explorer.ErrNotImplemented)
}

// GetAddressTxs pages through the mined transactions of the address in
// ascending block order.
func (c *Client) GetAddressTxs(ctx context.Context, address string) ([]entity.WalletTransaction, error) {
	txs := make([]entity.WalletTransaction, 0)
	for page := 1; ; page++ {
		params := url.Values{
			"module":     {"account"},
			"action":     {"txlist"},
			"address":    {address},
			"startblock": {"0"},
			"endblock":   {"99999999"},
			"page":       {strconv.Itoa(page)},
			"offset":     {strconv.Itoa(PageSize)},
			"sort":       {"asc"},
		}

		var items []accountTx
		if err := c.call(ctx, explorer.DefaultPriority, params, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			wtx, err := item.toWalletTx(c.coin)
			if err != nil {
				return nil, fmt.Errorf("%w: tx %s: %s", explorer.ErrTransport, item.Hash, err)
			}
			txs = append(txs, wtx)
		}
		if len(items) < PageSize {
			break
		}
	}
	return explorer.MergeTxs(txs), nil
}

func (c *Client) GetBulkAddrsTxs(ctx context.Context, addresses []string) ([]entity.WalletTransaction, error) {
	return explorer.FetchBulk(ctx, addresses, c.GetAddressTxs)
}

func (c *Client) BroadcastTransaction(ctx context.Context, t transaction.Transaction) (string, error) {
	raw, err := t.Bytes()
	if err != nil {
		return "", err
	}

	var txid string
	params := url.Values{"hex": {hexutil.Encode(raw)}}
	if err := c.proxyWithPriority(ctx, 1, "eth_sendRawTransaction", params, &txid); err != nil {
		return "", err
	}
	return txid, nil
}

// SuggestGasPrice scales the network gas price to the requested tier, the
// static coin gas price is used when the backend cannot answer.
func (c *Client) SuggestGasPrice(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error) {
	var price string
	if err := c.proxy(ctx, "eth_gasPrice", nil, &price); err != nil {
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		log.WithError(err).WithField("coin", c.coin.Unit).Warn(
			"unable to fetch gas price, using static gas price",
		)
		return c.coin.StaticFee(feeType), nil
	}

	wei, err := hexutil.DecodeBig(price)
	if err != nil || wei.Sign() <= 0 {
		return c.coin.StaticFee(feeType), nil
	}
	return explorer.ScaleFee(c.coin, c.coin.FromBaseUnits(wei), feeType), nil
}

func (c *Client) PendingNonce(ctx context.Context, address string) (uint64, error) {
	var count string
	params := url.Values{"address": {address}, "tag": {"pending"}}
	if err := c.proxy(ctx, "eth_getTransactionCount", params, &count); err != nil {
		return 0, err
	}
	nonce, err := hexutil.DecodeUint64(count)
	if err != nil {
		return 0, fmt.Errorf("%w: nonce: %s", explorer.ErrTransport, err)
	}
	return nonce, nil
}

func (c *Client) GetTracker() (explorer.TrackerClient, error) {
	return nil, fmt.Errorf("%w: etherscan tracker", explorer.ErrNotImplemented)
}

func (c *Client) Close() error {
	c.limiter.Stop()
	return nil
}

func (c *Client) proxy(ctx context.Context, action string, params url.Values, out interface{}) error {
	return c.proxyWithPriority(ctx, explorer.DefaultPriority, action, params, out)
}

func (c *Client) proxyWithPriority(
	ctx context.Context, priority int, action string, params url.Values, out interface{},
) error {
	q := url.Values{"module": {"proxy"}, "action": {action}}
	for k, v := range params {
		q[k] = v
	}
	return c.call(ctx, priority, q, out)
}

// call performs a request and unwraps the envelope of both the account and
// the proxy modules.
func (c *Client) call(ctx context.Context, priority int, params url.Values, out interface{}) error {
	if c.opts.APIKey != "" {
		params.Set("apikey", c.opts.APIKey)
	}

	var env envelope
	err := c.limiter.Do(ctx, priority, func(ctx context.Context) error {
		return c.http.GetJSON(ctx, "?"+params.Encode(), &env)
	})
	if err != nil {
		return err
	}

	if env.Error != nil {
		return fmt.Errorf("%w: %s (code %d)", explorer.ErrTransport, env.Error.Message, env.Error.Code)
	}
	if env.Status == "0" {
		if strings.HasPrefix(env.Message, noTransactionsFound) {
			return nil
		}
		var reason string
		if json.Unmarshal(env.Result, &reason) != nil {
			reason = string(env.Result)
		}
		return fmt.Errorf("%w: %s: %s", explorer.ErrTransport, env.Message, reason)
	}
	if len(env.Result) <= 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %s", explorer.ErrTransport, err)
	}
	return nil
}
