// Package infura implements explorer.Client for account coins on top of an
// Ethereum JSON-RPC endpoint. Address histories are not served by plain
// JSON-RPC nodes.
package infura

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// DefaultRequestInterval ...
const DefaultRequestInterval = 100 * time.Millisecond

type rpcBlock struct {
	Hash         common.Hash    `json:"hash"`
	Number       hexutil.Uint64 `json:"number"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	Transactions []common.Hash  `json:"transactions"`
}

// Client ...
type Client struct {
	coin    *coin.Coin
	opts    explorer.AdapterOptions
	rpc     *rpc.Client
	eth     *ethclient.Client
	signer  types.Signer
	limiter *explorer.Limiter
	now     func() time.Time
}

// NewClient dials the endpoint. The api key, if any, is appended to the url
// path as infura expects.
func NewClient(c *coin.Coin, opts explorer.AdapterOptions) (*Client, error) {
	if c == nil {
		return nil, explorer.ErrNullCoin
	}
	if c.Family != coin.FamilyEthereum {
		return nil, fmt.Errorf("%w: infura serves ethereum coins only", explorer.ErrWrongFamily)
	}
	if opts.URL == "" {
		return nil, explorer.ErrMissingURL
	}
	interval := opts.RequestInterval
	if interval <= 0 {
		interval = DefaultRequestInterval
	}

	endpoint := opts.URL
	if opts.APIKey != "" && !strings.HasSuffix(endpoint, opts.APIKey) {
		endpoint = strings.TrimRight(endpoint, "/") + "/" + opts.APIKey
	}
	rpcClient, err := rpc.DialContext(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", explorer.ErrTransport, err)
	}

	return &Client{
		coin:    c,
		opts:    opts,
		rpc:     rpcClient,
		eth:     ethclient.NewClient(rpcClient),
		signer:  types.LatestSignerForChainID(big.NewInt(c.ChainID)),
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

func (c *Client) GetTx(ctx context.Context, txid string) (entity.WalletTransaction, error) {
	hash := common.HexToHash(txid)

	var (
		tx      *types.Transaction
		pending bool
	)
	err := c.do(ctx, explorer.DefaultPriority, func(ctx context.Context) error {
		var err error
		tx, pending, err = c.eth.TransactionByHash(ctx, hash)
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, err
	}

	wtx, err := c.toWalletTx(tx)
	if err != nil {
		return nil, err
	}
	if pending {
		wtx.ReceiveTime = c.now().UnixMilli()
		return wtx, nil
	}

	var receipt *types.Receipt
	err = c.do(ctx, explorer.DefaultPriority, func(ctx context.Context) error {
		var err error
		receipt, err = c.eth.TransactionReceipt(ctx, hash)
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			wtx.ReceiveTime = c.now().UnixMilli()
			return wtx, nil
		}
		return nil, err
	}

	gasUsed := receipt.GasUsed
	succeeded := receipt.Status == types.ReceiptStatusSuccessful
	wtx.GasUsed = &gasUsed
	wtx.ReceiptStatus = &succeeded

	block, err := c.getBlock(ctx, receipt.BlockHash)
	if err != nil {
		return nil, err
	}
	blockTime := int64(block.Timestamp) * 1000
	wtx.ReceiveTime = blockTime
	wtx.Confirm(receipt.BlockHash.Hex(), receipt.BlockNumber.Int64(), blockTime)
	return wtx, nil
}

func (c *Client) GetBlock(ctx context.Context, hash string) (*entity.Block, error) {
	block, err := c.getBlock(ctx, common.HexToHash(hash))
	if err != nil {
		return nil, err
	}

	txids := make([]string, 0, len(block.Transactions))
	for _, h := range block.Transactions {
		txids = append(txids, h.Hex())
	}
	return &entity.Block{
		Hash:   block.Hash.Hex(),
		Height: int64(block.Number),
		Time:   int64(block.Timestamp) * 1000,
		TxIDs:  txids,
	}, nil
}

func (c *Client) GetAddressTxs(ctx context.Context, address string) ([]entity.WalletTransaction, error) {
	return nil, fmt.Errorf("%w: json-rpc address history", explorer.ErrNotImplemented)
}

func (c *Client) GetBulkAddrsTxs(ctx context.Context, addresses []string) ([]entity.WalletTransaction, error) {
	return nil, fmt.Errorf("%w: json-rpc address history", explorer.ErrNotImplemented)
}

func (c *Client) BroadcastTransaction(ctx context.Context, t transaction.Transaction) (string, error) {
	ethTx, ok := t.(*transaction.EthereumTransaction)
	if !ok {
		return "", transaction.ErrWrongScheme
	}

	err := c.do(ctx, 1, func(ctx context.Context) error {
		return c.eth.SendTransaction(ctx, ethTx.Raw())
	})
	if err != nil {
		return "", err
	}
	return ethTx.TxID(), nil
}

// SuggestGasPrice scales the node gas price to the requested tier, the
// static coin gas price is used when the node cannot answer.
func (c *Client) SuggestGasPrice(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error) {
	var wei *big.Int
	err := c.do(ctx, explorer.DefaultPriority, func(ctx context.Context) error {
		var err error
		wei, err = c.eth.SuggestGasPrice(ctx)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		log.WithError(err).WithField("coin", c.coin.Unit).Warn(
			"unable to fetch gas price, using static gas price",
		)
		return c.coin.StaticFee(feeType), nil
	}
	if wei.Sign() <= 0 {
		return c.coin.StaticFee(feeType), nil
	}
	return explorer.ScaleFee(c.coin, c.coin.FromBaseUnits(wei), feeType), nil
}

func (c *Client) PendingNonce(ctx context.Context, address string) (uint64, error) {
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf("%w: address %s", coin.ErrInvalidFormat, address)
	}

	var nonce uint64
	err := c.do(ctx, explorer.DefaultPriority, func(ctx context.Context) error {
		var err error
		nonce, err = c.eth.PendingNonceAt(ctx, common.HexToAddress(address))
		return err
	})
	return nonce, err
}

func (c *Client) GetTracker() (explorer.TrackerClient, error) {
	return nil, fmt.Errorf("%w: json-rpc tracker", explorer.ErrNotImplemented)
}

func (c *Client) Close() error {
	c.limiter.Stop()
	c.rpc.Close()
	return nil
}

func (c *Client) getBlock(ctx context.Context, hash common.Hash) (*rpcBlock, error) {
	var block *rpcBlock
	err := c.do(ctx, explorer.DefaultPriority, func(ctx context.Context) error {
		return c.rpc.CallContext(ctx, &block, "eth_getBlockByHash", hash, false)
	})
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("%w: block %s", explorer.ErrNotFound, hash.Hex())
	}
	return block, nil
}

func (c *Client) toWalletTx(tx *types.Transaction) (*entity.AccountTransaction, error) {
	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: sender of %s: %s", explorer.ErrTransport, tx.Hash().Hex(), err)
	}
	v, r, s := tx.RawSignatureValues()

	wtx := &entity.AccountTransaction{
		TxBase: entity.TxBase{
			TxID: tx.Hash().Hex(),
			Coin: c.coin.Unit,
		},
		From:     from.Hex(),
		Value:    c.coin.FromBaseUnits(tx.Value()),
		Nonce:    tx.Nonce(),
		Data:     hexutil.Encode(tx.Data()),
		GasPrice: c.coin.FromBaseUnits(tx.GasPrice()),
		GasLimit: tx.Gas(),
		R:        hexutil.EncodeBig(r),
		S:        hexutil.EncodeBig(s),
		V:        hexutil.EncodeBig(v),
	}
	if to := tx.To(); to != nil {
		wtx.To = to.Hex()
	}
	return wtx, nil
}

// do runs fn through the limiter, transport failures are wrapped in
// explorer.ErrTransport.
func (c *Client) do(ctx context.Context, priority int, fn func(context.Context) error) error {
	err := c.limiter.Do(ctx, priority, fn)
	if err == nil || errors.Is(err, ethereum.NotFound) ||
		errors.Is(err, explorer.ErrLimiterStopped) || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %w", explorer.ErrTransport, err)
}
