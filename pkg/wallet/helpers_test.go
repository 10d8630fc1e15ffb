package wallet_test

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const mnemonic = "flag output rich laptop hub lift list scout enjoy topic sister lab"

// Foreign addresses, never part of a test wallet.
const (
	externalBTC = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
	externalETH = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := hd.SeedFromMnemonic(mnemonic, "")
	require.NoError(t, err)
	return seed
}

func dec(str string) decimal.Decimal {
	return decimal.RequireFromString(str)
}

func height(h int64) *int64 {
	return &h
}

func txid(b byte) string {
	return hex.EncodeToString(bytesOf(b, 32))
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// payToScript returns the hex encoded output script paying address.
func payToScript(t *testing.T, c *coin.Coin, address string) string {
	t.Helper()
	addr, err := btcutil.DecodeAddress(address, c.ChainParams())
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return hex.EncodeToString(script)
}

func ledgerTx(
	id string, blockHeight *int64, inputs []entity.Input, outputs ...entity.Output,
) *entity.LedgerTransaction {
	return &entity.LedgerTransaction{
		TxBase:  entity.TxBase{TxID: id, Coin: coin.BTC, BlockHeight: blockHeight},
		Inputs:  inputs,
		Outputs: outputs,
		Version: 1,
	}
}

func output(value string, address string) entity.Output {
	return entity.Output{Value: dec(value), Addresses: []string{address}}
}

func spend(prevTxID string, index uint32) entity.Input {
	return entity.Input{PrevTxID: prevTxID, PrevOutIndex: index, Sequence: 0xffffffff}
}

type accountTxArgs struct {
	from, to, value string
	blockHeight     *int64
	gasUsed         *uint64
	status          *bool
}

func accountTx(id string, args accountTxArgs) *entity.AccountTransaction {
	return &entity.AccountTransaction{
		TxBase:        entity.TxBase{TxID: id, Coin: coin.ETH, BlockHeight: args.blockHeight},
		From:          args.from,
		To:            args.to,
		Value:         dec(args.value),
		GasPrice:      dec("0.00000002"),
		GasLimit:      21000,
		GasUsed:       args.gasUsed,
		ReceiptStatus: args.status,
	}
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

// fakeNetwork serves the transactions of addressTxs and records the
// batches it is asked for.
type fakeNetwork struct {
	coin *coin.Coin

	lock       sync.Mutex
	addressTxs map[string][]entity.WalletTransaction
	batches    [][]string
	broadcast  []transaction.Transaction
	closed     bool

	bulkErr  error
	feeRate  decimal.Decimal
	feeErr   error
	gasPrice decimal.Decimal
	nonce    *uint64
	tracker  *fakeTracker
}

func newFakeNetwork(c *coin.Coin) *fakeNetwork {
	return &fakeNetwork{
		coin:       c,
		addressTxs: make(map[string][]entity.WalletTransaction),
	}
}

func (n *fakeNetwork) Coin() *coin.Coin {
	return n.coin
}

func (n *fakeNetwork) Options() explorer.AdapterOptions {
	return explorer.AdapterOptions{URL: "http://fake"}
}

func (n *fakeNetwork) GetTx(_ context.Context, id string) (entity.WalletTransaction, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	for _, txs := range n.addressTxs {
		for _, tx := range txs {
			if tx.Base().TxID == id {
				return tx.Clone(), nil
			}
		}
	}
	return nil, nil
}

func (n *fakeNetwork) GetBlock(context.Context, string) (*entity.Block, error) {
	return nil, explorer.ErrNotImplemented
}

func (n *fakeNetwork) GetAddressTxs(
	ctx context.Context, address string,
) ([]entity.WalletTransaction, error) {
	return n.GetBulkAddrsTxs(ctx, []string{address})
}

func (n *fakeNetwork) GetBulkAddrsTxs(
	_ context.Context, addresses []string,
) ([]entity.WalletTransaction, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.batches = append(n.batches, append([]string(nil), addresses...))
	if n.bulkErr != nil {
		return nil, n.bulkErr
	}
	chunks := make([][]entity.WalletTransaction, 0, len(addresses))
	for _, addr := range addresses {
		chunks = append(chunks, n.addressTxs[addr])
	}
	return explorer.MergeTxs(chunks...), nil
}

func (n *fakeNetwork) BroadcastTransaction(
	_ context.Context, tx transaction.Transaction,
) (string, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.broadcast = append(n.broadcast, tx)
	return tx.TxID(), nil
}

func (n *fakeNetwork) GetTracker() (explorer.TrackerClient, error) {
	if n.tracker == nil {
		return nil, explorer.ErrNotImplemented
	}
	return n.tracker, nil
}

func (n *fakeNetwork) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.closed = true
	return nil
}

func (n *fakeNetwork) EstimateFeePerByte(context.Context, coin.FeeType) (decimal.Decimal, error) {
	return n.feeRate, n.feeErr
}

func (n *fakeNetwork) SuggestGasPrice(context.Context, coin.FeeType) (decimal.Decimal, error) {
	return n.gasPrice, nil
}

func (n *fakeNetwork) PendingNonce(context.Context, string) (uint64, error) {
	if n.nonce == nil {
		return 0, explorer.ErrNotImplemented
	}
	return *n.nonce, nil
}

func (n *fakeNetwork) setAddressTxs(address string, txs ...entity.WalletTransaction) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.addressTxs[address] = txs
}

func (n *fakeNetwork) requestedBatches() [][]string {
	n.lock.Lock()
	defer n.lock.Unlock()

	return append([][]string(nil), n.batches...)
}

type fakeTracker struct {
	*explorer.TrackerBase
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{explorer.NewTrackerBase()}
}

func (t *fakeTracker) State() explorer.TrackerState {
	return explorer.Connected
}

func (t *fakeTracker) Close() error {
	t.ClearListeners()
	return nil
}
