package application_test

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/berrywallet/berrywallet-go/pkg/wallet"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func init() {
	wallet.ScryptN = 1 << 10
}

// mockNetwork serves the transactions of addressTxs and records what it
// is asked to broadcast.
type mockNetwork struct {
	coin *coin.Coin

	lock        sync.Mutex
	addressTxs  map[string][]entity.WalletTransaction
	broadcasted []transaction.Transaction
	tracker     *mockTracker
	closed      bool
}

func newMockNetwork(c *coin.Coin) *mockNetwork {
	return &mockNetwork{
		coin:       c,
		addressTxs: make(map[string][]entity.WalletTransaction),
	}
}

func (m *mockNetwork) Coin() *coin.Coin {
	return m.coin
}

func (m *mockNetwork) Options() explorer.AdapterOptions {
	return explorer.AdapterOptions{URL: "http://mock"}
}

func (m *mockNetwork) GetTx(context.Context, string) (entity.WalletTransaction, error) {
	return nil, nil
}

func (m *mockNetwork) GetBlock(context.Context, string) (*entity.Block, error) {
	return nil, explorer.ErrNotImplemented
}

func (m *mockNetwork) GetAddressTxs(
	ctx context.Context, address string,
) ([]entity.WalletTransaction, error) {
	return m.GetBulkAddrsTxs(ctx, []string{address})
}

func (m *mockNetwork) GetBulkAddrsTxs(
	_ context.Context, addresses []string,
) ([]entity.WalletTransaction, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	chunks := make([][]entity.WalletTransaction, 0, len(addresses))
	for _, addr := range addresses {
		chunks = append(chunks, m.addressTxs[addr])
	}
	return explorer.MergeTxs(chunks...), nil
}

func (m *mockNetwork) BroadcastTransaction(
	_ context.Context, tx transaction.Transaction,
) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.broadcasted = append(m.broadcasted, tx)
	return tx.TxID(), nil
}

func (m *mockNetwork) GetTracker() (explorer.TrackerClient, error) {
	if m.tracker == nil {
		return nil, explorer.ErrNotImplemented
	}
	return m.tracker, nil
}

func (m *mockNetwork) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.closed = true
	return nil
}

func (m *mockNetwork) fund(t *testing.T, txid, address, value string) {
	t.Helper()
	addr, err := btcutil.DecodeAddress(address, m.coin.ChainParams())
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	h := int64(700)
	tx := &entity.LedgerTransaction{
		TxBase: entity.TxBase{TxID: txid, Coin: m.coin.Unit, BlockHeight: &h},
		Inputs: []entity.Input{{PrevTxID: strings.Repeat("01", 32), PrevOutIndex: 3, Sequence: 0xffffffff}},
		Outputs: []entity.Output{{
			Value:        dec(value),
			ScriptPubKey: hex.EncodeToString(script),
			Addresses:    []string{address},
		}},
		Version: 1,
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.addressTxs[address] = append(m.addressTxs[address], tx)
}

type mockTracker struct {
	*explorer.TrackerBase
}

func (m *mockTracker) State() explorer.TrackerState {
	return explorer.Connected
}

func (m *mockTracker) Close() error {
	m.ClearListeners()
	return nil
}
