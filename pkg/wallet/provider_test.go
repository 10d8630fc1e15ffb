package wallet_test

import (
	"encoding/json"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/berrywallet/berrywallet-go/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBTCProvider(t *testing.T, opts ...wallet.Option) *wallet.Provider {
	t.Helper()
	p, err := wallet.NewEmptyProvider(coin.MustMakeCoin(coin.BTC), opts...)
	require.NoError(t, err)
	return p
}

func TestNewProvider(t *testing.T) {
	btc := coin.MustMakeCoin(coin.BTC)

	t.Run("binds_empty_data_to_coin", func(t *testing.T) {
		p, err := wallet.NewProvider(btc, entity.WalletData{})
		require.NoError(t, err)
		assert.Equal(t, coin.BTC, p.Data().Coin)
		assert.NotNil(t, p.Data().Txs)
		assert.Zero(t, p.Address().Count())
	})

	t.Run("owns_a_copy", func(t *testing.T) {
		data := btcWalletData()
		p, err := wallet.NewProvider(btc, data)
		require.NoError(t, err)

		data.Addresses[0].Address = "changed"
		assert.Equal(t, walletBTC1, p.Address().List()[0].Address)

		snapshot := p.Data()
		snapshot.Addresses[0].Address = "changed"
		assert.Equal(t, walletBTC1, p.Address().List()[0].Address)
	})

	tests := []struct {
		name        string
		coin        *coin.Coin
		data        entity.WalletData
		opts        []wallet.Option
		expectedErr error
	}{
		{
			name:        "null_coin",
			data:        entity.NewWalletData(coin.BTC),
			expectedErr: wallet.ErrNullCoin,
		},
		{
			name:        "coin_mismatch",
			coin:        btc,
			data:        entity.NewWalletData(coin.LTC),
			expectedErr: wallet.ErrCoinMismatch,
		},
		{
			name:        "invalid_batch_size",
			coin:        btc,
			data:        entity.NewWalletData(coin.BTC),
			opts:        []wallet.Option{wallet.WithBatchSize(0)},
			expectedErr: wallet.ErrInvalidBatchSize,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p, err := wallet.NewProvider(tt.coin, tt.data, tt.opts...)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, p)
		})
	}
}

func TestSetDataNotifiesListeners(t *testing.T) {
	p := newBTCProvider(t)

	type change struct {
		newData, oldData entity.WalletData
	}
	changes := make([]change, 0)
	p.OnChange(func(newData, oldData entity.WalletData) {
		changes = append(changes, change{newData, oldData})
	})

	p.SetData(wallet.DataPatch{
		Addresses: []entity.WalletAddress{{Address: walletBTC1}},
	})
	p.SetData(wallet.DataPatch{
		Extra: map[string]json.RawMessage{"label": json.RawMessage(`"savings"`)},
	})

	require.Len(t, changes, 2)
	assert.Empty(t, changes[0].oldData.Addresses)
	assert.Len(t, changes[0].newData.Addresses, 1)

	// Members missing from a patch are kept.
	assert.Len(t, changes[1].newData.Addresses, 1)
	assert.Nil(t, changes[1].oldData.Extra)
	assert.Equal(t, json.RawMessage(`"savings"`), changes[1].newData.Extra["label"])
	assert.Equal(t, p.Data().Extra, changes[1].newData.Extra)
}

func TestAddAddress(t *testing.T) {
	p := newBTCProvider(t)
	notifications := 0
	p.OnChange(func(entity.WalletData, entity.WalletData) { notifications++ })

	addr, err := p.Address().Add(walletBTC1, hd.Receive, 0)
	require.NoError(t, err)
	assert.Equal(t, walletBTC1, addr.Address)

	again, err := p.Address().Add(walletBTC1, hd.Change, 7)
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	_, err = p.Address().Add(walletBTC2, hd.Change, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, notifications)
	assert.Equal(t, 2, p.Address().Count())
	assert.Equal(t, []string{walletBTC1}, p.Address().Strings(hd.Receive))
	assert.Equal(t, []string{walletBTC2}, p.Address().Strings(hd.Change))

	found, ok := p.Address().Get(walletBTC2)
	require.True(t, ok)
	assert.Equal(t, hd.Change, found.Type)
	_, ok = p.Address().Get(externalBTC)
	assert.False(t, ok)

	_, err = p.Address().Add("not-an-address", hd.Receive, 1)
	require.Error(t, err)
	_, err = p.Address().Add(externalBTC, hd.AddressType(9), 1)
	require.ErrorIs(t, err, coin.ErrValidation)
	assert.Equal(t, 2, p.Address().Count())
}

func TestLastAndPureAddresses(t *testing.T) {
	p := newBTCProvider(t)
	used, err := p.Address().Add(walletBTC1, hd.Receive, 0)
	require.NoError(t, err)

	_, ok, err := p.Address().Last(hd.Change, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	last, ok, err := p.Address().Last(hd.Receive, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, used, last)

	_, err = p.Tx().Add(ledgerTx(txid(0x11), height(1), nil, output("1", walletBTC1)))
	require.NoError(t, err)
	pure, err := p.Address().Add(walletBTC2, hd.Receive, 1)
	require.NoError(t, err)

	last, ok, err = p.Address().Last(hd.Receive, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pure, last)

	count, err := p.Address().PureAddrCount(hd.Receive, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	balances, err := p.Address().AddrBalances()
	require.NoError(t, err)
	assert.True(t, balances[walletBTC1].Receive.Equal(dec("1")))
}

func TestLastAccountAddress(t *testing.T) {
	p, err := wallet.NewEmptyProvider(coin.MustMakeCoin(coin.ETH))
	require.NoError(t, err)
	addr, err := p.Address().Add(walletETH, hd.Receive, 0)
	require.NoError(t, err)

	_, err = p.Tx().Add(accountTx("0x01", accountTxArgs{
		from: externalETH, to: walletETH, value: "1", blockHeight: height(1),
	}))
	require.NoError(t, err)

	last, ok, err := p.Address().Last(hd.Receive, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addr, last)
}

func TestAddTransaction(t *testing.T) {
	p := newBTCProvider(t)
	notifications := 0
	p.OnChange(func(entity.WalletData, entity.WalletData) { notifications++ })

	pending := ledgerTx(txid(0x11), nil, nil, output("1", walletBTC1))
	pending.ReceiveTime = 10

	stored, err := p.Tx().Add(pending)
	require.NoError(t, err)
	assert.False(t, stored.Base().IsConfirmed())

	// Same data twice leaves the wallet untouched.
	_, err = p.Tx().Add(pending)
	require.NoError(t, err)
	assert.Equal(t, 1, notifications)

	mined := ledgerTx(txid(0x11), nil, nil, output("1", walletBTC1))
	mined.Confirm("blockhash", 200, 1600000000000)
	stored, err = p.Tx().Add(mined)
	require.NoError(t, err)
	require.True(t, stored.Base().IsConfirmed())
	assert.Equal(t, 2, notifications)

	// Confirmation is never lost.
	stored, err = p.Tx().Add(pending)
	require.NoError(t, err)
	assert.True(t, stored.Base().IsConfirmed())
	assert.Equal(t, int64(200), *stored.Base().BlockHeight)
	assert.Equal(t, 2, notifications)
	assert.Equal(t, 1, p.Tx().Count())
	assert.Empty(t, p.Tx().Unconfirmed())

	// Stored transactions do not alias the given ones.
	*mined.BlockHeight = 1
	got, ok := p.Tx().Get(txid(0x11))
	require.True(t, ok)
	assert.Equal(t, int64(200), *got.Base().BlockHeight)
}

func TestAddAllTransactions(t *testing.T) {
	p := newBTCProvider(t)
	notifications := 0
	p.OnChange(func(entity.WalletData, entity.WalletData) { notifications++ })

	late := ledgerTx(txid(0x11), nil, nil)
	late.ReceiveTime = 20
	early := ledgerTx(txid(0x22), height(3), nil)
	early.ReceiveTime = 10
	unknownCoin := ledgerTx(txid(0x33), nil, nil)
	unknownCoin.Coin = ""

	stored, err := p.Tx().AddAll([]entity.WalletTransaction{late, early, unknownCoin})
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, coin.BTC, stored[2].Base().Coin)
	assert.Equal(t, 1, notifications)

	list := p.Tx().List()
	require.Len(t, list, 3)
	assert.Equal(t, txid(0x33), list[0].Base().TxID)
	assert.Equal(t, txid(0x22), list[1].Base().TxID)
	assert.Equal(t, txid(0x11), list[2].Base().TxID)
	assert.Equal(t, []string{txid(0x11), txid(0x33)}, p.Tx().Unconfirmed())
}

func TestAddReceipt(t *testing.T) {
	p, err := wallet.NewEmptyProvider(coin.MustMakeCoin(coin.ETH))
	require.NoError(t, err)

	_, err = p.Tx().Add(accountTx("0x01", accountTxArgs{
		from: walletETH, to: externalETH, value: "1",
	}))
	require.NoError(t, err)

	stored, err := p.Tx().Add(accountTx("0x01", accountTxArgs{
		from: walletETH, to: externalETH, value: "1",
		blockHeight: height(5), gasUsed: uint64Ptr(21000), status: boolPtr(false),
	}))
	require.NoError(t, err)

	ethTx, ok := stored.(*entity.AccountTransaction)
	require.True(t, ok)
	assert.True(t, ethTx.IsConfirmed())
	assert.Equal(t, uint64(21000), *ethTx.GasUsed)
	assert.False(t, ethTx.Succeeded())
}

func TestFailingAddTransaction(t *testing.T) {
	p := newBTCProvider(t)

	ltc := ledgerTx(txid(0x11), nil, nil)
	ltc.Coin = coin.LTC

	tests := []struct {
		name        string
		tx          entity.WalletTransaction
		expectedErr error
	}{
		{"missing_txid", ledgerTx("", nil, nil), coin.ErrValidation},
		{"coin_mismatch", ltc, wallet.ErrCoinMismatch},
		{
			"wrong_scheme",
			&entity.AccountTransaction{TxBase: entity.TxBase{TxID: "0x01"}},
			wallet.ErrUnknownTransactionScheme,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Tx().Add(tt.tx)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}

	_, err := p.Tx().AddAll([]entity.WalletTransaction{ledgerTx(txid(0x22), nil, nil), ltc})
	require.ErrorIs(t, err, wallet.ErrCoinMismatch)
	assert.Zero(t, p.Tx().Count())
}

func TestNetworkAttachment(t *testing.T) {
	p := newBTCProvider(t)
	_, err := p.Network()
	require.ErrorIs(t, err, wallet.ErrNoNetwork)

	network := newFakeNetwork(p.Coin())
	p.SetNetwork(network)
	got, err := p.Network()
	require.NoError(t, err)
	assert.Equal(t, network, got)

	require.NoError(t, p.Close())
	assert.True(t, network.closed)
	_, err = p.Network()
	require.ErrorIs(t, err, wallet.ErrNoNetwork)
}
