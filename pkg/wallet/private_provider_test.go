package wallet_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/coinselect"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/berrywallet/berrywallet-go/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressAt(
	t *testing.T, c *coin.Coin, account uint32, addrType hd.AddressType, index uint32,
) string {
	t.Helper()
	master, err := hd.NewMasterNode(testSeed(t), c)
	require.NoError(t, err)
	node, err := master.Derive(hd.HDPath(c.HDCoinType, account, addrType, index))
	require.NoError(t, err)
	addr, err := node.Address()
	require.NoError(t, err)
	return addr.String()
}

func TestNewPrivateProvider(t *testing.T) {
	p := newBTCProvider(t)

	_, err := wallet.NewPrivateProvider(nil, testSeed(t))
	require.ErrorIs(t, err, wallet.ErrNullWalletData)
	_, err = p.Private(nil)
	require.ErrorIs(t, err, wallet.ErrNullSeed)

	pp, err := p.Private(testSeed(t))
	require.NoError(t, err)
	require.IsType(t, &wallet.BIPPrivateProvider{}, pp)

	eth, err := wallet.NewEmptyProvider(coin.MustMakeCoin(coin.ETH))
	require.NoError(t, err)
	pp, err = eth.Private(testSeed(t))
	require.NoError(t, err)
	require.IsType(t, &wallet.EthereumPrivateProvider{}, pp)
}

func TestBIPDeriveNew(t *testing.T) {
	btc := coin.MustMakeCoin(coin.BTC)

	tests := []struct {
		name    string
		account uint32
	}{
		{"default_account", 0},
		{"second_account", 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p, err := wallet.NewEmptyProvider(btc, wallet.WithAccountIndex(tt.account))
			require.NoError(t, err)
			pp, err := p.Private(testSeed(t))
			require.NoError(t, err)

			first, err := pp.DeriveNew(hd.Receive)
			require.NoError(t, err)
			second, err := pp.DeriveNew(hd.Receive)
			require.NoError(t, err)
			change, err := pp.DeriveNew(hd.Change)
			require.NoError(t, err)

			assert.Equal(t, uint32(0), first.Index)
			assert.Equal(t, uint32(1), second.Index)
			assert.Equal(t, hd.Change, change.Type)
			assert.Equal(t, uint32(0), change.Index)

			assert.Equal(t, addressAt(t, btc, tt.account, hd.Receive, 0), first.Address)
			assert.Equal(t, addressAt(t, btc, tt.account, hd.Receive, 1), second.Address)
			assert.Equal(t, addressAt(t, btc, tt.account, hd.Change, 0), change.Address)
			assert.Equal(t, 3, p.Address().Count())

			node, err := pp.DeriveAddressNode(second)
			require.NoError(t, err)
			assert.Equal(t, hd.HDPath(0, tt.account, hd.Receive, 1), node.Path())
		})
	}
}

func TestDeriveNewSkipsGaps(t *testing.T) {
	btc := coin.MustMakeCoin(coin.BTC)
	p, err := wallet.NewEmptyProvider(btc)
	require.NoError(t, err)

	_, err = p.Address().Add(addressAt(t, btc, 0, hd.Receive, 4), hd.Receive, 4)
	require.NoError(t, err)

	pp, err := p.Private(testSeed(t))
	require.NoError(t, err)
	next, err := pp.DeriveNew(hd.Receive)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), next.Index)
}

// fundedBTCWallet returns a wallet whose first receive address owns a single
// confirmed output of 0.001 BTC.
func fundedBTCWallet(t *testing.T, opts ...wallet.Option) (*wallet.Provider, wallet.PrivateProvider) {
	t.Helper()
	p := newBTCProvider(t, opts...)
	pp, err := p.Private(testSeed(t))
	require.NoError(t, err)

	recv, err := pp.DeriveNew(hd.Receive)
	require.NoError(t, err)

	funding := ledgerTx(txid(0xaa), height(500), []entity.Input{spend(txid(0x01), 0)})
	funding.Outputs = []entity.Output{{
		Value:        dec("0.001"),
		ScriptPubKey: payToScript(t, p.Coin(), recv.Address),
		Addresses:    []string{recv.Address},
	}}
	_, err = p.Tx().Add(funding)
	require.NoError(t, err)
	return p, pp
}

func TestBIPCreateTransaction(t *testing.T) {
	ctx := context.Background()
	p, pp := fundedBTCWallet(t)
	to, err := p.Coin().KeyFormat().ParseAddress(externalBTC)
	require.NoError(t, err)

	fee, err := pp.CalculateFee(ctx, dec("0.0005"), to, coin.FeeStandard)
	require.NoError(t, err)
	assert.True(t, fee.Equal(dec("0.00001816")), fee.String())

	tx, err := pp.CreateTransaction(ctx, to, dec("0.0005"), coin.FeeStandard)
	require.NoError(t, err)
	require.True(t, tx.IsSigned())

	bipTx, ok := tx.(*transaction.BIPTransaction)
	require.True(t, ok)
	msg := bipTx.MsgTx()
	require.Len(t, msg.TxIn, 1)
	assert.Equal(t, txid(0xaa), msg.TxIn[0].PreviousOutPoint.Hash.String())
	require.Len(t, msg.TxOut, 2)
	assert.Equal(t, int64(50000), msg.TxOut[0].Value)
	assert.Equal(t, int64(48184), msg.TxOut[1].Value)

	changes := p.Address().List(hd.Change)
	require.Len(t, changes, 1)
	assert.Equal(t, payToScript(t, p.Coin(), changes[0].Address), hex.EncodeToString(msg.TxOut[1].PkScript))

	walletTx, err := wallet.CoinTxToWalletTx(tx)
	require.NoError(t, err)
	assert.Equal(t, tx.TxID(), walletTx.Base().TxID)
	assert.False(t, walletTx.Base().IsConfirmed())
	_, err = p.Tx().Add(walletTx)
	require.NoError(t, err)

	balance, err := p.Balance()
	require.NoError(t, err)
	assert.True(t, wallet.CalculateBalance(balance, true).Equal(dec("0.00048184")))
	assert.True(t, wallet.CalculateBalance(balance, false).IsZero())
	spent, err := wallet.CalculateTxBalance(balance, tx.TxID())
	require.NoError(t, err)
	assert.True(t, spent.Equal(dec("-0.00051816")), spent.String())

	// The change is not confirmed yet, nothing can be spent.
	_, err = pp.CreateTransaction(ctx, to, dec("0.0001"), coin.FeeStandard)
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
}

func TestBIPFeeTiers(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		network  func(c *coin.Coin) *fakeNetwork
		feeType  coin.FeeType
		expected string
	}{
		{"static_standard", nil, coin.FeeStandard, "0.00001816"},
		{"static_low", nil, coin.FeeLow, "0.00000908"},
		{"static_high", nil, coin.FeeHigh, "0.00007264"},
		{
			name: "network_estimate",
			network: func(c *coin.Coin) *fakeNetwork {
				n := newFakeNetwork(c)
				n.feeRate = dec("0.0000002")
				return n
			},
			feeType:  coin.FeeStandard,
			expected: "0.0000454",
		},
		{
			name: "failing_estimate",
			network: func(c *coin.Coin) *fakeNetwork {
				n := newFakeNetwork(c)
				n.feeErr = errors.New("backend down")
				return n
			},
			feeType:  coin.FeeStandard,
			expected: "0.00001816",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p, pp := fundedBTCWallet(t)
			if tt.network != nil {
				p.SetNetwork(tt.network(p.Coin()))
			}

			to, err := p.Coin().KeyFormat().ParseAddress(externalBTC)
			require.NoError(t, err)
			fee, err := pp.CalculateFee(ctx, dec("0.0005"), to, tt.feeType)
			require.NoError(t, err)
			assert.True(t, fee.Equal(dec(tt.expected)), fee.String())
		})
	}
}

func TestFailingBIPCreateTransaction(t *testing.T) {
	ctx := context.Background()
	p, pp := fundedBTCWallet(t)
	to, err := p.Coin().KeyFormat().ParseAddress(externalBTC)
	require.NoError(t, err)

	tests := []struct {
		name        string
		to          *coin.Address
		value       string
		expectedErr error
	}{
		{"missing_recipient", nil, "0.0005", transaction.ErrMissingRecipient},
		{"zero_amount", to, "0", coin.ErrZeroAmount},
		{"negative_amount", to, "-1", coin.ErrNegativeAmount},
		{"too_precise", to, "0.000000001", coin.ErrAmountPrecision},
		{"insufficient_funds", to, "0.002", wallet.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tx, err := pp.CreateTransaction(ctx, tt.to, dec(tt.value), coin.FeeStandard)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, tx)
		})
	}

	_, err = pp.CreateTransaction(ctx, to, dec("0.002"), coin.FeeStandard)
	require.ErrorIs(t, err, coinselect.ErrInsufficientFunds)
}

func TestOnlyConfirmedOutputsAreSpent(t *testing.T) {
	ctx := context.Background()
	p := newBTCProvider(t)
	pp, err := p.Private(testSeed(t))
	require.NoError(t, err)
	recv, err := pp.DeriveNew(hd.Receive)
	require.NoError(t, err)

	_, err = p.Tx().Add(ledgerTx(txid(0xbb), nil, nil, output("1", recv.Address)))
	require.NoError(t, err)

	to, err := p.Coin().KeyFormat().ParseAddress(externalBTC)
	require.NoError(t, err)
	_, err = pp.CreateTransaction(ctx, to, dec("0.1"), coin.FeeStandard)
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
}

func fundedETHWallet(t *testing.T) (*wallet.Provider, wallet.PrivateProvider, entity.WalletAddress) {
	t.Helper()
	p, err := wallet.NewEmptyProvider(coin.MustMakeCoin(coin.ETH))
	require.NoError(t, err)
	pp, err := p.Private(testSeed(t))
	require.NoError(t, err)

	addr, err := pp.DeriveNew(hd.Receive)
	require.NoError(t, err)
	_, err = p.Tx().Add(accountTx("0x01", accountTxArgs{
		from: externalETH, to: addr.Address, value: "1",
		blockHeight: height(10), gasUsed: uint64Ptr(21000), status: boolPtr(true),
	}))
	require.NoError(t, err)
	return p, pp, addr
}

func TestEthereumDeriveNew(t *testing.T) {
	eth := coin.MustMakeCoin(coin.ETH)
	p, err := wallet.NewEmptyProvider(eth)
	require.NoError(t, err)
	pp, err := p.Private(testSeed(t))
	require.NoError(t, err)

	first, err := pp.DeriveNew(hd.Receive)
	require.NoError(t, err)
	again, err := pp.DeriveNew(hd.Receive)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, addressAt(t, eth, 0, hd.Receive, 0), first.Address)
	assert.Equal(t, 1, p.Address().Count())
}

func TestEthereumCreateTransaction(t *testing.T) {
	ctx := context.Background()
	p, pp, from := fundedETHWallet(t)
	to, err := p.Coin().KeyFormat().ParseAddress(externalETH)
	require.NoError(t, err)

	fee, err := pp.CalculateFee(ctx, dec("0.5"), to, coin.FeeStandard)
	require.NoError(t, err)
	assert.True(t, fee.Equal(dec("0.000441")), fee.String())

	tx, err := pp.CreateTransaction(ctx, to, dec("0.5"), coin.FeeStandard)
	require.NoError(t, err)
	ethTx, ok := tx.(*transaction.EthereumTransaction)
	require.True(t, ok)
	assert.Equal(t, uint64(0), ethTx.Nonce())
	assert.True(t, ethTx.Value().Equal(dec("0.5")))
	assert.True(t, ethTx.GasPrice().Equal(dec("0.000000021")))
	assert.Equal(t, uint64(21000), ethTx.GasLimit())
	assert.Equal(t, externalETH, ethTx.To().String())
	sender, err := ethTx.From()
	require.NoError(t, err)
	assert.Equal(t, from.Address, sender.String())

	walletTx, err := wallet.CoinTxToWalletTx(tx)
	require.NoError(t, err)
	sent, ok := walletTx.(*entity.AccountTransaction)
	require.True(t, ok)
	assert.Equal(t, from.Address, sent.From)
	assert.Equal(t, externalETH, sent.To)
	assert.NotEmpty(t, sent.R)
	_, err = p.Tx().Add(walletTx)
	require.NoError(t, err)

	// The pending payment and its maximum gas are no longer available.
	_, err = pp.CreateTransaction(ctx, to, dec("0.5"), coin.FeeStandard)
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	next, err := pp.CreateTransaction(ctx, to, dec("0.4"), coin.FeeStandard)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.(*transaction.EthereumTransaction).Nonce())
}

func TestEthereumCreateTransactionWithNetwork(t *testing.T) {
	ctx := context.Background()
	p, pp, _ := fundedETHWallet(t)

	network := newFakeNetwork(p.Coin())
	network.gasPrice = dec("0.00000003")
	network.nonce = uint64Ptr(7)
	p.SetNetwork(network)

	to, err := p.Coin().KeyFormat().ParseAddress(externalETH)
	require.NoError(t, err)
	tx, err := pp.CreateTransaction(ctx, to, dec("0"), coin.FeeHigh)
	require.NoError(t, err)

	ethTx := tx.(*transaction.EthereumTransaction)
	assert.Equal(t, uint64(7), ethTx.Nonce())
	assert.True(t, ethTx.GasPrice().Equal(dec("0.00000003")))
	assert.True(t, ethTx.Value().IsZero())
}

func TestFailingCoinTxToWalletTx(t *testing.T) {
	btc := coin.MustMakeCoin(coin.BTC)
	builder := transaction.NewBIPBuilder(btc)
	_, err := builder.AddInput(txid(0xaa), 0)
	require.NoError(t, err)
	to, err := btc.KeyFormat().ParseAddress(externalBTC)
	require.NoError(t, err)
	_, err = builder.AddOutput(to, dec("0.1"))
	require.NoError(t, err)

	unsigned, err := builder.BuildUnsigned()
	require.NoError(t, err)
	_, err = wallet.CoinTxToWalletTx(unsigned)
	require.ErrorIs(t, err, wallet.ErrTxNotSigned)
}
