package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const persistedWallet = `{
	"coin": "BTC",
	"label": "savings",
	"addresses": [{"address": "138YZBjQH64shbppyHHRjHPhrBFDNxCdFZ", "type": 0, "index": 0}],
	"txs": {
		"aa": {
			"scheme": "inputs_outputs",
			"txid": "aa",
			"coin": "BTC",
			"blockHeight": 100,
			"receiveTime": 1500000000000,
			"inputs": [],
			"outputs": [{"value": "0.5", "scriptPubKey": "", "addresses": ["138YZBjQH64shbppyHHRjHPhrBFDNxCdFZ"]}],
			"version": 1,
			"lockTime": 0,
			"note": {"tag": "salary"}
		},
		"bb": {
			"txid": "bb",
			"coin": "BTC",
			"receiveTime": 1500000000001,
			"inputs": [{"prevTxid": "aa", "prevOutIndex": 0, "sequence": 4294967295}],
			"outputs": [],
			"version": 1,
			"lockTime": 0
		}
	}
}`

func TestWalletDataKeepsUnknownFields(t *testing.T) {
	var wd entity.WalletData
	require.NoError(t, json.Unmarshal([]byte(persistedWallet), &wd))

	assert.Equal(t, coin.BTC, wd.Coin)
	require.Len(t, wd.Addresses, 1)
	assert.Equal(t, hd.Receive, wd.Addresses[0].Type)
	require.Len(t, wd.Txs, 2)

	aa, ok := wd.Txs["aa"].(*entity.LedgerTransaction)
	require.True(t, ok)
	assert.True(t, aa.IsConfirmed())
	assert.True(t, aa.Outputs[0].Value.Equal(decimal.RequireFromString("0.5")))

	// no scheme tag, resolved through the coin
	bb, ok := wd.Txs["bb"].(*entity.LedgerTransaction)
	require.True(t, ok)
	assert.False(t, bb.IsConfirmed())
	assert.Equal(t, "aa", bb.Inputs[0].PrevTxID)

	encoded, err := json.Marshal(wd)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &generic))
	assert.Equal(t, "savings", generic["label"])

	txs := generic["txs"].(map[string]interface{})
	note := txs["aa"].(map[string]interface{})["note"].(map[string]interface{})
	assert.Equal(t, "salary", note["tag"])

	var again entity.WalletData
	require.NoError(t, json.Unmarshal(encoded, &again))
	assert.Equal(t, wd.SortedTxIDs(), again.SortedTxIDs())
	assert.Equal(t, wd.Extra, again.Extra)
}

func TestAccountTransactionCodec(t *testing.T) {
	gasUsed := uint64(21000)
	failed := false
	tx := &entity.AccountTransaction{
		TxBase:        entity.TxBase{TxID: "0x01", Coin: coin.ETH},
		From:          "0x2b555f102bB09726C8180d8C9C2e076FB140cC07",
		To:            "0x97B6230a9cd1ADBA252ECEf29Cc24c8bA8519c7F",
		Value:         decimal.RequireFromString("1.5"),
		GasPrice:      decimal.RequireFromString("0.00000002"),
		GasLimit:      50000,
		GasUsed:       &gasUsed,
		ReceiptStatus: &failed,
	}

	raw, err := json.Marshal(tx)
	require.NoError(t, err)

	decoded, err := entity.DecodeTransaction(raw)
	require.NoError(t, err)
	account, ok := decoded.(*entity.AccountTransaction)
	require.True(t, ok)
	assert.Equal(t, coin.FromTo, account.Scheme())
	assert.False(t, account.Succeeded())
	assert.Equal(t, "0.00042", account.GasCost().String())
}

func TestGasCostFallsBackToLimit(t *testing.T) {
	tx := &entity.AccountTransaction{
		GasPrice: decimal.RequireFromString("0.000000001"),
		GasLimit: 21000,
	}
	assert.Equal(t, "0.000021", tx.GasCost().String())
	assert.True(t, tx.Succeeded())
}

func TestMergeConfirmation(t *testing.T) {
	stored := &entity.TxBase{TxID: "aa"}
	pending := &entity.TxBase{TxID: "aa"}

	assert.False(t, stored.MergeConfirmation(pending))
	assert.False(t, stored.IsConfirmed())

	mined := &entity.TxBase{TxID: "aa"}
	mined.Confirm("hash", 120, 1600000000000)
	assert.True(t, stored.MergeConfirmation(mined))
	assert.Equal(t, int64(120), *stored.BlockHeight)

	// a later unconfirmed record never reverts the block fields
	assert.False(t, stored.MergeConfirmation(pending))
	assert.True(t, stored.IsConfirmed())
	assert.Equal(t, "hash", stored.BlockHash)
}

func TestMergeTransaction(t *testing.T) {
	first := &entity.LedgerTransaction{
		TxBase:  entity.TxBase{TxID: "aa", Coin: coin.BTC, ReceiveTime: 1},
		Outputs: []entity.Output{{Value: decimal.NewFromInt(1), Addresses: []string{"A"}}},
		Version: 1,
	}
	later := &entity.LedgerTransaction{
		TxBase:   entity.TxBase{TxID: "aa", Coin: coin.BTC, ReceiveTime: 2},
		Inputs:   []entity.Input{{PrevTxID: "zz"}},
		LockTime: 7,
	}

	merged := entity.MergeTransaction(first, later).(*entity.LedgerTransaction)
	assert.Equal(t, int64(2), merged.ReceiveTime)
	assert.Equal(t, uint32(7), merged.LockTime)
	assert.Equal(t, int32(1), merged.Version)
	assert.Len(t, merged.Inputs, 1)
	assert.Len(t, merged.Outputs, 1)

	// inputs are not modified
	assert.Equal(t, int64(1), first.ReceiveTime)
	assert.Empty(t, first.Inputs)
}

func TestCloneIsDeep(t *testing.T) {
	tx := &entity.LedgerTransaction{
		TxBase:  entity.TxBase{TxID: "aa"},
		Outputs: []entity.Output{{Addresses: []string{"A"}}},
	}
	tx.Confirm("h", 1, 2)

	clone := tx.Clone().(*entity.LedgerTransaction)
	*clone.BlockHeight = 5
	clone.Outputs[0].Addresses[0] = "B"

	assert.Equal(t, int64(1), *tx.BlockHeight)
	assert.Equal(t, "A", tx.Outputs[0].Addresses[0])
}

func TestBalanceNet(t *testing.T) {
	b := entity.Balance{
		Receive:     decimal.RequireFromString("2"),
		Spend:       decimal.RequireFromString("0.5"),
		Unconfirmed: decimal.RequireFromString("1"),
	}
	assert.Equal(t, "0.5", b.Net(false).String())
	assert.Equal(t, "1.5", b.Net(true).String())
}
