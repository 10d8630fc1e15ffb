package application

import (
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/shopspring/decimal"
)

type WalletStatus struct {
	Coin        coin.Unit
	Initialized bool
	Unlocked    bool
	Tracking    bool
}

// BalanceInfo amounts are expressed in coin units. Total includes the
// unconfirmed incoming amount, Confirmed does not.
type BalanceInfo struct {
	Coin         coin.Unit
	Confirmed    decimal.Decimal
	Unconfirmed  decimal.Decimal
	Total        decimal.Decimal
	Addresses    map[string]decimal.Decimal
	UnspentCount int
}

type SendRequest struct {
	Address string
	Amount  decimal.Decimal
	FeeType coin.FeeType
}

// TxInfo is a wallet transaction seen from the wallet, Amount is negative
// for outgoing transactions and includes the fee paid.
type TxInfo struct {
	TxID        string
	Amount      decimal.Decimal
	Confirmed   bool
	BlockHeight int64
	// Time is the block time if confirmed, the receive time otherwise, in
	// milliseconds.
	Time int64
}

func newTxInfo(tx *entity.TxBase, amount decimal.Decimal) TxInfo {
	info := TxInfo{
		TxID:      tx.TxID,
		Amount:    amount,
		Confirmed: tx.IsConfirmed(),
		Time:      tx.ReceiveTime,
	}
	if tx.BlockHeight != nil {
		info.BlockHeight = *tx.BlockHeight
	}
	if tx.BlockTime != nil {
		info.Time = *tx.BlockTime
	}
	return info
}
