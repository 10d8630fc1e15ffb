package entity

import "github.com/shopspring/decimal"

// Balance ...
type Balance struct {
	Receive     decimal.Decimal `json:"receive"`
	Spend       decimal.Decimal `json:"spend"`
	Unconfirmed decimal.Decimal `json:"unconfirmed"`
}

// Net is receive minus spend, minus the unconfirmed amount unless it is
// explicitly included.
func (b Balance) Net(includeUnconfirmed bool) decimal.Decimal {
	net := b.Receive.Sub(b.Spend)
	if !includeUnconfirmed {
		net = net.Sub(b.Unconfirmed)
	}
	return net
}

// UnspentOutput is derived from the transaction set on every balance
// computation and never persisted.
type UnspentOutput struct {
	TxID      string          `json:"txid"`
	Index     uint32          `json:"index"`
	Value     decimal.Decimal `json:"value"`
	Addresses []string        `json:"addresses"`
	Confirmed bool            `json:"confirmed"`
}

// WDBalance is the outcome of a balance computation. Addresses are keyed by
// their canonical encoding.
type WDBalance struct {
	AddrBalances map[string]*Balance `json:"addrBalances"`
	TxBalances   map[string]*Balance `json:"txBalances"`
	UTXO         []UnspentOutput     `json:"utxo"`
}

// NewWDBalance ...
func NewWDBalance() *WDBalance {
	return &WDBalance{
		AddrBalances: make(map[string]*Balance),
		TxBalances:   make(map[string]*Balance),
		UTXO:         make([]UnspentOutput, 0),
	}
}
