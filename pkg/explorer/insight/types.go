package insight

import (
	"sort"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/shopspring/decimal"
)

type script struct {
	Hex       string   `json:"hex"`
	Addresses []string `json:"addresses,omitempty"`
}

type vin struct {
	TxID      string  `json:"txid"`
	Vout      uint32  `json:"vout"`
	Sequence  uint32  `json:"sequence"`
	ScriptSig *script `json:"scriptSig,omitempty"`
	Addr      string  `json:"addr,omitempty"`
	Coinbase  string  `json:"coinbase,omitempty"`
}

type vout struct {
	Value        decimal.Decimal `json:"value"`
	N            uint32          `json:"n"`
	ScriptPubKey script          `json:"scriptPubKey"`
}

type tx struct {
	TxID        string `json:"txid"`
	Version     int32  `json:"version"`
	LockTime    uint32 `json:"locktime"`
	Vin         []vin  `json:"vin"`
	Vout        []vout `json:"vout"`
	BlockHash   string `json:"blockhash,omitempty"`
	BlockHeight int64  `json:"blockheight"`
	Time        int64  `json:"time"`
	BlockTime   int64  `json:"blocktime,omitempty"`
}

type block struct {
	Hash   string   `json:"hash"`
	Height int64    `json:"height"`
	Time   int64    `json:"time"`
	Tx     []string `json:"tx"`
}

type addrsTxs struct {
	TotalItems int  `json:"totalItems"`
	From       int  `json:"from"`
	To         int  `json:"to"`
	Items      []tx `json:"items"`
}

type sendTxRequest struct {
	RawTx string `json:"rawtx"`
}

type sendTxResponse struct {
	TxID string `json:"txid"`
}

func (t tx) isConfirmed() bool {
	return t.BlockHash != "" && t.BlockHeight >= 0
}

func (t tx) toWalletTx(unit coin.Unit) *entity.LedgerTransaction {
	wtx := &entity.LedgerTransaction{
		TxBase: entity.TxBase{
			TxID:        t.TxID,
			Coin:        unit,
			ReceiveTime: t.Time * 1000,
		},
		Inputs:   make([]entity.Input, 0, len(t.Vin)),
		Outputs:  make([]entity.Output, 0, len(t.Vout)),
		Version:  t.Version,
		LockTime: t.LockTime,
	}
	if t.isConfirmed() {
		blockTime := t.BlockTime
		if blockTime == 0 {
			blockTime = t.Time
		}
		wtx.Confirm(t.BlockHash, t.BlockHeight, blockTime*1000)
	}

	for _, in := range t.Vin {
		input := entity.Input{
			PrevTxID:     in.TxID,
			PrevOutIndex: in.Vout,
			Sequence:     in.Sequence,
		}
		if in.ScriptSig != nil {
			input.ScriptSig = in.ScriptSig.Hex
		}
		if in.Addr != "" {
			input.Addresses = []string{in.Addr}
		}
		wtx.Inputs = append(wtx.Inputs, input)
	}

	for _, out := range t.Vout {
		addrs := out.ScriptPubKey.Addresses
		if addrs == nil {
			addrs = make([]string, 0)
		}
		wtx.Outputs = append(wtx.Outputs, entity.Output{
			Value:        out.Value,
			ScriptPubKey: out.ScriptPubKey.Hex,
			Addresses:    addrs,
		})
	}
	return wtx
}

func (b block) toBlock() *entity.Block {
	txids := b.Tx
	if txids == nil {
		txids = make([]string, 0)
	}
	return &entity.Block{
		Hash:   b.Hash,
		Height: b.Height,
		Time:   b.Time * 1000,
		TxIDs:  txids,
	}
}

// sortByHeight orders confirmed transactions by ascending height, the
// unconfirmed ones last.
func sortByHeight(txs []tx) {
	sort.SliceStable(txs, func(i, j int) bool {
		ci, cj := txs[i].isConfirmed(), txs[j].isConfirmed()
		if ci != cj {
			return ci
		}
		return txs[i].BlockHeight < txs[j].BlockHeight
	})
}
