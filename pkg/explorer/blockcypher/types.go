package blockcypher

import (
	"math/big"
	"sort"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
)

type input struct {
	PrevHash    string   `json:"prev_hash"`
	OutputIndex int64    `json:"output_index"`
	Script      string   `json:"script"`
	OutputValue int64    `json:"output_value"`
	Sequence    uint32   `json:"sequence"`
	Addresses   []string `json:"addresses"`
}

type output struct {
	Value     int64    `json:"value"`
	Script    string   `json:"script"`
	Addresses []string `json:"addresses"`
}

type tx struct {
	Hash        string    `json:"hash"`
	BlockHash   string    `json:"block_hash,omitempty"`
	BlockHeight int64     `json:"block_height"`
	Ver         int32     `json:"ver"`
	LockTime    uint32    `json:"lock_time"`
	Confirmed   time.Time `json:"confirmed,omitempty"`
	Received    time.Time `json:"received"`
	Inputs      []input   `json:"inputs"`
	Outputs     []output  `json:"outputs"`
}

type addressFull struct {
	Address string `json:"address"`
	Txs     []tx   `json:"txs"`
	HasMore bool   `json:"hasMore"`
}

type block struct {
	Hash   string    `json:"hash"`
	Height int64     `json:"height"`
	Time   time.Time `json:"time"`
	TxIDs  []string  `json:"txids"`
}

type pushRequest struct {
	Tx string `json:"tx"`
}

type pushResponse struct {
	Hash string `json:"hash"`
	Tx   struct {
		Hash string `json:"hash"`
	} `json:"tx"`
}

func (t tx) isConfirmed() bool {
	return t.BlockHash != "" && t.BlockHeight >= 0
}

func (t tx) toWalletTx(c *coin.Coin) *entity.LedgerTransaction {
	wtx := &entity.LedgerTransaction{
		TxBase: entity.TxBase{
			TxID:        t.Hash,
			Coin:        c.Unit,
			ReceiveTime: t.Received.UnixMilli(),
		},
		Inputs:   make([]entity.Input, 0, len(t.Inputs)),
		Outputs:  make([]entity.Output, 0, len(t.Outputs)),
		Version:  t.Ver,
		LockTime: t.LockTime,
	}
	if t.isConfirmed() {
		confirmed := t.Confirmed
		if confirmed.IsZero() {
			confirmed = t.Received
		}
		wtx.Confirm(t.BlockHash, t.BlockHeight, confirmed.UnixMilli())
	}

	for _, in := range t.Inputs {
		// coinbase inputs carry a negative output index.
		index := uint32(0)
		if in.OutputIndex >= 0 {
			index = uint32(in.OutputIndex)
		}
		wtx.Inputs = append(wtx.Inputs, entity.Input{
			PrevTxID:     in.PrevHash,
			PrevOutIndex: index,
			Sequence:     in.Sequence,
			ScriptSig:    in.Script,
			Addresses:    in.Addresses,
		})
	}
	for _, out := range t.Outputs {
		addrs := out.Addresses
		if addrs == nil {
			addrs = make([]string, 0)
		}
		wtx.Outputs = append(wtx.Outputs, entity.Output{
			Value:        c.FromBaseUnits(big.NewInt(out.Value)),
			ScriptPubKey: out.Script,
			Addresses:    addrs,
		})
	}
	return wtx
}

func (b block) toBlock() *entity.Block {
	txids := b.TxIDs
	if txids == nil {
		txids = make([]string, 0)
	}
	return &entity.Block{
		Hash:   b.Hash,
		Height: b.Height,
		Time:   b.Time.UnixMilli(),
		TxIDs:  txids,
	}
}

func sortByHeight(txs []tx) {
	sort.SliceStable(txs, func(i, j int) bool {
		ci, cj := txs[i].isConfirmed(), txs[j].isConfirmed()
		if ci != cj {
			return ci
		}
		return txs[i].BlockHeight < txs[j].BlockHeight
	})
}
