package entity

import (
	"encoding/json"
	"sort"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
)

// WalletData is the persisted wallet snapshot. Members unknown to this
// version are kept in Extra and written back on encoding.
type WalletData struct {
	Coin      coin.Unit                    `json:"coin"`
	Addresses []WalletAddress              `json:"addresses"`
	Txs       map[string]WalletTransaction `json:"txs"`

	Extra map[string]json.RawMessage `json:"-"`
}

// NewWalletData returns an empty snapshot for the given coin.
func NewWalletData(unit coin.Unit) WalletData {
	return WalletData{
		Coin:      unit,
		Addresses: make([]WalletAddress, 0),
		Txs:       make(map[string]WalletTransaction),
	}
}

// Copy returns a snapshot sharing the stored transactions but owning its
// slice and map.
func (wd WalletData) Copy() WalletData {
	out := WalletData{
		Coin:      wd.Coin,
		Addresses: make([]WalletAddress, len(wd.Addresses)),
		Txs:       make(map[string]WalletTransaction, len(wd.Txs)),
		Extra:     copyExtra(wd.Extra),
	}
	copy(out.Addresses, wd.Addresses)
	for txid, tx := range wd.Txs {
		out.Txs[txid] = tx
	}
	return out
}

// SortedTxIDs returns the transaction ids in lexical order.
func (wd WalletData) SortedTxIDs() []string {
	ids := make([]string, 0, len(wd.Txs))
	for txid := range wd.Txs {
		ids = append(ids, txid)
	}
	sort.Strings(ids)
	return ids
}

type walletDataJSON struct {
	Coin      coin.Unit                  `json:"coin"`
	Addresses []WalletAddress            `json:"addresses"`
	Txs       map[string]json.RawMessage `json:"txs"`
}

func (wd WalletData) MarshalJSON() ([]byte, error) {
	v := walletDataJSON{
		Coin:      wd.Coin,
		Addresses: wd.Addresses,
		Txs:       make(map[string]json.RawMessage, len(wd.Txs)),
	}
	if v.Addresses == nil {
		v.Addresses = make([]WalletAddress, 0)
	}
	for txid, tx := range wd.Txs {
		raw, err := json.Marshal(tx)
		if err != nil {
			return nil, err
		}
		v.Txs[txid] = raw
	}
	return encodeWithExtra(v, wd.Extra)
}

func (wd *WalletData) UnmarshalJSON(data []byte) error {
	var v walletDataJSON
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}

	out := NewWalletData(v.Coin)
	if v.Addresses != nil {
		out.Addresses = v.Addresses
	}
	for txid, raw := range v.Txs {
		tx, err := DecodeTransaction(raw)
		if err != nil {
			return err
		}
		out.Txs[txid] = tx
	}
	out.Extra = extra
	*wd = out
	return nil
}
