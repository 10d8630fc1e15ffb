package entity

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/shopspring/decimal"
)

const (
	schemeInputsOutputs = "inputs_outputs"
	schemeFromTo        = "from_to"
)

// WalletTransaction is either a *LedgerTransaction or an *AccountTransaction.
type WalletTransaction interface {
	Base() *TxBase
	Scheme() coin.TransactionScheme
	// Clone returns a deep copy, stored transactions are never mutated in
	// place.
	Clone() WalletTransaction
}

// TxBase holds the fields shared by every transaction.
type TxBase struct {
	TxID        string    `json:"txid"`
	Coin        coin.Unit `json:"coin"`
	BlockHash   string    `json:"blockHash,omitempty"`
	BlockHeight *int64    `json:"blockHeight,omitempty"`
	// BlockTime and ReceiveTime are expressed in milliseconds.
	BlockTime   *int64 `json:"blockTime,omitempty"`
	ReceiveTime int64  `json:"receiveTime"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (b *TxBase) Base() *TxBase {
	return b
}

// IsConfirmed tells whether the transaction has been mined.
func (b *TxBase) IsConfirmed() bool {
	return b.BlockHeight != nil
}

// Confirm sets the block fields.
func (b *TxBase) Confirm(blockHash string, height, blockTime int64) {
	b.BlockHash = blockHash
	b.BlockHeight = &height
	b.BlockTime = &blockTime
}

// MergeConfirmation copies the confirmation fields of other when present.
// Fields already set are never cleared.
func (b *TxBase) MergeConfirmation(other *TxBase) bool {
	changed := false
	if other.BlockHeight != nil &&
		(b.BlockHeight == nil || *b.BlockHeight != *other.BlockHeight) {
		h := *other.BlockHeight
		b.BlockHeight = &h
		changed = true
	}
	if other.BlockHash != "" && other.BlockHash != b.BlockHash {
		b.BlockHash = other.BlockHash
		changed = true
	}
	if other.BlockTime != nil &&
		(b.BlockTime == nil || *b.BlockTime != *other.BlockTime) {
		t := *other.BlockTime
		b.BlockTime = &t
		changed = true
	}
	return changed
}

func (b TxBase) clone() TxBase {
	out := b
	if b.BlockHeight != nil {
		h := *b.BlockHeight
		out.BlockHeight = &h
	}
	if b.BlockTime != nil {
		t := *b.BlockTime
		out.BlockTime = &t
	}
	out.Extra = copyExtra(b.Extra)
	return out
}

// Input spends the output PrevOutIndex of transaction PrevTxID.
type Input struct {
	PrevTxID     string   `json:"prevTxid"`
	PrevOutIndex uint32   `json:"prevOutIndex"`
	Sequence     uint32   `json:"sequence"`
	ScriptSig    string   `json:"scriptSig,omitempty"`
	Addresses    []string `json:"addresses,omitempty"`
}

// Output ...
type Output struct {
	Value        decimal.Decimal `json:"value"`
	ScriptPubKey string          `json:"scriptPubKey"`
	Addresses    []string        `json:"addresses"`
}

// LedgerTransaction is a transaction of a UTXO coin.
type LedgerTransaction struct {
	TxBase
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	Version  int32    `json:"version"`
	LockTime uint32   `json:"lockTime"`
}

func (t *LedgerTransaction) Scheme() coin.TransactionScheme {
	return coin.InputsOutputs
}

func (t *LedgerTransaction) Clone() WalletTransaction {
	out := *t
	out.TxBase = t.TxBase.clone()
	out.Inputs = make([]Input, len(t.Inputs))
	for i, in := range t.Inputs {
		in.Addresses = append([]string(nil), in.Addresses...)
		out.Inputs[i] = in
	}
	out.Outputs = make([]Output, len(t.Outputs))
	for i, o := range t.Outputs {
		o.Addresses = append([]string(nil), o.Addresses...)
		out.Outputs[i] = o
	}
	return &out
}

type ledgerAlias LedgerTransaction

type ledgerJSON struct {
	Scheme string `json:"scheme"`
	ledgerAlias
}

func (t LedgerTransaction) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(ledgerJSON{schemeInputsOutputs, ledgerAlias(t)}, t.Extra)
}

func (t *LedgerTransaction) UnmarshalJSON(data []byte) error {
	var v ledgerJSON
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*t = LedgerTransaction(v.ledgerAlias)
	t.Extra = extra
	return nil
}

// AccountTransaction is a transaction of an account balance coin. Amounts
// are expressed in coin units, gas in gas units.
type AccountTransaction struct {
	TxBase
	From          string          `json:"from"`
	To            string          `json:"to,omitempty"`
	Value         decimal.Decimal `json:"value"`
	Nonce         uint64          `json:"nonce"`
	Data          string          `json:"data,omitempty"`
	GasPrice      decimal.Decimal `json:"gasPrice"`
	GasLimit      uint64          `json:"gasLimit"`
	GasUsed       *uint64         `json:"gasUsed,omitempty"`
	ReceiptStatus *bool           `json:"receiptStatus,omitempty"`
	R             string          `json:"r,omitempty"`
	S             string          `json:"s,omitempty"`
	V             string          `json:"v,omitempty"`
}

func (t *AccountTransaction) Scheme() coin.TransactionScheme {
	return coin.FromTo
}

func (t *AccountTransaction) Clone() WalletTransaction {
	out := *t
	out.TxBase = t.TxBase.clone()
	if t.GasUsed != nil {
		g := *t.GasUsed
		out.GasUsed = &g
	}
	if t.ReceiptStatus != nil {
		s := *t.ReceiptStatus
		out.ReceiptStatus = &s
	}
	return &out
}

// GasCost is the fee paid: gas used, or the gas limit while unknown, times
// the gas price.
func (t *AccountTransaction) GasCost() decimal.Decimal {
	gas := t.GasLimit
	if t.GasUsed != nil {
		gas = *t.GasUsed
	}
	return t.GasPrice.Mul(decimal.NewFromInt(int64(gas)))
}

// Succeeded reports the receipt outcome. A missing receipt counts as
// success.
func (t *AccountTransaction) Succeeded() bool {
	return t.ReceiptStatus == nil || *t.ReceiptStatus
}

type accountAlias AccountTransaction

type accountJSON struct {
	Scheme string `json:"scheme"`
	accountAlias
}

func (t AccountTransaction) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(accountJSON{schemeFromTo, accountAlias(t)}, t.Extra)
}

func (t *AccountTransaction) UnmarshalJSON(data []byte) error {
	var v accountJSON
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*t = AccountTransaction(v.accountAlias)
	t.Extra = extra
	return nil
}

// DecodeTransaction decodes a transaction of either scheme. The scheme tag
// wins, the registered scheme of the coin unit is used when it is missing.
func DecodeTransaction(data []byte) (WalletTransaction, error) {
	var head struct {
		Scheme string    `json:"scheme"`
		Coin   coin.Unit `json:"coin"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	scheme := head.Scheme
	if scheme == "" {
		c, err := coin.MakeCoin(head.Coin)
		if err != nil {
			return nil, fmt.Errorf("unknown transaction scheme: %w", err)
		}
		scheme = schemeInputsOutputs
		if c.TransactionScheme == coin.FromTo {
			scheme = schemeFromTo
		}
	}

	switch scheme {
	case schemeInputsOutputs:
		tx := &LedgerTransaction{}
		if err := json.Unmarshal(data, tx); err != nil {
			return nil, err
		}
		return tx, nil
	case schemeFromTo:
		tx := &AccountTransaction{}
		if err := json.Unmarshal(data, tx); err != nil {
			return nil, err
		}
		return tx, nil
	default:
		return nil, fmt.Errorf("unknown transaction scheme %q", scheme)
	}
}

// MergeTransaction returns a copy of dst overwritten, field by field, with
// the non zero fields of src. Transactions of different schemes are not
// merged and src wins.
func MergeTransaction(dst, src WalletTransaction) WalletTransaction {
	if dst == nil {
		return src.Clone()
	}
	if src == nil || reflect.TypeOf(dst) != reflect.TypeOf(src) {
		if src == nil {
			return dst.Clone()
		}
		return src.Clone()
	}

	out := dst.Clone()
	mergeFields(reflect.ValueOf(out).Elem(), reflect.ValueOf(src.Clone()).Elem())
	return out
}

func mergeFields(dst, src reflect.Value) {
	for i := 0; i < src.NumField(); i++ {
		f := src.Type().Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			mergeFields(dst.Field(i), src.Field(i))
			continue
		}
		if !f.IsExported() || src.Field(i).IsZero() {
			continue
		}
		dst.Field(i).Set(src.Field(i))
	}
}
