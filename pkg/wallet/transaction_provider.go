package wallet

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/btcsuite/btcd/txscript"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransactionProvider is the view over the wallet transactions.
type TransactionProvider struct {
	p *Provider
}

// Add stores tx, or merges it into the stored transaction with the same
// txid. Merging only ever adds confirmation and receipt data, a confirmed
// transaction never turns back to unconfirmed. The stored transaction is
// returned.
func (tp *TransactionProvider) Add(tx entity.WalletTransaction) (entity.WalletTransaction, error) {
	stored, err := tp.AddAll([]entity.WalletTransaction{tx})
	if err != nil {
		return nil, err
	}
	return stored[0], nil
}

// AddAll is like Add for many transactions, listeners are notified at most
// once.
func (tp *TransactionProvider) AddAll(txs []entity.WalletTransaction) ([]entity.WalletTransaction, error) {
	for _, tx := range txs {
		if err := tp.validate(tx); err != nil {
			return nil, err
		}
	}

	stored := make([]entity.WalletTransaction, 0, len(txs))
	tp.p.update(func(wd *entity.WalletData) bool {
		changed := false
		for _, tx := range txs {
			txid := tx.Base().TxID
			existing, ok := wd.Txs[txid]
			if !ok {
				clone := tx.Clone()
				if clone.Base().Coin == "" {
					clone.Base().Coin = tp.p.coin.Unit
				}
				wd.Txs[txid] = clone
				stored = append(stored, clone)
				changed = true
				continue
			}

			merged := existing.Clone()
			if mergeTx(merged, tx) {
				wd.Txs[txid] = merged
				stored = append(stored, merged)
				changed = true
				continue
			}
			stored = append(stored, existing)
		}
		return changed
	})
	return stored, nil
}

func (tp *TransactionProvider) Get(txid string) (entity.WalletTransaction, bool) {
	tx, ok := tp.p.Data().Txs[txid]
	return tx, ok
}

// List returns the transactions ordered by receive time, then by txid.
func (tp *TransactionProvider) List() []entity.WalletTransaction {
	data := tp.p.Data()
	list := make([]entity.WalletTransaction, 0, len(data.Txs))
	for _, tx := range data.Txs {
		list = append(list, tx)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Base(), list[j].Base()
		if a.ReceiveTime != b.ReceiveTime {
			return a.ReceiveTime < b.ReceiveTime
		}
		return a.TxID < b.TxID
	})
	return list
}

func (tp *TransactionProvider) Count() int {
	return len(tp.p.Data().Txs)
}

// Unconfirmed returns the ids of the transactions not mined yet.
func (tp *TransactionProvider) Unconfirmed() []string {
	data := tp.p.Data()
	txids := make([]string, 0)
	for _, txid := range data.SortedTxIDs() {
		if !data.Txs[txid].Base().IsConfirmed() {
			txids = append(txids, txid)
		}
	}
	return txids
}

func (tp *TransactionProvider) validate(tx entity.WalletTransaction) error {
	if tx == nil || tx.Base().TxID == "" {
		return fmt.Errorf("%w: transaction without txid", coin.ErrValidation)
	}
	if unit := tx.Base().Coin; unit != "" && unit != tp.p.coin.Unit {
		return fmt.Errorf("%w: tx %s of %s", ErrCoinMismatch, tx.Base().TxID, unit)
	}
	if tx.Scheme() != tp.p.coin.TransactionScheme {
		return fmt.Errorf("%w: tx %s", ErrUnknownTransactionScheme, tx.Base().TxID)
	}
	return nil
}

// mergeTx moves the confirmation and receipt data of src into dst.
func mergeTx(dst, src entity.WalletTransaction) bool {
	changed := dst.Base().MergeConfirmation(src.Base())

	d, ok := dst.(*entity.AccountTransaction)
	if !ok {
		return changed
	}
	s, ok := src.(*entity.AccountTransaction)
	if !ok {
		return changed
	}
	if s.GasUsed != nil && (d.GasUsed == nil || *d.GasUsed != *s.GasUsed) {
		gas := *s.GasUsed
		d.GasUsed = &gas
		changed = true
	}
	if s.ReceiptStatus != nil && (d.ReceiptStatus == nil || *d.ReceiptStatus != *s.ReceiptStatus) {
		status := *s.ReceiptStatus
		d.ReceiptStatus = &status
		changed = true
	}
	return changed
}

// CoinTxToWalletTx maps a locally signed transaction to its unconfirmed
// wallet form, received now.
func CoinTxToWalletTx(tx transaction.Transaction) (entity.WalletTransaction, error) {
	if !tx.IsSigned() {
		return nil, ErrTxNotSigned
	}

	base := entity.TxBase{
		TxID:        tx.TxID(),
		Coin:        tx.Coin().Unit,
		ReceiveTime: time.Now().UnixMilli(),
	}

	switch t := tx.(type) {
	case *transaction.BIPTransaction:
		return bipToWalletTx(base, t), nil
	case *transaction.EthereumTransaction:
		return ethereumToWalletTx(base, t)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTransactionScheme, tx)
	}
}

func bipToWalletTx(base entity.TxBase, tx *transaction.BIPTransaction) *entity.LedgerTransaction {
	c := tx.Coin()
	msg := tx.MsgTx()
	params := c.ChainParams()

	inputs := make([]entity.Input, 0, len(msg.TxIn))
	for _, in := range msg.TxIn {
		inputs = append(inputs, entity.Input{
			PrevTxID:     in.PreviousOutPoint.Hash.String(),
			PrevOutIndex: in.PreviousOutPoint.Index,
			Sequence:     in.Sequence,
			ScriptSig:    hex.EncodeToString(in.SignatureScript),
		})
	}

	outputs := make([]entity.Output, 0, len(msg.TxOut))
	for _, out := range msg.TxOut {
		addresses := make([]string, 0, 1)
		if _, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, params); err == nil {
			for _, addr := range addrs {
				addresses = append(addresses, addr.EncodeAddress())
			}
		}
		outputs = append(outputs, entity.Output{
			Value:        c.FromBaseUnits(big.NewInt(out.Value)),
			ScriptPubKey: hex.EncodeToString(out.PkScript),
			Addresses:    addresses,
		})
	}

	return &entity.LedgerTransaction{
		TxBase:   base,
		Inputs:   inputs,
		Outputs:  outputs,
		Version:  msg.Version,
		LockTime: msg.LockTime,
	}
}

func ethereumToWalletTx(
	base entity.TxBase, tx *transaction.EthereumTransaction,
) (*entity.AccountTransaction, error) {
	from, err := tx.From()
	if err != nil {
		return nil, err
	}
	v, r, s := tx.Raw().RawSignatureValues()

	out := &entity.AccountTransaction{
		TxBase:   base,
		From:     from.String(),
		Value:    tx.Value(),
		Nonce:    tx.Nonce(),
		GasPrice: tx.GasPrice(),
		GasLimit: tx.GasLimit(),
		R:        hexutil.EncodeBig(r),
		S:        hexutil.EncodeBig(s),
		V:        hexutil.EncodeBig(v),
	}
	if data := tx.Data(); len(data) > 0 {
		out.Data = hexutil.Encode(data)
	}
	if to := tx.To(); to != nil {
		out.To = to.String()
	}
	return out, nil
}
