package wallet

import (
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/shopspring/decimal"
)

type outpoint struct {
	txid  string
	index uint32
}

// BalanceCalculator derives per address and per transaction balances, plus
// the unspent outputs for UTXO coins, out of a wallet snapshot. Nothing is
// cached between two computations.
type BalanceCalculator struct {
	coin *coin.Coin
}

// NewBalanceCalculator ...
func NewBalanceCalculator(c *coin.Coin) *BalanceCalculator {
	return &BalanceCalculator{c}
}

// Calc returns the balances of the snapshot. Every wallet address and every
// transaction gets an entry, zero if untouched.
func (bc *BalanceCalculator) Calc(wd entity.WalletData) (*entity.WDBalance, error) {
	balance := entity.NewWDBalance()
	for _, addr := range wd.Addresses {
		balance.AddrBalances[canonical(bc.coin, addr.Address)] = newBalance()
	}
	for txid := range wd.Txs {
		balance.TxBalances[txid] = newBalance()
	}

	switch bc.coin.BalanceScheme {
	case coin.UTXO:
		if err := bc.calcUTXOBalance(wd, balance); err != nil {
			return nil, err
		}
	case coin.AddressBalance:
		if err := bc.calcAddressBalance(wd, balance); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBalanceScheme, bc.coin.BalanceScheme)
	}
	return balance, nil
}

func (bc *BalanceCalculator) calcUTXOBalance(wd entity.WalletData, balance *entity.WDBalance) error {
	txids := wd.SortedTxIDs()
	txs := make([]*entity.LedgerTransaction, 0, len(txids))
	spenders := make(map[outpoint]string)

	for _, txid := range txids {
		tx, ok := wd.Txs[txid].(*entity.LedgerTransaction)
		if !ok {
			return fmt.Errorf(
				"%w: tx %s is not a ledger transaction", ErrUnknownTransactionScheme, txid,
			)
		}
		for _, in := range tx.Inputs {
			spenders[outpoint{in.PrevTxID, in.PrevOutIndex}] = txid
		}
		txs = append(txs, tx)
	}

	for _, tx := range txs {
		confirmed := tx.IsConfirmed()
		txBalance := balance.TxBalances[tx.TxID]

		for i, out := range tx.Outputs {
			addr, addrBalance := bc.owner(balance, out.Addresses)
			if addrBalance == nil {
				continue
			}

			addrBalance.Receive = addrBalance.Receive.Add(out.Value)
			txBalance.Receive = txBalance.Receive.Add(out.Value)
			if !confirmed {
				addrBalance.Unconfirmed = addrBalance.Unconfirmed.Add(out.Value)
			}

			index := uint32(i)
			if spender, ok := spenders[outpoint{tx.TxID, index}]; ok {
				addrBalance.Spend = addrBalance.Spend.Add(out.Value)
				spendBalance := balance.TxBalances[spender]
				spendBalance.Spend = spendBalance.Spend.Add(out.Value)
				continue
			}

			balance.UTXO = append(balance.UTXO, entity.UnspentOutput{
				TxID:      tx.TxID,
				Index:     index,
				Value:     out.Value,
				Addresses: []string{addr},
				Confirmed: confirmed,
			})
		}
	}
	return nil
}

// calcAddressBalance charges the gas to the sender whatever the receipt
// status. The value moves only on success, or optimistically while the
// transaction is pending.
func (bc *BalanceCalculator) calcAddressBalance(wd entity.WalletData, balance *entity.WDBalance) error {
	for _, txid := range wd.SortedTxIDs() {
		tx, ok := wd.Txs[txid].(*entity.AccountTransaction)
		if !ok {
			return fmt.Errorf(
				"%w: tx %s is not an account transaction", ErrUnknownTransactionScheme, txid,
			)
		}

		txBalance := balance.TxBalances[txid]
		confirmed := tx.IsConfirmed()
		succeeded := tx.Succeeded()

		if to := bc.lookup(balance, tx.To); to != nil {
			if succeeded {
				to.Receive = to.Receive.Add(tx.Value)
				txBalance.Receive = txBalance.Receive.Add(tx.Value)
			}
			if !confirmed {
				to.Unconfirmed = to.Unconfirmed.Add(tx.Value)
			}
		}

		if from := bc.lookup(balance, tx.From); from != nil {
			gas := tx.GasCost()
			from.Spend = from.Spend.Add(gas)
			txBalance.Spend = txBalance.Spend.Add(gas)

			if !confirmed || succeeded {
				from.Spend = from.Spend.Add(tx.Value)
				txBalance.Spend = txBalance.Spend.Add(tx.Value)
			}
		}
	}
	return nil
}

// owner returns the first tracked address among the given ones.
func (bc *BalanceCalculator) owner(
	balance *entity.WDBalance, addresses []string,
) (string, *entity.Balance) {
	for _, addr := range addresses {
		key := canonical(bc.coin, addr)
		if b, ok := balance.AddrBalances[key]; ok {
			return key, b
		}
	}
	return "", nil
}

func (bc *BalanceCalculator) lookup(balance *entity.WDBalance, addr string) *entity.Balance {
	if addr == "" {
		return nil
	}
	return balance.AddrBalances[canonical(bc.coin, addr)]
}

func newBalance() *entity.Balance {
	return &entity.Balance{
		Receive:     decimal.Zero,
		Spend:       decimal.Zero,
		Unconfirmed: decimal.Zero,
	}
}

// CalculateBalance sums receive minus spend over every address, minus the
// unconfirmed amounts unless includeUnconfirmed is set.
func CalculateBalance(balance *entity.WDBalance, includeUnconfirmed bool) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balance.AddrBalances {
		total = total.Add(b.Net(includeUnconfirmed))
	}
	return total
}

// CalculateTxBalance returns the net amount moved by a transaction from the
// wallet point of view.
func CalculateTxBalance(balance *entity.WDBalance, txid string) (decimal.Decimal, error) {
	b, ok := balance.TxBalances[txid]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrTxNotFound, txid)
	}
	return b.Receive.Sub(b.Spend), nil
}
