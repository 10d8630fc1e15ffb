package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/coinselect"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// BIPPrivateProvider spends the confirmed unspent outputs of a UTXO coin
// wallet.
type BIPPrivateProvider struct {
	privateBase
}

// DeriveNew derives the address following the highest index in use for the
// given type.
func (pp *BIPPrivateProvider) DeriveNew(addrType hd.AddressType) (entity.WalletAddress, error) {
	return pp.deriveAt(addrType, pp.nextIndex(addrType))
}

func (pp *BIPPrivateProvider) CalculateFee(
	ctx context.Context, value decimal.Decimal, address *coin.Address, feeType coin.FeeType,
) (decimal.Decimal, error) {
	balance, err := pp.p.Balance()
	if err != nil {
		return decimal.Zero, err
	}
	res, _, err := pp.calculateOptimalInputs(ctx, balance, address, value, feeType)
	if err != nil {
		return decimal.Zero, err
	}
	return pp.p.coin.FromBaseUnits(big.NewInt(res.Fee)), nil
}

// CreateTransaction pays value to address out of the confirmed unspent
// outputs. The change, if any, goes to the first unused change address,
// derived if needed.
func (pp *BIPPrivateProvider) CreateTransaction(
	ctx context.Context, address *coin.Address, value decimal.Decimal, feeType coin.FeeType,
) (transaction.Transaction, error) {
	if address == nil {
		return nil, transaction.ErrMissingRecipient
	}
	c := pp.p.coin

	balance, err := pp.p.Balance()
	if err != nil {
		return nil, err
	}
	res, utxos, err := pp.calculateOptimalInputs(ctx, balance, address, value, feeType)
	if err != nil {
		return nil, err
	}

	data := pp.p.Data()
	builder := transaction.NewBIPBuilder(c)
	keys := make([]*coin.PrivateKey, 0, len(res.Inputs))
	for _, in := range res.Inputs {
		utxo := utxos[outpoint{in.TxID, in.Index}]
		walletAddr, ok := pp.p.Address().Get(utxo.Addresses[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, utxo.Addresses[0])
		}
		key, err := pp.privateKey(walletAddr)
		if err != nil {
			return nil, err
		}

		opts := []transaction.InputOption{transaction.WithPrevOutValue(in.Value)}
		if script := prevOutScript(data, in.TxID, in.Index); script != nil {
			opts = append(opts, transaction.WithPrevOutScript(script))
		}
		if _, err := builder.AddInput(in.TxID, in.Index, opts...); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	for i, out := range res.Outputs {
		to := address
		if i > 0 {
			change, err := pp.pureChangeAddress(balance)
			if err != nil {
				return nil, err
			}
			if to, err = c.KeyFormat().ParseAddress(change.Address); err != nil {
				return nil, err
			}
		}
		if _, err := builder.AddOutput(to, c.FromBaseUnits(big.NewInt(out.Value))); err != nil {
			return nil, err
		}
	}

	return builder.BuildSigned(keys)
}

// calculateOptimalInputs selects the confirmed unspent outputs funding a
// payment of value to address. The selected outputs are returned by
// outpoint along with the selection.
func (pp *BIPPrivateProvider) calculateOptimalInputs(
	ctx context.Context, balance *entity.WDBalance,
	address *coin.Address, value decimal.Decimal, feeType coin.FeeType,
) (*coinselect.Result, map[outpoint]entity.UnspentOutput, error) {
	c := pp.p.coin
	if err := c.ValidateAmount(value, false); err != nil {
		return nil, nil, err
	}

	scriptSize := pp.inputScriptSize()
	utxos := make(map[outpoint]entity.UnspentOutput)
	inputs := make([]coinselect.Input, 0, len(balance.UTXO))
	for _, utxo := range balance.UTXO {
		if !utxo.Confirmed {
			continue
		}
		utxos[outpoint{utxo.TxID, utxo.Index}] = utxo
		inputs = append(inputs, coinselect.Input{
			TxID:       utxo.TxID,
			Index:      utxo.Index,
			Value:      c.ToBaseUnits(utxo.Value).Int64(),
			ScriptSize: scriptSize,
		})
	}

	target := coinselect.Output{Value: c.ToBaseUnits(value).Int64()}
	if address != nil {
		target.Address = address.String()
		if c.IsScriptHashAddress(address) {
			target.ScriptSize = txsizes.NestedP2WPKHPkScriptSize
		}
	}

	feeRate, err := pp.feeRate(ctx, feeType)
	if err != nil {
		return nil, nil, err
	}

	res, err := coinselect.Select(inputs, []coinselect.Output{target}, feeRate)
	if err != nil {
		if errors.Is(err, coinselect.ErrInsufficientFunds) {
			return nil, nil, fmt.Errorf(
				"%w: %s %s requested", ErrInsufficientFunds, value.String(), c.Unit,
			)
		}
		return nil, nil, err
	}
	return res, utxos, nil
}

// feeRate resolves the fee per byte of the tier, in base units. The network
// estimate is used when available, the coin static fee otherwise. The rate
// never goes below the coin minimum.
func (pp *BIPPrivateProvider) feeRate(ctx context.Context, feeType coin.FeeType) (float64, error) {
	c := pp.p.coin
	fee := c.StaticFee(feeType)

	if network, err := pp.p.Network(); err == nil {
		if estimator, ok := network.(explorer.FeeEstimator); ok {
			estimate, err := estimator.EstimateFeePerByte(ctx, feeType)
			switch {
			case err == nil && estimate.IsPositive():
				fee = estimate
			case ctx.Err() != nil:
				return 0, ctx.Err()
			case err != nil:
				log.WithError(err).WithField("coin", c.Unit).Warn(
					"unable to estimate fee, using static fee",
				)
			}
		}
	}

	if fee.LessThan(c.MinFee()) {
		fee = c.MinFee()
	}
	return fee.Shift(c.Precision).InexactFloat64(), nil
}

func (pp *BIPPrivateProvider) inputScriptSize() int {
	if pp.p.coin.UseSegWit() {
		witness := (txsizes.RedeemP2WPKHInputWitnessWeight + 3) / 4
		return txsizes.RedeemNestedP2WPKHScriptSize + witness
	}
	return txsizes.RedeemP2PKHSigScriptSize
}

func (pp *BIPPrivateProvider) pureChangeAddress(balance *entity.WDBalance) (entity.WalletAddress, error) {
	addr, ok, err := pp.p.Address().Last(hd.Change, balance)
	if err != nil {
		return entity.WalletAddress{}, err
	}
	if ok {
		return addr, nil
	}
	return pp.DeriveNew(hd.Change)
}

func prevOutScript(data entity.WalletData, txid string, index uint32) []byte {
	tx, ok := data.Txs[txid].(*entity.LedgerTransaction)
	if !ok || int(index) >= len(tx.Outputs) {
		return nil
	}
	script, err := hex.DecodeString(tx.Outputs[index].ScriptPubKey)
	if err != nil || len(script) == 0 {
		return nil
	}
	return script
}
