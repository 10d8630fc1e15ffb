package wallet

import (
	"context"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EthereumPrivateProvider spends from the single account address of an
// account coin wallet.
type EthereumPrivateProvider struct {
	privateBase
}

// DeriveNew returns the address of the given type already in use, deriving
// the one at index zero the first time.
func (pp *EthereumPrivateProvider) DeriveNew(addrType hd.AddressType) (entity.WalletAddress, error) {
	if addr, ok, err := pp.p.Address().Last(addrType, nil); err != nil || ok {
		return addr, err
	}
	return pp.deriveAt(addrType, 0)
}

// CalculateFee is the gas price of the tier times the coin gas limit.
func (pp *EthereumPrivateProvider) CalculateFee(
	ctx context.Context, value decimal.Decimal, address *coin.Address, feeType coin.FeeType,
) (decimal.Decimal, error) {
	gasPrice, err := pp.gasPrice(ctx, feeType)
	if err != nil {
		return decimal.Zero, err
	}
	return pp.fee(gasPrice), nil
}

// CreateTransaction pays value to address from the account address. The
// confirmed balance of the account must cover value plus the maximum gas
// cost.
func (pp *EthereumPrivateProvider) CreateTransaction(
	ctx context.Context, address *coin.Address, value decimal.Decimal, feeType coin.FeeType,
) (transaction.Transaction, error) {
	if address == nil {
		return nil, transaction.ErrMissingRecipient
	}
	c := pp.p.coin
	if err := c.ValidateAmount(value, true); err != nil {
		return nil, err
	}

	from, err := pp.DeriveNew(hd.Receive)
	if err != nil {
		return nil, err
	}
	balance, err := pp.p.Balance()
	if err != nil {
		return nil, err
	}
	available := decimal.Zero
	if b, ok := balance.AddrBalances[canonical(c, from.Address)]; ok {
		available = b.Net(false)
	}

	gasPrice, err := pp.gasPrice(ctx, feeType)
	if err != nil {
		return nil, err
	}
	if total := value.Add(pp.fee(gasPrice)); total.GreaterThan(available) {
		return nil, fmt.Errorf(
			"%w: %s %s needed, %s available",
			ErrInsufficientFunds, total.String(), c.Unit, available.String(),
		)
	}

	nonce, err := pp.nonce(ctx, from.Address)
	if err != nil {
		return nil, err
	}
	key, err := pp.privateKey(from)
	if err != nil {
		return nil, err
	}

	builder := transaction.NewEthereumBuilder(c)
	if err := builder.SetNonce(int64(nonce)); err != nil {
		return nil, err
	}
	if err := builder.SetGasPrice(gasPrice); err != nil {
		return nil, err
	}
	if err := builder.SetGasLimit(int64(c.DefaultGasLimit)); err != nil {
		return nil, err
	}
	if err := builder.SetValue(value); err != nil {
		return nil, err
	}
	if err := builder.SetTo(address); err != nil {
		return nil, err
	}
	return builder.BuildSigned([]*coin.PrivateKey{key})
}

func (pp *EthereumPrivateProvider) fee(gasPrice decimal.Decimal) decimal.Decimal {
	return gasPrice.Mul(decimal.NewFromInt(int64(pp.p.coin.DefaultGasLimit)))
}

// gasPrice resolves the gas price of the tier, the coin static gas price is
// used when the network cannot suggest one.
func (pp *EthereumPrivateProvider) gasPrice(ctx context.Context, feeType coin.FeeType) (decimal.Decimal, error) {
	c := pp.p.coin
	price := c.StaticFee(feeType)

	if network, err := pp.p.Network(); err == nil {
		if estimator, ok := network.(explorer.GasPriceEstimator); ok {
			suggested, err := estimator.SuggestGasPrice(ctx, feeType)
			switch {
			case err == nil && suggested.IsPositive():
				price = suggested
			case ctx.Err() != nil:
				return decimal.Zero, ctx.Err()
			case err != nil:
				log.WithError(err).WithField("coin", c.Unit).Warn(
					"unable to fetch gas price, using static gas price",
				)
			}
		}
	}
	return price.Round(c.Precision), nil
}

// nonce asks the network for the pending nonce of the account. Without a
// network answer it is the number of known transactions sent from it.
func (pp *EthereumPrivateProvider) nonce(ctx context.Context, from string) (uint64, error) {
	if network, err := pp.p.Network(); err == nil {
		if source, ok := network.(explorer.NonceSource); ok {
			nonce, err := source.PendingNonce(ctx, from)
			if err == nil {
				return nonce, nil
			}
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			log.WithError(err).WithField("coin", pp.p.coin.Unit).Warn(
				"unable to fetch pending nonce, counting known transactions",
			)
		}
	}

	key := canonical(pp.p.coin, from)
	count := uint64(0)
	for _, tx := range pp.p.Tx().List() {
		accountTx, ok := tx.(*entity.AccountTransaction)
		if ok && canonical(pp.p.coin, accountTx.From) == key {
			count++
		}
	}
	return count, nil
}
