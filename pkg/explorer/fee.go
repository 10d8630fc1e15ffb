package explorer

import (
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/shopspring/decimal"
)

// ScaleFee derives the fee of a tier from a backend suggested standard fee,
// keeping the ratios of the static coin tiers.
func ScaleFee(c *coin.Coin, standard decimal.Decimal, feeType coin.FeeType) decimal.Decimal {
	def := c.DefaultFee()
	if def.IsZero() {
		return standard
	}
	ratio := c.StaticFee(feeType).Div(def)
	return standard.Mul(ratio).Round(c.Precision)
}
