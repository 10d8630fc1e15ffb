package coin

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the ticker symbol identifying a registered coin.
type Unit string

const (
	BTC   Unit = "BTC"
	BTCt  Unit = "BTCt"
	LTC   Unit = "LTC"
	LTCt  Unit = "LTCt"
	DASH  Unit = "DASH"
	DASHt Unit = "DASHt"
	ETH   Unit = "ETH"
	ETHt  Unit = "ETHt"
)

// BalanceScheme is the ledger model used to compute balances.
type BalanceScheme int

const (
	UTXO BalanceScheme = iota
	AddressBalance
)

func (s BalanceScheme) String() string {
	switch s {
	case UTXO:
		return "utxo"
	case AddressBalance:
		return "address_balance"
	default:
		return "unknown"
	}
}

// TransactionScheme is the shape of the transactions a coin produces.
type TransactionScheme int

const (
	InputsOutputs TransactionScheme = iota
	FromTo
)

func (s TransactionScheme) String() string {
	switch s {
	case InputsOutputs:
		return "inputs_outputs"
	case FromTo:
		return "from_to"
	default:
		return "unknown"
	}
}

// Family groups the coins sharing key and address encodings.
type Family int

const (
	FamilyBIP Family = iota
	FamilyEthereum
)

// FeeType is the fee tier requested when paying a transaction.
type FeeType int

const (
	FeeStandard FeeType = iota
	FeeLow
	FeeHigh
)

func (f FeeType) String() string {
	switch f {
	case FeeLow:
		return "low"
	case FeeHigh:
		return "high"
	default:
		return "standard"
	}
}

// ParseFeeType is the inverse of FeeType.String, case insensitive.
func ParseFeeType(str string) (FeeType, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "", "standard":
		return FeeStandard, nil
	case "low":
		return FeeLow, nil
	case "high":
		return FeeHigh, nil
	}
	return FeeStandard, fmt.Errorf("%w: unknown fee type %s", ErrValidation, str)
}

// NetworkParams holds the version bytes of a BIP family network.
type NetworkParams struct {
	PubKeyHashAddrID byte
	ScriptHashAddrID byte
	PrivateKeyID     byte
	HDPublicKeyID    [4]byte
	HDPrivateKeyID   [4]byte
}

// Descriptor is the immutable configuration record of a currency. Adding a
// currency means adding a Descriptor to the registry.
type Descriptor struct {
	Unit              Unit
	Name              string
	Family            Family
	HDCoinType        uint32
	BalanceScheme     BalanceScheme
	TransactionScheme TransactionScheme
	// Precision is the number of decimal places of the smallest unit.
	Precision       int32
	SegWitAvailable bool
	Network         NetworkParams

	// Fee per byte expressed in coin units, BIP family only.
	DefaultFeePerByte decimal.Decimal
	// MinFeePerByte overrides the one-unit minimum when not zero.
	MinFeePerByte decimal.Decimal

	// Account family only.
	ChainID         int64
	DefaultGasPrice decimal.Decimal
	DefaultGasLimit uint64
}

// Options are fixed at coin construction.
type Options struct {
	UseSegWit bool
}

// Option ...
type Option func(*Options)

// WithSegWit makes the coin derive wrapped segwit addresses when the family
// supports them.
func WithSegWit(useSegWit bool) Option {
	return func(o *Options) {
		o.UseSegWit = useSegWit
	}
}

// Coin is a descriptor bound to its construction options and key format.
type Coin struct {
	Descriptor
	options   Options
	keyFormat KeyFormat
}

// MakeCoin resolves the unit in the registry and returns a new coin instance.
func MakeCoin(unit Unit, opts ...Option) (*Coin, error) {
	desc, ok := registry[unit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, unit)
	}
	return NewCoin(desc, opts...), nil
}

// MustMakeCoin is like MakeCoin but panics on unregistered units.
func MustMakeCoin(unit Unit, opts ...Option) *Coin {
	c, err := MakeCoin(unit, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCoin builds a coin out of an arbitrary descriptor.
func NewCoin(desc Descriptor, opts ...Option) *Coin {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if !desc.SegWitAvailable {
		options.UseSegWit = false
	}

	c := &Coin{Descriptor: desc, options: options}
	switch desc.Family {
	case FamilyEthereum:
		c.keyFormat = ethKeyFormat{}
	default:
		c.keyFormat = bipKeyFormat{
			network:   desc.Network,
			useSegWit: options.UseSegWit,
		}
	}
	return c
}

// Registered returns the units known to MakeCoin.
func Registered() []Unit {
	units := make([]Unit, len(registryOrder))
	copy(units, registryOrder)
	return units
}

func (c *Coin) Options() Options {
	return c.options
}

func (c *Coin) UseSegWit() bool {
	return c.options.UseSegWit
}

func (c *Coin) KeyFormat() KeyFormat {
	return c.keyFormat
}

// IsMultiAddressAccount tells whether the wallet spreads funds over many
// derived addresses (BIP family) or keeps a single account address.
func (c *Coin) IsMultiAddressAccount() bool {
	return c.Family == FamilyBIP
}

// MinValue is the smallest indivisible amount.
func (c *Coin) MinValue() decimal.Decimal {
	return decimal.New(1, -c.Precision)
}

// DefaultFee is the standard fee per byte, or the default gas price for
// account coins.
func (c *Coin) DefaultFee() decimal.Decimal {
	if c.Family == FamilyEthereum {
		return c.DefaultGasPrice
	}
	return c.DefaultFeePerByte
}

// LowFee is half of the default fee.
func (c *Coin) LowFee() decimal.Decimal {
	return c.DefaultFee().Div(decimal.NewFromInt(2))
}

// HighFee is four times the default fee.
func (c *Coin) HighFee() decimal.Decimal {
	return c.DefaultFee().Mul(decimal.NewFromInt(4))
}

// MinFee is the floor applied to any resolved fee rate.
func (c *Coin) MinFee() decimal.Decimal {
	if !c.MinFeePerByte.IsZero() {
		return c.MinFeePerByte
	}
	return c.MinValue()
}

// StaticFee returns the static fee per byte for the given tier.
func (c *Coin) StaticFee(feeType FeeType) decimal.Decimal {
	switch feeType {
	case FeeLow:
		return c.LowFee()
	case FeeHigh:
		return c.HighFee()
	default:
		return c.DefaultFee()
	}
}

// ToBaseUnits converts an amount in coin units to its indivisible units.
func (c *Coin) ToBaseUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(c.Precision).Truncate(0).BigInt()
}

// FromBaseUnits converts indivisible units back to coin units.
func (c *Coin) FromBaseUnits(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -c.Precision)
}

// ValidateAmount checks the amount is non negative, expressible in the coin
// precision and, unless zero is allowed, at least one unit.
func (c *Coin) ValidateAmount(amount decimal.Decimal, allowZero bool) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if amount.IsZero() {
		if allowZero {
			return nil
		}
		return ErrZeroAmount
	}
	if !amount.Shift(c.Precision).IsInteger() {
		return ErrAmountPrecision
	}
	if amount.LessThan(c.MinValue()) {
		return ErrAmountBelowMinimum
	}
	return nil
}
