package wallet

import (
	"context"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/berrywallet/berrywallet-go/pkg/transaction"
	"github.com/shopspring/decimal"
)

// PrivateProvider derives the wallet keys out of its seed and creates signed
// transactions spending the wallet funds.
type PrivateProvider interface {
	// DeriveNew derives, stores and returns the next address of the given
	// type.
	DeriveNew(addrType hd.AddressType) (entity.WalletAddress, error)
	DeriveAddressNode(addr entity.WalletAddress) (*hd.KeyNode, error)
	// CalculateFee returns the fee of a payment of value to address, which
	// may be nil when the recipient is not known yet.
	CalculateFee(
		ctx context.Context, value decimal.Decimal, address *coin.Address, feeType coin.FeeType,
	) (decimal.Decimal, error)
	CreateTransaction(
		ctx context.Context, address *coin.Address, value decimal.Decimal, feeType coin.FeeType,
	) (transaction.Transaction, error)
}

// NewPrivateProvider returns the private provider matching the transaction
// scheme of the wallet coin.
func NewPrivateProvider(p *Provider, seed []byte) (PrivateProvider, error) {
	if p == nil {
		return nil, ErrNullWalletData
	}
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	base := privateBase{p, append([]byte(nil), seed...)}

	switch p.coin.TransactionScheme {
	case coin.InputsOutputs:
		return &BIPPrivateProvider{base}, nil
	case coin.FromTo:
		return &EthereumPrivateProvider{base}, nil
	default:
		return nil, ErrUnknownTransactionScheme
	}
}

type privateBase struct {
	p    *Provider
	seed []byte
}

// accountNode derives m/44'/coin'/account'. Nodes are derived on every call
// and never kept around.
func (b privateBase) accountNode() (*hd.KeyNode, error) {
	master, err := hd.NewMasterNode(b.seed, b.p.coin)
	if err != nil {
		return nil, err
	}
	return master.Derive(hd.AccountHDPath(b.p.coin.HDCoinType, b.p.accountIndex))
}

func (b privateBase) DeriveAddressNode(addr entity.WalletAddress) (*hd.KeyNode, error) {
	account, err := b.accountNode()
	if err != nil {
		return nil, err
	}
	return account.Derive(hd.HDPathFromAccount(addr.Type, addr.Index))
}

func (b privateBase) privateKey(addr entity.WalletAddress) (*coin.PrivateKey, error) {
	node, err := b.DeriveAddressNode(addr)
	if err != nil {
		return nil, err
	}
	return node.PrivateKey()
}

// deriveAt derives and stores the address of the given type at index.
func (b privateBase) deriveAt(addrType hd.AddressType, index uint32) (entity.WalletAddress, error) {
	account, err := b.accountNode()
	if err != nil {
		return entity.WalletAddress{}, err
	}
	node, err := account.Derive(hd.HDPathFromAccount(addrType, index))
	if err != nil {
		return entity.WalletAddress{}, err
	}
	addr, err := node.Address()
	if err != nil {
		return entity.WalletAddress{}, err
	}
	return b.p.Address().Add(addr.String(), addrType, index)
}

// nextIndex is one past the highest index in use for the given type.
func (b privateBase) nextIndex(addrType hd.AddressType) uint32 {
	next := uint32(0)
	for _, addr := range b.p.Address().List(addrType) {
		if addr.Index >= next {
			next = addr.Index + 1
		}
	}
	return next
}
