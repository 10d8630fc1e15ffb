package wallet

import (
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
)

// AddressProvider is the view over the wallet addresses.
type AddressProvider struct {
	p *Provider
}

// Add stores a derived address and returns it. An address already in the
// wallet is returned as stored, whatever type and index are given.
func (ap *AddressProvider) Add(
	address string, addrType hd.AddressType, index uint32,
) (entity.WalletAddress, error) {
	if !addrType.IsValid() {
		return entity.WalletAddress{}, fmt.Errorf("%w: address type %d", coin.ErrValidation, addrType)
	}
	parsed, err := ap.p.coin.KeyFormat().ParseAddress(address)
	if err != nil {
		return entity.WalletAddress{}, err
	}

	var out entity.WalletAddress
	ap.p.update(func(wd *entity.WalletData) bool {
		if existing, ok := find(wd.Addresses, parsed.String(), ap.p.coin); ok {
			out = existing
			return false
		}
		out = entity.WalletAddress{Address: address, Type: addrType, Index: index}
		wd.Addresses = append(wd.Addresses, out)
		return true
	})
	return out, nil
}

// Get looks an address up by any of its encodings.
func (ap *AddressProvider) Get(address string) (entity.WalletAddress, bool) {
	key := address
	if parsed, err := ap.p.coin.KeyFormat().ParseAddress(address); err == nil {
		key = parsed.String()
	}
	return find(ap.p.Data().Addresses, key, ap.p.coin)
}

// List returns the addresses in insertion order, restricted to the given
// types if any.
func (ap *AddressProvider) List(types ...hd.AddressType) []entity.WalletAddress {
	addresses := ap.p.Data().Addresses
	if len(types) == 0 {
		return addresses
	}

	out := make([]entity.WalletAddress, 0, len(addresses))
	for _, addr := range addresses {
		for _, t := range types {
			if addr.Type == t {
				out = append(out, addr)
				break
			}
		}
	}
	return out
}

func (ap *AddressProvider) Count(types ...hd.AddressType) int {
	return len(ap.List(types...))
}

// Strings returns the encoded addresses, restricted to the given types if
// any.
func (ap *AddressProvider) Strings(types ...hd.AddressType) []string {
	addresses := ap.List(types...)
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		out = append(out, addr.Address)
	}
	return out
}

// Last returns the first address of the given type that never received nor
// spent anything. Account coins use a single address, the first one is
// always returned. A nil balance is computed out of the current snapshot.
func (ap *AddressProvider) Last(
	addrType hd.AddressType, balance *entity.WDBalance,
) (entity.WalletAddress, bool, error) {
	addresses := ap.List(addrType)
	if !ap.p.coin.IsMultiAddressAccount() {
		if len(addresses) == 0 {
			return entity.WalletAddress{}, false, nil
		}
		return addresses[0], true, nil
	}

	balance, err := ap.balance(balance)
	if err != nil {
		return entity.WalletAddress{}, false, err
	}
	for _, addr := range addresses {
		if isPure(balance, ap.p.coin, addr.Address) {
			return addr, true, nil
		}
	}
	return entity.WalletAddress{}, false, nil
}

// PureAddrCount counts the addresses of the given type that never received
// nor spent anything.
func (ap *AddressProvider) PureAddrCount(
	addrType hd.AddressType, balance *entity.WDBalance,
) (int, error) {
	balance, err := ap.balance(balance)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, addr := range ap.List(addrType) {
		if isPure(balance, ap.p.coin, addr.Address) {
			count++
		}
	}
	return count, nil
}

// AddrBalances ...
func (ap *AddressProvider) AddrBalances() (map[string]*entity.Balance, error) {
	balance, err := ap.p.Balance()
	if err != nil {
		return nil, err
	}
	return balance.AddrBalances, nil
}

func (ap *AddressProvider) balance(balance *entity.WDBalance) (*entity.WDBalance, error) {
	if balance != nil {
		return balance, nil
	}
	return ap.p.Balance()
}

func isPure(balance *entity.WDBalance, c *coin.Coin, address string) bool {
	b, ok := balance.AddrBalances[canonical(c, address)]
	if !ok {
		return false
	}
	return b.Receive.IsZero() && b.Spend.IsZero()
}

func find(addresses []entity.WalletAddress, key string, c *coin.Coin) (entity.WalletAddress, bool) {
	for _, addr := range addresses {
		if addr.Address == key || canonical(c, addr.Address) == key {
			return addr, true
		}
	}
	return entity.WalletAddress{}, false
}

// canonical collapses the encodings of the same address into one. Strings
// the coin cannot parse are used as they are.
func canonical(c *coin.Coin, address string) string {
	parsed, err := c.KeyFormat().ParseAddress(address)
	if err != nil {
		return address
	}
	return parsed.String()
}
