package hd

import "github.com/btcsuite/btcd/btcutil/hdkeychain"

// Purpose is the BIP44 purpose field.
const Purpose uint32 = 44

// AddressType is the BIP44 change flag.
type AddressType uint32

const (
	Receive AddressType = 0
	Change  AddressType = 1
)

func (t AddressType) String() string {
	switch t {
	case Receive:
		return "receive"
	case Change:
		return "change"
	default:
		return "unknown"
	}
}

// IsValid ...
func (t AddressType) IsValid() bool {
	return t == Receive || t == Change
}

func hardened(i uint32) uint32 {
	return hdkeychain.HardenedKeyStart + i
}

// HDPath is the full path m/44'/coinType'/account'/type/index.
func HDPath(coinType, account uint32, addrType AddressType, index uint32) DerivationPath {
	return AccountHDPath(coinType, account).Append(uint32(addrType), index)
}

// AccountHDPath is the path of the account root m/44'/coinType'/account'.
func AccountHDPath(coinType, account uint32) DerivationPath {
	return DerivationPath{hardened(Purpose), hardened(coinType), hardened(account)}
}

// HDPathFromAccount is the relative path type/index below an account root.
func HDPathFromAccount(addrType AddressType, index uint32) DerivationPath {
	return DerivationPath{uint32(addrType), index}
}
