package hd

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the binary form of a BIP32 derivation path.
type DerivationPath []uint32

// ParseDerivationPath converts a derivation path string to its binary form.
// Absolute paths start with "m", hardened elements end with "'".
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if len(elems) < 2 {
		return nil, ErrMalformedDerivationPath
	}
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}

		var value uint32
		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("invalid elem '%s' in path", elem)
		}
		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf("elem %v must be in range [0, %d]", bigval, max)
			}
			return nil, fmt.Errorf("elem %v must be in hardened range [0, %d]", bigval, max)
		}
		path = append(path, value+uint32(bigval.Uint64()))
	}

	return path, nil
}

// String returns the canonical absolute representation of the path.
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		if component >= hdkeychain.HardenedKeyStart {
			fmt.Fprintf(&b, "/%d'", component-hdkeychain.HardenedKeyStart)
			continue
		}
		fmt.Fprintf(&b, "/%d", component)
	}
	return b.String()
}

// Append returns a new path made of path followed by elems.
func (path DerivationPath) Append(elems ...uint32) DerivationPath {
	out := make(DerivationPath, 0, len(path)+len(elems))
	out = append(out, path...)
	return append(out, elems...)
}
