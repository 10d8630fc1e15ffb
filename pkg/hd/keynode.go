package hd

import (
	"encoding/binary"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// KeyNode is a node of the HD key tree bound to the coin whose key format is
// used to encode its keys. Children are derived on request and never cached.
type KeyNode struct {
	key  *hdkeychain.ExtendedKey
	coin *coin.Coin
	path DerivationPath
}

// NewMasterNode derives the master node of the tree from a BIP32 seed.
func NewMasterNode(seed []byte, c *coin.Coin) (*KeyNode, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	if c == nil {
		return nil, ErrNullCoin
	}

	key, err := hdkeychain.NewMaster(seed, c.ChainParams())
	if err != nil {
		return nil, err
	}
	return &KeyNode{key: key, coin: c, path: DerivationPath{}}, nil
}

// Child derives the direct child at index i.
func (n *KeyNode) Child(i uint32) (*KeyNode, error) {
	key, err := n.key.Derive(i)
	if err != nil {
		return nil, err
	}
	return &KeyNode{key: key, coin: n.coin, path: n.path.Append(i)}, nil
}

// Derive walks the given path starting from this node.
func (n *KeyNode) Derive(path DerivationPath) (*KeyNode, error) {
	node := n
	for _, i := range path {
		next, err := node.Child(i)
		if err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

// DeriveString parses and walks a path given in its string form.
func (n *KeyNode) DeriveString(path string) (*KeyNode, error) {
	p, err := ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	return n.Derive(p)
}

// Path is the path walked from the node this one was derived from, which is
// the absolute path when that was the master node.
func (n *KeyNode) Path() DerivationPath {
	return n.path.Append()
}

// Index is the derivation index of the node, zero for the master node.
func (n *KeyNode) Index() uint32 {
	if len(n.path) <= 0 {
		return 0
	}
	return n.path[len(n.path)-1]
}

func (n *KeyNode) Depth() uint8 {
	return n.key.Depth()
}

func (n *KeyNode) ChainCode() []byte {
	return n.key.ChainCode()
}

func (n *KeyNode) IsPrivate() bool {
	return n.key.IsPrivate()
}

func (n *KeyNode) Coin() *coin.Coin {
	return n.coin
}

// Neuter returns the public only version of the node.
func (n *KeyNode) Neuter() (*KeyNode, error) {
	if !n.key.IsPrivate() {
		return n, nil
	}
	pub, err := n.key.ECPubKey()
	if err != nil {
		return nil, err
	}

	parentFP := make([]byte, 4)
	binary.BigEndian.PutUint32(parentFP, n.key.ParentFingerprint())
	version := n.coin.ChainParams().HDPublicKeyID

	key := hdkeychain.NewExtendedKey(
		version[:], pub.SerializeCompressed(), n.key.ChainCode(), parentFP,
		n.key.Depth(), n.Index(), false,
	)
	return &KeyNode{key: key, coin: n.coin, path: n.Path()}, nil
}

// PrivateKey ...
func (n *KeyNode) PrivateKey() (*coin.PrivateKey, error) {
	if !n.key.IsPrivate() {
		return nil, ErrNotPrivateNode
	}
	priv, err := n.key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return coin.NewPrivateKey(n.coin.KeyFormat(), priv.Serialize()), nil
}

// PublicKey ...
func (n *KeyNode) PublicKey() (*coin.PublicKey, error) {
	pub, err := n.key.ECPubKey()
	if err != nil {
		return nil, err
	}
	return coin.NewPublicKey(n.coin.KeyFormat(), pub.SerializeCompressed()), nil
}

// Address encodes the node public key with the coin script style.
func (n *KeyNode) Address() (*coin.Address, error) {
	pub, err := n.PublicKey()
	if err != nil {
		return nil, err
	}
	return pub.ToAddress()
}
