package coin

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
)

const (
	hash160Size     = 20
	privateKeySize  = 32
	compressedPKLen = 33
)

// ChainParams returns btcd network params carrying the coin version bytes.
// They are not registered in chaincfg and are meant for key encoding only.
func (c *Coin) ChainParams() *chaincfg.Params {
	params := chaincfg.MainNetParams
	params.Name = string(c.Unit)
	params.PubKeyHashAddrID = c.Network.PubKeyHashAddrID
	params.ScriptHashAddrID = c.Network.ScriptHashAddrID
	params.PrivateKeyID = c.Network.PrivateKeyID
	params.HDCoinType = c.HDCoinType
	if c.Network.HDPrivateKeyID != [4]byte{} {
		params.HDPrivateKeyID = c.Network.HDPrivateKeyID
		params.HDPublicKeyID = c.Network.HDPublicKeyID
	}
	return &params
}

type bipKeyFormat struct {
	network   NetworkParams
	useSegWit bool
}

func (f bipKeyFormat) wifParams() *chaincfg.Params {
	return &chaincfg.Params{PrivateKeyID: f.network.PrivateKeyID}
}

func (f bipKeyFormat) ParseAddress(str string) (*Address, error) {
	payload, version, err := base58.CheckDecode(str)
	if err != nil {
		return nil, fmt.Errorf("%w: address %s: %v", ErrInvalidFormat, str, err)
	}
	if version != f.network.PubKeyHashAddrID && version != f.network.ScriptHashAddrID {
		return nil, &AddressVersionError{
			Address:  str,
			Expected: []byte{f.network.PubKeyHashAddrID, f.network.ScriptHashAddrID},
			Actual:   version,
		}
	}
	if len(payload) != hash160Size {
		return nil, fmt.Errorf(
			"%w: address %s has a %d bytes payload", ErrInvalidFormat, str, len(payload),
		)
	}
	return NewAddress(f, version, payload), nil
}

func (f bipKeyFormat) ParsePublicKey(str string) (*PublicKey, error) {
	buf, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not hex: %v", ErrInvalidFormat, err)
	}
	pub, err := btcec.ParsePubKey(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrInvalidFormat, err)
	}
	return NewPublicKey(f, pub.SerializeCompressed()), nil
}

func (f bipKeyFormat) ParsePrivateKey(str string) (*PrivateKey, error) {
	wif, err := btcutil.DecodeWIF(str)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrInvalidFormat, err)
	}
	if !wif.IsForNet(f.wifParams()) {
		return nil, fmt.Errorf("%w: private key belongs to another network", ErrInvalidFormat)
	}
	return NewPrivateKey(f, wif.PrivKey.Serialize()), nil
}

func (f bipKeyFormat) IsValidAddress(str string) bool {
	_, err := f.ParseAddress(str)
	return err == nil
}

func (f bipKeyFormat) IsValidPublicKey(str string) bool {
	_, err := f.ParsePublicKey(str)
	return err == nil
}

func (f bipKeyFormat) IsValidPrivateKey(str string) bool {
	_, err := f.ParsePrivateKey(str)
	return err == nil
}

func (f bipKeyFormat) PublicToAddress(pub *PublicKey) (*Address, error) {
	if pub == nil || len(pub.Bytes) != compressedPKLen {
		return nil, ErrNullPublicKey
	}
	keyHash := btcutil.Hash160(pub.Bytes)
	if !f.useSegWit {
		return NewAddress(f, f.network.PubKeyHashAddrID, keyHash), nil
	}
	// P2SH wrapping a version 0 witness program
	redeemScript := append([]byte{0x00, hash160Size}, keyHash...)
	return NewAddress(f, f.network.ScriptHashAddrID, btcutil.Hash160(redeemScript)), nil
}

func (f bipKeyFormat) PrivateToPublic(priv *PrivateKey) (*PublicKey, error) {
	if priv == nil || len(priv.Bytes) != privateKeySize {
		return nil, ErrNullPrivateKey
	}
	_, pub := btcec.PrivKeyFromBytes(priv.Bytes)
	return NewPublicKey(f, pub.SerializeCompressed()), nil
}

func (f bipKeyFormat) FormatAddress(addr *Address) string {
	return base58.CheckEncode(addr.Bytes, addr.Version)
}

func (f bipKeyFormat) FormatPublicKey(pub *PublicKey) string {
	return hex.EncodeToString(pub.Bytes)
}

func (f bipKeyFormat) FormatPrivateKey(priv *PrivateKey) string {
	key, _ := btcec.PrivKeyFromBytes(priv.Bytes)
	wif, err := btcutil.NewWIF(key, f.wifParams(), true)
	if err != nil {
		return ""
	}
	return wif.String()
}

// IsScriptHashAddress tells whether the address pays to a script hash.
func (c *Coin) IsScriptHashAddress(addr *Address) bool {
	return c.Family == FamilyBIP && addr != nil &&
		addr.Version == c.Network.ScriptHashAddrID
}
