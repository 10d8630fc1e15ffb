package coin

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type ethKeyFormat struct{}

func trimHexPrefix(str string) string {
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		return str[2:]
	}
	return str
}

// ParseAddress accepts lower, upper and EIP-55 checksummed addresses. Mixed
// case input must carry a valid checksum.
func (f ethKeyFormat) ParseAddress(str string) (*Address, error) {
	if !common.IsHexAddress(str) {
		return nil, fmt.Errorf("%w: address %s", ErrInvalidFormat, str)
	}
	addr := common.HexToAddress(str)
	raw := trimHexPrefix(str)
	if raw != strings.ToLower(raw) && raw != strings.ToUpper(raw) {
		if addr.Hex()[2:] != raw {
			return nil, fmt.Errorf("%w: address %s has a bad checksum", ErrInvalidFormat, str)
		}
	}
	return NewAddress(f, 0, addr.Bytes()), nil
}

func (f ethKeyFormat) ParsePublicKey(str string) (*PublicKey, error) {
	buf, err := hex.DecodeString(trimHexPrefix(str))
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not hex: %v", ErrInvalidFormat, err)
	}
	switch len(buf) {
	case compressedPKLen:
		pub, err := crypto.DecompressPubkey(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: public key: %v", ErrInvalidFormat, err)
		}
		return NewPublicKey(f, crypto.CompressPubkey(pub)), nil
	case 64, 65:
		if len(buf) == 64 {
			buf = append([]byte{0x04}, buf...)
		}
		pub, err := crypto.UnmarshalPubkey(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: public key: %v", ErrInvalidFormat, err)
		}
		return NewPublicKey(f, crypto.CompressPubkey(pub)), nil
	default:
		return nil, fmt.Errorf("%w: public key has %d bytes", ErrInvalidFormat, len(buf))
	}
}

func (f ethKeyFormat) ParsePrivateKey(str string) (*PrivateKey, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(str))
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrInvalidFormat, err)
	}
	return NewPrivateKey(f, crypto.FromECDSA(key)), nil
}

func (f ethKeyFormat) IsValidAddress(str string) bool {
	_, err := f.ParseAddress(str)
	return err == nil
}

func (f ethKeyFormat) IsValidPublicKey(str string) bool {
	_, err := f.ParsePublicKey(str)
	return err == nil
}

func (f ethKeyFormat) IsValidPrivateKey(str string) bool {
	_, err := f.ParsePrivateKey(str)
	return err == nil
}

func (f ethKeyFormat) PublicToAddress(pub *PublicKey) (*Address, error) {
	if pub == nil {
		return nil, ErrNullPublicKey
	}
	key, err := crypto.DecompressPubkey(pub.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrInvalidFormat, err)
	}
	return NewAddress(f, 0, crypto.PubkeyToAddress(*key).Bytes()), nil
}

func (f ethKeyFormat) PrivateToPublic(priv *PrivateKey) (*PublicKey, error) {
	if priv == nil {
		return nil, ErrNullPrivateKey
	}
	key, err := crypto.ToECDSA(priv.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrInvalidFormat, err)
	}
	return NewPublicKey(f, crypto.CompressPubkey(&key.PublicKey)), nil
}

// FormatAddress returns the EIP-55 checksummed encoding.
func (f ethKeyFormat) FormatAddress(addr *Address) string {
	return common.BytesToAddress(addr.Bytes).Hex()
}

func (f ethKeyFormat) FormatPublicKey(pub *PublicKey) string {
	return "0x" + hex.EncodeToString(pub.Bytes)
}

func (f ethKeyFormat) FormatPrivateKey(priv *PrivateKey) string {
	return hex.EncodeToString(priv.Bytes)
}
