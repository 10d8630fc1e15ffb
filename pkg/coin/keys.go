package coin

import "bytes"

// KeyFormat encodes, decodes and validates the addresses and keys of a coin
// family. Is* methods never fail, they report validity only.
type KeyFormat interface {
	ParseAddress(str string) (*Address, error)
	ParsePublicKey(str string) (*PublicKey, error)
	ParsePrivateKey(str string) (*PrivateKey, error)

	IsValidAddress(str string) bool
	IsValidPublicKey(str string) bool
	IsValidPrivateKey(str string) bool

	// PublicToAddress applies the script style the coin was built with.
	PublicToAddress(pub *PublicKey) (*Address, error)
	PrivateToPublic(priv *PrivateKey) (*PublicKey, error)

	FormatAddress(addr *Address) string
	FormatPublicKey(pub *PublicKey) string
	FormatPrivateKey(priv *PrivateKey) string
}

// Address is the decoded form of an address: a version byte (always zero for
// account coins) plus the hash payload.
type Address struct {
	Version byte
	Bytes   []byte
	format  KeyFormat
}

// NewAddress ...
func NewAddress(format KeyFormat, version byte, payload []byte) *Address {
	return &Address{Version: version, Bytes: copyBytes(payload), format: format}
}

func (a *Address) String() string {
	if a == nil || a.format == nil {
		return ""
	}
	return a.format.FormatAddress(a)
}

// Equal compares the decoded bytes, not the string encodings.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Version == other.Version && bytes.Equal(a.Bytes, other.Bytes)
}

// PublicKey holds the compressed SEC encoding of a public key.
type PublicKey struct {
	Bytes  []byte
	format KeyFormat
}

// NewPublicKey ...
func NewPublicKey(format KeyFormat, compressed []byte) *PublicKey {
	return &PublicKey{Bytes: copyBytes(compressed), format: format}
}

func (p *PublicKey) String() string {
	if p == nil || p.format == nil {
		return ""
	}
	return p.format.FormatPublicKey(p)
}

func (p *PublicKey) Equal(other *PublicKey) bool {
	if p == nil || other == nil {
		return p == other
	}
	return bytes.Equal(p.Bytes, other.Bytes)
}

// ToAddress ...
func (p *PublicKey) ToAddress() (*Address, error) {
	if p == nil {
		return nil, ErrNullPublicKey
	}
	return p.format.PublicToAddress(p)
}

// PrivateKey holds the 32 bytes secret scalar.
type PrivateKey struct {
	Bytes  []byte
	format KeyFormat
}

// NewPrivateKey ...
func NewPrivateKey(format KeyFormat, secret []byte) *PrivateKey {
	return &PrivateKey{Bytes: copyBytes(secret), format: format}
}

// String returns the encoded secret (WIF or hex), handle with care.
func (p *PrivateKey) String() string {
	if p == nil || p.format == nil {
		return ""
	}
	return p.format.FormatPrivateKey(p)
}

// GoString keeps the secret out of %#v output.
func (p *PrivateKey) GoString() string {
	return "coin.PrivateKey{<redacted>}"
}

func (p *PrivateKey) Equal(other *PrivateKey) bool {
	if p == nil || other == nil {
		return p == other
	}
	return bytes.Equal(p.Bytes, other.Bytes)
}

// PublicKey ...
func (p *PrivateKey) PublicKey() (*PublicKey, error) {
	if p == nil {
		return nil, ErrNullPrivateKey
	}
	return p.format.PrivateToPublic(p)
}

// Address derives the address of the key pair.
func (p *PrivateKey) Address() (*Address, error) {
	pub, err := p.PublicKey()
	if err != nil {
		return nil, err
	}
	return pub.ToAddress()
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
