package hd

import "errors"

var (
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must contain at least one element after the master key",
	)
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrNullCoin ...
	ErrNullCoin = errors.New("coin must not be null")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrNotPrivateNode ...
	ErrNotPrivateNode = errors.New("key node has no private key")
)
