package application

import "errors"

var (
	// ErrWalletNotInitialized is returned when attempting to unlock a wallet
	// whose mnemonic was never stored.
	ErrWalletNotInitialized = errors.New("wallet not initialized")
	// ErrWalletAlreadyInitialized ...
	ErrWalletAlreadyInitialized = errors.New("wallet already initialized")
	// ErrWalletLocked is returned by operations that need the wallet keys.
	ErrWalletLocked = errors.New("wallet is locked")
	// ErrMissingAddress ...
	ErrMissingAddress = errors.New("missing recipient address")
	// ErrNullRepository ...
	ErrNullRepository = errors.New("wallet repository must not be null")
	// ErrUnsupportedDBType ...
	ErrUnsupportedDBType = errors.New("database type not supported")
)
