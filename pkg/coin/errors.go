package coin

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when an address, key or amount string
	// cannot be decoded.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrValidation is returned for out of range numeric values.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is the root of every lookup failure.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedOperation is returned when a coin or a backend lacks the
	// requested capability.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUnitNotFound ...
	ErrUnitNotFound = fmt.Errorf("coin unit %w", ErrNotFound)
	// ErrNullPublicKey ...
	ErrNullPublicKey = errors.New("public key must not be null")
	// ErrNullPrivateKey ...
	ErrNullPrivateKey = errors.New("private key must not be null")
	// ErrNegativeAmount ...
	ErrNegativeAmount = fmt.Errorf("%w: amount must not be negative", ErrValidation)
	// ErrZeroAmount ...
	ErrZeroAmount = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	// ErrAmountBelowMinimum ...
	ErrAmountBelowMinimum = fmt.Errorf(
		"%w: amount is below the minimum transferable unit", ErrValidation,
	)
	// ErrAmountPrecision ...
	ErrAmountPrecision = fmt.Errorf(
		"%w: amount has more decimal places than the coin precision", ErrValidation,
	)
)

// AddressVersionError is returned when a decoded address carries a version
// byte that does not belong to the coin network.
type AddressVersionError struct {
	Address  string
	Expected []byte
	Actual   byte
}

func (e *AddressVersionError) Error() string {
	return fmt.Sprintf(
		"address %s has version %d, expected one of %v", e.Address, e.Actual, e.Expected,
	)
}

func (e *AddressVersionError) Unwrap() error {
	return ErrInvalidFormat
}
