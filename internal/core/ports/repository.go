package ports

import (
	"context"
	"fmt"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
)

var (
	// ErrWalletDataNotFound is returned when no snapshot was ever stored for
	// a coin.
	ErrWalletDataNotFound = fmt.Errorf("%w: wallet data", coin.ErrNotFound)
	// ErrMnemonicNotFound is returned when the wallet was never initialized.
	ErrMnemonicNotFound = fmt.Errorf("%w: encrypted mnemonic", coin.ErrNotFound)
)

// WalletRepository persists one wallet snapshot per coin, all derived from
// the same encrypted mnemonic.
type WalletRepository interface {
	GetWalletData(ctx context.Context, unit coin.Unit) (*entity.WalletData, error)
	// SaveWalletData replaces the stored snapshot of data.Coin.
	SaveWalletData(ctx context.Context, data entity.WalletData) error
	GetEncryptedMnemonic(ctx context.Context) (string, error)
	SaveEncryptedMnemonic(ctx context.Context, encrypted string) error
	Close()
}
