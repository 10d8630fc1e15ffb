package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/berrywallet/berrywallet-go/internal/core/ports"
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

const vaultKey = "vault"

type vault struct {
	EncryptedMnemonic string
}

type walletRepository struct {
	store *badgerhold.Store

	quit      chan struct{}
	closeOnce sync.Once
}

// NewWalletRepository opens the wallet store in the "wallet" directory of
// baseDbDir. An empty baseDbDir keeps everything in memory.
func NewWalletRepository(
	baseDbDir string, logger badger.Logger,
) (ports.WalletRepository, error) {
	var walletDir string
	if len(baseDbDir) > 0 {
		walletDir = filepath.Join(baseDbDir, "wallet")
	}

	quit := make(chan struct{})
	store, err := createDb(walletDir, logger, quit)
	if err != nil {
		return nil, fmt.Errorf("opening wallet db: %w", err)
	}
	return &walletRepository{store: store, quit: quit}, nil
}

func (r *walletRepository) GetWalletData(
	_ context.Context, unit coin.Unit,
) (*entity.WalletData, error) {
	var data entity.WalletData
	if err := r.store.Get(string(unit), &data); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ports.ErrWalletDataNotFound, unit)
		}
		return nil, err
	}
	return &data, nil
}

func (r *walletRepository) SaveWalletData(
	_ context.Context, data entity.WalletData,
) error {
	if data.Coin == "" {
		return fmt.Errorf("%w: wallet data without coin", coin.ErrValidation)
	}
	return r.store.Upsert(string(data.Coin), data)
}

func (r *walletRepository) GetEncryptedMnemonic(_ context.Context) (string, error) {
	var v vault
	if err := r.store.Get(vaultKey, &v); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", ports.ErrMnemonicNotFound
		}
		return "", err
	}
	return v.EncryptedMnemonic, nil
}

func (r *walletRepository) SaveEncryptedMnemonic(
	_ context.Context, encrypted string,
) error {
	return r.store.Upsert(vaultKey, vault{encrypted})
}

func (r *walletRepository) Close() {
	r.closeOnce.Do(func() {
		close(r.quit)
		r.store.Close()
	})
}
