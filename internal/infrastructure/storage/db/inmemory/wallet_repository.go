package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/berrywallet/berrywallet-go/internal/core/ports"
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
)

// WalletRepositoryImpl keeps the JSON encoding of every wallet snapshot so
// that stored data never aliases the caller's.
type WalletRepositoryImpl struct {
	locker            sync.RWMutex
	walletData        map[coin.Unit][]byte
	encryptedMnemonic string
}

// NewWalletRepositoryImpl returns an empty in memory repository.
func NewWalletRepositoryImpl() ports.WalletRepository {
	return &WalletRepositoryImpl{
		walletData: make(map[coin.Unit][]byte),
	}
}

func (r *WalletRepositoryImpl) GetWalletData(
	_ context.Context, unit coin.Unit,
) (*entity.WalletData, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	buf, ok := r.walletData[unit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrWalletDataNotFound, unit)
	}

	var data entity.WalletData
	if err := json.Unmarshal(buf, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (r *WalletRepositoryImpl) SaveWalletData(
	_ context.Context, data entity.WalletData,
) error {
	if data.Coin == "" {
		return fmt.Errorf("%w: wallet data without coin", coin.ErrValidation)
	}

	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}

	r.locker.Lock()
	defer r.locker.Unlock()

	r.walletData[data.Coin] = buf
	return nil
}

func (r *WalletRepositoryImpl) GetEncryptedMnemonic(_ context.Context) (string, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	if r.encryptedMnemonic == "" {
		return "", ports.ErrMnemonicNotFound
	}
	return r.encryptedMnemonic, nil
}

func (r *WalletRepositoryImpl) SaveEncryptedMnemonic(
	_ context.Context, encrypted string,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.encryptedMnemonic = encrypted
	return nil
}

func (r *WalletRepositoryImpl) Close() {}
