package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/berrywallet/berrywallet-go/internal/core/ports"
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/hd"
	"github.com/berrywallet/berrywallet-go/pkg/wallet"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const mnemonicEntropySize = 256

type WalletService interface {
	GenSeed(ctx context.Context) (string, error)
	InitWallet(ctx context.Context, mnemonic, passphrase string) error
	UnlockWallet(ctx context.Context, passphrase string) error
	LockWallet(ctx context.Context)
	Status(ctx context.Context) WalletStatus
	NewReceiveAddress(ctx context.Context) (entity.WalletAddress, error)
	Addresses(ctx context.Context) []entity.WalletAddress
	Sync(ctx context.Context) error
	GetBalance(ctx context.Context) (*BalanceInfo, error)
	ListTransactions(ctx context.Context) ([]TxInfo, error)
	EstimateFee(ctx context.Context, req SendRequest) (decimal.Decimal, error)
	Send(ctx context.Context, req SendRequest) (string, error)
	StartTracking(ctx context.Context) error
	StopTracking()
	Close()
}

type walletService struct {
	repo     ports.WalletRepository
	provider *wallet.Provider

	lock     sync.RWMutex
	seed     []byte
	tracking *wallet.Tracking
}

// NewWalletService restores the wallet snapshot of coin c from repo, or
// starts with an empty one. Every change of the snapshot is written back to
// repo.
func NewWalletService(
	repo ports.WalletRepository,
	c *coin.Coin,
	network explorer.Client,
	opts ...wallet.Option,
) (WalletService, error) {
	if repo == nil {
		return nil, ErrNullRepository
	}
	if c == nil {
		return nil, wallet.ErrNullCoin
	}

	ctx := context.Background()
	data, err := repo.GetWalletData(ctx, c.Unit)
	if err != nil {
		if !errors.Is(err, ports.ErrWalletDataNotFound) {
			return nil, err
		}
		empty := entity.NewWalletData(c.Unit)
		data = &empty
	}

	if network != nil {
		opts = append(opts, wallet.WithNetwork(network))
	}
	provider, err := wallet.NewProvider(c, *data, opts...)
	if err != nil {
		return nil, err
	}

	svc := &walletService{
		repo:     repo,
		provider: provider,
	}
	provider.OnChange(svc.persist)

	log.WithFields(log.Fields{
		"coin":      c.Unit,
		"addresses": provider.Address().Count(),
		"txs":       provider.Tx().Count(),
	}).Debug("wallet loaded")
	return svc, nil
}

func (w *walletService) GenSeed(ctx context.Context) (string, error) {
	return hd.NewMnemonic(mnemonicEntropySize)
}

// InitWallet stores the mnemonic encrypted with passphrase and leaves the
// wallet unlocked.
func (w *walletService) InitWallet(
	ctx context.Context, mnemonic, passphrase string,
) error {
	if _, err := w.repo.GetEncryptedMnemonic(ctx); err == nil {
		return ErrWalletAlreadyInitialized
	} else if !errors.Is(err, ports.ErrMnemonicNotFound) {
		return err
	}

	encrypted, err := wallet.EncryptMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}
	seed, err := hd.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}
	if err := w.repo.SaveEncryptedMnemonic(ctx, encrypted); err != nil {
		return err
	}

	w.lock.Lock()
	w.seed = seed
	w.lock.Unlock()

	log.Info("wallet initialized")
	return nil
}

func (w *walletService) UnlockWallet(ctx context.Context, passphrase string) error {
	encrypted, err := w.repo.GetEncryptedMnemonic(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrMnemonicNotFound) {
			return ErrWalletNotInitialized
		}
		return err
	}

	mnemonic, err := wallet.DecryptMnemonic(encrypted, passphrase)
	if err != nil {
		return err
	}
	seed, err := hd.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}

	w.lock.Lock()
	w.seed = seed
	w.lock.Unlock()

	log.Debug("wallet unlocked")
	return nil
}

func (w *walletService) LockWallet(ctx context.Context) {
	w.lock.Lock()
	defer w.lock.Unlock()

	for i := range w.seed {
		w.seed[i] = 0
	}
	w.seed = nil
}

func (w *walletService) Status(ctx context.Context) WalletStatus {
	_, err := w.repo.GetEncryptedMnemonic(ctx)

	w.lock.RLock()
	defer w.lock.RUnlock()

	return WalletStatus{
		Coin:        w.provider.Coin().Unit,
		Initialized: err == nil,
		Unlocked:    w.seed != nil,
		Tracking:    w.tracking != nil,
	}
}

// NewReceiveAddress returns the first receive address that never received
// anything, deriving a new one if all of them are in use.
func (w *walletService) NewReceiveAddress(
	ctx context.Context,
) (entity.WalletAddress, error) {
	addr, ok, err := w.provider.Address().Last(hd.Receive, nil)
	if err != nil {
		return entity.WalletAddress{}, err
	}
	if ok {
		return addr, nil
	}

	private, err := w.private()
	if err != nil {
		return entity.WalletAddress{}, err
	}
	addr, err = private.DeriveNew(hd.Receive)
	if err != nil {
		return entity.WalletAddress{}, err
	}

	w.lock.RLock()
	if w.tracking != nil {
		w.tracking.Track(addr.Address)
	}
	w.lock.RUnlock()

	log.WithField("address", addr.Address).Debug("derived new receive address")
	return addr, nil
}

func (w *walletService) Addresses(ctx context.Context) []entity.WalletAddress {
	return w.provider.Address().List()
}

func (w *walletService) Sync(ctx context.Context) error {
	if err := w.provider.Updater().Update(ctx); err != nil {
		return fmt.Errorf("failed to sync wallet: %w", err)
	}
	return nil
}

func (w *walletService) GetBalance(ctx context.Context) (*BalanceInfo, error) {
	balance, err := w.provider.Balance()
	if err != nil {
		return nil, err
	}

	info := &BalanceInfo{
		Coin:         w.provider.Coin().Unit,
		Confirmed:    wallet.CalculateBalance(balance, false),
		Total:        wallet.CalculateBalance(balance, true),
		Addresses:    make(map[string]decimal.Decimal, len(balance.AddrBalances)),
		UnspentCount: len(balance.UTXO),
	}
	info.Unconfirmed = info.Total.Sub(info.Confirmed)
	for address, b := range balance.AddrBalances {
		info.Addresses[address] = b.Net(true)
	}
	return info, nil
}

func (w *walletService) ListTransactions(ctx context.Context) ([]TxInfo, error) {
	balance, err := w.provider.Balance()
	if err != nil {
		return nil, err
	}

	txs := w.provider.Tx().List()
	infos := make([]TxInfo, 0, len(txs))
	for _, tx := range txs {
		amount, err := wallet.CalculateTxBalance(balance, tx.Base().TxID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, newTxInfo(tx.Base(), amount))
	}
	return infos, nil
}

func (w *walletService) EstimateFee(
	ctx context.Context, req SendRequest,
) (decimal.Decimal, error) {
	private, err := w.private()
	if err != nil {
		return decimal.Zero, err
	}

	var address *coin.Address
	if req.Address != "" {
		if address, err = w.parseAddress(req.Address); err != nil {
			return decimal.Zero, err
		}
	}
	return private.CalculateFee(ctx, req.Amount, address, req.FeeType)
}

// Send pays req.Amount to req.Address, broadcasts the transaction and
// stores it as unconfirmed.
func (w *walletService) Send(ctx context.Context, req SendRequest) (string, error) {
	private, err := w.private()
	if err != nil {
		return "", err
	}
	address, err := w.parseAddress(req.Address)
	if err != nil {
		return "", err
	}
	network, err := w.provider.Network()
	if err != nil {
		return "", err
	}

	tx, err := private.CreateTransaction(ctx, address, req.Amount, req.FeeType)
	if err != nil {
		return "", err
	}
	txid, err := network.BroadcastTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	walletTx, err := wallet.CoinTxToWalletTx(tx)
	if err != nil {
		return "", err
	}
	if _, err := w.provider.Tx().Add(walletTx); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"txid":   txid,
		"amount": req.Amount.String(),
		"fee":    req.FeeType.String(),
	}).Info("transaction broadcasted")
	return txid, nil
}

// StartTracking keeps the wallet up to date with the transactions pushed by
// the network tracker until ctx is done or StopTracking is called.
func (w *walletService) StartTracking(ctx context.Context) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.tracking != nil {
		return nil
	}
	tracking, err := w.provider.Updater().StartTracking(ctx)
	if err != nil {
		return err
	}
	w.tracking = tracking
	return nil
}

func (w *walletService) StopTracking() {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.tracking != nil {
		w.tracking.Stop()
		w.tracking = nil
	}
}

func (w *walletService) Close() {
	w.StopTracking()
	w.LockWallet(context.Background())
	if err := w.provider.Close(); err != nil {
		log.WithError(err).Warn("failed to close network client")
	}
	w.repo.Close()
}

func (w *walletService) private() (wallet.PrivateProvider, error) {
	w.lock.RLock()
	defer w.lock.RUnlock()

	if w.seed == nil {
		return nil, ErrWalletLocked
	}
	return w.provider.Private(w.seed)
}

func (w *walletService) parseAddress(str string) (*coin.Address, error) {
	if str == "" {
		return nil, ErrMissingAddress
	}
	return w.provider.Coin().KeyFormat().ParseAddress(str)
}

func (w *walletService) persist(newData, _ entity.WalletData) {
	if err := w.repo.SaveWalletData(context.Background(), newData); err != nil {
		log.WithError(err).Warn("failed to persist wallet data")
	}
}
