package application

import (
	"fmt"

	"github.com/berrywallet/berrywallet-go/internal/core/ports"
	dbbadger "github.com/berrywallet/berrywallet-go/internal/infrastructure/storage/db/badger"
	"github.com/berrywallet/berrywallet-go/internal/infrastructure/storage/db/inmemory"
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/explorer/provider"
	"github.com/berrywallet/berrywallet-go/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

type Config struct {
	DBType string
	// DBConfig is the db directory for badger, ignored otherwise.
	DBConfig interface{}

	Coin     *coin.Coin
	Adapters []provider.AdapterProps
	// Network, if set, is used in place of the clients described by
	// Adapters.
	Network      explorer.Client
	BatchSize    int
	AccountIndex uint32

	repo    ports.WalletRepository
	network explorer.Client
	wallet  WalletService
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedDBType, c.DBType)
	}
	if c.Coin == nil {
		return wallet.ErrNullCoin
	}
	if c.BatchSize < 0 {
		return wallet.ErrInvalidBatchSize
	}
	if _, err := c.walletService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.WalletRepository {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) WalletService() WalletService {
	svc, _ := c.walletService()
	return svc
}

func (c *Config) repoManager() (ports.WalletRepository, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repo, err := dbbadger.NewWalletRepository(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repo
		case DBInMemory:
			c.repo = inmemory.NewWalletRepositoryImpl()
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedDBType, c.DBType)
		}
	}
	return c.repo, nil
}

func (c *Config) networkClient() (explorer.Client, error) {
	if c.network == nil && c.Network != nil {
		c.network = c.Network
	}
	if c.network == nil {
		adapters := c.Adapters
		if len(adapters) == 0 {
			adapters = provider.DefaultAdapters(c.Coin.Unit)
		}
		network, err := provider.NewNetworkProvider(c.Coin, adapters...)
		if err != nil {
			return nil, err
		}
		c.network = network
	}
	return c.network, nil
}

func (c *Config) walletService() (WalletService, error) {
	if c.wallet == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		network, err := c.networkClient()
		if err != nil {
			return nil, err
		}

		opts := []wallet.Option{wallet.WithAccountIndex(c.AccountIndex)}
		if c.BatchSize > 0 {
			opts = append(opts, wallet.WithBatchSize(c.BatchSize))
		}
		svc, err := NewWalletService(repo, c.Coin, network, opts...)
		if err != nil {
			return nil, err
		}
		c.wallet = svc
	}
	return c.wallet, nil
}
