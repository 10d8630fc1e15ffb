package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/explorer/provider"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the wallet state
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// CoinKey is the unit of the coin the wallet is bound to, ie. BTC or ETHt
	CoinKey = "COIN"
	// UseSegWitKey makes BIP coins derive wrapped segwit addresses when
	// available
	UseSegWitKey = "USE_SEGWIT"
	// NetworkAdapterKey selects a single backend (insight, blockcypher,
	// etherscan or infura). If not set, the known public backends of the coin
	// are used with failover.
	NetworkAdapterKey = "NETWORK_ADAPTER"
	// NetworkURLKey is the http endpoint of the selected backend
	NetworkURLKey = "NETWORK_URL"
	// NetworkWSURLKey is the websocket endpoint of the selected backend
	NetworkWSURLKey = "NETWORK_WS_URL"
	// NetworkAPIKeyKey is the api key or project id of the backend
	NetworkAPIKeyKey = "NETWORK_API_KEY"
	// NetworkTimeoutKey bounds every backend request, in seconds
	NetworkTimeoutKey = "NETWORK_TIMEOUT"
	// SyncBatchSizeKey is the number of addresses requested per bulk query
	SyncBatchSizeKey = "SYNC_BATCH_SIZE"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// AccountIndexKey is the BIP44 account addresses are derived for
	AccountIndexKey = "ACCOUNT_INDEX"

	DbLocation = "db"

	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("berrywallet", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("BERRYWALLET")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(CoinKey, string(coin.BTC))
	vip.SetDefault(UseSegWitKey, false)
	vip.SetDefault(NetworkTimeoutKey, 15)
	vip.SetDefault(SyncBatchSizeKey, 10)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(AccountIndexKey, 0)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint32(key string) uint32 {
	return vip.GetUint32(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the on disk store, empty for the in
// memory one.
func GetDbDir() string {
	if GetString(DBTypeKey) == DBInMemory {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetCoin returns the coin selected by CoinKey and UseSegWitKey.
func GetCoin() (*coin.Coin, error) {
	return coin.MakeCoin(
		coin.Unit(GetString(CoinKey)), coin.WithSegWit(GetBool(UseSegWitKey)),
	)
}

// GetAdapters returns the backends to connect to. Without NetworkAdapterKey
// these are the defaults of the coin. A selected adapter with no url falls
// back to the default endpoint of the same type.
func GetAdapters() ([]provider.AdapterProps, error) {
	unit := coin.Unit(GetString(CoinKey))
	timeout := time.Duration(GetInt(NetworkTimeoutKey)) * time.Second
	apiKey := GetString(NetworkAPIKeyKey)

	if !vip.IsSet(NetworkAdapterKey) || GetString(NetworkAdapterKey) == "" {
		adapters := provider.DefaultAdapters(unit)
		for i := range adapters {
			adapters[i].Options.Timeout = timeout
			if apiKey != "" {
				adapters[i].Options.APIKey = apiKey
			}
		}
		return adapters, nil
	}

	adapterType, err := provider.ParseAdapterType(GetString(NetworkAdapterKey))
	if err != nil {
		return nil, err
	}

	opts := explorer.AdapterOptions{
		URL:     GetString(NetworkURLKey),
		WSURL:   GetString(NetworkWSURLKey),
		APIKey:  apiKey,
		Timeout: timeout,
	}
	if opts.URL == "" {
		for _, props := range provider.DefaultAdapters(unit) {
			if props.Type == adapterType {
				opts.URL = props.Options.URL
				if opts.WSURL == "" {
					opts.WSURL = props.Options.WSURL
				}
				break
			}
		}
	}
	if opts.URL == "" {
		return nil, fmt.Errorf(
			"missing %s, no default %s endpoint for %s",
			NetworkURLKey, adapterType, unit,
		)
	}

	return []provider.AdapterProps{{Type: adapterType, Options: opts}}, nil
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, err := GetCoin(); err != nil {
		return err
	}

	if adapter := GetString(NetworkAdapterKey); adapter != "" {
		if _, err := provider.ParseAdapterType(adapter); err != nil {
			return err
		}
	}

	dbType := strings.ToLower(GetString(DBTypeKey))
	if dbType != DBBadger && dbType != DBInMemory {
		return fmt.Errorf(
			"%s must be either %s or %s", DBTypeKey, DBBadger, DBInMemory,
		)
	}
	vip.Set(DBTypeKey, dbType)

	if GetInt(SyncBatchSizeKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", SyncBatchSizeKey)
	}
	if GetInt(NetworkTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", NetworkTimeoutKey)
	}
	if GetInt(AccountIndexKey) < 0 {
		return fmt.Errorf("%s must not be negative", AccountIndexKey)
	}

	return nil
}

func initDatadir() error {
	if GetString(DBTypeKey) == DBInMemory {
		return nil
	}
	return makeDirectoryIfNotExists(GetDbDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
