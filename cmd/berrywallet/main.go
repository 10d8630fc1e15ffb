package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/berrywallet/berrywallet-go/internal/config"
	"github.com/berrywallet/berrywallet-go/internal/core/application"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const envPrefix = "BERRYWALLET_"

var (
	// global flags override their env var counterpart.
	globalFlags = map[string]string{
		"datadir": config.DatadirKey,
		"coin":    config.CoinKey,
		"network": config.NetworkAdapterKey,
		"url":     config.NetworkURLKey,
		"db":      config.DBTypeKey,
	}

	passwordFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "the password used to encrypt the mnemonic",
		Required: true,
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "berrywallet"
	app.Usage = "Command line interface for a multi-coin HD wallet"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "datadir", Usage: "wallet data directory"},
		&cli.StringFlag{Name: "coin", Usage: "coin unit, ie. BTC, LTCt or ETH"},
		&cli.StringFlag{Name: "network", Usage: "backend adapter: insight, blockcypher, etherscan or infura"},
		&cli.StringFlag{Name: "url", Usage: "backend endpoint"},
		&cli.StringFlag{Name: "db", Usage: "database type: badger or inmemory"},
	}
	app.Before = initConfig
	app.Commands = append(
		app.Commands,
		&genseed,
		&initwallet,
		&status,
		&address,
		&syncwallet,
		&balance,
		&listtxs,
		&send,
		&watch,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func initConfig(ctx *cli.Context) error {
	for flag, key := range globalFlags {
		if ctx.IsSet(flag) {
			if err := os.Setenv(envPrefix+key, ctx.String(flag)); err != nil {
				return err
			}
		}
	}
	if err := config.InitConfig(); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	return nil
}

func getWalletService() (application.WalletService, error) {
	c, err := config.GetCoin()
	if err != nil {
		return nil, err
	}
	adapters, err := config.GetAdapters()
	if err != nil {
		return nil, err
	}

	appConfig := &application.Config{
		DBType:       config.GetString(config.DBTypeKey),
		DBConfig:     config.GetDbDir(),
		Coin:         c,
		Adapters:     adapters,
		BatchSize:    config.GetInt(config.SyncBatchSizeKey),
		AccountIndex: config.GetUint32(config.AccountIndexKey),
	}
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}
	return appConfig.WalletService(), nil
}

// getUnlockedWalletService returns the service unlocked with the password
// flag of ctx.
func getUnlockedWalletService(ctx *cli.Context) (application.WalletService, error) {
	svc, err := getWalletService()
	if err != nil {
		return nil, err
	}
	if err := svc.UnlockWallet(ctx.Context, ctx.String("password")); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

func printJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to encode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[berrywallet] %v\n", err)
	}
	os.Exit(1)
}
