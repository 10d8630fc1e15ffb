package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/berrywallet/berrywallet-go/pkg/entity"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var syncwallet = cli.Command{
	Name:   "sync",
	Usage:  "fetch the transactions of every wallet address",
	Action: syncAction,
}

var balance = cli.Command{
	Name:  "balance",
	Usage: "show the wallet balance",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "sync",
			Usage: "sync the wallet before computing the balance",
		},
	},
	Action: balanceAction,
}

var listtxs = cli.Command{
	Name:   "txs",
	Usage:  "list the wallet transactions",
	Action: listTxsAction,
}

var watch = cli.Command{
	Name:   "watch",
	Usage:  "keep the wallet up to date with the network until interrupted",
	Action: watchAction,
}

func syncAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Sync(ctx.Context); err != nil {
		return err
	}

	info, err := svc.GetBalance(ctx.Context)
	if err != nil {
		return err
	}
	printJSON(info)
	return nil
}

func balanceAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if ctx.Bool("sync") {
		if err := svc.Sync(ctx.Context); err != nil {
			return err
		}
	}

	info, err := svc.GetBalance(ctx.Context)
	if err != nil {
		return err
	}
	printJSON(info)
	return nil
}

func listTxsAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	txs, err := svc.ListTransactions(ctx.Context)
	if err != nil {
		return err
	}
	printJSON(txs)
	return nil
}

func watchAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Sync(ctx.Context); err != nil {
		return err
	}
	if err := svc.StartTracking(ctx.Context); err != nil {
		return err
	}

	addresses := svc.Addresses(ctx.Context)
	log.WithField("addresses", len(addresses)).Info("watching wallet addresses")
	logAddresses(addresses)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
	return nil
}

func logAddresses(addresses []entity.WalletAddress) {
	for _, addr := range addresses {
		log.WithFields(log.Fields{
			"address": addr.Address,
			"type":    addr.Type,
			"index":   addr.Index,
		}).Debug("tracking")
	}
}
