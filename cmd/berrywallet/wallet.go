package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var genseed = cli.Command{
	Name:   "genseed",
	Usage:  "generate a mnemonic seed",
	Action: genSeedAction,
}

var initwallet = cli.Command{
	Name:  "init",
	Usage: "initialize the wallet with a mnemonic encrypted with the given password",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mnemonic",
			Usage: "the mnemonic to restore, a new one is generated if missing",
		},
		passwordFlag,
	},
	Action: initWalletAction,
}

var status = cli.Command{
	Name:   "status",
	Usage:  "show whether the wallet is initialized",
	Action: statusAction,
}

var address = cli.Command{
	Name:   "address",
	Usage:  "get an unused receive address, deriving a new one if needed",
	Flags:  []cli.Flag{passwordFlag},
	Action: addressAction,
}

func genSeedAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	mnemonic, err := svc.GenSeed(ctx.Context)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(mnemonic)
	return nil
}

func initWalletAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	mnemonic := ctx.String("mnemonic")
	if mnemonic == "" {
		if mnemonic, err = svc.GenSeed(ctx.Context); err != nil {
			return err
		}
		fmt.Println()
		fmt.Println("Write down your new mnemonic:")
		fmt.Println(mnemonic)
	}

	if err := svc.InitWallet(ctx.Context, mnemonic, ctx.String("password")); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Wallet is initialized")
	return nil
}

func statusAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	printJSON(svc.Status(ctx.Context))
	return nil
}

func addressAction(ctx *cli.Context) error {
	svc, err := getUnlockedWalletService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	addr, err := svc.NewReceiveAddress(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(addr)
	return nil
}
