package main

import (
	"fmt"

	"github.com/berrywallet/berrywallet-go/internal/core/application"
	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var send = cli.Command{
	Name:  "send",
	Usage: "pay an amount to an address",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the recipient address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount to send, in coin units",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "fee",
			Usage: "the fee tier: low, standard or high",
			Value: coin.FeeStandard.String(),
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "only estimate the fee",
		},
		passwordFlag,
	},
	Action: sendAction,
}

func sendAction(ctx *cli.Context) error {
	amount, err := decimal.NewFromString(ctx.String("amount"))
	if err != nil {
		return &invalidUsageError{ctx, "send"}
	}
	feeType, err := coin.ParseFeeType(ctx.String("fee"))
	if err != nil {
		return err
	}

	svc, err := getUnlockedWalletService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Sync(ctx.Context); err != nil {
		return err
	}

	req := application.SendRequest{
		Address: ctx.String("to"),
		Amount:  amount,
		FeeType: feeType,
	}
	if ctx.Bool("dry-run") {
		fee, err := svc.EstimateFee(ctx.Context, req)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("Fee: %s\n", fee.String())
		return nil
	}

	txid, err := svc.Send(ctx.Context, req)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Transaction %s broadcasted\n", txid)
	return nil
}
