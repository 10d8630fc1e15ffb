package entity

import "github.com/berrywallet/berrywallet-go/pkg/hd"

// WalletAddress is an address derived by the wallet, identified by the
// address string and never reassigned once stored.
type WalletAddress struct {
	Address string         `json:"address"`
	Type    hd.AddressType `json:"type"`
	Index   uint32         `json:"index"`
}

// Block ...
type Block struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
	// Time is expressed in milliseconds.
	Time  int64    `json:"time"`
	TxIDs []string `json:"txids"`
}
