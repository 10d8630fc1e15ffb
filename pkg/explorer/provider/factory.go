// Package provider creates backend adapters by name and combines several of
// them behind a single explorer.Client failing over between them.
package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/explorer"
	"github.com/berrywallet/berrywallet-go/pkg/explorer/blockcypher"
	"github.com/berrywallet/berrywallet-go/pkg/explorer/etherscan"
	"github.com/berrywallet/berrywallet-go/pkg/explorer/infura"
	"github.com/berrywallet/berrywallet-go/pkg/explorer/insight"
)

// AdapterType names a backend implementation.
type AdapterType string

const (
	Insight     AdapterType = "insight"
	Blockcypher AdapterType = "blockcypher"
	Etherscan   AdapterType = "etherscan"
	Infura      AdapterType = "infura"
)

var (
	// ErrUnknownAdapter ...
	ErrUnknownAdapter = errors.New("unknown adapter type")
	// ErrNoAdapters ...
	ErrNoAdapters = errors.New("at least one adapter is required")
)

// AdapterProps selects and configures one adapter.
type AdapterProps struct {
	Type    AdapterType
	Options explorer.AdapterOptions
}

// ParseAdapterType is case insensitive.
func ParseAdapterType(str string) (AdapterType, error) {
	switch t := AdapterType(strings.ToLower(strings.TrimSpace(str))); t {
	case Insight, Blockcypher, Etherscan, Infura:
		return t, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAdapter, str)
}

// NewClient instantiates the adapter described by props for coin c.
func NewClient(c *coin.Coin, props AdapterProps) (explorer.Client, error) {
	if c == nil {
		return nil, explorer.ErrNullCoin
	}

	switch props.Type {
	case Insight:
		return insight.NewClient(c, props.Options)
	case Blockcypher:
		return blockcypher.NewClient(c, props.Options)
	case Etherscan:
		return etherscan.NewClient(c, props.Options)
	case Infura:
		return infura.NewClient(c, props.Options)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, props.Type)
	}
}

var defaultAdapters = map[coin.Unit][]AdapterProps{
	coin.BTC: {
		{Insight, explorer.AdapterOptions{
			URL:   "https://insight.bitpay.com/api",
			WSURL: "wss://insight.bitpay.com/ws",
		}},
		{Blockcypher, explorer.AdapterOptions{URL: "https://api.blockcypher.com/v1/btc/main"}},
	},
	coin.BTCt: {
		{Insight, explorer.AdapterOptions{
			URL:   "https://test-insight.bitpay.com/api",
			WSURL: "wss://test-insight.bitpay.com/ws",
		}},
		{Blockcypher, explorer.AdapterOptions{URL: "https://api.blockcypher.com/v1/btc/test3"}},
	},
	coin.LTC: {
		{Insight, explorer.AdapterOptions{
			URL:   "https://insight.litecore.io/api",
			WSURL: "wss://insight.litecore.io/ws",
		}},
		{Blockcypher, explorer.AdapterOptions{URL: "https://api.blockcypher.com/v1/ltc/main"}},
	},
	coin.LTCt: {
		{Insight, explorer.AdapterOptions{
			URL:   "https://testnet.litecore.io/api",
			WSURL: "wss://testnet.litecore.io/ws",
		}},
	},
	coin.DASH: {
		{Insight, explorer.AdapterOptions{
			URL:   "https://insight.dash.org/insight-api",
			WSURL: "wss://insight.dash.org/ws",
		}},
		{Blockcypher, explorer.AdapterOptions{URL: "https://api.blockcypher.com/v1/dash/main"}},
	},
	coin.DASHt: {
		{Insight, explorer.AdapterOptions{
			URL:   "https://testnet-insight.dashevo.org/insight-api",
			WSURL: "wss://testnet-insight.dashevo.org/ws",
		}},
	},
	coin.ETH: {
		{Etherscan, explorer.AdapterOptions{URL: "https://api.etherscan.io/api"}},
		{Infura, explorer.AdapterOptions{URL: "https://mainnet.infura.io/v3"}},
	},
	coin.ETHt: {
		{Etherscan, explorer.AdapterOptions{URL: "https://api-sepolia.etherscan.io/api"}},
		{Infura, explorer.AdapterOptions{URL: "https://sepolia.infura.io/v3"}},
	},
}

// DefaultAdapters returns the public backends known for unit, in order of
// preference. The returned slice can be freely modified.
func DefaultAdapters(unit coin.Unit) []AdapterProps {
	props := defaultAdapters[unit]
	out := make([]AdapterProps, len(props))
	copy(out, props)
	return out
}
