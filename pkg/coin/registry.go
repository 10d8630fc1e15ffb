package coin

import "github.com/shopspring/decimal"

var (
	bip32Main = NetworkParams{
		HDPublicKeyID:  [4]byte{0x04, 0x88, 0xb2, 0x1e}, // xpub
		HDPrivateKeyID: [4]byte{0x04, 0x88, 0xad, 0xe4}, // xprv
	}
	bip32Test = NetworkParams{
		HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub
		HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
	}
)

func withVersions(base NetworkParams, pubKeyHash, scriptHash, wif byte) NetworkParams {
	base.PubKeyHashAddrID = pubKeyHash
	base.ScriptHashAddrID = scriptHash
	base.PrivateKeyID = wif
	return base
}

func satoshis(n int64) decimal.Decimal {
	return decimal.New(n, -8)
}

func gwei(n int64) decimal.Decimal {
	return decimal.New(n, -9)
}

var registryOrder = []Unit{BTC, BTCt, LTC, LTCt, DASH, DASHt, ETH, ETHt}

var registry = map[Unit]Descriptor{
	BTC: {
		Unit:              BTC,
		Name:              "Bitcoin",
		Family:            FamilyBIP,
		HDCoinType:        0,
		BalanceScheme:     UTXO,
		TransactionScheme: InputsOutputs,
		Precision:         8,
		SegWitAvailable:   true,
		Network:           withVersions(bip32Main, 0x00, 0x05, 0x80),
		DefaultFeePerByte: satoshis(8),
	},
	BTCt: {
		Unit:              BTCt,
		Name:              "Bitcoin Testnet",
		Family:            FamilyBIP,
		HDCoinType:        1,
		BalanceScheme:     UTXO,
		TransactionScheme: InputsOutputs,
		Precision:         8,
		SegWitAvailable:   true,
		Network:           withVersions(bip32Test, 0x6f, 0xc4, 0xef),
		DefaultFeePerByte: satoshis(8),
	},
	LTC: {
		Unit:              LTC,
		Name:              "Litecoin",
		Family:            FamilyBIP,
		HDCoinType:        2,
		BalanceScheme:     UTXO,
		TransactionScheme: InputsOutputs,
		Precision:         8,
		SegWitAvailable:   true,
		Network: withVersions(NetworkParams{
			HDPublicKeyID:  [4]byte{0x01, 0x9d, 0xa4, 0x62}, // Ltub
			HDPrivateKeyID: [4]byte{0x01, 0x9d, 0x9c, 0xfe}, // Ltpv
		}, 0x30, 0x32, 0xb0),
		DefaultFeePerByte: satoshis(200),
		MinFeePerByte:     satoshis(100),
	},
	LTCt: {
		Unit:              LTCt,
		Name:              "Litecoin Testnet",
		Family:            FamilyBIP,
		HDCoinType:        2,
		BalanceScheme:     UTXO,
		TransactionScheme: InputsOutputs,
		Precision:         8,
		SegWitAvailable:   true,
		Network:           withVersions(bip32Test, 0x6f, 0xc4, 0xef),
		DefaultFeePerByte: satoshis(200),
		MinFeePerByte:     satoshis(100),
	},
	DASH: {
		Unit:              DASH,
		Name:              "Dash",
		Family:            FamilyBIP,
		HDCoinType:        5,
		BalanceScheme:     UTXO,
		TransactionScheme: InputsOutputs,
		Precision:         8,
		Network:           withVersions(bip32Main, 0x4c, 0x10, 0xcc),
		DefaultFeePerByte: satoshis(10),
	},
	DASHt: {
		Unit:              DASHt,
		Name:              "Dash Testnet",
		Family:            FamilyBIP,
		HDCoinType:        1,
		BalanceScheme:     UTXO,
		TransactionScheme: InputsOutputs,
		Precision:         8,
		Network:           withVersions(bip32Test, 0x8c, 0x13, 0xef),
		DefaultFeePerByte: satoshis(10),
	},
	ETH: {
		Unit:              ETH,
		Name:              "Ethereum",
		Family:            FamilyEthereum,
		HDCoinType:        60,
		BalanceScheme:     AddressBalance,
		TransactionScheme: FromTo,
		Precision:         18,
		ChainID:           1,
		DefaultGasPrice:   gwei(21),
		DefaultGasLimit:   21000,
	},
	ETHt: {
		Unit:              ETHt,
		Name:              "Ethereum Sepolia",
		Family:            FamilyEthereum,
		HDCoinType:        1,
		BalanceScheme:     AddressBalance,
		TransactionScheme: FromTo,
		Precision:         18,
		ChainID:           11155111,
		DefaultGasPrice:   gwei(21),
		DefaultGasLimit:   21000,
	},
}
