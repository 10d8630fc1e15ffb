package etherscan

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/berrywallet/berrywallet-go/pkg/coin"
	"github.com/berrywallet/berrywallet-go/pkg/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// accountTx is an item of the account txlist action, numbers are decimal
// strings.
type accountTx struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	Nonce           string `json:"nonce"`
	BlockHash       string `json:"blockHash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Gas             string `json:"gas"`
	GasPrice        string `json:"gasPrice"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
	Input           string `json:"input"`
	GasUsed         string `json:"gasUsed"`
}

// rpcTx is the JSON-RPC transaction object returned by the proxy module,
// numbers are hex quantities.
type rpcTx struct {
	BlockHash   *string `json:"blockHash"`
	BlockNumber *string `json:"blockNumber"`
	From        string  `json:"from"`
	Gas         string  `json:"gas"`
	GasPrice    string  `json:"gasPrice"`
	Hash        string  `json:"hash"`
	Input       string  `json:"input"`
	Nonce       string  `json:"nonce"`
	To          *string `json:"to"`
	Value       string  `json:"value"`
	V           string  `json:"v"`
	R           string  `json:"r"`
	S           string  `json:"s"`
}

type rpcReceipt struct {
	Status  string `json:"status"`
	GasUsed string `json:"gasUsed"`
}

type rpcBlock struct {
	Hash      string `json:"hash"`
	Number    string `json:"number"`
	Timestamp string `json:"timestamp"`
}

func checksum(addr string) string {
	if addr == "" || !common.IsHexAddress(addr) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}

func parseDecimalBig(str string) (*big.Int, error) {
	if str == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", str)
	}
	return v, nil
}

func parseDecimalUint(str string) (uint64, error) {
	if str == "" {
		return 0, nil
	}
	return strconv.ParseUint(str, 10, 64)
}

func (t accountTx) toWalletTx(c *coin.Coin) (*entity.AccountTransaction, error) {
	value, err := parseDecimalBig(t.Value)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseDecimalBig(t.GasPrice)
	if err != nil {
		return nil, err
	}
	nonce, err := parseDecimalUint(t.Nonce)
	if err != nil {
		return nil, err
	}
	gas, err := parseDecimalUint(t.Gas)
	if err != nil {
		return nil, err
	}
	height, err := strconv.ParseInt(t.BlockNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid block number %q", t.BlockNumber)
	}
	timestamp, err := strconv.ParseInt(t.TimeStamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q", t.TimeStamp)
	}

	wtx := &entity.AccountTransaction{
		TxBase: entity.TxBase{
			TxID:        t.Hash,
			Coin:        c.Unit,
			ReceiveTime: timestamp * 1000,
		},
		From:     checksum(t.From),
		To:       checksum(t.To),
		Value:    c.FromBaseUnits(value),
		Nonce:    nonce,
		Data:     t.Input,
		GasPrice: c.FromBaseUnits(gasPrice),
		GasLimit: gas,
	}
	wtx.Confirm(t.BlockHash, height, timestamp*1000)

	if t.GasUsed != "" {
		used, err := parseDecimalUint(t.GasUsed)
		if err != nil {
			return nil, err
		}
		wtx.GasUsed = &used
	}

	// txreceipt_status is empty for transactions mined before byzantium.
	switch {
	case t.TxReceiptStatus != "":
		ok := t.TxReceiptStatus == "1"
		wtx.ReceiptStatus = &ok
	case t.IsError != "":
		ok := t.IsError == "0"
		wtx.ReceiptStatus = &ok
	}
	return wtx, nil
}

func (t rpcTx) toWalletTx(c *coin.Coin) (*entity.AccountTransaction, error) {
	value, err := hexutil.DecodeBig(t.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	gasPrice, err := hexutil.DecodeBig(t.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	nonce, err := hexutil.DecodeUint64(t.Nonce)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	gas, err := hexutil.DecodeUint64(t.Gas)
	if err != nil {
		return nil, fmt.Errorf("gas: %w", err)
	}

	wtx := &entity.AccountTransaction{
		TxBase: entity.TxBase{
			TxID: t.Hash,
			Coin: c.Unit,
		},
		From:     checksum(t.From),
		Value:    c.FromBaseUnits(value),
		Nonce:    nonce,
		Data:     t.Input,
		GasPrice: c.FromBaseUnits(gasPrice),
		GasLimit: gas,
		R:        t.R,
		S:        t.S,
		V:        t.V,
	}
	if t.To != nil {
		wtx.To = checksum(*t.To)
	}
	return wtx, nil
}

func (r rpcReceipt) apply(wtx *entity.AccountTransaction) error {
	if r.GasUsed != "" {
		used, err := hexutil.DecodeUint64(r.GasUsed)
		if err != nil {
			return fmt.Errorf("gas used: %w", err)
		}
		wtx.GasUsed = &used
	}
	if r.Status != "" {
		status, err := hexutil.DecodeUint64(r.Status)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		ok := status == 1
		wtx.ReceiptStatus = &ok
	}
	return nil
}
