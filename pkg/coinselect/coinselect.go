// Package coinselect picks the unspent outputs funding a payment. It first
// looks for a set of inputs leaving no change worth an output, then falls back
// to accumulating the highest scoring inputs until the target plus fee is met.
package coinselect

import (
	"errors"
	"math"
	"sort"

	"github.com/btcsuite/btcwallet/wallet/txsizes"
)

var (
	// ErrInsufficientFunds is returned when the inputs cannot cover the
	// outputs plus fee.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidOutput ...
	ErrInvalidOutput = errors.New("output value must be greater than zero")
	// ErrInvalidFeeRate ...
	ErrInvalidFeeRate = errors.New("fee rate must be greater than zero")
)

const (
	txEmptySize  = 4 + 1 + 1 + 4
	txInputBase  = 32 + 4 + 1 + 4
	txOutputBase = 8 + 1
)

// Input is a spendable output. Values are in base units.
type Input struct {
	TxID  string
	Index uint32
	Value int64
	// ScriptSize is the estimated signature script size, a P2PKH spend is
	// assumed when zero.
	ScriptSize int
}

// Output is a payment. Change outputs have an empty address.
type Output struct {
	Address    string
	Value      int64
	ScriptSize int
}

// Result ...
type Result struct {
	Inputs  []Input
	Outputs []Output
	Fee     int64
}

// Change returns the change output appended by the selection, if any.
func (r *Result) Change() *Output {
	for i := range r.Outputs {
		if r.Outputs[i].Address == "" {
			return &r.Outputs[i]
		}
	}
	return nil
}

// Select funds outputs out of utxos paying feeRate base units per byte.
func Select(utxos []Input, outputs []Output, feeRate float64) (*Result, error) {
	if feeRate <= 0 || math.IsNaN(feeRate) || math.IsInf(feeRate, 0) {
		return nil, ErrInvalidFeeRate
	}
	for _, out := range outputs {
		if out.Value <= 0 {
			return nil, ErrInvalidOutput
		}
	}

	sorted := make([]Input, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i], feeRate) > score(sorted[j], feeRate)
	})

	if res := blackjack(sorted, outputs, feeRate); res != nil {
		return res, nil
	}
	if res := accumulative(sorted, outputs, feeRate); res != nil {
		return res, nil
	}
	return nil, ErrInsufficientFunds
}

// blackjack only accepts inputs that do not overshoot the target by more
// than the dust threshold.
func blackjack(utxos []Input, outputs []Output, feeRate float64) *Result {
	bytesAccum := transactionBytes(nil, outputs)
	outAccum := sumOutputs(outputs)
	threshold := dustThreshold(feeRate)

	var inAccum int64
	inputs := make([]Input, 0)
	for _, in := range utxos {
		size := inputBytes(in)
		fee := feeFor(feeRate, bytesAccum+size)
		if inAccum+in.Value > outAccum+fee+threshold {
			continue
		}

		bytesAccum += size
		inAccum += in.Value
		inputs = append(inputs, in)
		if inAccum < outAccum+fee {
			continue
		}
		return finalize(inputs, outputs, feeRate)
	}
	return nil
}

// accumulative adds inputs until the target is met, skipping those costing
// more in fee than they are worth.
func accumulative(utxos []Input, outputs []Output, feeRate float64) *Result {
	bytesAccum := transactionBytes(nil, outputs)
	outAccum := sumOutputs(outputs)

	var inAccum int64
	inputs := make([]Input, 0)
	for _, in := range utxos {
		size := inputBytes(in)
		if feeFor(feeRate, size) > in.Value {
			continue
		}

		bytesAccum += size
		inAccum += in.Value
		inputs = append(inputs, in)
		if inAccum < outAccum+feeFor(feeRate, bytesAccum) {
			continue
		}
		return finalize(inputs, outputs, feeRate)
	}
	return nil
}

// finalize appends a change output when the remainder is worth spending.
func finalize(inputs []Input, outputs []Output, feeRate float64) *Result {
	bytesAccum := transactionBytes(inputs, outputs)
	feeAfterExtraOutput := feeFor(feeRate, bytesAccum+outputBytes(Output{}))
	remainder := sumInputs(inputs) - (sumOutputs(outputs) + feeAfterExtraOutput)

	outs := make([]Output, len(outputs), len(outputs)+1)
	copy(outs, outputs)
	if remainder > dustThreshold(feeRate) {
		outs = append(outs, Output{Value: remainder})
	}

	return &Result{
		Inputs:  inputs,
		Outputs: outs,
		Fee:     sumInputs(inputs) - sumOutputs(outs),
	}
}

func score(in Input, feeRate float64) int64 {
	return in.Value - feeFor(feeRate, inputBytes(in))
}

func feeFor(feeRate float64, size int) int64 {
	return int64(math.Ceil(feeRate * float64(size)))
}

func dustThreshold(feeRate float64) int64 {
	return feeFor(feeRate, inputBytes(Input{}))
}

func inputBytes(in Input) int {
	if in.ScriptSize > 0 {
		return txInputBase + in.ScriptSize
	}
	return txInputBase + txsizes.RedeemP2PKHSigScriptSize
}

func outputBytes(out Output) int {
	if out.ScriptSize > 0 {
		return txOutputBase + out.ScriptSize
	}
	return txOutputBase + txsizes.P2PKHPkScriptSize
}

func transactionBytes(inputs []Input, outputs []Output) int {
	size := txEmptySize
	for _, in := range inputs {
		size += inputBytes(in)
	}
	for _, out := range outputs {
		size += outputBytes(out)
	}
	return size
}

func sumInputs(inputs []Input) int64 {
	var sum int64
	for _, in := range inputs {
		sum += in.Value
	}
	return sum
}

func sumOutputs(outputs []Output) int64 {
	var sum int64
	for _, out := range outputs {
		sum += out.Value
	}
	return sum
}
