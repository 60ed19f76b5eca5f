package izumi

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// SwapRequest is an exact-input swap along Path.
type SwapRequest struct {
	Path      Path
	Recipient common.Address
	AmountIn  *big.Int
	MinOut    *big.Int
	Deadline  *big.Int

	// PayNative sends AmountIn as msg.value (input token is the wrapped coin).
	PayNative bool
	// ReceiveNative unwraps the output to the recipient.
	ReceiveNative bool
}

// Call is an encoded contract call ready for gas estimation and signing.
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// swapAmountParams mirrors the SwapAmountParams tuple of the swap contract.
type swapAmountParams struct {
	Path        []byte
	Recipient   common.Address
	Amount      *big.Int
	MinAcquired *big.Int
	Deadline    *big.Int
}

// BuildSwapCall encodes swapAmount, wrapped in multicall when native coin
// handling needs refundETH or unwrapWETH9 next to it.
func BuildSwapCall(swapContract common.Address, r SwapRequest) (Call, error) {
	if r.AmountIn == nil || r.AmountIn.Sign() <= 0 {
		return Call{}, errors.New("amount in must be > 0")
	}
	if r.AmountIn.Cmp(maxUint128) > 0 {
		return Call{}, fmt.Errorf("amount in %s overflows uint128", r.AmountIn)
	}
	if r.MinOut == nil || r.MinOut.Sign() < 0 {
		return Call{}, errors.New("min out must be >= 0")
	}
	path, err := r.Path.Encode()
	if err != nil {
		return Call{}, err
	}
	deadline := r.Deadline
	if deadline == nil {
		deadline = big.NewInt(0xffffffff)
	}
	innerRecipient := r.Recipient
	if r.ReceiveNative {
		innerRecipient = common.Address{} // contract keeps it until unwrapWETH9
	}

	swapData, err := swapABI.Pack("swapAmount", swapAmountParams{
		Path:        path,
		Recipient:   innerRecipient,
		Amount:      new(big.Int).Set(r.AmountIn),
		MinAcquired: new(big.Int).Set(r.MinOut),
		Deadline:    new(big.Int).Set(deadline),
	})
	if err != nil {
		return Call{}, fmt.Errorf("pack swapAmount: %w", err)
	}

	value := big.NewInt(0)
	if r.PayNative {
		value = new(big.Int).Set(r.AmountIn)
	}

	calls := [][]byte{swapData}
	if r.PayNative {
		d, err := swapABI.Pack("refundETH")
		if err != nil {
			return Call{}, fmt.Errorf("pack refundETH: %w", err)
		}
		calls = append(calls, d)
	}
	if r.ReceiveNative {
		d, err := swapABI.Pack("unwrapWETH9", big.NewInt(0), r.Recipient)
		if err != nil {
			return Call{}, fmt.Errorf("pack unwrapWETH9: %w", err)
		}
		calls = append(calls, d)
	}
	if len(calls) == 1 {
		return Call{To: swapContract, Data: swapData, Value: value}, nil
	}
	data, err := swapABI.Pack("multicall", calls)
	if err != nil {
		return Call{}, fmt.Errorf("pack multicall: %w", err)
	}
	return Call{To: swapContract, Data: data, Value: value}, nil
}

func encodeQuote(path Path, amountIn *big.Int) ([]byte, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, errors.New("amount in must be > 0")
	}
	if amountIn.Cmp(maxUint128) > 0 {
		return nil, fmt.Errorf("amount in %s overflows uint128", amountIn)
	}
	p, err := path.Encode()
	if err != nil {
		return nil, err
	}
	return quoterABI.Pack("swapAmount", amountIn, p)
}

func decodeQuote(ret []byte) (*big.Int, error) {
	out, err := quoterABI.Unpack("swapAmount", ret)
	if err != nil {
		return nil, fmt.Errorf("unpack quote: %w", err)
	}
	acquire, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unpack quote: unexpected acquire type")
	}
	return acquire, nil
}
