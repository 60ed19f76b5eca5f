package izumi

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token is ERC-20 metadata as read from chain.
type Token struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals int
}

// ToBaseUnits scales a human amount ("0.0001") to integer base units.
// Precision beyond the token decimals is truncated.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FromBaseUnits is the inverse of ToBaseUnits.
func FromBaseUnits(v *big.Int, decimals int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// FormatUnits renders base units without trailing zeros ("12.5", "0.0001").
func FormatUnits(v *big.Int, decimals int) string {
	return FromBaseUnits(v, decimals).String()
}

// decodeString supports both the standard dynamic string and the old bytes32 form.
func decodeString(method string, ret []byte) (string, error) {
	if len(ret) == 0 {
		return "", errors.New(method + "(): empty return")
	}
	if out, err := erc20ABI.Unpack(method, ret); err == nil && len(out) == 1 {
		if s, ok := out[0].(string); ok {
			return s, nil
		}
	}
	if len(ret) == 32 {
		return string(bytes.TrimRight(ret, "\x00")), nil
	}
	return "", fmt.Errorf("%s(): cannot decode %d bytes", method, len(ret))
}

func decodeDecimals(ret []byte) (int, error) {
	if len(ret) == 0 {
		return 18, nil
	}
	out, err := erc20ABI.Unpack("decimals", ret)
	if err != nil {
		return 0, fmt.Errorf("decimals(): %w", err)
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, errors.New("decimals(): unexpected type")
	}
	return int(d), nil
}
