package swapbot

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const bpsDenominator = 10_000

// FeeTier picks the pool fee for a destination token. Tokens listed in high
// pay the high tier, everything else pays def.
func FeeTier(dest common.Address, high []common.Address, def, highFee uint32) uint32 {
	for _, a := range high {
		if a == dest {
			return highFee
		}
	}
	return def
}

// MinOutput is floor(quoted * (10000 - slippageBps) / 10000).
func MinOutput(quoted *big.Int, slippageBps int64) *big.Int {
	if quoted == nil || quoted.Sign() <= 0 {
		return big.NewInt(0)
	}
	if slippageBps < 0 {
		slippageBps = 0
	}
	if slippageBps >= bpsDenominator {
		return big.NewInt(0)
	}
	q, overflow := uint256.FromBig(quoted)
	if overflow {
		out := new(big.Int).Mul(quoted, big.NewInt(bpsDenominator-slippageBps))
		return out.Quo(out, big.NewInt(bpsDenominator))
	}
	keep := uint256.NewInt(uint64(bpsDenominator - slippageBps))
	out, _ := new(uint256.Int).MulDivOverflow(q, keep, uint256.NewInt(bpsDenominator))
	return out.ToBig()
}

// GasWithBuffer adds pct percent to an estimate, rounding up.
func GasWithBuffer(estimate uint64, pct int64) uint64 {
	if pct <= 0 {
		return estimate
	}
	n := new(big.Int).SetUint64(estimate)
	n.Mul(n, big.NewInt(100+pct))
	n.Add(n, big.NewInt(99))
	n.Quo(n, big.NewInt(100))
	if !n.IsUint64() {
		return ^uint64(0)
	}
	return n.Uint64()
}
