package swapbot

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/izi-swapbot/internal/izumi"
)

// Plan is a wallet's swap route, resolved once and reused for every iteration.
type Plan struct {
	TokenIn  izumi.Token
	TokenOut izumi.Token
	Path     izumi.Path
	AmountIn *big.Int
	// AmountInText is the configured human amount, echoed in summaries.
	AmountInText string
}

// Prepare resolves token metadata for TokenIn -> dest and scales the input amount.
func Prepare(ctx context.Context, chain Chain, p Params, dest common.Address) (Plan, error) {
	fee := FeeTier(dest, p.HighFeeTokens, p.FeeDefault, p.FeeHigh)

	tokenIn, err := chain.FetchToken(ctx, p.TokenIn)
	if err != nil {
		return Plan{}, fmt.Errorf("fetch token in: %w", err)
	}
	tokenOut, err := chain.FetchToken(ctx, dest)
	if err != nil {
		return Plan{}, fmt.Errorf("fetch token out: %w", err)
	}
	amountIn, err := izumi.ToBaseUnits(p.AmountIn, tokenIn.Decimals)
	if err != nil {
		return Plan{}, err
	}
	if amountIn.Sign() <= 0 {
		return Plan{}, fmt.Errorf("amount %s %s rounds to zero", p.AmountIn, tokenIn.Symbol)
	}
	return Plan{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Path: izumi.Path{
			Tokens: []common.Address{tokenIn.Address, tokenOut.Address},
			Fees:   []uint32{fee},
		},
		AmountIn:     amountIn,
		AmountInText: p.AmountIn,
	}, nil
}
