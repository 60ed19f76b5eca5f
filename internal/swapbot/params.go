package swapbot

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/izi-swapbot/internal/config"
	"github.com/ligun0805/izi-swapbot/internal/izumi"
)

// Chain is the subset of *izumi.Client the bot needs.
type Chain interface {
	FetchToken(ctx context.Context, addr common.Address) (izumi.Token, error)
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	Quote(ctx context.Context, path izumi.Path, amountIn *big.Int) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Recorder receives per-swap and per-balance observations. *metrics.Metrics
// satisfies it.
type Recorder interface {
	SwapDone(tokenOut, status string)
	WalletBalance(address string, balance float64)
}

type nopRecorder struct{}

func (nopRecorder) SwapDone(string, string)       {}
func (nopRecorder) WalletBalance(string, float64) {}

type Params struct {
	ChainID      *big.Int
	SwapContract common.Address

	// Route
	TokenIn       common.Address
	TokensOut     []common.Address
	HighFeeTokens []common.Address
	FeeDefault    uint32
	FeeHigh       uint32

	// Amounts & pacing
	AmountIn    string // human units of TokenIn
	Loops       int
	DelayMin    time.Duration
	DelayMax    time.Duration
	MinBalance  decimal.Decimal
	SlippageBps int64

	// Tx
	GasBufferPct int64
	GasPrice     *big.Int // nil => eth_gasPrice
	Deadline     *big.Int
	PayNative    bool
	// ReceiveNative unwraps output to the chain coin when the destination is WrappedNative.
	ReceiveNative bool
	WrappedNative common.Address

	ExplorerTxURL  string
	ReceiptTimeout time.Duration
	ReceiptPoll    time.Duration

	MaxConcurrency int
	QuoteOnly      bool

	Log     logrus.FieldLogger
	Out     io.Writer // swap summaries
	Metrics Recorder

	// Sleep waits between iterations; tests swap it out.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewParams maps validated settings onto runner parameters.
func NewParams(st config.Settings, chainID *big.Int) (Params, error) {
	minBal, err := decimal.NewFromString(st.MinBalance)
	if err != nil {
		return Params{}, fmt.Errorf("MIN_BALANCE %q: %w", st.MinBalance, err)
	}
	p := Params{
		ChainID:        chainID,
		SwapContract:   st.Swap,
		TokenIn:        st.TokenIn,
		TokensOut:      st.TokensOut,
		HighFeeTokens:  st.HighFeeTokens,
		FeeDefault:     st.FeeDefault,
		FeeHigh:        st.FeeHigh,
		AmountIn:       st.AmountIn,
		Loops:          st.Loops,
		DelayMin:       st.DelayMin,
		DelayMax:       st.DelayMax,
		MinBalance:     minBal,
		SlippageBps:    st.SlippageBps,
		GasBufferPct:   st.GasBuffer,
		Deadline:       new(big.Int).SetUint64(st.Deadline),
		PayNative:      st.PayNative,
		ReceiveNative:  st.ReceiveNative,
		WrappedNative:  st.WrappedNative,
		ExplorerTxURL:  st.ExplorerTxURL,
		ReceiptTimeout: st.ReceiptTimeout,
		MaxConcurrency: st.MaxConcurrency,
	}
	if st.GasPriceWei > 0 {
		p.GasPrice = big.NewInt(st.GasPriceWei)
	}
	return p, nil
}

func (p *Params) setDefaults() {
	if p.Log == nil {
		p.Log = logrus.StandardLogger()
	}
	if p.Out == nil {
		p.Out = os.Stdout
	}
	if p.Metrics == nil {
		p.Metrics = nopRecorder{}
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	if p.ReceiptPoll <= 0 {
		p.ReceiptPoll = 300 * time.Millisecond
	}
	if p.ReceiptTimeout <= 0 {
		p.ReceiptTimeout = 2 * time.Minute
	}
	if p.Deadline == nil {
		p.Deadline = big.NewInt(0xffffffff)
	}
	if p.FeeDefault == 0 {
		p.FeeDefault = 500
	}
	if p.FeeHigh == 0 {
		p.FeeHigh = 3000
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
