package swapbot

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/izi-swapbot/internal/izumi"
	"github.com/ligun0805/izi-swapbot/internal/wallet"
)

// Stop reasons reported by Swap.
const (
	StopNoFunds = "no funds"
	StopEmptyTx = "empty raw transaction"
)

// Outcome of one iteration. OK=false ends the wallet loop without an error.
type Outcome struct {
	OK        bool
	Reason    string
	TxHash    common.Hash
	Balance   decimal.Decimal
	AmountOut *big.Int
}

// Executor runs single swap iterations against a chain.
type Executor struct {
	chain Chain
	p     Params
}

func NewExecutor(chain Chain, p Params) *Executor {
	p.setDefaults()
	return &Executor{chain: chain, p: p}
}

// Swap checks the balance, quotes, signs and broadcasts one swap and waits
// for its receipt.
func (e *Executor) Swap(ctx context.Context, iter int, w *wallet.Wallet, plan Plan) (Outcome, error) {
	log := e.p.Log.WithFields(logrus.Fields{"address": w.Address.Hex(), "iter": iter})

	balWei, err := e.chain.NativeBalance(ctx, w.Address)
	if err != nil {
		return Outcome{}, fmt.Errorf("balance: %w", err)
	}
	balance := decimal.NewFromBigInt(balWei, -18)
	e.p.Metrics.WalletBalance(w.Address.Hex(), balance.InexactFloat64())
	if balance.LessThanOrEqual(e.p.MinBalance) {
		log.WithField("balance", balance.StringFixed(3)).Warn("no funds left, stopping wallet")
		return Outcome{Reason: StopNoFunds, Balance: balance}, nil
	}

	quoted, err := e.chain.Quote(ctx, plan.Path, plan.AmountIn)
	if err != nil {
		return Outcome{}, fmt.Errorf("quote %s->%s: %w", plan.TokenIn.Symbol, plan.TokenOut.Symbol, err)
	}
	minOut := MinOutput(quoted, e.p.SlippageBps)

	call, err := izumi.BuildSwapCall(e.p.SwapContract, izumi.SwapRequest{
		Path:          plan.Path,
		Recipient:     w.Address,
		AmountIn:      plan.AmountIn,
		MinOut:        minOut,
		Deadline:      e.p.Deadline,
		PayNative:     e.p.PayNative,
		ReceiveNative: e.p.ReceiveNative && plan.TokenOut.Address == e.p.WrappedNative,
	})
	if err != nil {
		return Outcome{}, err
	}

	est, err := e.chain.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.Address,
		To:    &call.To,
		Value: call.Value,
		Data:  call.Data,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("estimate gas: %w", err)
	}
	gasLimit := GasWithBuffer(est, e.p.GasBufferPct)

	gasPrice := e.p.GasPrice
	if gasPrice == nil {
		if gasPrice, err = e.chain.SuggestGasPrice(ctx); err != nil {
			return Outcome{}, fmt.Errorf("gas price: %w", err)
		}
	}
	nonce, err := e.chain.PendingNonceAt(ctx, w.Address)
	if err != nil {
		return Outcome{}, fmt.Errorf("nonce: %w", err)
	}

	signed, err := signTx(buildLegacyTx(nonce, call.To, call.Value, gasLimit, gasPrice, call.Data), e.p.ChainID, w.Key)
	if err != nil {
		return Outcome{}, fmt.Errorf("sign: %w", err)
	}
	var raw []byte
	if signed != nil {
		if raw, err = signed.MarshalBinary(); err != nil {
			return Outcome{}, fmt.Errorf("encode tx: %w", err)
		}
	}
	// Unreachable with the go-ethereum signer; kept for signers that return nothing.
	if len(raw) == 0 {
		log.Warn("signed transaction has no raw bytes, stopping wallet")
		return Outcome{Reason: StopEmptyTx, Balance: balance}, nil
	}

	log.WithFields(logrus.Fields{
		"nonce":   nonce,
		"gas":     gasLimit,
		"min_out": minOut.String(),
	}).Debug("broadcasting swap")
	hash, err := e.chain.SendRawTransaction(ctx, raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("send: %w", err)
	}
	if _, err := e.waitReceipt(ctx, hash); err != nil {
		return Outcome{}, err
	}

	short, err := wallet.Truncate(w.Address.Hex())
	if err != nil {
		return Outcome{}, err
	}
	fmt.Fprintf(e.p.Out, "%d.\n", iter)
	fmt.Fprintf(e.p.Out, "    - Address: %s\n", short)
	fmt.Fprintf(e.p.Out, "    - My balance: %s\n", balance.StringFixed(3))
	fmt.Fprintf(e.p.Out, "    - SWAP:  %s (%s)   TO:   %s (%s)\n",
		plan.AmountInText, plan.TokenIn.Symbol,
		izumi.FormatUnits(quoted, plan.TokenOut.Decimals), plan.TokenOut.Symbol)
	fmt.Fprintf(e.p.Out, "    - Transaction: %s%s\n\n", e.p.ExplorerTxURL, hash.Hex())

	return Outcome{OK: true, TxHash: hash, Balance: balance, AmountOut: quoted}, nil
}

// waitReceipt polls until the tx is mined or ReceiptTimeout passes.
func (e *Executor) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.p.ReceiptTimeout)
	defer cancel()

	tick := time.NewTicker(e.p.ReceiptPoll)
	defer tick.Stop()
	var lastErr error
	for {
		rcpt, err := e.chain.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && rcpt != nil:
			if rcpt.Status != types.ReceiptStatusSuccessful {
				return rcpt, fmt.Errorf("tx %s reverted in block %v", hash.Hex(), rcpt.BlockNumber)
			}
			return rcpt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			lastErr = err
		}
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, fmt.Errorf("receipt %s: %w (last error: %v)", hash.Hex(), ctx.Err(), lastErr)
			}
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), ctx.Err())
		case <-tick.C:
		}
	}
}
