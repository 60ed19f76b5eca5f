package swapbot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ligun0805/izi-swapbot/internal/izumi"
	"github.com/ligun0805/izi-swapbot/internal/wallet"
)

// WalletReport is the final state of one wallet task.
type WalletReport struct {
	Index    int
	Address  common.Address
	TokenOut common.Address
	Swaps    int
	Stopped  string // non-empty when the loop ended early without error
	Err      error
}

// Runner drives every wallet through Prepare and up to Loops swaps.
type Runner struct {
	chain Chain
	p     Params
	exec  *Executor
}

func NewRunner(chain Chain, p Params) *Runner {
	p.setDefaults()
	return &Runner{chain: chain, p: p, exec: NewExecutor(chain, p)}
}

// Run starts one task per key and waits for all of them. A failing wallet
// never cancels the others; the returned error joins every wallet error.
func (r *Runner) Run(ctx context.Context, keys []string) ([]WalletReport, error) {
	if len(r.p.TokensOut) == 0 {
		return nil, errors.New("no destination tokens configured")
	}
	reports := make([]WalletReport, len(keys))

	var g errgroup.Group
	if r.p.MaxConcurrency > 0 {
		g.SetLimit(r.p.MaxConcurrency)
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			reports[i] = r.runWallet(ctx, i, key)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, rep := range reports {
		if rep.Err != nil {
			errs = append(errs, fmt.Errorf("wallet #%d %s: %w", rep.Index, rep.Address.Hex(), rep.Err))
		}
	}
	return reports, errors.Join(errs...)
}

func (r *Runner) runWallet(ctx context.Context, idx int, key string) (rep WalletReport) {
	rep.Index = idx
	rep.TokenOut = r.p.TokensOut[idx%len(r.p.TokensOut)]
	log := r.p.Log.WithFields(logrus.Fields{"wallet": idx, "token_out": rep.TokenOut.Hex()})

	w, err := wallet.FromHex(key)
	if err != nil {
		rep.Err = err
		log.WithError(err).Error("bad private key")
		return rep
	}
	rep.Address = w.Address
	log = log.WithField("address", w.Address.Hex())

	defer func() {
		switch {
		case rep.Err != nil:
			r.p.Metrics.SwapDone(rep.TokenOut.Hex(), "error")
			log.WithError(rep.Err).WithField("swaps", rep.Swaps).Error("wallet failed")
		case rep.Stopped != "":
			log.WithFields(logrus.Fields{"swaps": rep.Swaps, "reason": rep.Stopped}).Info("wallet stopped")
		default:
			log.WithField("swaps", rep.Swaps).Info("wallet done")
		}
	}()

	plan, err := Prepare(ctx, r.chain, r.p, rep.TokenOut)
	if err != nil {
		rep.Err = err
		return rep
	}
	log.WithFields(logrus.Fields{
		"pair": plan.TokenIn.Symbol + "/" + plan.TokenOut.Symbol,
		"fee":  plan.Path.Fees[0],
	}).Info("prepared")

	if r.p.QuoteOnly {
		rep.Err = r.quoteOnly(ctx, w, plan)
		return rep
	}

	for i := 0; i < r.p.Loops; i++ {
		out, err := r.exec.Swap(ctx, i, w, plan)
		if err != nil {
			rep.Err = fmt.Errorf("iteration %d: %w", i, err)
			return rep
		}
		if !out.OK {
			r.p.Metrics.SwapDone(rep.TokenOut.Hex(), "stopped")
			rep.Stopped = out.Reason
			return rep
		}
		rep.Swaps++
		r.p.Metrics.SwapDone(rep.TokenOut.Hex(), "ok")

		if i == r.p.Loops-1 {
			break
		}
		d := randomDelay(r.p.DelayMin, r.p.DelayMax)
		log.Debugf("next swap in %s", d.Round(time.Millisecond))
		if err := r.p.Sleep(ctx, d); err != nil {
			rep.Err = err
			return rep
		}
	}
	return rep
}

// quoteOnly prints the current quote for the wallet's route and sends nothing.
func (r *Runner) quoteOnly(ctx context.Context, w *wallet.Wallet, plan Plan) error {
	quoted, err := r.chain.Quote(ctx, plan.Path, plan.AmountIn)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}
	short, err := wallet.Truncate(w.Address.Hex())
	if err != nil {
		return err
	}
	minOut := MinOutput(quoted, r.p.SlippageBps)
	fmt.Fprintf(r.p.Out, "[quote] %s  %s (%s) -> %s (%s)  min %s  fee %d\n",
		short,
		plan.AmountInText, plan.TokenIn.Symbol,
		izumi.FormatUnits(quoted, plan.TokenOut.Decimals), plan.TokenOut.Symbol,
		izumi.FormatUnits(minOut, plan.TokenOut.Decimals),
		plan.Path.Fees[0])
	return nil
}

// randomDelay is uniform in [lo, hi].
func randomDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)+1))
}
