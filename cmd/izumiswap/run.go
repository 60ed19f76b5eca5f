package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ligun0805/izi-swapbot/internal/config"
	"github.com/ligun0805/izi-swapbot/internal/izumi"
	"github.com/ligun0805/izi-swapbot/internal/metrics"
	"github.com/ligun0805/izi-swapbot/internal/swapbot"
	"github.com/ligun0805/izi-swapbot/internal/wallet"
)

func run(c *cli.Context) error {
	st := config.Load()
	if c.IsSet("wallets") {
		st.WalletsFile = c.String("wallets")
	}
	if c.IsSet("rpc") {
		st.RPCURL = c.String("rpc")
	}
	if c.IsSet("loops") {
		st.Loops = c.Int("loops")
	}
	if c.IsSet("max-concurrency") {
		st.MaxConcurrency = c.Int("max-concurrency")
	}
	if c.IsSet("log-level") {
		st.LogLevel = c.String("log-level")
	}

	log, err := newLogger(c.App.ErrWriter, st.LogLevel, st.LogFormat)
	if err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return fmt.Errorf("invalid config:\n%w", err)
	}

	keys := wallet.LoadKeys(st.WalletsFile, log)
	if len(keys) == 0 {
		log.WithError(wallet.ErrNoWallets).WithField("file", st.WalletsFile).Warn("nothing to do, exiting")
		return nil
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	if st.MetricsAddr != "" {
		srv := metrics.Serve(st.MetricsAddr, reg, func(err error) {
			log.WithError(err).Error("metrics server stopped")
		})
		defer srv.Close()
		log.WithField("addr", st.MetricsAddr).Info("metrics listening on /metrics")
	}

	client, err := izumi.Dial(st.RPCURL, izumi.ClientConfig{
		Quoter:       st.Quoter,
		BalanceToken: st.NativeBalanceToken,
		ReadAttempts: st.RPCReadAttempts,
		RatePerSec:   st.RPCRatePerSec,
		Observer:     m,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	chainID, err := resolveChainID(ctx, client, st.ChainID)
	if err != nil {
		return err
	}
	printConfig(c.App.Writer, st, chainID, keys)

	p, err := swapbot.NewParams(st, chainID)
	if err != nil {
		return err
	}
	p.QuoteOnly = c.Bool("quote-only")
	p.Log = log
	p.Out = c.App.Writer
	p.Metrics = m

	start := time.Now()
	reports, runErr := swapbot.NewRunner(client, p).Run(ctx, keys)
	printSummary(c.App.Writer, reports, time.Since(start))
	if runErr != nil {
		return fmt.Errorf("some wallets failed:\n%w", runErr)
	}
	return nil
}

func resolveChainID(ctx context.Context, client *izumi.Client, configured string) (*big.Int, error) {
	if configured != "" {
		id, ok := new(big.Int).SetString(configured, 0)
		if !ok {
			return nil, fmt.Errorf("bad CHAIN_ID %q", configured)
		}
		return id, nil
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return id, nil
}

func newLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	if out != nil {
		log.SetOutput(out)
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", format)
	}
	return log, nil
}

func printConfig(w io.Writer, st config.Settings, chainID *big.Int, keys []string) {
	fmt.Fprintln(w, "=== CONFIG (.env) ===")
	fmt.Fprintln(w, "RPC_URL        :", st.RPCURL)
	fmt.Fprintln(w, "CHAIN_ID       :", chainID.String())
	fmt.Fprintln(w, "WALLETS_FILE   :", st.WalletsFile, fmt.Sprintf("(%d keys)", len(keys)))
	for i, k := range keys {
		fmt.Fprintf(w, "  #%-3d         : %s\n", i, wallet.MaskKey(k))
	}
	fmt.Fprintln(w, "QUOTER         :", st.Quoter.Hex())
	fmt.Fprintln(w, "SWAP           :", st.Swap.Hex())
	fmt.Fprintln(w, "TOKEN_IN       :", st.TokenIn.Hex())
	fmt.Fprintln(w, "TOKENS_OUT     :", len(st.TokensOut), "tokens")
	fmt.Fprintln(w, "AMOUNT_IN      :", st.AmountIn)
	fmt.Fprintln(w, "LOOPS          :", st.Loops)
	fmt.Fprintln(w, "DELAY          :", st.DelayMin, "-", st.DelayMax)
	fmt.Fprintln(w, "MIN_BALANCE    :", st.MinBalance)
	fmt.Fprintln(w, "SLIPPAGE (bps) :", st.SlippageBps)
	fmt.Fprintln(w, "GAS_BUFFER %   :", st.GasBuffer)
	if st.GasPriceWei > 0 {
		fmt.Fprintln(w, "GAS_PRICE (wei):", st.GasPriceWei)
	} else {
		fmt.Fprintln(w, "GAS_PRICE (wei): node")
	}
	if st.MaxConcurrency > 0 {
		fmt.Fprintln(w, "CONCURRENCY    :", st.MaxConcurrency)
	} else {
		fmt.Fprintln(w, "CONCURRENCY    : unbounded")
	}
	fmt.Fprintln(w, "=====================")
}

func printSummary(w io.Writer, reports []swapbot.WalletReport, took time.Duration) {
	fmt.Fprintf(w, "=== SUMMARY (%s) ===\n", took.Round(time.Second))
	var swaps, failed int
	for _, r := range reports {
		swaps += r.Swaps
		status := "done"
		switch {
		case r.Err != nil:
			status = "FAILED: " + r.Err.Error()
			failed++
		case r.Stopped != "":
			status = "stopped: " + r.Stopped
		}
		addr := "-"
		if short, err := wallet.Truncate(r.Address.Hex()); err == nil && r.Address != (common.Address{}) {
			addr = short
		}
		fmt.Fprintf(w, "#%-3d %-13s swaps=%-4d %s\n", r.Index, addr, r.Swaps, status)
	}
	fmt.Fprintf(w, "wallets=%d swaps=%d failed=%d\n", len(reports), swaps, failed)
}
