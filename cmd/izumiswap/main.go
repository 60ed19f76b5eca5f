package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "izumiswap",
		Usage: "Repeated iZiSwap swaps on Mantle for every wallet in a key file",
		Description: `Reads one private key per line from the wallets file and, for every wallet
in parallel, swaps a small fixed amount of WMNT into a rotating destination token
until the loop count is reached or the wallet runs out of gas money.

All other settings come from the environment (.env, .env.local).`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "wallets",
				Aliases: []string{"w"},
				Usage:   "Key file, one private key per line",
				EnvVars: []string{"WALLETS_FILE"},
			},
			&cli.StringFlag{
				Name:    "rpc",
				Usage:   "Mantle RPC endpoint",
				EnvVars: []string{"RPC_URL"},
			},
			&cli.IntFlag{
				Name:    "loops",
				Aliases: []string{"n"},
				Usage:   "Swaps per wallet",
				EnvVars: []string{"LOOPS"},
			},
			&cli.IntFlag{
				Name:    "max-concurrency",
				Usage:   "Wallets processed at once (0 = all)",
				EnvVars: []string{"MAX_CONCURRENCY"},
			},
			&cli.BoolFlag{
				Name:  "quote-only",
				Usage: "Print one quote per wallet and send nothing",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn, error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: run,
	}
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
