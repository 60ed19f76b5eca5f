package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// iZiSwap deployments on Mantle mainnet.
const (
	DefaultQuoter = "0x032b241De86a8660f1Ae0691a4760B426EA246d7"
	DefaultSwap   = "0x25C030116Feb2E7BbA054b9de0915E5F51b03e31"
	DefaultWMNT   = "0x78c1b0C915c4FAA5FffA6CAbf0219DA63d7f4cb8"
)

// Destination tokens, cycled by wallet index.
var DefaultTokensOut = []string{
	"0x201EBa5CC46D216Ce6DC03F6a759e8E766e956aE", // USDT
	"0xdEAddEaDdeadDEadDEADDEAddEADDEAddead1111", // WETH
	"0x09Bc4E0D864854c6aFB6eB9A9cdF58aC190D0dF9", // USDC
	"0x60D01EC2D5E98Ac51C8B4cF84DfCCE98D527c747", // IZI
	"0x0A3BB08b3a15A19b4De82F8AcFc862606FB69A2D", // iUSD
}

// Destinations routed through the 0.3% pool.
var DefaultHighFeeTokens = []string{
	"0x09Bc4E0D864854c6aFB6eB9A9cdF58aC190D0dF9", // USDC
	"0x0A3BB08b3a15A19b4De82F8AcFc862606FB69A2D", // iUSD
}

// Settings keeps all configuration options. Built once at startup and shared
// read-only by every wallet task.
type Settings struct {
	RPCURL      string
	ChainID     string // empty => ask the node
	WalletsFile string

	Quoter        common.Address
	Swap          common.Address
	TokenIn       common.Address
	TokensOut     []common.Address
	HighFeeTokens []common.Address
	FeeDefault    uint32
	FeeHigh       uint32

	AmountIn    string // human units of TokenIn
	Loops       int
	DelayMin    time.Duration
	DelayMax    time.Duration
	MinBalance  string // native units, stop at or below
	SlippageBps int64
	GasBuffer   int64 // percent
	GasPriceWei int64 // 0 => eth_gasPrice
	Deadline    uint64

	NativeBalanceToken *common.Address // nil => eth_getBalance
	PayNative          bool
	// ReceiveNative unwraps the output when the destination is WrappedNative.
	ReceiveNative bool
	WrappedNative common.Address

	ExplorerTxURL  string
	ReceiptTimeout time.Duration

	MaxConcurrency  int
	RPCRatePerSec   float64
	RPCReadAttempts int

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return n
		}
		return def
	}
	getUint64 := func(keys []string, def uint64) uint64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseUint(s, 0, 64); err == nil {
			return n
		}
		return def
	}
	getFloat := func(keys []string, def float64) float64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
		return def
	}
	getBool := func(keys []string, def bool) bool {
		s := strings.ToLower(get(keys, ""))
		if s == "" {
			return def
		}
		return s == "1" || s == "true" || s == "yes" || s == "on"
	}
	getDuration := func(keys []string, def time.Duration) time.Duration {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
		return def
	}
	millis := func(keys []string, def int) time.Duration {
		return time.Duration(getInt(keys, def)) * time.Millisecond
	}

	st := Settings{}
	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "https://mantle.public-rpc.com")
	st.ChainID = get([]string{"chain_id", "CHAIN_ID"}, "")
	st.WalletsFile = get([]string{"wallets_file", "WALLETS_FILE"}, "my_wallets.txt")

	st.Quoter = common.HexToAddress(get([]string{"quoter_address", "QUOTER_ADDRESS"}, DefaultQuoter))
	st.Swap = common.HexToAddress(get([]string{"swap_address", "SWAP_ADDRESS"}, DefaultSwap))
	st.TokenIn = common.HexToAddress(get([]string{"token_in", "TOKEN_IN"}, DefaultWMNT))
	st.TokensOut = toAddresses(SplitCSV(get([]string{"tokens_out", "TOKENS_OUT"}, strings.Join(DefaultTokensOut, ","))))
	st.HighFeeTokens = toAddresses(SplitCSV(get([]string{"high_fee_tokens", "HIGH_FEE_TOKENS"}, strings.Join(DefaultHighFeeTokens, ","))))
	st.FeeDefault = uint32(getInt([]string{"fee_default", "FEE_DEFAULT"}, 500))
	st.FeeHigh = uint32(getInt([]string{"fee_high", "FEE_HIGH"}, 3000))

	st.AmountIn = get([]string{"amount_in", "AMOUNT_IN"}, "0.0001")
	st.Loops = getInt([]string{"loops", "LOOPS"}, 100)
	st.DelayMin = millis([]string{"delay_min_ms", "DELAY_MIN_MS"}, 10_000)
	st.DelayMax = millis([]string{"delay_max_ms", "DELAY_MAX_MS"}, 20_000)
	st.MinBalance = get([]string{"min_balance", "MIN_BALANCE"}, "0.5")
	st.SlippageBps = getInt64([]string{"slippage_bps", "SLIPPAGE_BPS"}, 100)
	st.GasBuffer = getInt64([]string{"gas_buffer_pct", "GAS_BUFFER_PCT"}, 10)
	st.GasPriceWei = getInt64([]string{"gas_price_wei", "GAS_PRICE_WEI"}, 50_000_000)
	st.Deadline = getUint64([]string{"deadline", "DEADLINE"}, 0xffffffff)

	if s := get([]string{"native_balance_token", "NATIVE_BALANCE_TOKEN"}, ""); s != "" {
		a := common.HexToAddress(s)
		st.NativeBalanceToken = &a
	}
	st.PayNative = getBool([]string{"pay_native", "PAY_NATIVE"}, false)
	st.ReceiveNative = getBool([]string{"receive_native", "RECEIVE_NATIVE"}, false)
	st.WrappedNative = common.HexToAddress(get([]string{"wrapped_native", "WRAPPED_NATIVE"}, DefaultWMNT))

	st.ExplorerTxURL = get([]string{"explorer_tx_url", "EXPLORER_TX_URL"}, "https://explorer.mantle.xyz/tx/")
	st.ReceiptTimeout = getDuration([]string{"receipt_timeout", "RECEIPT_TIMEOUT"}, 2*time.Minute)

	st.MaxConcurrency = getInt([]string{"max_concurrency", "MAX_CONCURRENCY"}, 0)
	st.RPCRatePerSec = getFloat([]string{"rpc_rps", "RPC_RPS"}, 0)
	st.RPCReadAttempts = getInt([]string{"rpc_read_attempts", "RPC_READ_ATTEMPTS"}, 1)

	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, "")
	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "info")
	st.LogFormat = get([]string{"log_format", "LOG_FORMAT"}, "text")
	return st
}

// Validate reports every problem at once.
func (s Settings) Validate() error {
	var errs []error
	if s.RPCURL == "" {
		errs = append(errs, errors.New("RPC_URL is empty"))
	}
	if len(s.TokensOut) == 0 {
		errs = append(errs, errors.New("TOKENS_OUT is empty"))
	}
	for _, a := range s.TokensOut {
		if a == (common.Address{}) {
			errs = append(errs, errors.New("TOKENS_OUT contains a zero address"))
			break
		}
	}
	if s.TokenIn == (common.Address{}) {
		errs = append(errs, errors.New("TOKEN_IN is not a valid address"))
	}
	if s.Quoter == (common.Address{}) || s.Swap == (common.Address{}) {
		errs = append(errs, errors.New("QUOTER_ADDRESS and SWAP_ADDRESS are required"))
	}
	if s.FeeDefault == 0 || s.FeeHigh == 0 || s.FeeDefault >= 1<<24 || s.FeeHigh >= 1<<24 {
		errs = append(errs, fmt.Errorf("fee tiers must fit uint24 and be > 0 (got %d/%d)", s.FeeDefault, s.FeeHigh))
	}
	if s.Loops <= 0 {
		errs = append(errs, fmt.Errorf("LOOPS must be > 0 (got %d)", s.Loops))
	}
	if s.DelayMin < 0 || s.DelayMax < s.DelayMin {
		errs = append(errs, fmt.Errorf("bad delay range [%s, %s]", s.DelayMin, s.DelayMax))
	}
	if s.SlippageBps < 0 || s.SlippageBps >= 10_000 {
		errs = append(errs, fmt.Errorf("SLIPPAGE_BPS out of range: %d", s.SlippageBps))
	}
	if s.GasBuffer < 0 {
		errs = append(errs, fmt.Errorf("GAS_BUFFER_PCT must be >= 0 (got %d)", s.GasBuffer))
	}
	if s.RPCReadAttempts <= 0 {
		errs = append(errs, fmt.Errorf("RPC_READ_ATTEMPTS must be > 0 (got %d)", s.RPCReadAttempts))
	}
	return errors.Join(errs...)
}

// SplitCSV splits on commas and drops blanks.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// toAddresses maps malformed entries to the zero address so Validate can flag them.
func toAddresses(list []string) []common.Address {
	out := make([]common.Address, 0, len(list))
	for _, s := range list {
		if !common.IsHexAddress(s) {
			out = append(out, common.Address{})
			continue
		}
		out = append(out, common.HexToAddress(s))
	}
	return out
}
