package swapbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/izi-swapbot/internal/izumi"
)

// Well-known hardhat accounts #0 and #1.
const (
	key0  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	addr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	key1  = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	addr1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

var (
	wmnt = common.HexToAddress("0x78c1b0C915c4FAA5FffA6CAbf0219DA63d7f4cb8")
	usdt = common.HexToAddress("0x201EBa5CC46D216Ce6DC03F6a759e8E766e956aE")
	weth = common.HexToAddress("0xdEAddEaDdeadDEadDEADDEAddEADDEAddead1111")
	usdc = common.HexToAddress("0x09Bc4E0D864854c6aFB6eB9A9cdF58aC190D0dF9")
	iusd = common.HexToAddress("0x0A3BB08b3a15A19b4De82F8AcFc862606FB69A2D")

	swapContract = common.HexToAddress("0x25C030116Feb2E7BbA054b9de0915E5F51b03e31")
	oneEther     = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// fakeChain is an in-memory Chain. Quotes and failures are keyed by the
// destination token so concurrent wallets stay distinguishable.
type fakeChain struct {
	mu sync.Mutex

	tokens  map[common.Address]izumi.Token
	balance map[common.Address]*big.Int // default 1 MNT

	quote      *big.Int
	quoteCalls map[common.Address]int
	// failQuoteAt makes the n-th (1-based) quote for a destination fail.
	failQuoteAt map[common.Address]int

	gas           uint64
	receiptStatus uint64
	nonces        map[common.Address]uint64
	sent          []*types.Transaction

	inFlight, maxInFlight int
	callDelay             time.Duration
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		tokens: map[common.Address]izumi.Token{
			wmnt: {Address: wmnt, Symbol: "WMNT", Name: "Wrapped Mantle", Decimals: 18},
			usdt: {Address: usdt, Symbol: "USDT", Name: "Tether USD", Decimals: 6},
			weth: {Address: weth, Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18},
			usdc: {Address: usdc, Symbol: "USDC", Name: "USD Coin", Decimals: 6},
			iusd: {Address: iusd, Symbol: "iUSD", Name: "iZUMi Bond USD", Decimals: 18},
		},
		balance:       map[common.Address]*big.Int{},
		quote:         big.NewInt(123_456),
		quoteCalls:    map[common.Address]int{},
		failQuoteAt:   map[common.Address]int{},
		gas:           100_001,
		receiptStatus: types.ReceiptStatusSuccessful,
		nonces:        map[common.Address]uint64{},
	}
}

func (f *fakeChain) enter() func() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	d := f.callDelay
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

func (f *fakeChain) FetchToken(_ context.Context, addr common.Address) (izumi.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[addr]
	if !ok {
		return izumi.Token{}, fmt.Errorf("token %s: execution reverted", addr.Hex())
	}
	return t, nil
}

func (f *fakeChain) NativeBalance(_ context.Context, owner common.Address) (*big.Int, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balance[owner]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int).Set(oneEther), nil
}

func (f *fakeChain) Quote(_ context.Context, path izumi.Path, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dest := path.Out()
	f.quoteCalls[dest]++
	if n := f.failQuoteAt[dest]; n > 0 && f.quoteCalls[dest] == n {
		return nil, errors.New("quoter: execution reverted")
	}
	return new(big.Int).Set(f.quote), nil
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.gas, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(20_000_000), nil
}

func (f *fakeChain) PendingNonceAt(_ context.Context, addr common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[addr], nil
}

func (f *fakeChain) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return common.Hash{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.nonces[from]++
	return tx.Hash(), nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			return &types.Receipt{Status: f.receiptStatus, TxHash: hash, BlockNumber: big.NewInt(42)}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// sleepRecorder replaces the inter-iteration delay.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testParams(out io.Writer, sl *sleepRecorder) Params {
	return Params{
		ChainID:        big.NewInt(5000),
		SwapContract:   swapContract,
		TokenIn:        wmnt,
		TokensOut:      []common.Address{usdt, weth, usdc, iusd},
		HighFeeTokens:  []common.Address{usdc, iusd},
		FeeDefault:     500,
		FeeHigh:        3000,
		AmountIn:       "0.0001",
		Loops:          3,
		DelayMin:       10 * time.Second,
		DelayMax:       20 * time.Second,
		MinBalance:     decimal.RequireFromString("0.5"),
		SlippageBps:    100,
		GasBufferPct:   10,
		GasPrice:       big.NewInt(50_000_000),
		Deadline:       big.NewInt(0xffffffff),
		ExplorerTxURL:  "https://explorer.mantle.xyz/tx/",
		ReceiptTimeout: time.Second,
		ReceiptPoll:    time.Millisecond,
		Log:            quietLogger(),
		Out:            out,
		Sleep:          sl.Sleep,
	}
}
