package izumi

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// Observer receives one callback per RPC round trip.
type Observer interface {
	ObserveRPC(method string, d time.Duration, err error)
}

type ClientConfig struct {
	Quoter common.Address
	// BalanceToken, when set, is an ERC-20 representation of the native coin
	// (Mantle's legacy MNT contract); nil reads eth_getBalance.
	BalanceToken *common.Address
	// ReadAttempts bounds retries of read-only calls. Writes are never retried.
	ReadAttempts int
	// RatePerSec throttles every call; <= 0 disables throttling.
	RatePerSec float64
	Observer   Observer
}

// Client talks to the chain and the iZiSwap quoter.
type Client struct {
	ec       *ethclient.Client
	rc       *rpc.Client
	cfg      ClientConfig
	limiter  *rate.Limiter
	backoff0 time.Duration
}

// Dial opens an HTTP JSON-RPC connection with keep-alives and sane timeouts.
func Dial(rpcURL string, cfg ClientConfig) (*Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
	rc, err := rpc.DialHTTPWithClient(rpcURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return NewClient(rc, cfg), nil
}

// NewClient wraps an existing rpc connection.
func NewClient(rc *rpc.Client, cfg ClientConfig) *Client {
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = 1
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		burst := int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &Client{
		ec:       ethclient.NewClient(rc),
		rc:       rc,
		cfg:      cfg,
		limiter:  lim,
		backoff0: 200 * time.Millisecond,
	}
}

func (c *Client) Close() { c.rc.Close() }

func (c *Client) do(ctx context.Context, method string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	if c.cfg.Observer != nil {
		c.cfg.Observer.ObserveRPC(method, time.Since(start), err)
	}
	return err
}

// IsRateLimitError reports whether the node rejected a call for exceeding its
// request rate.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var rerr rpc.Error
	if errors.As(err, &rerr) && rerr.ErrorCode() == -32005 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "429") || strings.Contains(s, "-32005")
}

// isRevert marks errors a retry cannot fix.
func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}

// readWithRetry runs a read-only call with small exponential backoff.
func (c *Client) readWithRetry(ctx context.Context, method string, fn func() error) error {
	backoff := c.backoff0
	var lastErr error
	for attempt := 1; attempt <= c.cfg.ReadAttempts; attempt++ {
		err := c.do(ctx, method, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if isRevert(err) || ctx.Err() != nil || attempt == c.cfg.ReadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if IsRateLimitError(err) {
			backoff *= 2
		}
	}
	return lastErr
}

func (c *Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var ret []byte
	err := c.readWithRetry(ctx, "eth_call", func() error {
		var err error
		ret, err = c.ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		return err
	})
	return ret, err
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.readWithRetry(ctx, "eth_chainId", func() error {
		var err error
		id, err = c.ec.ChainID(ctx)
		return err
	})
	return id, err
}

// NativeBalance returns the wallet's balance of the chain coin, in wei.
func (c *Client) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	if c.cfg.BalanceToken != nil {
		return c.TokenBalance(ctx, *c.cfg.BalanceToken, owner)
	}
	var bal *big.Int
	err := c.readWithRetry(ctx, "eth_getBalance", func() error {
		var err error
		bal, err = c.ec.BalanceAt(ctx, owner, nil)
		return err
	})
	return bal, err
}

func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	ret, err := c.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf(%s): %w", token.Hex(), err)
	}
	if len(ret) == 0 {
		return big.NewInt(0), nil
	}
	out, err := erc20ABI.Unpack("balanceOf", ret)
	if err != nil {
		return nil, fmt.Errorf("balanceOf(%s): %w", token.Hex(), err)
	}
	return out[0].(*big.Int), nil
}

// FetchToken reads symbol, name and decimals. Name is optional.
func (c *Client) FetchToken(ctx context.Context, addr common.Address) (Token, error) {
	t := Token{Address: addr}

	sel, _ := erc20ABI.Pack("decimals")
	ret, err := c.call(ctx, addr, sel)
	if err != nil {
		return Token{}, fmt.Errorf("token %s decimals: %w", addr.Hex(), err)
	}
	if t.Decimals, err = decodeDecimals(ret); err != nil {
		return Token{}, fmt.Errorf("token %s: %w", addr.Hex(), err)
	}

	sel, _ = erc20ABI.Pack("symbol")
	ret, err = c.call(ctx, addr, sel)
	if err != nil {
		return Token{}, fmt.Errorf("token %s symbol: %w", addr.Hex(), err)
	}
	if t.Symbol, err = decodeString("symbol", ret); err != nil {
		return Token{}, fmt.Errorf("token %s: %w", addr.Hex(), err)
	}

	sel, _ = erc20ABI.Pack("name")
	if ret, err = c.call(ctx, addr, sel); err == nil {
		t.Name, _ = decodeString("name", ret)
	}
	return t, nil
}

// Quote asks the quoter how much of path.Out() an exact amountIn buys.
func (c *Client) Quote(ctx context.Context, path Path, amountIn *big.Int) (*big.Int, error) {
	data, err := encodeQuote(path, amountIn)
	if err != nil {
		return nil, err
	}
	ret, err := c.call(ctx, c.cfg.Quoter, data)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	return decodeQuote(ret)
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := c.readWithRetry(ctx, "eth_estimateGas", func() error {
		var err error
		gas, err = c.ec.EstimateGas(ctx, msg)
		return err
	})
	return gas, err
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var p *big.Int
	err := c.readWithRetry(ctx, "eth_gasPrice", func() error {
		var err error
		p, err = c.ec.SuggestGasPrice(ctx)
		return err
	})
	return p, err
}

func (c *Client) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	var n uint64
	err := c.readWithRetry(ctx, "eth_getTransactionCount", func() error {
		var err error
		n, err = c.ec.PendingNonceAt(ctx, addr)
		return err
	})
	return n, err
}

// SendRawTransaction broadcasts signed RLP bytes. Not retried.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	if len(raw) == 0 {
		return common.Hash{}, errors.New("empty raw transaction")
	}
	var h common.Hash
	err := c.do(ctx, "eth_sendRawTransaction", func() error {
		return c.rc.CallContext(ctx, &h, "eth_sendRawTransaction", hexutil.Encode(raw))
	})
	return h, err
}

// TransactionReceipt returns ethereum.NotFound while the tx is pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	err := c.do(ctx, "eth_getTransactionReceipt", func() error {
		var err error
		r, err = c.ec.TransactionReceipt(ctx, hash)
		return err
	})
	return r, err
}
