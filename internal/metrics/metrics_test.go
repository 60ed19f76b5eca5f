package metrics

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapAndBalanceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SwapDone("0xUSDT", "ok")
	m.SwapDone("0xUSDT", "ok")
	m.SwapDone("0xUSDT", "error")
	m.WalletBalance("0xabc", 1.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.swapsTotal.WithLabelValues("0xUSDT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.swapsTotal.WithLabelValues("0xUSDT", "error")))
	assert.Equal(t, 1.25, testutil.ToFloat64(m.walletBalance.WithLabelValues("0xabc")))
}

func TestObserveRPC(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRPC("eth_call", 10*time.Millisecond, nil)
	m.ObserveRPC("eth_call", 20*time.Millisecond, errors.New("429 Too Many Requests"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcCallsTotal.WithLabelValues("eth_call", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcCallsTotal.WithLabelValues("eth_call", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRateLimited))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rpcCallDuration))
}

// codedError mimics a JSON-RPC error object whose message omits the code.
type codedError struct{ code int }

func (e codedError) Error() string  { return "limit exceeded" }
func (e codedError) ErrorCode() int { return e.code }

func TestObserveRPCMatchesClientRateLimitRule(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRPC("eth_call", time.Millisecond, codedError{code: -32005})
	m.ObserveRPC("eth_call", time.Millisecond, errors.New("rpc error -32005: slow down"))
	m.ObserveRPC("eth_call", time.Millisecond, codedError{code: -32000})
	m.ObserveRPC("eth_call", time.Millisecond, errors.New("execution reverted"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRateLimited))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.rpcCallsTotal.WithLabelValues("eth_call", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SwapDone("x", "ok")
	m.WalletBalance("x", 1)
	m.ObserveRPC("eth_call", time.Second, nil)
}

func TestServeExposesMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SwapDone("0xWETH", "ok")

	srv := Serve(addr, reg, nil)
	defer srv.Close()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, strings.Contains(body, `izi_swaps_total{status="ok",token_out="0xWETH"} 1`))
}
