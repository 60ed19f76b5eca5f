package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	st := Load()

	assert.Equal(t, "https://mantle.public-rpc.com", st.RPCURL)
	assert.Equal(t, "my_wallets.txt", st.WalletsFile)
	assert.Equal(t, common.HexToAddress(DefaultQuoter), st.Quoter)
	assert.Equal(t, common.HexToAddress(DefaultWMNT), st.TokenIn)
	assert.Len(t, st.TokensOut, 5)
	assert.Len(t, st.HighFeeTokens, 2)
	assert.EqualValues(t, 500, st.FeeDefault)
	assert.EqualValues(t, 3000, st.FeeHigh)
	assert.Equal(t, "0.0001", st.AmountIn)
	assert.Equal(t, 100, st.Loops)
	assert.Equal(t, 10*time.Second, st.DelayMin)
	assert.Equal(t, 20*time.Second, st.DelayMax)
	assert.Equal(t, "0.5", st.MinBalance)
	assert.EqualValues(t, 100, st.SlippageBps)
	assert.EqualValues(t, 10, st.GasBuffer)
	assert.EqualValues(t, 50_000_000, st.GasPriceWei)
	assert.EqualValues(t, 0xffffffff, st.Deadline)
	assert.Nil(t, st.NativeBalanceToken)
	assert.False(t, st.PayNative)
	assert.False(t, st.ReceiveNative)
	assert.Equal(t, common.HexToAddress(DefaultWMNT), st.WrappedNative)
	assert.Equal(t, 1, st.RPCReadAttempts, "reads are not retried unless asked")
	require.NoError(t, st.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("loops", "3")
	t.Setenv("TOKENS_OUT", " 0x201EBa5CC46D216Ce6DC03F6a759e8E766e956aE , ,")
	t.Setenv("DELAY_MIN_MS", "0")
	t.Setenv("DELAY_MAX_MS", "5")
	t.Setenv("NATIVE_BALANCE_TOKEN", "0xdeaddeaddeaddeaddeaddeaddeaddeaddead0000")
	t.Setenv("PAY_NATIVE", "yes")
	t.Setenv("receive_native", "true")
	t.Setenv("WRAPPED_NATIVE", "0xdEAddEaDdeadDEadDEADDEAddEADDEAddead1111")
	t.Setenv("RECEIPT_TIMEOUT", "15s")
	t.Setenv("RPC_RPS", "2.5")
	t.Setenv("GAS_PRICE_WEI", "not-a-number")

	st := Load()

	assert.Equal(t, 3, st.Loops)
	assert.Equal(t, []common.Address{common.HexToAddress("0x201EBa5CC46D216Ce6DC03F6a759e8E766e956aE")}, st.TokensOut)
	assert.Equal(t, time.Duration(0), st.DelayMin)
	assert.Equal(t, 5*time.Millisecond, st.DelayMax)
	require.NotNil(t, st.NativeBalanceToken)
	assert.Equal(t, common.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddead0000"), *st.NativeBalanceToken)
	assert.True(t, st.PayNative)
	assert.True(t, st.ReceiveNative)
	assert.Equal(t, common.HexToAddress("0xdEAddEaDdeadDEadDEADDEAddEADDEAddead1111"), st.WrappedNative)
	assert.Equal(t, 15*time.Second, st.ReceiptTimeout)
	assert.Equal(t, 2.5, st.RPCRatePerSec)
	assert.EqualValues(t, 50_000_000, st.GasPriceWei, "bad numbers fall back to the default")
	require.NoError(t, st.Validate())
}

func TestValidateCollectsErrors(t *testing.T) {
	st := Load()
	st.Loops = 0
	st.DelayMin = 2 * time.Second
	st.DelayMax = time.Second
	st.FeeHigh = 1 << 24
	st.TokensOut = []common.Address{{}}

	err := st.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOOPS")
	assert.Contains(t, err.Error(), "bad delay range")
	assert.Contains(t, err.Error(), "uint24")
	assert.Contains(t, err.Error(), "zero address")
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitCSV(" a,, b ,"))
	assert.Empty(t, SplitCSV(""))
}
