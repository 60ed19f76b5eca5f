package izumi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Only the functions we actually call.
const (
	erc20JSON = `[
  {"type":"function","stateMutability":"view","name":"symbol","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","stateMutability":"view","name":"name","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","stateMutability":"view","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","stateMutability":"view","name":"balanceOf","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

	quoterJSON = `[
  {"type":"function","stateMutability":"nonpayable","name":"swapAmount",
   "inputs":[{"name":"amount","type":"uint128"},{"name":"path","type":"bytes"}],
   "outputs":[{"name":"acquire","type":"uint256"},{"name":"pointAfterList","type":"int24[]"}]}
]`

	swapJSON = `[
  {"type":"function","stateMutability":"payable","name":"swapAmount",
   "inputs":[{"name":"params","type":"tuple","components":[
     {"name":"path","type":"bytes"},
     {"name":"recipient","type":"address"},
     {"name":"amount","type":"uint128"},
     {"name":"minAcquired","type":"uint256"},
     {"name":"deadline","type":"uint256"}]}],
   "outputs":[{"name":"cost","type":"uint256"},{"name":"acquire","type":"uint256"}]},
  {"type":"function","stateMutability":"payable","name":"multicall",
   "inputs":[{"name":"data","type":"bytes[]"}],"outputs":[{"name":"results","type":"bytes[]"}]},
  {"type":"function","stateMutability":"payable","name":"refundETH","inputs":[],"outputs":[]},
  {"type":"function","stateMutability":"payable","name":"unwrapWETH9",
   "inputs":[{"name":"minAmount","type":"uint256"},{"name":"recipient","type":"address"}],"outputs":[]}
]`
)

var (
	erc20ABI  abi.ABI
	quoterABI abi.ABI
	swapABI   abi.ABI
)

func init() {
	erc20ABI = mustABI(erc20JSON)
	quoterABI = mustABI(quoterJSON)
	swapABI = mustABI(swapJSON)
}

func mustABI(s string) abi.ABI {
	ab, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return ab
}
