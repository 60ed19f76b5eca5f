package izumi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Path is an ordered token chain with one fee tier per hop.
type Path struct {
	Tokens []common.Address
	Fees   []uint32 // 500 = 0.05%, 3000 = 0.3%
}

// Encode packs the path as token(20) | fee(3) | token(20) | ...
func (p Path) Encode() ([]byte, error) {
	if len(p.Tokens) < 2 {
		return nil, fmt.Errorf("path needs at least 2 tokens, got %d", len(p.Tokens))
	}
	if len(p.Fees) != len(p.Tokens)-1 {
		return nil, fmt.Errorf("path has %d tokens but %d fees", len(p.Tokens), len(p.Fees))
	}
	out := make([]byte, 0, 20*len(p.Tokens)+3*len(p.Fees))
	for i, t := range p.Tokens {
		out = append(out, t.Bytes()...)
		if i < len(p.Fees) {
			f := p.Fees[i]
			if f >= 1<<24 {
				return nil, fmt.Errorf("fee %d does not fit uint24", f)
			}
			out = append(out, byte(f>>16), byte(f>>8), byte(f))
		}
	}
	return out, nil
}

func (p Path) In() common.Address  { return p.Tokens[0] }
func (p Path) Out() common.Address { return p.Tokens[len(p.Tokens)-1] }
