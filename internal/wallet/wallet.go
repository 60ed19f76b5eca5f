package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAddressTooShort is returned by Truncate for anything shorter than a full hex address.
	ErrAddressTooShort = errors.New("invalid ethereum address")
	// ErrNoWallets marks an empty or unreadable key file. Callers treat it as nothing to do.
	ErrNoWallets = errors.New("no wallets loaded")
)

// Wallet is a parsed private key and the address it controls.
type Wallet struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// LoadKeys returns the non-blank trimmed lines of path, in file order.
// A read failure is logged and yields an empty list: no file means nothing to do.
func LoadKeys(path string, log logrus.FieldLogger) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		if log != nil {
			log.WithError(err).WithField("file", path).Error("cannot read key file")
		}
		return nil
	}
	return ParseKeys(data)
}

// ParseKeys splits raw file content into keys. Lines of any length are kept.
func ParseKeys(data []byte) []string {
	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			keys = append(keys, line)
		}
	}
	return keys
}

// FromHex parses hex ECDSA private key (with / without 0x).
func FromHex(s string) (*Wallet, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if h == "" {
		return nil, errors.New("empty private key")
	}
	prv, err := gethcrypto.HexToECDSA(h)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Wallet{Key: prv, Address: gethcrypto.PubkeyToAddress(prv.PublicKey)}, nil
}

// Truncate renders an address as first5...last5.
func Truncate(address string) (string, error) {
	if len(address) < 42 {
		return "", fmt.Errorf("%w: %q", ErrAddressTooShort, address)
	}
	return address[:5] + "..." + address[len(address)-5:], nil
}

// MaskKey hides all but the edges of a key for logs.
func MaskKey(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}
