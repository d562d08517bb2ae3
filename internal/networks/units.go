package networks

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// ParseEther converts a decimal ether amount ("0.01") to wei. It also serves LINK
// amounts, which share the 18-decimal layout.
func ParseEther(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid ether amount %q: %w", amount, err)
	}
	wei := d.Shift(etherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("ether amount %q has more than %d decimals", amount, etherDecimals)
	}
	return wei.BigInt(), nil
}

// MustParseEther is ParseEther for package-level constants.
func MustParseEther(amount string) *big.Int {
	wei, err := ParseEther(amount)
	if err != nil {
		panic(err)
	}
	return wei
}

// FormatEther renders wei as a decimal ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}
