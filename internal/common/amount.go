package common

import (
	"math/big"
	"strings"
)

// FormatUnits converts a raw integer amount to a fixed-point decimal string
// using the given decimal count. It never produces scientific notation:
// one unit of an 18-decimal currency renders as "0.000000000000000001".
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil || v.Sign() == 0 {
		return "0"
	}

	neg := v.Sign() < 0
	s := new(big.Int).Abs(v).String()
	if decimals > 0 {
		if len(s) <= decimals {
			s = strings.Repeat("0", decimals-len(s)+1) + s
		}
		intPart := s[:len(s)-decimals]
		fracPart := strings.TrimRight(s[len(s)-decimals:], "0")
		if fracPart == "" {
			s = intPart
		} else {
			s = intPart + "." + fracPart
		}
	}
	if neg {
		s = "-" + s
	}
	return s
}

// ShortenAddress renders an address in the widget's 0x1234…abcd form.
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
