package constants

import (
	"strings"
	"time"
)

// Redis keys
const (
	RedisKeyProfilePrefix = "profiles:"
	RedisKeyProfileIndex  = "profiles:index"
	RedisKeyRentPrefix    = "rent:exempt:"
)

// Limits
const (
	MaxBatchEntries = 256
	DefaultRentTTL  = 10 * time.Minute
)

// Well-known mints by symbol, so callers can pass "USDC" instead of the key.
var MintsBySymbol = map[string]string{
	"SOL":  "So11111111111111111111111111111111111111112",
	"USDC": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"USDT": "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	"MSOL": "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So",
	"BONK": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	"JUP":  "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
	"RAY":  "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
}

// MintAddress maps a known symbol to its mint; anything else is returned
// unchanged.
func MintAddress(s string) string {
	s = strings.TrimSpace(s)
	if addr, ok := MintsBySymbol[strings.ToUpper(s)]; ok {
		return addr
	}
	return s
}
