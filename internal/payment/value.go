package payment

import "math/bits"

// Portion returns amount * bps / 10000 with a 128-bit intermediate, so the
// product cannot wrap for large native-unit amounts. bps is always capped at
// or below 10000 by the parameter ceilings, so the quotient fits a uint64.
func Portion(amount, bps uint64) uint64 {
	hi, lo := bits.Mul64(amount, bps)
	quo, _ := bits.Div64(hi, lo, 10000)
	return quo
}
