package calculator

// DividendYield returns the trailing dividend yield in percent rounded to 2 decimals,
// or nil when price is not positive.
func DividendYield(ttm, price float64) *float64 {
	if !(price > 0) || !finite(price) || !finite(ttm) {
		return nil
	}
	dy := round2(ttm / price * 100)
	return &dy
}
