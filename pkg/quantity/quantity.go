// Package quantity reads and writes the free-form amounts used on recipe
// ingredient lines ("2", "2.5", "1/2", "1 1/2").
//
// Amounts are exact rationals. Parsing is total: anything that cannot be
// read as a non-negative amount counts as one unit.
package quantity

import (
	"math/big"
	"regexp"
	"strings"
)

var (
	fractionPattern = regexp.MustCompile(`^(\d+)/(\d+)$`)
	mixedPattern    = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)$`)
	leadingNumber   = regexp.MustCompile(`^\+?(\d+(?:\.\d*)?|\.\d+)`)
)

// One returns a fresh amount of one unit
func One() *big.Rat {
	return big.NewRat(1, 1)
}

// Parse reads raw as an amount, falling back to one
func Parse(raw string) *big.Rat {
	q, _ := Lookup(raw)
	return q
}

// Lookup reads raw as an amount and reports whether it was understood.
// Empty input is understood as one unit; unreadable input also yields one
// but with ok set to false.
func Lookup(raw string) (q *big.Rat, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return One(), true
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		return ratio("0", m[1], m[2])
	}

	if m := mixedPattern.FindStringSubmatch(s); m != nil {
		return ratio(m[1], m[2], m[3])
	}

	if m := leadingNumber.FindStringSubmatch(s); m != nil {
		digits := strings.TrimSuffix(m[1], ".")
		if strings.HasPrefix(digits, ".") {
			digits = "0" + digits
		}
		if v, ok := new(big.Rat).SetString(digits); ok {
			return v, true
		}
	}

	return One(), false
}

// ratio builds whole + num/den from digit strings; a zero denominator is unreadable
func ratio(whole, num, den string) (*big.Rat, bool) {
	w, okW := new(big.Int).SetString(whole, 10)
	n, okN := new(big.Int).SetString(num, 10)
	d, okD := new(big.Int).SetString(den, 10)
	if !okW || !okN || !okD || d.Sign() == 0 {
		return One(), false
	}

	v := new(big.Rat).SetFrac(n, d)
	return v.Add(v, new(big.Rat).SetInt(w)), true
}

// Sum adds amounts without touching its arguments
func Sum(amounts ...*big.Rat) *big.Rat {
	total := new(big.Rat)
	for _, a := range amounts {
		if a != nil {
			total.Add(total, a)
		}
	}
	return total
}
