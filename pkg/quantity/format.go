package quantity

import (
	"math/big"
	"strconv"
	"strings"
)

type culinaryFraction struct {
	hundredths int64
	text       string
}

// Conventional kitchen fractions, keyed by their value in hundredths
var culinaryFractions = []culinaryFraction{
	{25, "1/4"},
	{50, "1/2"},
	{75, "3/4"},
	{33, "1/3"},
	{67, "2/3"},
	{125, "1 1/4"},
	{150, "1 1/2"},
	{175, "1 3/4"},
	{225, "2 1/4"},
	{250, "2 1/2"},
	{275, "2 3/4"},
	{133, "1 1/3"},
	{167, "1 2/3"},
	{233, "2 1/3"},
	{267, "2 2/3"},
}

var (
	bigOne     = big.NewInt(1)
	bigHundred = big.NewInt(100)
)

// Format writes q the way a cook would read it: a kitchen fraction when q
// is (within a hundredth of) one, otherwise a whole number or a decimal
// rounded to two places. A nil amount formats as "0".
func Format(q *big.Rat) string {
	if q == nil {
		return "0"
	}

	cents := roundHundredths(q)
	if cents.IsInt64() {
		if text, ok := fractionFor(cents.Int64()); ok {
			return text
		}
	}

	sign := ""
	if cents.Sign() < 0 {
		sign = "-"
		cents.Neg(cents)
	}

	whole, frac := new(big.Int).QuoRem(cents, bigHundred, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	decimals := strconv.FormatInt(frac.Int64()+100, 10)[1:]
	return sign + whole.String() + "." + strings.TrimRight(decimals, "0")
}

// roundHundredths returns q*100 rounded half away from zero
func roundHundredths(q *big.Rat) *big.Int {
	num := new(big.Int).Mul(q.Num(), bigHundred)
	den := q.Denom()

	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	twice := rem.Abs(rem)
	twice.Lsh(twice, 1)
	if twice.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			quo.Sub(quo, bigOne)
		} else {
			quo.Add(quo, bigOne)
		}
	}
	return quo
}

// fractionFor prefers an exact table hit over a neighbouring one
func fractionFor(cents int64) (string, bool) {
	for _, f := range culinaryFractions {
		if f.hundredths == cents {
			return f.text, true
		}
	}
	for _, f := range culinaryFractions {
		if d := f.hundredths - cents; d >= -1 && d <= 1 {
			return f.text, true
		}
	}
	return "", false
}
