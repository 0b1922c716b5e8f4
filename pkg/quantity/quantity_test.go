package quantity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *big.Rat
		ok   bool
	}{
		{"empty", "", big.NewRat(1, 1), true},
		{"blank", "   ", big.NewRat(1, 1), true},
		{"integer", "2", big.NewRat(2, 1), true},
		{"decimal", "2.5", big.NewRat(5, 2), true},
		{"leading dot", ".5", big.NewRat(1, 2), true},
		{"trailing dot", "3.", big.NewRat(3, 1), true},
		{"padded", " 4 ", big.NewRat(4, 1), true},
		{"vulgar fraction", "1/2", big.NewRat(1, 2), true},
		{"improper fraction", "3/2", big.NewRat(3, 2), true},
		{"mixed number", "1 1/2", big.NewRat(3, 2), true},
		{"mixed number wide gap", "2   3/4", big.NewRat(11, 4), true},
		{"number with unit", "2 cups", big.NewRat(2, 1), true},
		{"zero", "0", big.NewRat(0, 1), true},
		{"zero denominator", "1/0", big.NewRat(1, 1), false},
		{"mixed zero denominator", "1 1/0", big.NewRat(1, 1), false},
		{"garbage", "abc", big.NewRat(1, 1), false},
		{"negative", "-2", big.NewRat(1, 1), false},
		{"not a number", "NaN", big.NewRat(1, 1), false},
		{"infinity", "Infinity", big.NewRat(1, 1), false},
		{"word then number", "about 2", big.NewRat(1, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Zero(t, tt.want.Cmp(got), "got %s want %s", got.RatString(), tt.want.RatString())
		})
	}
}

func TestParseReturnsFreshValues(t *testing.T) {
	a := Parse("")
	a.Add(a, big.NewRat(5, 1))
	assert.Equal(t, "1", Parse("").RatString())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   *big.Rat
		want string
	}{
		{big.NewRat(1, 4), "1/4"},
		{big.NewRat(1, 2), "1/2"},
		{big.NewRat(3, 4), "3/4"},
		{big.NewRat(1, 3), "1/3"},
		{big.NewRat(2, 3), "2/3"},
		{big.NewRat(5, 4), "1 1/4"},
		{big.NewRat(3, 2), "1 1/2"},
		{big.NewRat(7, 4), "1 3/4"},
		{big.NewRat(9, 4), "2 1/4"},
		{big.NewRat(5, 2), "2 1/2"},
		{big.NewRat(11, 4), "2 3/4"},
		{big.NewRat(4, 3), "1 1/3"},
		{big.NewRat(5, 3), "1 2/3"},
		{big.NewRat(7, 3), "2 1/3"},
		{big.NewRat(8, 3), "2 2/3"},
		{big.NewRat(0, 1), "0"},
		{big.NewRat(1, 1), "1"},
		{big.NewRat(200, 1), "200"},
		{big.NewRat(7, 2), "3.5"},
		{big.NewRat(31, 10), "3.1"},
		{big.NewRat(305, 100), "3.05"},
		{big.NewRat(1, 8), "0.13"},
		{big.NewRat(1, 1000), "0"},
		{big.NewRat(-5, 2), "-2.5"},
		{nil, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.in), "Format(%v)", tt.in)
	}
}

func TestFormatSnapsToNeighbouringFraction(t *testing.T) {
	tests := map[string]string{
		"0.24": "1/4",
		"0.26": "1/4",
		"0.34": "1/3",
		"0.66": "2/3",
		"0.49": "1/2",
		"1.51": "1 1/2",
		"2.74": "2 3/4",
		"0.3":  "0.3",
		"0.9":  "0.9",
	}

	for raw, want := range tests {
		assert.Equal(t, want, Format(Parse(raw)), raw)
	}
}

func TestFractionRoundTrip(t *testing.T) {
	for _, s := range []string{"1/4", "1/2", "3/4", "1/3", "2/3", "1 1/4", "1 1/2", "1 1/3", "2 1/4", "2 1/2", "2 3/4"} {
		assert.Equal(t, s, Format(Parse(s)), s)
	}
}

func TestThirdsSumToWhole(t *testing.T) {
	third := Parse("1/3")
	assert.Equal(t, "1", Format(Sum(third, third, third)))

	// The same sum through the rounded display strings still lands on a whole number
	partial := Format(Sum(Parse("1/3"), Parse("1/3")))
	assert.Equal(t, "2/3", partial)
	assert.Equal(t, "1", Format(Sum(Parse(partial), Parse("1/3"))))
}

func TestSumIgnoresNil(t *testing.T) {
	a := big.NewRat(1, 2)
	total := Sum(a, nil, big.NewRat(1, 4))

	assert.Equal(t, "3/4", total.RatString())
	assert.Equal(t, "1/2", a.RatString())
	assert.Equal(t, "0", Sum().RatString())
}
