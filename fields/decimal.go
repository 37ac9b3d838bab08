package fields

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimal is an exact decimal number. The zero value is 0.
//
// Decimal values are immutable: arithmetic returns new values.
type Decimal struct {
	rat *big.Rat
}

// NewDecimal returns num/denom
func NewDecimal(num, denom int64) Decimal {
	if denom == 0 {
		panic("zero denominator")
	}
	return Decimal{rat: big.NewRat(num, denom)}
}

// ParseDecimal parses a decimal such as "12.50" or "-3"
func ParseDecimal(s string) (Decimal, error) {
	rat, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok || strings.Contains(s, "/") {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	return Decimal{rat: rat}, nil
}

// MustParseDecimal is ParseDecimal panicking on error
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) r() *big.Rat {
	if d.rat == nil {
		return new(big.Rat)
	}
	return d.rat
}

// Add returns d+other
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{rat: new(big.Rat).Add(d.r(), other.r())}
}

// Sub returns d-other
func (d Decimal) Sub(other Decimal) Decimal {
	return Decimal{rat: new(big.Rat).Sub(d.r(), other.r())}
}

// Mul returns d*other
func (d Decimal) Mul(other Decimal) Decimal {
	return Decimal{rat: new(big.Rat).Mul(d.r(), other.r())}
}

// Cmp compares d and other, returning -1, 0 or 1
func (d Decimal) Cmp(other Decimal) int {
	return d.r().Cmp(other.r())
}

// Sign returns -1, 0 or 1
func (d Decimal) Sign() int {
	return d.r().Sign()
}

// Equal reports whether d and other are the same number
func (d Decimal) Equal(other Decimal) bool {
	return d.Cmp(other) == 0
}

// Clone returns a copy not sharing memory with d
func (d Decimal) Clone() Decimal {
	if d.rat == nil {
		return Decimal{}
	}
	return Decimal{rat: new(big.Rat).Set(d.rat)}
}

const maxPlaces = 64

// Places returns the number of digits after the decimal point, or -1 if the
// number has no finite decimal representation
func (d Decimal) Places() int {
	scaled := new(big.Rat).Set(d.r())
	ten := big.NewRat(10, 1)
	for places := 0; places <= maxPlaces; places++ {
		if scaled.IsInt() {
			return places
		}
		scaled.Mul(scaled, ten)
	}
	return -1
}

// String formats the number with as many decimal places as it needs
func (d Decimal) String() string {
	places := d.Places()
	if places < 0 {
		return d.r().FloatString(16)
	}
	return d.r().FloatString(places)
}
