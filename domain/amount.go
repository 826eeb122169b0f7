package domain

import (
	"fmt"
	"math/big"
)

// Amount is an unsigned arbitrary-precision monetary value denominated in the
// smallest indivisible unit. The zero value is a usable zero amount. Amount
// has value semantics: arithmetic returns a new Amount and never mutates the
// operands, so campaign records can be copied with plain struct assignment.
type Amount struct {
	i big.Int
}

// NewAmount builds an Amount from an unsigned integer.
func NewAmount(v uint64) Amount {
	var a Amount
	a.i.SetUint64(v)
	return a
}

// ParseAmount parses a base-10 string into an Amount. Negative values and
// anything that is not a plain decimal integer are rejected.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if s == "" {
		return a, fmt.Errorf("empty amount")
	}
	if _, ok := a.i.SetString(s, 10); !ok {
		return Amount{}, fmt.Errorf("malformed amount %q", s)
	}
	if a.i.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount %q", s)
	}
	return a, nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	var r Amount
	r.i.Add(&a.i, &b.i)
	return r
}

// Sub returns a - b. ok is false when b exceeds a; the result is then the
// zero amount and must not be used.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if a.Cmp(b) < 0 {
		return Amount{}, false
	}
	var r Amount
	r.i.Sub(&a.i, &b.i)
	return r, true
}

// Cmp returns -1, 0 or 1 depending on whether a is less than, equal to or
// greater than b.
func (a Amount) Cmp(b Amount) int {
	return a.i.Cmp(&b.i)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.i.Sign() == 0
}

func (a Amount) String() string {
	return a.i.String()
}

// MarshalJSON encodes the amount as a decimal string so values above 2^53
// survive JSON consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.i.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
