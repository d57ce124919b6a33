package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidSku      = errors.New("invalid sku")
)

// Quantity is a non-negative count of stock units.
type Quantity int

func NewQuantity(n int) (Quantity, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidQuantity, n)
	}
	return Quantity(n), nil
}

// NewPositiveQuantity is used for request lines, where zero units is meaningless.
func NewPositiveQuantity(n int) (Quantity, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d must be greater than zero", ErrInvalidQuantity, n)
	}
	return Quantity(n), nil
}

func (q Quantity) Int() int { return int(q) }

// SkuPrefixLen is the number of leading characters that encode the category.
const SkuPrefixLen = 3

// skuSequenceWidth is the minimum zero-padded width of the per-branch sequence.
const skuSequenceWidth = 3

// Sku is a stock-keeping unit: a 3 character category prefix followed by a
// per-branch sequence, e.g. "101005".
type Sku string

func ParseSku(s string) (Sku, error) {
	if s != strings.TrimSpace(s) {
		return "", fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidSku, s)
	}
	if len(s) < SkuPrefixLen {
		return "", fmt.Errorf("%w: %q is shorter than %d characters", ErrInvalidSku, s, SkuPrefixLen)
	}
	return Sku(s), nil
}

func (s Sku) String() string { return string(s) }

// Prefix returns the category prefix. It is empty for malformed values.
func (s Sku) Prefix() string {
	if len(s) < SkuPrefixLen {
		return ""
	}
	return string(s[:SkuPrefixLen])
}

// Sequence parses the numeric suffix after the prefix.
func (s Sku) Sequence() (int, bool) {
	if len(s) <= SkuPrefixLen {
		return 0, false
	}
	suffix := string(s[SkuPrefixLen:])
	if len(suffix) > 9 {
		return 0, false
	}
	n := 0
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// SkuFromParts joins a category prefix and a sequence number, zero padding
// the sequence to three digits.
func SkuFromParts(prefix string, seq int) Sku {
	return Sku(fmt.Sprintf("%s%0*d", prefix, skuSequenceWidth, seq))
}
