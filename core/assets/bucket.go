package assets

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDenomMismatch     = errors.New("assets: denomination mismatch")
	ErrNegativeAmount    = errors.New("assets: amount must not be negative")
	ErrInsufficientFunds = errors.New("assets: insufficient funds in bucket")
)

// Bucket is an ownership-bearing amount of a single fungible asset. Buckets are
// moved, not copied: Take splits funds out of the receiver and Put folds another
// bucket in, emptying it. The zero value is an empty bucket with no denomination.
type Bucket struct {
	denom  string
	amount decimal.Decimal
}

// New creates a bucket holding amount units of denom.
func New(denom string, amount decimal.Decimal) (Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, ErrNegativeAmount
	}
	return Bucket{denom: denom, amount: amount}, nil
}

// Denom returns the asset denomination carried by the bucket.
func (b Bucket) Denom() string { return b.denom }

// Amount returns the quantity currently held.
func (b Bucket) Amount() decimal.Decimal { return b.amount }

// IsZero reports whether the bucket holds no funds.
func (b Bucket) IsZero() bool { return b.amount.IsZero() }

// Take moves amount out of the bucket into a new one of the same denomination.
func (b *Bucket) Take(amount decimal.Decimal) (Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, ErrNegativeAmount
	}
	if amount.GreaterThan(b.amount) {
		return Bucket{}, fmt.Errorf("%w: take %s of %s", ErrInsufficientFunds, amount, b.amount)
	}
	b.amount = b.amount.Sub(amount)
	return Bucket{denom: b.denom, amount: amount}, nil
}

// Put folds the contents of other into the receiver and empties other. Both
// buckets must share a denomination unless the receiver is empty and untyped.
func (b *Bucket) Put(other *Bucket) error {
	if other == nil {
		return nil
	}
	if b.denom == "" && b.amount.IsZero() {
		b.denom = other.denom
	}
	if b.denom != other.denom {
		return fmt.Errorf("%w: %s into %s", ErrDenomMismatch, other.denom, b.denom)
	}
	b.amount = b.amount.Add(other.amount)
	other.amount = decimal.Zero
	return nil
}
