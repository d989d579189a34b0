package lending

import "github.com/shopspring/decimal"

// Account maintains the lending position for one participant identity. Both
// sides carry their own size-weighted rate and the epoch at which accrued
// interest was last folded into the balance. The rates are only meaningful
// while the corresponding balance is non-zero; they are retained, not reset,
// when a balance returns to zero through redemption.
type Account struct {
	// DepositBalance is the principal on deposit, inclusive of all interest
	// accrued and folded in at previous update points.
	DepositBalance decimal.Decimal `json:"depositBalance"`
	// DepositRate is the blended per-epoch rate of all deposit contributions.
	DepositRate decimal.Decimal `json:"depositRate"`
	// DepositLastUpdate is the epoch deposit interest was last folded in.
	DepositLastUpdate uint64 `json:"depositLastUpdate"`

	// BorrowBalance is the outstanding debt; zero means no open loan.
	BorrowBalance decimal.Decimal `json:"borrowBalance"`
	// BorrowRate is the blended per-epoch rate of all borrow draws.
	BorrowRate decimal.Decimal `json:"borrowRate"`
	// BorrowLastUpdate is the epoch borrow interest was last folded in.
	BorrowLastUpdate uint64 `json:"borrowLastUpdate"`
}

// NewAccount creates the record for a first deposit. Both update markers start
// at the current epoch and the borrow side is empty.
func NewAccount(amount, rate decimal.Decimal, now uint64) *Account {
	return &Account{
		DepositBalance:    amount,
		DepositRate:       rate,
		DepositLastUpdate: now,
		BorrowLastUpdate:  now,
	}
}

// Clone returns a copy of the account safe to mutate without touching the
// stored record.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
