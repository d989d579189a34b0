package lending

import (
	"fmt"

	"github.com/shopspring/decimal"

	"autolend/core/assets"
)

// Pool is the single aggregate reserve shared by every account, together with
// the per-epoch rates applied to new contributions. Deposits and repayments
// credit it; redemptions, borrows and liquidation payouts debit it.
type Pool struct {
	// Denom is the one fungible asset the pool accepts.
	Denom string `json:"denom"`
	// Balance is the aggregate reserve currently held.
	Balance decimal.Decimal `json:"balance"`
	// DepositInterestRate is applied to new deposit contributions.
	DepositInterestRate decimal.Decimal `json:"depositInterestRate"`
	// BorrowInterestRate is applied to new borrow draws.
	BorrowInterestRate decimal.Decimal `json:"borrowInterestRate"`
}

// NewPool creates an empty pool for the given asset with the default rates.
func NewPool(denom string) *Pool {
	return &Pool{
		Denom:               denom,
		DepositInterestRate: DefaultDepositInterestRate,
		BorrowInterestRate:  DefaultBorrowInterestRate,
	}
}

// Credit folds the bucket's funds into the reserve. The bucket must carry the
// pool's configured asset.
func (p *Pool) Credit(funds *assets.Bucket) error {
	if funds.Denom() != p.Denom {
		return fmt.Errorf("%w: got %q, pool holds %q", ErrAssetMismatch, funds.Denom(), p.Denom)
	}
	taken, err := funds.Take(funds.Amount())
	if err != nil {
		return err
	}
	p.Balance = p.Balance.Add(taken.Amount())
	return nil
}

// Debit takes amount out of the reserve, failing when the pool cannot cover it.
func (p *Pool) Debit(amount decimal.Decimal) (assets.Bucket, error) {
	if amount.GreaterThan(p.Balance) {
		return assets.Bucket{}, fmt.Errorf("%w: need %s, pool holds %s",
			ErrInsufficientPoolLiquidity, amount, p.Balance)
	}
	p.Balance = p.Balance.Sub(amount)
	return assets.New(p.Denom, amount)
}

// MaxBorrowable is the hard ceiling on a single borrow, derived from current
// pool liquidity rather than outstanding debt.
func (p *Pool) MaxBorrowable(maxBorrowPercent decimal.Decimal) decimal.Decimal {
	return p.Balance.Mul(maxBorrowPercent)
}

// Clone returns a copy of the pool safe to mutate without touching the stored
// record.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
