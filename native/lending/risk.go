package lending

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// CollateralRatio projects both sides of the position to the current epoch and
// returns collateral value divided by loan value. The ratio is undefined while
// no loan is open; the second return reports definedness.
func (a *Account) CollateralRatio(now uint64) (decimal.Decimal, bool) {
	if a.BorrowBalance.IsZero() {
		return decimal.Zero, false
	}

	collateral := a.DepositBalance.Mul(
		one.Add(a.DepositRate.Mul(elapsed(a.DepositLastUpdate, now))))
	loan := a.BorrowBalance.Mul(
		one.Add(a.BorrowRate.Mul(elapsed(a.BorrowLastUpdate, now))))

	return collateral.Div(loan), true
}

// CheckCollateralRatio fails with ErrCollateralBelowMinimum when the ratio is
// defined and under min. Accounts without an open loan always pass. The check
// runs after every operation that can worsen a position (redeem, borrow); it
// is never applied after deposit or repay, which can only improve it.
func (a *Account) CheckCollateralRatio(min decimal.Decimal, now uint64) error {
	ratio, defined := a.CollateralRatio(now)
	if defined && ratio.LessThan(min) {
		return ErrCollateralBelowMinimum
	}
	return nil
}
