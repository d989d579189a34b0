package lending

import "github.com/shopspring/decimal"

// elapsed counts the epochs an accrual covers. The +1 floor is deliberate and
// load-bearing: interest accrues at least one epoch on every call, including
// repeated calls within the same epoch.
func elapsed(last, now uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(now - last + 1))
}

// Deposit folds the interest accrued since the last update into the deposit
// balance, blends the contribution's rate into the account rate weighted by
// principal, and adds the contribution. The blend uses the already-accrued
// balance so earlier interest keeps earning at the old rate.
func (a *Account) Deposit(amount, rate decimal.Decimal, now uint64) {
	interest := a.DepositBalance.Mul(a.DepositRate).Mul(elapsed(a.DepositLastUpdate, now))
	a.DepositBalance = a.DepositBalance.Add(interest)
	a.DepositLastUpdate = now

	a.DepositRate = a.DepositBalance.Mul(a.DepositRate).
		Add(amount.Mul(rate)).
		Div(a.DepositBalance.Add(amount))

	a.DepositBalance = a.DepositBalance.Add(amount)
}

// Redeem withdraws amount of principal and returns the payout owed: the amount
// plus interest accrued on the withdrawn portion only. The remaining balance
// keeps its rate and update marker so untouched principal continues to accrue
// from its original point.
//
// The subtraction is intentionally unchecked; withdrawing more than the stored
// balance drives it negative.
func (a *Account) Redeem(amount decimal.Decimal, now uint64) decimal.Decimal {
	a.DepositBalance = a.DepositBalance.Sub(amount)
	return amount.Add(amount.Mul(a.DepositRate).Mul(elapsed(a.DepositLastUpdate, now)))
}

// Borrow mirrors Deposit on the debt side: accrue outstanding interest, blend
// the new draw's rate in by principal weight, then add the draw.
func (a *Account) Borrow(amount, rate decimal.Decimal, now uint64) {
	interest := a.BorrowBalance.Mul(a.BorrowRate).Mul(elapsed(a.BorrowLastUpdate, now))
	a.BorrowBalance = a.BorrowBalance.Add(interest)
	a.BorrowLastUpdate = now

	a.BorrowRate = a.BorrowBalance.Mul(a.BorrowRate).
		Add(amount.Mul(rate)).
		Div(a.BorrowBalance.Add(amount))

	a.BorrowBalance = a.BorrowBalance.Add(amount)
}

// Repay settles up to amount of debt after folding in accrued interest. A
// partial repayment keeps the blended rate; settling in full zeroes both the
// balance and the rate. The returned change is the unused portion of amount.
func (a *Account) Repay(amount decimal.Decimal, now uint64) decimal.Decimal {
	interest := a.BorrowBalance.Mul(a.BorrowRate).Mul(elapsed(a.BorrowLastUpdate, now))
	a.BorrowBalance = a.BorrowBalance.Add(interest)
	a.BorrowLastUpdate = now

	if amount.LessThan(a.BorrowBalance) {
		a.BorrowBalance = a.BorrowBalance.Sub(amount)
		return decimal.Zero
	}
	change := amount.Sub(a.BorrowBalance)
	a.BorrowBalance = decimal.Zero
	a.BorrowRate = decimal.Zero
	return change
}

// Liquidate applies a forced repayment and seizes the payout from the
// account's own deposit. The repayment must match or fall under the
// outstanding debt; any change is an overpayment and aborts the liquidation.
// The payout, amount scaled by the liquidation bonus, is what the liquidator
// receives.
func (a *Account) Liquidate(amount, bonus decimal.Decimal, now uint64) (decimal.Decimal, error) {
	change := a.Repay(amount, now)
	if !change.IsZero() {
		return decimal.Zero, ErrLiquidationOverpaid
	}

	payout := amount.Mul(bonus.Add(decimal.NewFromInt(1)))
	a.DepositBalance = a.DepositBalance.Sub(payout)
	return payout, nil
}
