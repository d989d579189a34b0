package lending

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Default per-epoch interest rates applied to new contributions. Both are
// adjustable after instantiation through the engine's administrative setters.
var (
	DefaultDepositInterestRate = decimal.RequireFromString("0.01")
	DefaultBorrowInterestRate  = decimal.RequireFromString("0.02")
)

// Params groups the protocol safety limits. The values are fixed at
// instantiation and are not runtime configurable.
type Params struct {
	// MinCollateralRatio is the ratio every open loan has to stay above.
	MinCollateralRatio decimal.Decimal
	// MaxBorrowPercent caps a single borrow against current pool liquidity.
	MaxBorrowPercent decimal.Decimal
	// MaxLiquidationPercent caps a liquidation repayment against outstanding debt.
	MaxLiquidationPercent decimal.Decimal
	// LiquidationBonus is the premium a liquidator seizes on top of the repayment.
	LiquidationBonus decimal.Decimal
}

// DefaultParams returns the protocol constants.
func DefaultParams() Params {
	return Params{
		MinCollateralRatio:    decimal.RequireFromString("1.2"),
		MaxBorrowPercent:      decimal.RequireFromString("0.3"),
		MaxLiquidationPercent: decimal.RequireFromString("0.5"),
		LiquidationBonus:      decimal.RequireFromString("0.05"),
	}
}

// Validate ensures the parameter set is self-consistent.
func (p Params) Validate() error {
	one := decimal.NewFromInt(1)
	if p.MinCollateralRatio.LessThanOrEqual(one) {
		return fmt.Errorf("min collateral ratio must be greater than one")
	}
	if p.MaxBorrowPercent.Sign() <= 0 || p.MaxBorrowPercent.GreaterThan(one) {
		return fmt.Errorf("max borrow percent must be in (0, 1]")
	}
	if p.MaxLiquidationPercent.Sign() <= 0 || p.MaxLiquidationPercent.GreaterThan(one) {
		return fmt.Errorf("max liquidation percent must be in (0, 1]")
	}
	if p.LiquidationBonus.IsNegative() {
		return fmt.Errorf("liquidation bonus must not be negative")
	}
	return nil
}
