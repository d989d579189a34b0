package lending

import "errors"

var (
	// ErrNilState indicates the engine was invoked before its persistence
	// layer was wired.
	ErrNilState = errors.New("lending: engine state not configured")
	// ErrPoolNotInitialized indicates no liquidity pool exists yet.
	ErrPoolNotInitialized = errors.New("lending: pool not initialized")
	// ErrInvalidAmount indicates a non-positive request amount.
	ErrInvalidAmount = errors.New("lending: amount must be greater than zero")
	// ErrAccountNotFound indicates no record exists for the identity.
	ErrAccountNotFound = errors.New("lending: account not found")
	// ErrAssetMismatch indicates funds carrying a different asset than the
	// pool holds.
	ErrAssetMismatch = errors.New("lending: asset mismatch")
	// ErrInsufficientPoolLiquidity indicates the pool cannot cover a payout.
	ErrInsufficientPoolLiquidity = errors.New("lending: insufficient pool liquidity")
	// ErrUtilizationExceeded indicates a borrow above the utilization cap.
	ErrUtilizationExceeded = errors.New("lending: utilization exceeded")
	// ErrCollateralBelowMinimum indicates a position falling below the
	// minimum collateral ratio.
	ErrCollateralBelowMinimum = errors.New("lending: collateral ratio below minimum")
	// ErrLiquidationNotAllowed indicates the target position is still
	// sufficiently collateralized.
	ErrLiquidationNotAllowed = errors.New("lending: position not eligible for liquidation")
	// ErrNoOutstandingDebt indicates the target carries no loan to liquidate.
	ErrNoOutstandingDebt = errors.New("lending: no outstanding debt")
	// ErrLiquidationSizeExceeded indicates a forced repayment above the
	// per-liquidation size cap.
	ErrLiquidationSizeExceeded = errors.New("lending: liquidation size exceeded")
	// ErrLiquidationOverpaid indicates a forced repayment exceeding the
	// outstanding debt.
	ErrLiquidationOverpaid = errors.New("lending: liquidation repayment exceeds debt")
)
