package lending

import (
	"errors"

	"github.com/shopspring/decimal"

	"autolend/core/assets"
	"autolend/core/epoch"
	"autolend/core/identity"
)

var errMinterNotConfigured = errors.New("lending: identity minter not configured")

// engineState is the persistence boundary the orchestrator runs against.
// GetAccount returns nil without error when no record exists.
type engineState interface {
	GetAccount(id identity.Token) (*Account, error)
	PutAccount(id identity.Token, account *Account) error
	GetPool() (*Pool, error)
	PutPool(pool *Pool) error
}

// Engine composes the accrual engine, risk engine and pool accountant into the
// public lending operations. Every operation is all-or-nothing: records and the
// pool are mutated on private copies and persisted only once every check has
// passed. The engine holds no locks; the host execution model serializes
// operations against ledger state.
type Engine struct {
	state  engineState
	clock  epoch.Clock
	minter identity.Minter
	params Params
}

// NewEngine constructs a lending engine with the given protocol limits. The
// clock is the host-supplied epoch capability; the engine only ever reads it.
func NewEngine(params Params, clock epoch.Clock, minter identity.Minter) *Engine {
	return &Engine{params: params, clock: clock, minter: minter}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// Params returns the protocol limits the engine was instantiated with.
func (e *Engine) Params() Params { return e.params }

// InitPool creates the liquidity pool for the given asset if none exists yet.
// A pool stored under a different asset is a configuration error.
func (e *Engine) InitPool(denom string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	pool, err := e.state.GetPool()
	if err != nil {
		return err
	}
	if pool == nil {
		return e.state.PutPool(NewPool(denom))
	}
	if pool.Denom != denom {
		return errors.New("lending: pool already initialized with a different asset")
	}
	return nil
}

// Register mints a fresh identity badge. No ledger state is created until the
// holder's first deposit.
func (e *Engine) Register() (identity.Token, error) {
	if e == nil || e.minter == nil {
		return "", errMinterNotConfigured
	}
	return e.minter.Mint()
}

// Deposit places funds into the pool and starts earning interest for id. The
// record is created lazily on first deposit. Deposits can only improve a
// position, so no collateral check applies.
func (e *Engine) Deposit(id identity.Token, funds assets.Bucket) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if funds.Amount().Sign() <= 0 {
		return ErrInvalidAmount
	}
	now := e.clock.CurrentEpoch()

	pool, err := e.loadPool()
	if err != nil {
		return err
	}

	account, err := e.loadAccount(id)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return err
	}
	if account == nil {
		account = NewAccount(funds.Amount(), pool.DepositInterestRate, now)
	} else {
		account.Deposit(funds.Amount(), pool.DepositInterestRate, now)
	}

	if err := pool.Credit(&funds); err != nil {
		return err
	}

	if err := e.state.PutAccount(id, account); err != nil {
		return err
	}
	return e.state.PutPool(pool)
}

// Redeem withdraws amount of deposited principal plus the interest owed on the
// withdrawn portion. The post-redemption position must still satisfy the
// minimum collateral ratio, and the pool must cover the payout.
func (e *Engine) Redeem(id identity.Token, amount decimal.Decimal) (assets.Bucket, error) {
	if e == nil || e.state == nil {
		return assets.Bucket{}, ErrNilState
	}
	if amount.Sign() <= 0 {
		return assets.Bucket{}, ErrInvalidAmount
	}
	now := e.clock.CurrentEpoch()

	account, err := e.loadAccount(id)
	if err != nil {
		return assets.Bucket{}, err
	}
	payout := account.Redeem(amount, now)
	if err := account.CheckCollateralRatio(e.params.MinCollateralRatio, now); err != nil {
		return assets.Bucket{}, err
	}

	pool, err := e.loadPool()
	if err != nil {
		return assets.Bucket{}, err
	}
	funds, err := pool.Debit(payout)
	if err != nil {
		return assets.Bucket{}, err
	}

	if err := e.state.PutAccount(id, account); err != nil {
		return assets.Bucket{}, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return assets.Bucket{}, err
	}
	return funds, nil
}

// Borrow draws amount from the pool against the caller's deposit. A single
// borrow may not exceed the utilization cap derived from current pool
// liquidity, and the resulting position must satisfy the minimum collateral
// ratio.
func (e *Engine) Borrow(id identity.Token, amount decimal.Decimal) (assets.Bucket, error) {
	if e == nil || e.state == nil {
		return assets.Bucket{}, ErrNilState
	}
	if amount.Sign() <= 0 {
		return assets.Bucket{}, ErrInvalidAmount
	}
	now := e.clock.CurrentEpoch()

	pool, err := e.loadPool()
	if err != nil {
		return assets.Bucket{}, err
	}
	if amount.GreaterThan(pool.MaxBorrowable(e.params.MaxBorrowPercent)) {
		return assets.Bucket{}, ErrUtilizationExceeded
	}

	account, err := e.loadAccount(id)
	if err != nil {
		return assets.Bucket{}, err
	}
	account.Borrow(amount, pool.BorrowInterestRate, now)
	if err := account.CheckCollateralRatio(e.params.MinCollateralRatio, now); err != nil {
		return assets.Bucket{}, err
	}

	funds, err := pool.Debit(amount)
	if err != nil {
		return assets.Bucket{}, err
	}

	if err := e.state.PutAccount(id, account); err != nil {
		return assets.Bucket{}, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return assets.Bucket{}, err
	}
	return funds, nil
}

// Repay settles the caller's debt with the supplied payment. The consumed
// portion is credited to the pool; any overpayment is handed back unused.
func (e *Engine) Repay(id identity.Token, payment assets.Bucket) (assets.Bucket, error) {
	if e == nil || e.state == nil {
		return assets.Bucket{}, ErrNilState
	}
	if payment.Amount().Sign() <= 0 {
		return assets.Bucket{}, ErrInvalidAmount
	}
	now := e.clock.CurrentEpoch()

	account, err := e.loadAccount(id)
	if err != nil {
		return assets.Bucket{}, err
	}
	change := account.Repay(payment.Amount(), now)

	changeBucket, err := payment.Take(change)
	if err != nil {
		return assets.Bucket{}, err
	}

	pool, err := e.loadPool()
	if err != nil {
		return assets.Bucket{}, err
	}
	if err := pool.Credit(&payment); err != nil {
		return assets.Bucket{}, err
	}

	if err := e.state.PutAccount(id, account); err != nil {
		return assets.Bucket{}, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return assets.Bucket{}, err
	}
	return changeBucket, nil
}

// Liquidate lets a third party force-repay part of an under-collateralized
// loan. The repayment is capped to a fraction of the outstanding debt and must
// never exceed it; the payout, repayment scaled by the liquidation bonus, is
// seized from the target's own deposit and returned to the liquidating caller.
func (e *Engine) Liquidate(target identity.Token, repayment assets.Bucket) (assets.Bucket, error) {
	if e == nil || e.state == nil {
		return assets.Bucket{}, ErrNilState
	}
	if repayment.Amount().Sign() <= 0 {
		return assets.Bucket{}, ErrInvalidAmount
	}
	now := e.clock.CurrentEpoch()

	account, err := e.loadAccount(target)
	if err != nil {
		return assets.Bucket{}, err
	}

	ratio, defined := account.CollateralRatio(now)
	if !defined {
		return assets.Bucket{}, ErrNoOutstandingDebt
	}
	if ratio.GreaterThan(e.params.MinCollateralRatio) {
		return assets.Bucket{}, ErrLiquidationNotAllowed
	}
	if repayment.Amount().GreaterThan(account.BorrowBalance.Mul(e.params.MaxLiquidationPercent)) {
		return assets.Bucket{}, ErrLiquidationSizeExceeded
	}

	payout, err := account.Liquidate(repayment.Amount(), e.params.LiquidationBonus, now)
	if err != nil {
		return assets.Bucket{}, err
	}

	pool, err := e.loadPool()
	if err != nil {
		return assets.Bucket{}, err
	}
	if err := pool.Credit(&repayment); err != nil {
		return assets.Bucket{}, err
	}
	seized, err := pool.Debit(payout)
	if err != nil {
		return assets.Bucket{}, err
	}

	if err := e.state.PutAccount(target, account); err != nil {
		return assets.Bucket{}, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return assets.Bucket{}, err
	}
	return seized, nil
}

// Account returns a copy of the stored record for id.
func (e *Engine) Account(id identity.Token) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.loadAccount(id)
}

// Pool returns a copy of the stored pool state.
func (e *Engine) Pool() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.loadPool()
}

// SetDepositInterestRate updates the per-epoch rate applied to subsequent
// deposit contributions. The operation carries no access control.
func (e *Engine) SetDepositInterestRate(rate decimal.Decimal) error {
	return e.updatePool(func(pool *Pool) { pool.DepositInterestRate = rate })
}

// SetBorrowInterestRate updates the per-epoch rate applied to subsequent
// borrow draws. The operation carries no access control.
func (e *Engine) SetBorrowInterestRate(rate decimal.Decimal) error {
	return e.updatePool(func(pool *Pool) { pool.BorrowInterestRate = rate })
}

func (e *Engine) updatePool(mutate func(*Pool)) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	mutate(pool)
	return e.state.PutPool(pool)
}

func (e *Engine) loadAccount(id identity.Token) (*Account, error) {
	account, err := e.state.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (e *Engine) loadPool() (*Pool, error) {
	pool, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotInitialized
	}
	return pool.Clone(), nil
}
