package lending

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"autolend/core/assets"
	"autolend/core/epoch"
	"autolend/core/identity"
)

type mockEngineState struct {
	accounts    map[identity.Token]*Account
	pool        *Pool
	accountPuts int
	poolPuts    int
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{accounts: make(map[identity.Token]*Account)}
}

func (m *mockEngineState) GetAccount(id identity.Token) (*Account, error) {
	return m.accounts[id], nil
}

func (m *mockEngineState) PutAccount(id identity.Token, account *Account) error {
	m.accountPuts++
	m.accounts[id] = account
	return nil
}

func (m *mockEngineState) GetPool() (*Pool, error) {
	return m.pool, nil
}

func (m *mockEngineState) PutPool(pool *Pool) error {
	m.poolPuts++
	m.pool = pool
	return nil
}

func (m *mockEngineState) resetCounters() {
	m.accountPuts = 0
	m.poolPuts = 0
}

func newTestEngine(t *testing.T, startEpoch uint64) (*Engine, *mockEngineState, *epoch.Manual) {
	t.Helper()
	clock := epoch.NewManual(startEpoch)
	engine := NewEngine(DefaultParams(), clock, identity.NewBadgeMinter())
	state := newMockEngineState()
	engine.SetState(state)
	if err := engine.InitPool("reserve"); err != nil {
		t.Fatalf("init pool: %v", err)
	}
	return engine, state, clock
}

func bucket(t *testing.T, amount string) assets.Bucket {
	t.Helper()
	b, err := assets.New("reserve", dec(t, amount))
	if err != nil {
		t.Fatalf("new bucket: %v", err)
	}
	return b
}

func TestRegisterMintsDistinctTokens(t *testing.T) {
	engine, state, _ := newTestEngine(t, 0)

	first, err := engine.Register()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := engine.Register()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct tokens, both %s", first)
	}
	if len(state.accounts) != 0 {
		t.Fatalf("register must not create ledger state")
	}
}

func TestDepositCreatesAccountAndCreditsPool(t *testing.T) {
	engine, state, _ := newTestEngine(t, 10)
	alice := identity.Token("alice")

	if err := engine.Deposit(alice, bucket(t, "1000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	account := state.accounts[alice]
	if account == nil {
		t.Fatalf("expected account record")
	}
	requireDecimalEqual(t, account.DepositBalance, "1000")
	requireDecimalEqual(t, account.DepositRate, "0.01")
	if account.DepositLastUpdate != 10 {
		t.Fatalf("unexpected last update: %d", account.DepositLastUpdate)
	}
	requireDecimalEqual(t, state.pool.Balance, "1000")
}

func TestDepositRejectsForeignAsset(t *testing.T) {
	engine, state, _ := newTestEngine(t, 10)

	funds, err := assets.New("other", dec(t, "100"))
	if err != nil {
		t.Fatalf("new bucket: %v", err)
	}
	if err := engine.Deposit("alice", funds); !errors.Is(err, ErrAssetMismatch) {
		t.Fatalf("expected ErrAssetMismatch, got %v", err)
	}
	if len(state.accounts) != 0 {
		t.Fatalf("rejected deposit must not create state")
	}
}

func TestRedeemUnknownAccount(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)

	_, err := engine.Redeem("ghost", dec(t, "10"))
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRedeemPaysOutAndDebitsPool(t *testing.T) {
	engine, state, clock := newTestEngine(t, 10)
	alice := identity.Token("alice")
	if err := engine.Deposit(alice, bucket(t, "1000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	clock.Advance(1)
	payout, err := engine.Redeem(alice, dec(t, "500"))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	requireDecimalEqual(t, payout.Amount(), "510")
	requireDecimalEqual(t, state.accounts[alice].DepositBalance, "500")
	requireDecimalEqual(t, state.pool.Balance, "490")
}

func TestBorrowUtilizationCap(t *testing.T) {
	// Pool of 1000 with a 30% cap: 400 is refused, 250 granted.
	engine, state, _ := newTestEngine(t, 10)
	alice := identity.Token("alice")
	if err := engine.Deposit(alice, bucket(t, "1000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if _, err := engine.Borrow(alice, dec(t, "400")); !errors.Is(err, ErrUtilizationExceeded) {
		t.Fatalf("expected ErrUtilizationExceeded, got %v", err)
	}

	funds, err := engine.Borrow(alice, dec(t, "250"))
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	requireDecimalEqual(t, funds.Amount(), "250")
	requireDecimalEqual(t, state.accounts[alice].BorrowBalance, "250")
	requireDecimalEqual(t, state.pool.Balance, "750")
}

func TestBorrowFailsCollateralCheckAtomically(t *testing.T) {
	engine, state, _ := newTestEngine(t, 10)
	alice := identity.Token("alice")
	funder := identity.Token("funder")
	if err := engine.Deposit(funder, bucket(t, "900")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := engine.Deposit(alice, bucket(t, "100")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	state.resetCounters()
	before := state.accounts[alice].Clone()

	_, err := engine.Borrow(alice, dec(t, "250"))
	if !errors.Is(err, ErrCollateralBelowMinimum) {
		t.Fatalf("expected ErrCollateralBelowMinimum, got %v", err)
	}
	if state.accountPuts != 0 || state.poolPuts != 0 {
		t.Fatalf("failed borrow must not persist anything: %d account puts, %d pool puts",
			state.accountPuts, state.poolPuts)
	}
	if !state.accounts[alice].DepositBalance.Equal(before.DepositBalance) ||
		!state.accounts[alice].BorrowBalance.Equal(before.BorrowBalance) {
		t.Fatalf("failed borrow mutated the stored record")
	}
	requireDecimalEqual(t, state.pool.Balance, "1000")
}

func TestRedeemFailsOnDrainedPoolAtomically(t *testing.T) {
	engine, state, _ := newTestEngine(t, 10)
	alice := identity.Token("alice")
	if err := engine.Deposit(alice, bucket(t, "1000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// Drain the pool behind the account's back.
	state.pool.Balance = dec(t, "100")
	state.resetCounters()

	_, err := engine.Redeem(alice, dec(t, "500"))
	if !errors.Is(err, ErrInsufficientPoolLiquidity) {
		t.Fatalf("expected ErrInsufficientPoolLiquidity, got %v", err)
	}
	if state.accountPuts != 0 || state.poolPuts != 0 {
		t.Fatalf("failed redeem must not persist anything")
	}
	requireDecimalEqual(t, state.accounts[alice].DepositBalance, "1000")
}

func TestRepayCreditsConsumedPortionOnly(t *testing.T) {
	engine, state, clock := newTestEngine(t, 10)
	alice := identity.Token("alice")
	if err := engine.Deposit(alice, bucket(t, "1000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.Borrow(alice, dec(t, "250")); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	clock.Set(11)
	// Debt accrues to 250 + 250*0.02*2 = 260; paying 1000 returns 740.
	change, err := engine.Repay(alice, bucket(t, "1000"))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}

	requireDecimalEqual(t, change.Amount(), "740")
	if !state.accounts[alice].BorrowBalance.IsZero() {
		t.Fatalf("expected debt cleared, got %s", state.accounts[alice].BorrowBalance)
	}
	// Pool: 1000 - 250 borrowed + 260 consumed.
	requireDecimalEqual(t, state.pool.Balance, "1010")
}

func TestRepayUnknownAccount(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)

	_, err := engine.Repay("ghost", bucket(t, "10"))
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestSetInterestRatesAffectSubsequentContributions(t *testing.T) {
	engine, state, _ := newTestEngine(t, 10)

	if err := engine.SetDepositInterestRate(dec(t, "0.05")); err != nil {
		t.Fatalf("set deposit rate: %v", err)
	}
	if err := engine.SetBorrowInterestRate(dec(t, "0.08")); err != nil {
		t.Fatalf("set borrow rate: %v", err)
	}

	alice := identity.Token("alice")
	if err := engine.Deposit(alice, bucket(t, "100")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	requireDecimalEqual(t, state.accounts[alice].DepositRate, "0.05")
	requireDecimalEqual(t, state.pool.BorrowInterestRate, "0.08")
}

func TestPoolSolvencyAcrossOperations(t *testing.T) {
	engine, state, clock := newTestEngine(t, 10)
	alice := identity.Token("alice")
	bob := identity.Token("bob")

	credits := decimal.Zero
	debits := decimal.Zero

	if err := engine.Deposit(alice, bucket(t, "1000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	credits = credits.Add(dec(t, "1000"))

	if err := engine.Deposit(bob, bucket(t, "500")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	credits = credits.Add(dec(t, "500"))

	borrowed, err := engine.Borrow(bob, dec(t, "200"))
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	debits = debits.Add(borrowed.Amount())

	clock.Advance(3)
	payout, err := engine.Redeem(alice, dec(t, "400"))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	debits = debits.Add(payout.Amount())

	change, err := engine.Repay(bob, bucket(t, "300"))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	credits = credits.Add(dec(t, "300").Sub(change.Amount()))

	if !state.pool.Balance.Equal(credits.Sub(debits)) {
		t.Fatalf("pool out of balance: %s vs credits-debits %s",
			state.pool.Balance, credits.Sub(debits))
	}
	if state.pool.Balance.IsNegative() {
		t.Fatalf("pool went negative: %s", state.pool.Balance)
	}
}

func TestOperationsRejectNonPositiveAmounts(t *testing.T) {
	engine, state, _ := newTestEngine(t, 10)
	alice := identity.Token("alice")
	if err := engine.Deposit(alice, bucket(t, "100")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	state.resetCounters()

	if err := engine.Deposit(alice, bucket(t, "0")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.Redeem(alice, dec(t, "0")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.Borrow(alice, dec(t, "-5")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.Repay(alice, bucket(t, "0")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.Liquidate(alice, bucket(t, "0")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if state.accountPuts != 0 || state.poolPuts != 0 {
		t.Fatalf("rejected amounts must not persist anything")
	}
}

func TestOperationsFailBeforePoolInit(t *testing.T) {
	engine := NewEngine(DefaultParams(), epoch.NewManual(0), identity.NewBadgeMinter())
	engine.SetState(newMockEngineState())

	if err := engine.Deposit("alice", bucket(t, "100")); !errors.Is(err, ErrPoolNotInitialized) {
		t.Fatalf("expected ErrPoolNotInitialized, got %v", err)
	}
	if _, err := engine.Pool(); !errors.Is(err, ErrPoolNotInitialized) {
		t.Fatalf("expected ErrPoolNotInitialized, got %v", err)
	}
}

func TestOperationsFailWithoutState(t *testing.T) {
	engine := NewEngine(DefaultParams(), epoch.NewManual(0), identity.NewBadgeMinter())

	if err := engine.Deposit("alice", assets.Bucket{}); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
}
