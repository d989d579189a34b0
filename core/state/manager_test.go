package state

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"autolend/core/identity"
	"autolend/native/lending"
	"autolend/storage"
)

func TestManagerAccountRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	id := identity.Token("alice")

	account := lending.NewAccount(decimal.RequireFromString("1000"), decimal.RequireFromString("0.01"), 4)
	account.BorrowBalance = decimal.RequireFromString("250.5")
	account.BorrowRate = decimal.RequireFromString("0.02")
	account.BorrowLastUpdate = 6

	require.NoError(t, manager.PutAccount(id, account))

	loaded, err := manager.GetAccount(id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.True(t, loaded.DepositBalance.Equal(account.DepositBalance))
	require.True(t, loaded.DepositRate.Equal(account.DepositRate))
	require.Equal(t, account.DepositLastUpdate, loaded.DepositLastUpdate)
	require.True(t, loaded.BorrowBalance.Equal(account.BorrowBalance))
	require.True(t, loaded.BorrowRate.Equal(account.BorrowRate))
	require.Equal(t, account.BorrowLastUpdate, loaded.BorrowLastUpdate)
}

func TestManagerMissingRecords(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	account, err := manager.GetAccount(identity.Token("nobody"))
	require.NoError(t, err)
	require.Nil(t, account)

	pool, err := manager.GetPool()
	require.NoError(t, err)
	require.Nil(t, pool)
}

func TestManagerPoolRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	pool := lending.NewPool("reserve")
	pool.Balance = decimal.RequireFromString("1234.25")
	pool.BorrowInterestRate = decimal.RequireFromString("0.03")

	require.NoError(t, manager.PutPool(pool))

	loaded, err := manager.GetPool()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, pool.Denom, loaded.Denom)
	require.True(t, loaded.Balance.Equal(pool.Balance))
	require.True(t, loaded.DepositInterestRate.Equal(pool.DepositInterestRate))
	require.True(t, loaded.BorrowInterestRate.Equal(pool.BorrowInterestRate))
}

func TestManagerAccountsAreIsolated(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	alice := lending.NewAccount(decimal.RequireFromString("100"), decimal.RequireFromString("0.01"), 1)
	bob := lending.NewAccount(decimal.RequireFromString("200"), decimal.RequireFromString("0.01"), 2)

	require.NoError(t, manager.PutAccount(identity.Token("alice"), alice))
	require.NoError(t, manager.PutAccount(identity.Token("bob"), bob))

	loaded, err := manager.GetAccount(identity.Token("alice"))
	require.NoError(t, err)
	require.True(t, loaded.DepositBalance.Equal(alice.DepositBalance))
	require.Equal(t, uint64(1), loaded.DepositLastUpdate)
}
