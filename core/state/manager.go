// Package state persists lending records in the key-value store. Records are
// JSON encoded; decimal amounts marshal as strings so no precision is lost on
// the way through the database.
package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"autolend/core/identity"
	"autolend/native/lending"
	"autolend/storage"
)

const (
	accountKeyPrefix = "lending/account/"
	poolKey          = "lending/pool"
)

// Manager implements the lending engine's persistence boundary over a
// storage.Database.
type Manager struct {
	db storage.Database
}

// NewManager wraps the given database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(id identity.Token) []byte {
	return []byte(accountKeyPrefix + id.String())
}

// GetAccount loads the record stored for id, or nil when none exists.
func (m *Manager) GetAccount(id identity.Token) (*lending.Account, error) {
	raw, err := m.db.Get(accountKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	account := new(lending.Account)
	if err := json.Unmarshal(raw, account); err != nil {
		return nil, fmt.Errorf("state: decode account %s: %w", id, err)
	}
	return account, nil
}

// PutAccount stores the record for id.
func (m *Manager) PutAccount(id identity.Token, account *lending.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("state: encode account %s: %w", id, err)
	}
	return m.db.Put(accountKey(id), raw)
}

// GetPool loads the pool state, or nil when the pool has not been initialized.
func (m *Manager) GetPool() (*lending.Pool, error) {
	raw, err := m.db.Get([]byte(poolKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pool := new(lending.Pool)
	if err := json.Unmarshal(raw, pool); err != nil {
		return nil, fmt.Errorf("state: decode pool: %w", err)
	}
	return pool, nil
}

// PutPool stores the pool state.
func (m *Manager) PutPool(pool *lending.Pool) error {
	raw, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("state: encode pool: %w", err)
	}
	return m.db.Put([]byte(poolKey), raw)
}
