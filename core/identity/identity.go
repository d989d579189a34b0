// Package identity models the external capability that issues participant
// badges. The lending core treats tokens as opaque, equality-comparable keys
// and never inspects or validates them; authenticity is delegated upstream.
package identity

import "github.com/google/uuid"

// Token is an opaque participant identity.
type Token string

func (t Token) String() string { return string(t) }

// Minter issues fresh, unforgeable identity tokens.
type Minter interface {
	Mint() (Token, error)
}

// BadgeMinter mints random badge tokens.
type BadgeMinter struct{}

// NewBadgeMinter returns the default badge issuer.
func NewBadgeMinter() *BadgeMinter { return &BadgeMinter{} }

// Mint issues a new badge token.
func (*BadgeMinter) Mint() (Token, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return Token(id.String()), nil
}
