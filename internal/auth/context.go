package auth

import (
	"context"

	"github.com/google/uuid"
)

// Account is the authenticated parent.
type Account struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
}

type contextKey string

const accountKey contextKey = "account"

func WithAccount(ctx context.Context, a *Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// WithAccountID is used by background jobs that only carry the owner id.
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return WithAccount(ctx, &Account{ID: id})
}

func AccountFromContext(ctx context.Context) *Account {
	a, _ := ctx.Value(accountKey).(*Account)
	return a
}

func AccountIDFromContext(ctx context.Context) uuid.UUID {
	if a := AccountFromContext(ctx); a != nil {
		return a.ID
	}
	return uuid.Nil
}
