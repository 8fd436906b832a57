package contextx

import (
	"context"
	"fmt"
)

// AccountID is the identity of the caller of the current request (the
// predecessor account on whose behalf the market acts).
type AccountID string

type contextKeyAccountID struct{}

func (a AccountID) String() string {
	return string(a)
}

func WithAccountID(ctx context.Context, accountID AccountID) context.Context {
	return context.WithValue(ctx, contextKeyAccountID{}, accountID)
}

func AccountIDFromContext(ctx context.Context) (AccountID, error) {
	accountID, ok := ctx.Value(contextKeyAccountID{}).(AccountID)
	if !ok || accountID == "" {
		return "", fmt.Errorf("account id: %w", ErrNoValue)
	}

	return accountID, nil
}
