package goLogin

import "context"

type accountContextKey struct{}

// WithAccount attaches an account label (typically the login email) to
// ctx. The Engine uses it to correlate audit events across the attempts of
// one login; it is never required.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

func accountFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	account, _ := ctx.Value(accountContextKey{}).(string)
	return account
}
