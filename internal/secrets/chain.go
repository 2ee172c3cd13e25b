package secrets

import (
	"context"
	"errors"
)

// Chain reads from stores front to back, returning the first configured
// secret. Writes go to every store, so re-provisioning updates the config
// file and the .env override together (the original tooling updated both).
type Chain struct {
	stores []Store
}

// NewChain composes stores in read-precedence order.
func NewChain(stores ...Store) *Chain {
	return &Chain{stores: stores}
}

func (c *Chain) GetSecret(ctx context.Context) (string, error) {
	if c == nil || len(c.stores) == 0 {
		return "", ErrNotConfigured
	}

	var lastErr error = ErrNotConfigured
	for _, s := range c.stores {
		secret, err := s.GetSecret(ctx)
		if err == nil {
			return secret, nil
		}
		if !errors.Is(err, ErrNotConfigured) {
			lastErr = err
		}
	}
	return "", lastErr
}

func (c *Chain) SetSecret(ctx context.Context, secret string) error {
	if c == nil || len(c.stores) == 0 {
		return ErrBackend
	}

	for _, s := range c.stores {
		if err := s.SetSecret(ctx, secret); err != nil {
			return err
		}
	}
	return nil
}
