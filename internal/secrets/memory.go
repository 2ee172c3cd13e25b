package secrets

import (
	"context"
	"sync"
)

// Memory is an in-process store. Tests and short-lived tools use it where
// no persistence is wanted.
type Memory struct {
	mu     sync.Mutex
	secret string
	token  *TokenRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) GetSecret(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.secret == "" {
		return "", ErrNotConfigured
	}
	return m.secret, nil
}

func (m *Memory) SetSecret(_ context.Context, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = secret
	return nil
}

func (m *Memory) GetToken(_ context.Context) (*TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, ErrNotConfigured
	}
	record := *m.token
	return &record, nil
}

func (m *Memory) SetToken(_ context.Context, record *TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record == nil {
		m.token = nil
		return nil
	}
	copied := *record
	m.token = &copied
	return nil
}

func (m *Memory) ClearToken(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}
