package mocks

import (
	"context"
	"sync"

	"github.com/example/commerce-policy/internal/domain/promo"
)

// MockPromoStore is a mock implementation of promo.Store for testing
type MockPromoStore struct {
	mu    sync.Mutex
	codes map[string]promo.Code

	LookupCalls []string
	LookupErr   error
}

func NewMockPromoStore(codes ...*promo.Code) *MockPromoStore {
	m := &MockPromoStore{
		codes:       make(map[string]promo.Code),
		LookupCalls: make([]string, 0),
	}
	for _, c := range codes {
		m.SetCode(c)
	}
	return m
}

func (m *MockPromoStore) Lookup(_ context.Context, code string) (*promo.Code, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LookupCalls = append(m.LookupCalls, code)
	if m.LookupErr != nil {
		return nil, false, m.LookupErr
	}
	c, ok := m.codes[promo.Normalize(code)]
	if !ok {
		return nil, false, nil
	}
	return &c, true, nil
}

// SetCode seeds a code directly for testing
func (m *MockPromoStore) SetCode(c *promo.Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[promo.Normalize(c.Code)] = *c
}
