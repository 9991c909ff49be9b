package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRevocationManager struct {
	mock.Mock
}

func (m *MockRevocationManager) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, tokenID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockRevocationManager) Release(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}
