package mocks

import (
	"context"

	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockDiscountRepo struct {
	mock.Mock
	domain.DiscountRepository
}

func (m *MockDiscountRepo) Resolve(ctx context.Context, code string) (*domain.Discount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func (m *MockDiscountRepo) MarkUsed(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
