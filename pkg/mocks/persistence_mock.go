package mocks

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Modules(ctx context.Context) ([]*models.Module, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Module), args.Error(1)
}

func (m *MockPersistence) ModuleByName(ctx context.Context, name string) (*models.Module, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Module), args.Error(1)
}

func (m *MockPersistence) SaveModule(ctx context.Context, module *models.Module) error {
	args := m.Called(ctx, module)

	return args.Error(0)
}

func (m *MockPersistence) DeleteModule(ctx context.Context, name string) error {
	args := m.Called(ctx, name)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
