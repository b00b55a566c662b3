package mocks

import (
	"context"

	"github.com/dukex/nodegraph/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockModuleResolver is a mock implementation of protocol.ModuleResolver interface.
type MockModuleResolver struct {
	mock.Mock
}

func (m *MockModuleResolver) Interface(ctx context.Context, name string) (protocol.ModuleInterface, error) {
	args := m.Called(ctx, name)

	return args.Get(0).(protocol.ModuleInterface), args.Error(1)
}

func (m *MockModuleResolver) Run(ctx context.Context, name string, arguments map[string]float64) (map[string]float64, error) {
	args := m.Called(ctx, name, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]float64), args.Error(1)
}
