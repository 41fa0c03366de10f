package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spigell/talentlens/internal/ai"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) Provider() string { return "mock" }

func (m *MockCompleter) Model() string { return "mock-model" }
