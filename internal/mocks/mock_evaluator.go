package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
)

type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, resume *documents.Resume, job *documents.JobDescription) fit.Report {
	args := m.Called(ctx, resume, job)
	return args.Get(0).(fit.Report)
}

func (m *MockEvaluator) Model() string {
	return "mock/mock-model"
}
