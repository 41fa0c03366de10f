package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spigell/talentlens/internal/storage"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, file storage.File) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, id string) (*storage.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.File), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
