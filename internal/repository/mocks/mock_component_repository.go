package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mmaioli/projects/internal/model"
)

type MockComponentRepository struct {
	mock.Mock
}

func (m *MockComponentRepository) Create(ctx context.Context, comp *model.Component) (*model.Component, error) {
	args := m.Called(ctx, comp)
	if f, ok := args.Get(0).(func(context.Context, *model.Component) *model.Component); ok {
		return f(ctx, comp), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Component), args.Error(1)
}

func (m *MockComponentRepository) FindByID(ctx context.Context, id string) (*model.Component, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Component), args.Error(1)
}

func (m *MockComponentRepository) Update(ctx context.Context, comp *model.Component) (*model.Component, error) {
	args := m.Called(ctx, comp)
	if f, ok := args.Get(0).(func(context.Context, *model.Component) *model.Component); ok {
		return f(ctx, comp), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Component), args.Error(1)
}

func (m *MockComponentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockComponentRepository) List(ctx context.Context) ([]model.Component, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Component), args.Error(1)
}
