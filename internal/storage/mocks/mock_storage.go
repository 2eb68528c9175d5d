package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/mmaioli/projects/internal/storage"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UploadFile(ctx context.Context, key, filePath string, opt storage.UploadOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, filePath, opt)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) GetStream(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) ListFolder(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) RemoveFolder(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
