package mocks

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/stretchr/testify/mock"

	"github.com/mmaioli/projects/internal/model"
	"github.com/mmaioli/projects/internal/storage"
)

type MockComponentService struct {
	mock.Mock
}

func (m *MockComponentService) Create(ctx context.Context, name string) (*model.Component, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Component), args.Error(1)
}

func (m *MockComponentService) Update(ctx context.Context, id, name string, parameters any) (*model.Component, error) {
	args := m.Called(ctx, id, name, parameters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Component), args.Error(1)
}

func (m *MockComponentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockComponentService) List(ctx context.Context) ([]model.Component, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Component), args.Error(1)
}

func (m *MockComponentService) Get(ctx context.Context, id string) (*model.Component, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Component), args.Error(1)
}

func (m *MockComponentService) UploadAttachment(ctx context.Context, id string, files []*multipart.FileHeader) (*storage.ObjectInfo, error) {
	args := m.Called(ctx, id, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ObjectInfo), args.Error(1)
}

func (m *MockComponentService) OpenAttachment(ctx context.Context, id, fileName string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, id, fileName)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockComponentService) DownloadBase64(ctx context.Context, storagePath string) (string, error) {
	args := m.Called(ctx, storagePath)
	return args.String(0), args.Error(1)
}
