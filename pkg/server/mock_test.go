package server

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Authenticate(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) GetStats(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockClient) GetExtendedStats(ctx context.Context, name, startDate, endDate string) (map[string]any, error) {
	args := m.Called(ctx, name, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockClient) GetNotifications(ctx context.Context) ([]any, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]any), args.Error(1)
}

func (m *mockClient) SetBoxMode(ctx context.Context, mode string) (bool, error) {
	args := m.Called(ctx, mode)
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) SetGridDelivery(ctx context.Context, mode int) (bool, error) {
	args := m.Called(ctx, mode)
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) SessionID() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockClient) BoxID() string {
	args := m.Called()
	return args.String(0)
}
