package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Guyuepp/package-likes/domain"
)

// LikeUsecase is a mock type for the LikeUsecase type
type LikeUsecase struct {
	mock.Mock
}

// GetStatus provides a mock function with given fields: ctx, packageName, callerDID
func (_m *LikeUsecase) GetStatus(ctx context.Context, packageName, callerDID string) (domain.PackageLikes, error) {
	ret := _m.Called(ctx, packageName, callerDID)

	return ret.Get(0).(domain.PackageLikes), ret.Error(1)
}

// HasLiked provides a mock function with given fields: ctx, packageName, callerDID
func (_m *LikeUsecase) HasLiked(ctx context.Context, packageName, callerDID string) (bool, error) {
	ret := _m.Called(ctx, packageName, callerDID)

	return ret.Bool(0), ret.Error(1)
}

// Like provides a mock function with given fields: ctx, packageName, caller
func (_m *LikeUsecase) Like(ctx context.Context, packageName string, caller domain.Caller) (domain.PackageLikes, error) {
	ret := _m.Called(ctx, packageName, caller)

	return ret.Get(0).(domain.PackageLikes), ret.Error(1)
}

// Unlike provides a mock function with given fields: ctx, packageName, caller
func (_m *LikeUsecase) Unlike(ctx context.Context, packageName string, caller domain.Caller) (domain.PackageLikes, error) {
	ret := _m.Called(ctx, packageName, caller)

	return ret.Get(0).(domain.PackageLikes), ret.Error(1)
}
