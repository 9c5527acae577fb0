package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Guyuepp/package-likes/domain"
)

// LinksUsecase is a mock type for the LinksUsecase type
type LinksUsecase struct {
	mock.Mock
}

// Summary provides a mock function with given fields: ctx, packageName
func (_m *LinksUsecase) Summary(ctx context.Context, packageName string) (domain.LinkSummary, error) {
	ret := _m.Called(ctx, packageName)

	return ret.Get(0).(domain.LinkSummary), ret.Error(1)
}
