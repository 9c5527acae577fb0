package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Guyuepp/package-likes/domain"
)

// RecordStore is a mock type for the RecordStore type
type RecordStore struct {
	mock.Mock
}

// CreateRecord provides a mock function with given fields: ctx, caller, collection, record
func (_m *RecordStore) CreateRecord(ctx context.Context, caller domain.Caller, collection string, record any) (string, error) {
	ret := _m.Called(ctx, caller, collection, record)

	return ret.String(0), ret.Error(1)
}

// DeleteRecord provides a mock function with given fields: ctx, caller, collection, rkey
func (_m *RecordStore) DeleteRecord(ctx context.Context, caller domain.Caller, collection, rkey string) error {
	ret := _m.Called(ctx, caller, collection, rkey)

	return ret.Error(0)
}
