package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Guyuepp/package-likes/domain"
)

// BacklinkIndex is a mock type for the BacklinkIndex type
type BacklinkIndex struct {
	mock.Mock
}

// CountDistinctWriters provides a mock function with given fields: ctx, subject, collection, path
func (_m *BacklinkIndex) CountDistinctWriters(ctx context.Context, subject, collection, path string) (int64, error) {
	ret := _m.Called(ctx, subject, collection, path)

	var r0 int64
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) int64); ok {
		r0 = rf(ctx, subject, collection, path)
	} else {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// FindWriterRecords provides a mock function with given fields: ctx, subject, collection, path, dids
func (_m *BacklinkIndex) FindWriterRecords(ctx context.Context, subject, collection, path string, dids []string) ([]domain.Backlink, error) {
	ret := _m.Called(ctx, subject, collection, path, dids)

	var r0 []domain.Backlink
	if v := ret.Get(0); v != nil {
		r0 = v.([]domain.Backlink)
	}

	return r0, ret.Error(1)
}

// Backlinks provides a mock function with given fields: ctx, q
func (_m *BacklinkIndex) Backlinks(ctx context.Context, q domain.LinkQuery) (domain.BacklinksPage, error) {
	ret := _m.Called(ctx, q)

	return ret.Get(0).(domain.BacklinksPage), ret.Error(1)
}

// AllLinks provides a mock function with given fields: ctx, subject
func (_m *BacklinkIndex) AllLinks(ctx context.Context, subject string) (map[string]map[string]domain.LinkCount, error) {
	ret := _m.Called(ctx, subject)

	var r0 map[string]map[string]domain.LinkCount
	if v := ret.Get(0); v != nil {
		r0 = v.(map[string]map[string]domain.LinkCount)
	}

	return r0, ret.Error(1)
}
