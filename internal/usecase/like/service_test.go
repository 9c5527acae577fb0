package like_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/domain/mocks"
	"github.com/Guyuepp/package-likes/internal/repository/cache"
	myRedisCache "github.com/Guyuepp/package-likes/internal/repository/redis"
	"github.com/Guyuepp/package-likes/internal/usecase/like"
)

const (
	pkg   = "vue"
	alice = "did:plc:alice"
	bob   = "did:plc:bob"
)

var (
	subject   = domain.PackageSubjectRef(pkg)
	indexDown = fmt.Errorf("%w: distinct-dids: connection refused", domain.ErrIndexUnavailable)
	aliceURI  = "at://" + alice + "/" + domain.LikeCollection + "/3kabc"
)

func caller(did string) domain.Caller {
	return domain.Caller{
		DID:         did,
		Scopes:      []string{domain.LikesScope},
		PDSHost:     "https://pds.example.com",
		AccessToken: "token",
	}
}

type fixture struct {
	index   *mocks.BacklinkIndex
	records *mocks.RecordStore
	cache   domain.Cache
	svc     *like.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		index:   new(mocks.BacklinkIndex),
		records: new(mocks.RecordStore),
		cache:   cache.NewLocalCache(128, time.Hour),
	}
	f.svc = like.NewService(f.index, f.records, f.cache)
	t.Cleanup(func() {
		f.index.AssertExpectations(t)
		f.records.AssertExpectations(t)
	})
	return f
}

func (f *fixture) expectCount(n int64, err error) *mock.Call {
	return f.index.On("CountDistinctWriters", mock.Anything, subject, domain.LikeCollection, domain.LikeSubjectPath).
		Return(n, err)
}

func (f *fixture) expectWriterRecords(did string, records []domain.Backlink, err error) *mock.Call {
	return f.index.On("FindWriterRecords", mock.Anything, subject, domain.LikeCollection, domain.LikeSubjectPath, []string{did}).
		Return(records, err)
}

func (f *fixture) cached(t *testing.T, key string, dst any) bool {
	t.Helper()
	err := f.cache.Get(context.Background(), key, dst)
	if errors.Is(err, domain.ErrCacheMiss) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestGetStatusColdCacheReadsIndexAndCachesWithTTL(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	index := new(mocks.BacklinkIndex)
	index.On("CountDistinctWriters", mock.Anything, subject, domain.LikeCollection, domain.LikeSubjectPath).
		Return(int64(5), nil).Once()
	svc := like.NewService(index, new(mocks.RecordStore), myRedisCache.NewRedisCache(client, ""))

	status, err := svc.GetStatus(context.Background(), pkg, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 5, UserHasLiked: false}, status)

	key := fmt.Sprintf(like.KeyTotal, pkg)
	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "5", got)
	assert.Equal(t, domain.LikesCacheTTL, s.TTL(key))

	// warm read does not touch the index again
	status, err = svc.GetStatus(context.Background(), pkg, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), status.TotalLikes)
	index.AssertExpectations(t)
}

func TestGetStatusDegradesWithoutCaching(t *testing.T) {
	f := newFixture(t)
	f.expectCount(0, indexDown).Once()
	f.expectWriterRecords(alice, nil, indexDown).Once()

	status, err := f.svc.GetStatus(context.Background(), pkg, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{}, status)

	var total int64
	assert.False(t, f.cached(t, fmt.Sprintf(like.KeyTotal, pkg), &total))
	var liked bool
	assert.False(t, f.cached(t, fmt.Sprintf(like.KeyLiked, pkg, alice), &liked))
}

func TestGetStatusCachedZeroIsAHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyTotal, pkg), int64(0), domain.LikesCacheTTL))
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyLiked, pkg, alice), false, domain.LikesCacheTTL))

	status, err := f.svc.GetStatus(ctx, pkg, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{}, status)
}

func TestGetStatusSharesColdCount(t *testing.T) {
	f := newFixture(t)
	f.index.On("CountDistinctWriters", mock.Anything, subject, domain.LikeCollection, domain.LikeSubjectPath).
		Return(int64(7), nil).
		WaitUntil(time.After(100 * time.Millisecond)).
		Once()

	var wg sync.WaitGroup
	results := make([]int64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, _ := f.svc.GetStatus(context.Background(), pkg, "")
			results[i] = status.TotalLikes
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, int64(7), r)
	}
}

func TestHasLiked(t *testing.T) {
	f := newFixture(t)
	f.expectWriterRecords(alice, []domain.Backlink{{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}}, nil).Once()
	f.expectWriterRecords(bob, nil, nil).Once()

	liked, err := f.svc.HasLiked(context.Background(), pkg, alice)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = f.svc.HasLiked(context.Background(), pkg, bob)
	require.NoError(t, err)
	assert.False(t, liked)

	// both answers come from the cache now
	liked, err = f.svc.HasLiked(context.Background(), pkg, alice)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestLike(t *testing.T) {
	f := newFixture(t)
	f.expectCount(5, nil).Once()
	f.expectWriterRecords(alice, nil, nil).Once()
	f.records.On("CreateRecord", mock.Anything, caller(alice), domain.LikeCollection, mock.AnythingOfType("domain.LikeRecord")).
		Return(aliceURI, nil).Once()

	status, err := f.svc.Like(context.Background(), pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 6, UserHasLiked: true}, status)

	var shadow domain.Backlink
	require.True(t, f.cached(t, fmt.Sprintf(like.KeyShadow, pkg, alice), &shadow))
	assert.Equal(t, domain.Backlink{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}, shadow)

	var total int64
	require.True(t, f.cached(t, fmt.Sprintf(like.KeyTotal, pkg), &total))
	assert.Equal(t, int64(6), total)
}

func TestLikeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.expectCount(5, nil).Once()
	f.expectWriterRecords(alice, nil, nil).Once()
	f.records.On("CreateRecord", mock.Anything, caller(alice), domain.LikeCollection, mock.Anything).
		Return(aliceURI, nil).Once()

	first, err := f.svc.Like(context.Background(), pkg, caller(alice))
	require.NoError(t, err)

	second, err := f.svc.Like(context.Background(), pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	f.records.AssertNumberOfCalls(t, "CreateRecord", 1)
}

func TestLikeMasksIndexLag(t *testing.T) {
	f := newFixture(t)
	// the index never sees the new record before the cache expires
	f.expectCount(5, nil).Once()
	f.expectWriterRecords(alice, nil, nil).Once()
	f.records.On("CreateRecord", mock.Anything, caller(alice), domain.LikeCollection, mock.Anything).
		Return(aliceURI, nil).Once()

	_, err := f.svc.Like(context.Background(), pkg, caller(alice))
	require.NoError(t, err)

	status, err := f.svc.GetStatus(context.Background(), pkg, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 6, UserHasLiked: true}, status)

	// anonymous readers see the new total as well
	status, err = f.svc.GetStatus(context.Background(), pkg, "")
	require.NoError(t, err)
	assert.Equal(t, int64(6), status.TotalLikes)
}

func TestLikeIncrementsCachedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyTotal, pkg), int64(9), domain.LikesCacheTTL))
	f.expectWriterRecords(alice, nil, nil).Once()
	f.records.On("CreateRecord", mock.Anything, caller(alice), domain.LikeCollection, mock.Anything).
		Return(aliceURI, nil).Once()

	status, err := f.svc.Like(ctx, pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, int64(10), status.TotalLikes)
}

func TestLikeWriteFailureLeavesCacheUntouched(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		err     error
		wantErr error
	}{
		{
			name:    "rejected",
			err:     fmt.Errorf("%w: 401 AuthRequired", domain.ErrWriteRejected),
			wantErr: domain.ErrWriteRejected,
		},
		{
			name:    "unreachable",
			err:     fmt.Errorf("%w: connection reset", domain.ErrRecordStoreUnavailable),
			wantErr: domain.ErrRecordStoreUnavailable,
		},
		{
			name:    "malformed uri",
			uri:     "at://" + alice + "/" + domain.LikeCollection,
			wantErr: domain.ErrMalformedRecordURI,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectCount(5, nil).Once()
			f.expectWriterRecords(alice, nil, nil).Once()
			f.records.On("CreateRecord", mock.Anything, caller(alice), domain.LikeCollection, mock.Anything).
				Return(tc.uri, tc.err).Once()

			_, err := f.svc.Like(context.Background(), pkg, caller(alice))
			require.ErrorIs(t, err, tc.wantErr)

			var total int64
			require.True(t, f.cached(t, fmt.Sprintf(like.KeyTotal, pkg), &total))
			assert.Equal(t, int64(5), total)
			var liked bool
			require.True(t, f.cached(t, fmt.Sprintf(like.KeyLiked, pkg, alice), &liked))
			assert.False(t, liked)
			var shadow domain.Backlink
			assert.False(t, f.cached(t, fmt.Sprintf(like.KeyShadow, pkg, alice), &shadow))
		})
	}
}

func TestUnlikeUsesShadowWhileIndexIsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyTotal, pkg), int64(6), domain.LikesCacheTTL))
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyLiked, pkg, alice), true, domain.LikesCacheTTL))
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyShadow, pkg, alice),
		domain.Backlink{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}, domain.LikesCacheTTL))

	// no index expectations: any index call fails the test
	f.records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kabc").Return(nil).Once()

	status, err := f.svc.Unlike(ctx, pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 5, UserHasLiked: false}, status)

	var shadow domain.Backlink
	assert.False(t, f.cached(t, fmt.Sprintf(like.KeyShadow, pkg, alice), &shadow))
}

func TestUnlikeFindsRecordOnIndex(t *testing.T) {
	f := newFixture(t)
	f.expectWriterRecords(alice, []domain.Backlink{{DID: alice, Collection: domain.LikeCollection, RKey: "3kold"}}, nil).Once()
	f.expectCount(3, nil).Once()
	f.records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kold").Return(nil).Once()

	status, err := f.svc.Unlike(context.Background(), pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 2, UserHasLiked: false}, status)
}

func TestUnlikeNeverLikedDoesNotDelete(t *testing.T) {
	f := newFixture(t)
	f.expectWriterRecords(alice, nil, nil).Once()
	f.expectCount(4, nil).Once()

	status, err := f.svc.Unlike(context.Background(), pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 4, UserHasLiked: false}, status)
	f.records.AssertNotCalled(t, "DeleteRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	var liked bool
	require.True(t, f.cached(t, fmt.Sprintf(like.KeyLiked, pkg, alice), &liked))
	assert.False(t, liked)

	// the answer is cached, a repeated unlike does not reach the index
	status, err = f.svc.Unlike(context.Background(), pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 4, UserHasLiked: false}, status)
}

func TestUnlikeTwiceWhileIndexLags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyTotal, pkg), int64(5), domain.LikesCacheTTL))
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyLiked, pkg, alice), true, domain.LikesCacheTTL))
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyShadow, pkg, alice),
		domain.Backlink{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}, domain.LikesCacheTTL))
	// the index still lists the deleted record
	f.index.On("FindWriterRecords", mock.Anything, subject, domain.LikeCollection, domain.LikeSubjectPath, []string{alice}).
		Return([]domain.Backlink{{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}}, nil).Maybe()
	f.records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kabc").Return(nil).Once()

	first, err := f.svc.Unlike(ctx, pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 4}, first)

	second, err := f.svc.Unlike(ctx, pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 4}, second)

	f.records.AssertNumberOfCalls(t, "DeleteRecord", 1)
	f.index.AssertNotCalled(t, "FindWriterRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnlikeSurfacesFailures(t *testing.T) {
	t.Run("index", func(t *testing.T) {
		f := newFixture(t)
		f.expectWriterRecords(alice, nil, indexDown).Once()

		_, err := f.svc.Unlike(context.Background(), pkg, caller(alice))
		require.ErrorIs(t, err, domain.ErrIndexUnavailable)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyTotal, pkg), int64(6), domain.LikesCacheTTL))
		require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyShadow, pkg, alice),
			domain.Backlink{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}, domain.LikesCacheTTL))
		f.records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kabc").
			Return(fmt.Errorf("%w: 403", domain.ErrWriteRejected)).Once()

		_, err := f.svc.Unlike(ctx, pkg, caller(alice))
		require.ErrorIs(t, err, domain.ErrWriteRejected)

		var total int64
		require.True(t, f.cached(t, fmt.Sprintf(like.KeyTotal, pkg), &total))
		assert.Equal(t, int64(6), total)
		var shadow domain.Backlink
		assert.True(t, f.cached(t, fmt.Sprintf(like.KeyShadow, pkg, alice), &shadow))
	})
}

func TestLikeThenUnlikeRestoresTotal(t *testing.T) {
	for _, start := range []int64{0, 1, 42} {
		t.Run(fmt.Sprint(start), func(t *testing.T) {
			f := newFixture(t)
			f.expectCount(start, nil).Once()
			f.expectWriterRecords(alice, nil, nil).Once()
			f.records.On("CreateRecord", mock.Anything, caller(alice), domain.LikeCollection, mock.Anything).
				Return(aliceURI, nil).Once()
			f.records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kabc").Return(nil).Once()

			before, err := f.svc.GetStatus(context.Background(), pkg, alice)
			require.NoError(t, err)

			liked, err := f.svc.Like(context.Background(), pkg, caller(alice))
			require.NoError(t, err)
			assert.Equal(t, start+1, liked.TotalLikes)

			after, err := f.svc.Unlike(context.Background(), pkg, caller(alice))
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestUnlikeNeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyTotal, pkg), int64(0), domain.LikesCacheTTL))
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyShadow, pkg, alice),
		domain.Backlink{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}, domain.LikesCacheTTL))
	f.records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kabc").Return(nil).Once()

	status, err := f.svc.Unlike(ctx, pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.TotalLikes)
}

func TestUnlikeWithoutCachedTotalAndIndexDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, fmt.Sprintf(like.KeyShadow, pkg, alice),
		domain.Backlink{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}, domain.LikesCacheTTL))
	f.records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kabc").Return(nil).Once()
	f.expectCount(0, indexDown).Twice()

	status, err := f.svc.Unlike(ctx, pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 0, UserHasLiked: false}, status)

	var total int64
	assert.False(t, f.cached(t, fmt.Sprintf(like.KeyTotal, pkg), &total))
}

// writeOnceCache accepts no writes once frozen
type writeOnceCache struct {
	domain.Cache
	frozen bool
}

func (c *writeOnceCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.frozen {
		return errors.New("read only")
	}
	return c.Cache.Set(ctx, key, value, ttl)
}

func TestUnlikeFallsBackToCountBeforeDelete(t *testing.T) {
	index := new(mocks.BacklinkIndex)
	records := new(mocks.RecordStore)
	c := &writeOnceCache{Cache: cache.NewLocalCache(16, time.Hour)}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, fmt.Sprintf(like.KeyShadow, pkg, alice),
		domain.Backlink{DID: alice, Collection: domain.LikeCollection, RKey: "3kabc"}, domain.LikesCacheTTL))
	c.frozen = true

	index.On("CountDistinctWriters", mock.Anything, subject, domain.LikeCollection, domain.LikeSubjectPath).
		Return(int64(120), nil).Once()
	index.On("CountDistinctWriters", mock.Anything, subject, domain.LikeCollection, domain.LikeSubjectPath).
		Return(int64(0), indexDown).Once()
	records.On("DeleteRecord", mock.Anything, caller(alice), domain.LikeCollection, "3kabc").Return(nil).Once()

	status, err := like.NewService(index, records, c).Unlike(ctx, pkg, caller(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.PackageLikes{TotalLikes: 119}, status)
	index.AssertExpectations(t)
	records.AssertExpectations(t)
}
