package like

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Guyuepp/package-likes/domain"
)

const (
	KeyTotal  = "likes:%s:total"
	KeyLiked  = "likes:%s:users:%s:liked"
	KeyShadow = "likes:%s:users:%s:shadow"
)

type Service struct {
	index      domain.BacklinkIndex
	records    domain.RecordStore
	cache      domain.Cache
	countGroup singleflight.Group
	now        func() time.Time
}

var _ domain.LikeUsecase = (*Service)(nil)

// NewService will create a new like service object
func NewService(idx domain.BacklinkIndex, rs domain.RecordStore, c domain.Cache) *Service {
	return &Service{
		index:   idx,
		records: rs,
		cache:   c,
		now:     time.Now,
	}
}

// GetStatus reads the total and, for a signed in caller, whether they liked the package.
// Index failures degrade to 0 and false and are never cached.
func (s *Service) GetStatus(ctx context.Context, packageName, callerDID string) (domain.PackageLikes, error) {
	var res domain.PackageLikes

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.totalLikes(gctx, packageName)
		if err != nil {
			logrus.Warnf("failed to count likes of %s, reporting 0: %v", packageName, err)
			total = 0
		}
		res.TotalLikes = total
		return nil
	})
	if callerDID != "" {
		g.Go(func() error {
			liked, err := s.HasLiked(gctx, packageName, callerDID)
			if err != nil {
				logrus.Warnf("failed to check like of %s by %s, reporting false: %v", packageName, callerDID, err)
				liked = false
			}
			res.UserHasLiked = liked
			return nil
		})
	}
	_ = g.Wait()

	return res, nil
}

func (s *Service) HasLiked(ctx context.Context, packageName, callerDID string) (bool, error) {
	key := fmt.Sprintf(KeyLiked, packageName, callerDID)

	var liked bool
	err := s.cache.Get(ctx, key, &liked)
	if err == nil {
		return liked, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Warnf("cache get error: %v", err)
	}

	records, err := s.index.FindWriterRecords(ctx, domain.PackageSubjectRef(packageName),
		domain.LikeCollection, domain.LikeSubjectPath, []string{callerDID})
	if err != nil {
		return false, err
	}
	liked = len(records) > 0

	s.set(ctx, key, liked)
	return liked, nil
}

// Like writes a like record for the caller unless they already liked the package.
func (s *Service) Like(ctx context.Context, packageName string, caller domain.Caller) (domain.PackageLikes, error) {
	status, _ := s.GetStatus(ctx, packageName, caller.DID)
	if status.UserHasLiked {
		return status, nil
	}

	uri, err := s.records.CreateRecord(ctx, caller, domain.LikeCollection, domain.NewLikeRecord(packageName, s.now()))
	if err != nil {
		logrus.Errorf("failed to create like record of %s for %s: %v", packageName, caller.DID, err)
		return domain.PackageLikes{}, err
	}

	// the record may exist remotely now, but without an rkey it can't be unliked through the cache
	_, collection, rkey, err := domain.ParseRecordURI(uri)
	if err != nil {
		logrus.Errorf("like record of %s for %s was created with an unusable uri: %v", packageName, caller.DID, err)
		return domain.PackageLikes{}, err
	}

	// the index takes a few seconds to see the record, remember it for a quick unlike
	shadow := domain.Backlink{
		DID:        caller.DID,
		Collection: collection,
		RKey:       rkey,
	}
	s.set(ctx, fmt.Sprintf(KeyShadow, packageName, caller.DID), shadow)
	s.set(ctx, fmt.Sprintf(KeyLiked, packageName, caller.DID), true)
	total := s.adjustTotal(ctx, packageName, 1, status.TotalLikes+1)

	return domain.PackageLikes{
		TotalLikes:   total,
		UserHasLiked: true,
	}, nil
}

// Unlike deletes the caller's like record if one can be found.
func (s *Service) Unlike(ctx context.Context, packageName string, caller domain.Caller) (domain.PackageLikes, error) {
	record, found, err := s.likedRecord(ctx, packageName, caller.DID)
	if err != nil {
		logrus.Errorf("failed to look up like record of %s for %s: %v", packageName, caller.DID, err)
		return domain.PackageLikes{}, err
	}

	before, err := s.totalLikes(ctx, packageName)
	if err != nil {
		logrus.Warnf("failed to count likes of %s, reporting 0: %v", packageName, err)
		before = 0
	}

	if !found {
		logrus.WithFields(logrus.Fields{
			"package": packageName,
			"did":     caller.DID,
		}).Warn("unlike of a package the caller has not liked")
		return domain.PackageLikes{TotalLikes: before}, nil
	}

	collection := record.Collection
	if collection == "" {
		collection = domain.LikeCollection
	}
	if err := s.records.DeleteRecord(ctx, caller, collection, record.RKey); err != nil {
		logrus.Errorf("failed to delete like record %s of %s for %s: %v", record.RKey, packageName, caller.DID, err)
		return domain.PackageLikes{}, err
	}

	if err := s.cache.Delete(ctx, fmt.Sprintf(KeyShadow, packageName, caller.DID)); err != nil {
		logrus.Warnf("failed to delete shadow record: %v", err)
	}
	s.set(ctx, fmt.Sprintf(KeyLiked, packageName, caller.DID), false)
	total := s.adjustTotal(ctx, packageName, -1, before-1)

	return domain.PackageLikes{
		TotalLikes:   total,
		UserHasLiked: false,
	}, nil
}

// totalLikes returns the cached total or counts it on the index.
// Concurrent misses for one package share a single index request.
func (s *Service) totalLikes(ctx context.Context, packageName string) (int64, error) {
	key := fmt.Sprintf(KeyTotal, packageName)

	var total int64
	err := s.cache.Get(ctx, key, &total)
	if err == nil {
		return total, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Warnf("cache get error: %v", err)
	}

	v, err, _ := s.countGroup.Do(packageName, func() (any, error) {
		total, err := s.index.CountDistinctWriters(ctx, domain.PackageSubjectRef(packageName),
			domain.LikeCollection, domain.LikeSubjectPath)
		if err != nil {
			return int64(0), err
		}
		s.set(ctx, key, total)
		return total, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// adjustTotal applies delta to the cached total, counting on the index first if nothing is cached.
// The result is clamped at 0. If the index can't be reached, fallback is returned and not cached.
func (s *Service) adjustTotal(ctx context.Context, packageName string, delta, fallback int64) int64 {
	key := fmt.Sprintf(KeyTotal, packageName)

	var total int64
	err := s.cache.Get(ctx, key, &total)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logrus.Warnf("cache get error: %v", err)
		}
		total, err = s.index.CountDistinctWriters(ctx, domain.PackageSubjectRef(packageName),
			domain.LikeCollection, domain.LikeSubjectPath)
		if err != nil {
			logrus.Warnf("failed to recount likes of %s, returning an uncached estimate: %v", packageName, err)
			return max(fallback, 0)
		}
	}

	total = max(total+delta, 0)
	s.set(ctx, key, total)
	return total
}

// likedRecord finds the caller's like record, from the shadow first and then the index.
// A cached "not liked" wins over the index, which may still list a record deleted moments ago.
func (s *Service) likedRecord(ctx context.Context, packageName, callerDID string) (domain.Backlink, bool, error) {
	var shadow domain.Backlink
	err := s.cache.Get(ctx, fmt.Sprintf(KeyShadow, packageName, callerDID), &shadow)
	if err == nil && shadow.RKey != "" {
		return shadow, true, nil
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Warnf("cache get error: %v", err)
	}

	likedKey := fmt.Sprintf(KeyLiked, packageName, callerDID)
	var liked bool
	err = s.cache.Get(ctx, likedKey, &liked)
	if err == nil && !liked {
		return domain.Backlink{}, false, nil
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Warnf("cache get error: %v", err)
	}

	records, err := s.index.FindWriterRecords(ctx, domain.PackageSubjectRef(packageName),
		domain.LikeCollection, domain.LikeSubjectPath, []string{callerDID})
	if err != nil {
		return domain.Backlink{}, false, err
	}
	for _, r := range records {
		if r.RKey != "" {
			return r, true, nil
		}
	}

	s.set(ctx, likedKey, false)
	return domain.Backlink{}, false, nil
}

func (s *Service) set(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, domain.LikesCacheTTL); err != nil {
		logrus.Warnf("failed to set cache %s: %v", key, err)
	}
}
