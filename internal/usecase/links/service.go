package links

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/package-likes/domain"
)

const KeyAll = "links:%s:all"

type service struct {
	index domain.BacklinkIndex
	cache domain.Cache
}

var _ domain.LinksUsecase = (*service)(nil)

func NewService(idx domain.BacklinkIndex, c domain.Cache) *service {
	return &service{
		index: idx,
		cache: c,
	}
}

// Summary counts every collection and path linking to a package.
// Unlike the like counts, index failures are returned to the caller.
func (s *service) Summary(ctx context.Context, packageName string) (domain.LinkSummary, error) {
	if !domain.IsValidPackageName(packageName) {
		return domain.LinkSummary{}, domain.ErrBadParamInput
	}

	key := fmt.Sprintf(KeyAll, packageName)
	res := domain.LinkSummary{
		PackageName: packageName,
		Subject:     domain.PackageSubjectRef(packageName),
	}

	err := s.cache.Get(ctx, key, &res.Links)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Warnf("cache get error: %v", err)
	}

	links, err := s.index.AllLinks(ctx, res.Subject)
	if err != nil {
		return domain.LinkSummary{}, err
	}
	if links == nil {
		links = map[string]map[string]domain.LinkCount{}
	}
	res.Links = links

	if err := s.cache.Set(ctx, key, links, domain.EnrichmentCacheTTL); err != nil {
		logrus.Warnf("failed to set cache %s: %v", key, err)
	}
	return res, nil
}
