package response

import "github.com/Guyuepp/package-likes/domain"

type PackageLikes struct {
	TotalLikes   int64 `json:"totalLikes"`
	UserHasLiked bool  `json:"userHasLiked"`
}

// NewPackageLikesFromDomain: Domain -> Response
func NewPackageLikesFromDomain(p domain.PackageLikes) PackageLikes {
	return PackageLikes{
		TotalLikes:   p.TotalLikes,
		UserHasLiked: p.UserHasLiked,
	}
}

type LinkCount struct {
	Records      int64 `json:"records"`
	DistinctDIDs int64 `json:"distinctDids"`
}

type LinkSummary struct {
	PackageName string                          `json:"packageName"`
	Subject     string                          `json:"subject"`
	Links       map[string]map[string]LinkCount `json:"links"`
}

// NewLinkSummaryFromDomain: Domain -> Response
func NewLinkSummaryFromDomain(s domain.LinkSummary) LinkSummary {
	links := make(map[string]map[string]LinkCount, len(s.Links))
	for collection, paths := range s.Links {
		links[collection] = make(map[string]LinkCount, len(paths))
		for path, count := range paths {
			links[collection][path] = LinkCount{
				Records:      count.Records,
				DistinctDIDs: count.DistinctDIDs,
			}
		}
	}
	return LinkSummary{
		PackageName: s.PackageName,
		Subject:     s.Subject,
		Links:       links,
	}
}
