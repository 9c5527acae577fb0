package domain

import "context"

// LinkSummary lists every kind of record referencing a package
type LinkSummary struct {
	PackageName string                          `json:"package_name"`
	Subject     string                          `json:"subject"`
	Links       map[string]map[string]LinkCount `json:"links"`
}

type LinksUsecase interface {
	Summary(ctx context.Context, packageName string) (LinkSummary, error)
}
