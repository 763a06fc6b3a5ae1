package service

import (
	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
	"tradedesk_go/internal/infra/rest"
)

// Deps bundles the shared collaborators every feature service composes:
// the REST client, the process-wide query cache, the toast notifier and
// the quasi-static query profile.
type Deps struct {
	API      *rest.Client
	Cache    *cache.Cache
	Notifier domain.Notifier

	// Static is the profile for catalogs considered stable within a
	// session: long staleness/GC windows, no refetch on subscribe.
	Static *cache.Options
}
