package domain

import (
	"context"
	"time"
)

// InspectionClient defines the interface for querying the inspection dataset.
// FindMostRecent returns nil, nil when the query matches no rows.
type InspectionClient interface {
	FindMostRecent(ctx context.Context, query InspectionQuery) (*InspectionRecord, error)
}

// SessionRepository defines the interface for navigation session state
type SessionRepository interface {
	Get(ctx context.Context, id string) (*NavigationSession, error)
	Save(ctx context.Context, session *NavigationSession, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Metrics receives resolution events
type Metrics interface {
	QueryIssued(stage Stage)
	ResolutionFinished(outcome string, queries int)
	SchemaDrift(kind string)
}

// PageAdapters extracts restaurant identities and restaurant keys from listing pages
type PageAdapters interface {
	ScrapeIdentity(pageURL, html string) (RawIdentity, error)
	// RestaurantKey returns the path segment naming the restaurant; ok is
	// false when the URL is not a restaurant page on a client-side routed site.
	RestaurantKey(pageURL string) (key string, ok bool, err error)
}
