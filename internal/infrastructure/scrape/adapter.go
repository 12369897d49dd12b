// Package scrape extracts restaurant identity text from listing pages.
// Each supported site is one Adapter; adding a site never touches resolution.
package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
)

// Adapter reads one site's listing pages
type Adapter interface {
	Site() string
	Extract(doc *goquery.Document) (domain.RawIdentity, error)
	// RestaurantKey returns the path segment naming the restaurant on sites
	// that navigate client-side between restaurants.
	RestaurantKey(path string) (string, bool)
}

// Registry picks an adapter by page URL
type Registry struct {
	adapters []Adapter
	log      *logger.Logger
}

// NewRegistry creates a registry with every supported site
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "scrape")

	return &Registry{
		adapters: []Adapter{
			newJSONLDAdapter("yelp", "", log),
			newJSONLDAdapter("menupages", "", log),
			newJSONLDAdapter("opentable", "", log),
			newJSONLDAdapter("grubhub", "restaurant", log),
			zagatAdapter(),
			foursquareAdapter(),
		},
		log: log,
	}
}

// ForURL returns the adapter whose site name appears in the URL
func (r *Registry) ForURL(pageURL string) (Adapter, error) {
	lower := strings.ToLower(pageURL)
	for _, adapter := range r.adapters {
		if strings.Contains(lower, adapter.Site()) {
			return adapter, nil
		}
	}
	return nil, fmt.Errorf("%w: %w: %s", domain.ErrExtraction, domain.ErrUnsupportedSite, pageURL)
}

// ScrapeIdentity implements domain.PageAdapters
func (r *Registry) ScrapeIdentity(pageURL, html string) (domain.RawIdentity, error) {
	adapter, err := r.ForURL(pageURL)
	if err != nil {
		return domain.RawIdentity{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.RawIdentity{}, fmt.Errorf("%w: parsing HTML: %w", domain.ErrExtraction, err)
	}

	raw, err := adapter.Extract(doc)
	if err != nil {
		return domain.RawIdentity{}, err
	}
	raw.Site = adapter.Site()

	r.log.Debug("scraped identity", "site", raw.Site, "name", raw.Name, "address", raw.Address)
	return raw, nil
}

// RestaurantKey implements domain.PageAdapters
func (r *Registry) RestaurantKey(pageURL string) (string, bool, error) {
	adapter, err := r.ForURL(pageURL)
	if err != nil {
		return "", false, err
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	key, ok := adapter.RestaurantKey(u.Path)
	return key, ok, nil
}

// pathKey returns segment 2 of path when segment 1 equals prefix,
// e.g. "/restaurant/joes-pizza/1234" -> "joes-pizza".
func pathKey(path, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	segments := strings.Split(path, "/")
	if len(segments) < 3 || segments[1] != prefix || segments[2] == "" {
		return "", false
	}
	return segments[2], true
}
