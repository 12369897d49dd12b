package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
)

// InspectionServiceConfig holds configuration for the inspection service
type InspectionServiceConfig struct {
	ResolverTimeout time.Duration
	// DisplayLocation is the zone badge dates are rendered in. Defaults to time.Local.
	DisplayLocation *time.Location
}

// InspectionService turns a scraped restaurant into a grade badge
type InspectionService struct {
	normalizer *IdentityNormalizer
	resolver   *InspectionResolver
	adapters   domain.PageAdapters
	navigation *NavigationService
	metrics    domain.Metrics
	location   *time.Location
	log        *logger.Logger
}

// NewInspectionService creates a new inspection service with dependencies.
// navigation may be nil, in which case session ids are ignored.
func NewInspectionService(
	client domain.InspectionClient,
	adapters domain.PageAdapters,
	navigation *NavigationService,
	metrics domain.Metrics,
	config InspectionServiceConfig,
	log *logger.Logger,
) *InspectionService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Discard()
	}
	location := config.DisplayLocation
	if location == nil {
		location = time.Local
	}

	return &InspectionService{
		normalizer: NewIdentityNormalizer(log),
		resolver:   NewInspectionResolver(client, metrics, ResolverConfig{Timeout: config.ResolverTimeout}, log),
		adapters:   adapters,
		navigation: navigation,
		metrics:    metrics,
		location:   location,
		log:        log.With("component", "inspections"),
	}
}

// Lookup resolves the badge for raw identity text sent by the extension.
// pageURL is the page the text was scraped from; with a session id it seeds
// the session's restaurant so the first navigation on the same restaurant
// does not rerun. It may be empty.
// Flow: normalize -> resolve cascade -> classify -> badge
func (s *InspectionService) Lookup(ctx context.Context, raw domain.RawIdentity, sessionID, pageURL string) (*domain.Badge, error) {
	return s.lookup(ctx, raw, sessionID, pageURL)
}

// LookupPage scrapes the identity from a listing page's HTML, then resolves it
func (s *InspectionService) LookupPage(ctx context.Context, pageURL, html, sessionID string) (*domain.Badge, error) {
	if pageURL == "" || html == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.adapters == nil {
		return nil, domain.ErrUnsupportedSite
	}

	raw, err := s.adapters.ScrapeIdentity(pageURL, html)
	if err != nil {
		s.log.Warn("page scrape failed", "url", pageURL, "error", err)
		return nil, err
	}

	return s.lookup(ctx, raw, sessionID, pageURL)
}

func (s *InspectionService) lookup(ctx context.Context, raw domain.RawIdentity, sessionID, pageURL string) (*domain.Badge, error) {
	identity, err := s.normalizer.Normalize(raw)
	if err != nil {
		// No badge is shown for pages we cannot read; this is not a user-facing failure.
		s.log.Warn("identity extraction failed", "site", raw.Site, "error", err)
		return nil, err
	}

	var epoch uint64
	if s.navigation != nil && sessionID != "" {
		bound, e, release, err := s.navigation.Begin(ctx, sessionID, pageURL)
		if err != nil {
			return nil, err
		}
		defer release()
		ctx, epoch = bound, e
	}

	match, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	if s.navigation != nil && !s.navigation.IsCurrent(ctx, sessionID, epoch) {
		s.log.Info("discarding stale resolution", "session", sessionID, "epoch", epoch)
		return nil, domain.ErrStaleResolution
	}

	class, err := ClassifyGrade(match.Record)
	if err != nil {
		kind := "action"
		if errors.Is(err, domain.ErrUnknownGrade) {
			kind = "grade"
		}
		s.metrics.SchemaDrift(kind)
		s.log.Error("unrecognized inspection value, dataset schema may have changed",
			"kind", kind,
			"camis", match.Record.Camis,
			"error", err)
		return nil, err
	}

	badge := &domain.Badge{
		Class:   class,
		Site:    strings.ToLower(strings.TrimSpace(raw.Site)),
		Record:  match.Record,
		Stage:   match.Stage,
		Queries: match.Queries,
	}
	if date, ok := FormatInspectionDate(match.Record, s.location); ok {
		badge.InspectionDate = date
	}

	return badge, nil
}
