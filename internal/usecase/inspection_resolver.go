package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
)

// Resolution outcomes reported to metrics
const (
	OutcomeMatched   = "matched"
	OutcomeNoMatch   = "no_match"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// ResolverConfig holds configuration for the inspection resolver
type ResolverConfig struct {
	// Timeout bounds a whole cascade. When it expires the resolution
	// ends with no result instead of an error. Zero disables it.
	Timeout time.Duration
}

// InspectionResolver finds the most recent inspection record for an identity
// by walking the structured/full-text cascade.
type InspectionResolver struct {
	client  domain.InspectionClient
	metrics domain.Metrics
	timeout time.Duration
	log     *logger.Logger
}

// NewInspectionResolver creates a new resolver. metrics and log may be nil.
func NewInspectionResolver(
	client domain.InspectionClient,
	metrics domain.Metrics,
	config ResolverConfig,
	log *logger.Logger,
) *InspectionResolver {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Discard()
	}

	return &InspectionResolver{
		client:  client,
		metrics: metrics,
		timeout: config.Timeout,
		log:     log.With("component", "resolver"),
	}
}

// NextStage is the cascade transition function. Given the record a stage
// produced it returns the next stage, and the accepted record once the
// cascade is done with a match.
//
//	StructuredLoose:  none -> FullTextLoose; invalid -> StructuredStrict;
//	                  verified -> Done(match); otherwise -> FullTextLoose
//	StructuredStrict: valid and verified -> Done(match); otherwise -> FullTextLoose
//	FullTextLoose:    none -> Done; invalid -> FullTextStrict;
//	                  verified -> Done(match); otherwise -> Done
//	FullTextStrict:   valid and verified -> Done(match); otherwise -> Done
func NextStage(
	stage domain.Stage,
	record *domain.InspectionRecord,
	identity *domain.RestaurantIdentity,
) (domain.Stage, *domain.InspectionRecord) {
	switch stage {
	case domain.StageStructuredLoose:
		if record == nil {
			return domain.StageFullTextLoose, nil
		}
		if !ValidateInspectionData(record) {
			return domain.StageStructuredStrict, nil
		}
		if VerifyMatch(record, identity) {
			return domain.StageDone, record
		}
		return domain.StageFullTextLoose, nil

	case domain.StageStructuredStrict:
		if ValidateInspectionData(record) && VerifyMatch(record, identity) {
			return domain.StageDone, record
		}
		return domain.StageFullTextLoose, nil

	case domain.StageFullTextLoose:
		if record == nil {
			return domain.StageDone, nil
		}
		if !ValidateInspectionData(record) {
			return domain.StageFullTextStrict, nil
		}
		if VerifyMatch(record, identity) {
			return domain.StageDone, record
		}
		return domain.StageDone, nil

	case domain.StageFullTextStrict:
		if ValidateInspectionData(record) && VerifyMatch(record, identity) {
			return domain.StageDone, record
		}
		return domain.StageDone, nil

	default:
		return domain.StageDone, nil
	}
}

// Resolve runs the cascade for identity. It issues between one and four
// sequential queries and returns a MatchResult whose Record is nil when no
// acceptable record exists.
func (r *InspectionResolver) Resolve(ctx context.Context, identity *domain.RestaurantIdentity) (*domain.MatchResult, error) {
	if identity == nil {
		return nil, domain.ErrInvalidRequest
	}

	parent := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result := &domain.MatchResult{}
	stage := domain.StageStructuredLoose

	for stage != domain.StageDone {
		record, queried, err := r.runStage(ctx, stage, identity)
		if queried {
			result.Queries++
		}
		if err != nil {
			return r.fail(parent, ctx, result, stage, err)
		}

		next, accepted := NextStage(stage, record, identity)
		result.Trace = append(result.Trace, domain.StageOutcome{
			Stage:    stage,
			Name:     stage.String(),
			Queried:  queried,
			Found:    record != nil,
			Valid:    ValidateInspectionData(record),
			Verified: VerifyMatch(record, identity),
		})

		r.log.Debug("stage finished",
			"stage", stage.String(),
			"queried", queried,
			"found", record != nil,
			"next", next.String())

		if accepted != nil {
			result.Record = accepted
			result.Stage = stage.String()
		}
		stage = next
	}

	outcome := OutcomeNoMatch
	if result.Found() {
		outcome = OutcomeMatched
	}
	r.metrics.ResolutionFinished(outcome, result.Queries)

	r.log.Info("resolution finished",
		"outcome", outcome,
		"stage", result.Stage,
		"queries", result.Queries)

	return result, nil
}

// runStage issues the stage's query. Structured stages are skipped without a
// query when the identity has no zipcode, which reads as "no result".
func (r *InspectionResolver) runStage(
	ctx context.Context,
	stage domain.Stage,
	identity *domain.RestaurantIdentity,
) (*domain.InspectionRecord, bool, error) {
	isStructured := stage == domain.StageStructuredLoose || stage == domain.StageStructuredStrict
	if isStructured && !identity.HasZipcode() {
		return nil, false, nil
	}

	query, ok := QueryForStage(stage, identity)
	if !ok {
		return nil, false, fmt.Errorf("no query for stage %s", stage)
	}

	r.metrics.QueryIssued(stage)
	record, err := r.client.FindMostRecent(ctx, query)
	if err != nil {
		return nil, true, err
	}
	return record, true, nil
}

// fail sorts a stage error into cancellation, timeout fallback or a hard failure
func (r *InspectionResolver) fail(
	parent, ctx context.Context,
	result *domain.MatchResult,
	stage domain.Stage,
	err error,
) (*domain.MatchResult, error) {
	switch {
	case parent.Err() != nil:
		r.metrics.ResolutionFinished(OutcomeCancelled, result.Queries)
		return nil, fmt.Errorf("%w: %w", domain.ErrResolutionCancelled, parent.Err())

	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		r.metrics.ResolutionFinished(OutcomeTimeout, result.Queries)
		r.log.Warn("resolution timed out, reporting no result",
			"stage", stage.String(),
			"queries", result.Queries,
			"timeout", r.timeout)
		result.Record = nil
		result.Stage = ""
		return result, nil

	default:
		r.metrics.ResolutionFinished(OutcomeError, result.Queries)
		r.log.Error("resolution failed", "stage", stage.String(), "error", err)
		return nil, err
	}
}

// nopMetrics discards resolution events
type nopMetrics struct{}

func (nopMetrics) QueryIssued(domain.Stage)       {}
func (nopMetrics) ResolutionFinished(string, int) {}
func (nopMetrics) SchemaDrift(string)             {}
