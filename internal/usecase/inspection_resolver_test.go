package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockInspectionClient returns scripted responses in order and records queries
type MockInspectionClient struct {
	responses []*domain.InspectionRecord
	errs      []error
	queries   []domain.InspectionQuery
	delay     time.Duration
}

func (m *MockInspectionClient) FindMostRecent(ctx context.Context, query domain.InspectionQuery) (*domain.InspectionRecord, error) {
	i := len(m.queries)
	m.queries = append(m.queries, query)

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return nil, nil
}

// MockMetrics records resolution events
type MockMetrics struct {
	queries  []domain.Stage
	outcomes []string
	drift    []string
}

func (m *MockMetrics) QueryIssued(stage domain.Stage) { m.queries = append(m.queries, stage) }
func (m *MockMetrics) ResolutionFinished(outcome string, queries int) {
	m.outcomes = append(m.outcomes, outcome)
}
func (m *MockMetrics) SchemaDrift(kind string) { m.drift = append(m.drift, kind) }

func scenarioIdentity() *domain.RestaurantIdentity {
	return &domain.RestaurantIdentity{
		Name:           "joe’s pizza",
		Zipcode:        "10012",
		Phone:          "2125551234",
		BuildingNumber: "123",
		Street:         "carmine",
	}
}

var (
	gradedMatch   = &domain.InspectionRecord{Grade: "A", Phone: "2125551234", Building: "123"}
	gradedOther   = &domain.InspectionRecord{Grade: "A", Phone: "7185550000", Building: "999"}
	ungradedNoise = &domain.InspectionRecord{Action: "Violations were cited in the following area(s).", Phone: "2125551234", Building: "123"}
)

func TestNextStage(t *testing.T) {
	identity := scenarioIdentity()

	tests := []struct {
		name         string
		stage        domain.Stage
		record       *domain.InspectionRecord
		wantNext     domain.Stage
		wantAccepted bool
	}{
		{"structured loose, none", domain.StageStructuredLoose, nil, domain.StageFullTextLoose, false},
		{"structured loose, invalid", domain.StageStructuredLoose, ungradedNoise, domain.StageStructuredStrict, false},
		{"structured loose, verified", domain.StageStructuredLoose, gradedMatch, domain.StageDone, true},
		{"structured loose, unverified", domain.StageStructuredLoose, gradedOther, domain.StageFullTextLoose, false},
		{"structured strict, verified", domain.StageStructuredStrict, gradedMatch, domain.StageDone, true},
		{"structured strict, none", domain.StageStructuredStrict, nil, domain.StageFullTextLoose, false},
		{"structured strict, invalid", domain.StageStructuredStrict, ungradedNoise, domain.StageFullTextLoose, false},
		{"structured strict, unverified", domain.StageStructuredStrict, gradedOther, domain.StageFullTextLoose, false},
		{"full text loose, none", domain.StageFullTextLoose, nil, domain.StageDone, false},
		{"full text loose, invalid", domain.StageFullTextLoose, ungradedNoise, domain.StageFullTextStrict, false},
		{"full text loose, verified", domain.StageFullTextLoose, gradedMatch, domain.StageDone, true},
		{"full text loose, unverified", domain.StageFullTextLoose, gradedOther, domain.StageDone, false},
		{"full text strict, verified", domain.StageFullTextStrict, gradedMatch, domain.StageDone, true},
		{"full text strict, none", domain.StageFullTextStrict, nil, domain.StageDone, false},
		{"full text strict, unverified", domain.StageFullTextStrict, gradedOther, domain.StageDone, false},
		{"done stays done", domain.StageDone, gradedMatch, domain.StageDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, accepted := NextStage(tt.stage, tt.record, identity)
			assert.Equal(t, tt.wantNext, next)
			if tt.wantAccepted {
				assert.Same(t, tt.record, accepted)
			} else {
				assert.Nil(t, accepted)
			}
		})
	}
}

func TestResolve_StopsAtStageOne(t *testing.T) {
	client := &MockInspectionClient{responses: []*domain.InspectionRecord{gradedMatch}}
	metrics := &MockMetrics{}
	resolver := NewInspectionResolver(client, metrics, ResolverConfig{}, logger.Discard())

	result, err := resolver.Resolve(context.Background(), scenarioIdentity())

	require.NoError(t, err)
	assert.Same(t, gradedMatch, result.Record)
	assert.Equal(t, "structured_loose", result.Stage)
	assert.Equal(t, 1, result.Queries)
	require.Len(t, client.queries, 1)
	assert.Contains(t, client.queries[0].Where, "phone='2125551234'")
	assert.Empty(t, client.queries[0].Q)
	assert.Equal(t, []string{OutcomeMatched}, metrics.outcomes)
}

func TestResolve_NoZipcodeSkipsStructuredSearch(t *testing.T) {
	identity := scenarioIdentity()
	identity.Zipcode = ""
	client := &MockInspectionClient{responses: []*domain.InspectionRecord{gradedMatch}}
	resolver := NewInspectionResolver(client, nil, ResolverConfig{}, nil)

	result, err := resolver.Resolve(context.Background(), identity)

	require.NoError(t, err)
	assert.Same(t, gradedMatch, result.Record)
	assert.Equal(t, "full_text_loose", result.Stage)
	assert.Equal(t, 1, result.Queries)
	require.Len(t, client.queries, 1)
	assert.Equal(t, "joe’s pizza 123 carmine", client.queries[0].Q)
	require.Len(t, result.Trace, 2)
	assert.False(t, result.Trace[0].Queried)
}

func TestResolve_InvalidStageOneGoesStrictThenFullText(t *testing.T) {
	client := &MockInspectionClient{responses: []*domain.InspectionRecord{
		ungradedNoise, // structured loose: invalid
		nil,           // structured strict: nothing
		gradedMatch,   // full text loose
	}}
	resolver := NewInspectionResolver(client, nil, ResolverConfig{}, nil)

	result, err := resolver.Resolve(context.Background(), scenarioIdentity())

	require.NoError(t, err)
	assert.Same(t, gradedMatch, result.Record)
	assert.Equal(t, 3, result.Queries)
	require.Len(t, client.queries, 3)
	assert.NotContains(t, client.queries[0].Where, "grade IS NOT NULL")
	assert.Contains(t, client.queries[1].Where, "AND grade IS NOT NULL")
	assert.NotEmpty(t, client.queries[2].Q)
	assert.Empty(t, client.queries[2].Where)
}

func TestResolve_StrictStructuredMatch(t *testing.T) {
	client := &MockInspectionClient{responses: []*domain.InspectionRecord{ungradedNoise, gradedMatch}}
	resolver := NewInspectionResolver(client, nil, ResolverConfig{}, nil)

	result, err := resolver.Resolve(context.Background(), scenarioIdentity())

	require.NoError(t, err)
	assert.Same(t, gradedMatch, result.Record)
	assert.Equal(t, "structured_strict", result.Stage)
	assert.Equal(t, 2, result.Queries)
}

func TestResolve_AllFourStages(t *testing.T) {
	client := &MockInspectionClient{responses: []*domain.InspectionRecord{
		ungradedNoise,
		gradedOther,
		ungradedNoise,
		gradedMatch,
	}}
	metrics := &MockMetrics{}
	resolver := NewInspectionResolver(client, metrics, ResolverConfig{}, nil)

	result, err := resolver.Resolve(context.Background(), scenarioIdentity())

	require.NoError(t, err)
	assert.Same(t, gradedMatch, result.Record)
	assert.Equal(t, "full_text_strict", result.Stage)
	assert.Equal(t, 4, result.Queries)
	assert.Equal(t, "grade IS NOT NULL", client.queries[3].Where)
	assert.Equal(t, []domain.Stage{
		domain.StageStructuredLoose,
		domain.StageStructuredStrict,
		domain.StageFullTextLoose,
		domain.StageFullTextStrict,
	}, metrics.queries)
}

func TestResolve_NoMatch(t *testing.T) {
	t.Run("nothing anywhere", func(t *testing.T) {
		client := &MockInspectionClient{}
		metrics := &MockMetrics{}
		resolver := NewInspectionResolver(client, metrics, ResolverConfig{}, nil)

		result, err := resolver.Resolve(context.Background(), scenarioIdentity())

		require.NoError(t, err)
		assert.False(t, result.Found())
		assert.Equal(t, 2, result.Queries)
		assert.Equal(t, []string{OutcomeNoMatch}, metrics.outcomes)
	})

	t.Run("full text result not verified", func(t *testing.T) {
		client := &MockInspectionClient{responses: []*domain.InspectionRecord{gradedOther, gradedOther}}
		resolver := NewInspectionResolver(client, nil, ResolverConfig{}, nil)

		result, err := resolver.Resolve(context.Background(), scenarioIdentity())

		require.NoError(t, err)
		assert.Nil(t, result.Record)
		assert.Equal(t, 2, result.Queries)
	})
}

func TestResolve_QueryBounds(t *testing.T) {
	records := []*domain.InspectionRecord{nil, gradedMatch, gradedOther, ungradedNoise}

	for _, a := range records {
		for _, b := range records {
			for _, c := range records {
				for _, d := range records {
					for _, zip := range []string{"", "10012"} {
						identity := scenarioIdentity()
						identity.Zipcode = zip
						client := &MockInspectionClient{responses: []*domain.InspectionRecord{a, b, c, d}}
						resolver := NewInspectionResolver(client, nil, ResolverConfig{}, nil)

						result, err := resolver.Resolve(context.Background(), identity)

						require.NoError(t, err)
						assert.GreaterOrEqual(t, result.Queries, 1)
						assert.LessOrEqual(t, result.Queries, 4)
						assert.Equal(t, len(client.queries), result.Queries)
						if result.Record != nil {
							assert.True(t, ValidateInspectionData(result.Record))
							assert.True(t, VerifyMatch(result.Record, identity))
						}
					}
				}
			}
		}
	}
}

func TestResolve_NetworkErrorAborts(t *testing.T) {
	client := &MockInspectionClient{
		responses: []*domain.InspectionRecord{nil},
		errs:      []error{nil, domain.ErrNetwork},
	}
	metrics := &MockMetrics{}
	resolver := NewInspectionResolver(client, metrics, ResolverConfig{}, nil)

	result, err := resolver.Resolve(context.Background(), scenarioIdentity())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Len(t, client.queries, 2)
	assert.Equal(t, []string{OutcomeError}, metrics.outcomes)
}

func TestResolve_TimeoutFallsBackToNoResult(t *testing.T) {
	client := &MockInspectionClient{delay: time.Second}
	metrics := &MockMetrics{}
	resolver := NewInspectionResolver(client, metrics, ResolverConfig{Timeout: 20 * time.Millisecond}, nil)

	result, err := resolver.Resolve(context.Background(), scenarioIdentity())

	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, []string{OutcomeTimeout}, metrics.outcomes)
}

func TestResolve_EarlyDeadlineRefusalFallsBackToNoResult(t *testing.T) {
	// A throttled client can give up before the deadline actually passes.
	client := &MockInspectionClient{
		errs: []error{fmt.Errorf("%w: rate limiter: %w", domain.ErrNetwork, context.DeadlineExceeded)},
	}
	metrics := &MockMetrics{}
	resolver := NewInspectionResolver(client, metrics, ResolverConfig{Timeout: time.Minute}, nil)

	result, err := resolver.Resolve(context.Background(), scenarioIdentity())

	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Len(t, client.queries, 1)
	assert.Equal(t, []string{OutcomeTimeout}, metrics.outcomes)
}

func TestResolve_CallerCancellation(t *testing.T) {
	client := &MockInspectionClient{delay: time.Second}
	resolver := NewInspectionResolver(client, nil, ResolverConfig{Timeout: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result, err := resolver.Resolve(ctx, scenarioIdentity())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrResolutionCancelled)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResolve_NilIdentity(t *testing.T) {
	resolver := NewInspectionResolver(&MockInspectionClient{}, nil, ResolverConfig{}, nil)

	_, err := resolver.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
