package soda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:           baseURL,
		Dataset:           "43nn-pn8j",
		RequestsPerSecond: 100,
	}, logger.Discard())
}

func TestNewClient(t *testing.T) {
	client := NewClient(Options{BaseURL: "https://data.example.com/", Dataset: "abcd-1234"}, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "https://data.example.com", client.baseURL)
	assert.Equal(t, "abcd-1234", client.dataset)
	assert.Equal(t, 3, client.maxRetries)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := newTestClient("https://data.example.com")

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestFindMostRecent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/43nn-pn8j.json", r.URL.Path)
		assert.Equal(t, "phone='2125551234'", r.URL.Query().Get("$where"))
		assert.Equal(t, "inspection_date DESC", r.URL.Query().Get("$order"))
		assert.Equal(t, "1", r.URL.Query().Get("$limit"))
		assert.Empty(t, r.Header.Get("X-App-Token"))

		rows := []domain.InspectionRecord{
			{DBA: "JOE'S PIZZA", Building: "7", Phone: "2125551234", Grade: "A", InspectionDate: "2024-03-05T00:00:00.000"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	record, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{
		Where: "phone='2125551234'",
		Order: "inspection_date DESC",
		Limit: "1",
	})

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "A", record.Grade)
	assert.Equal(t, "7", record.Building)
}

func TestFindMostRecent_SendsAppToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("X-App-Token"))
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Dataset: "x", AppToken: "secret-token"}, nil)

	_, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{Q: "joe"})
	require.NoError(t, err)
}

func TestFindMostRecent_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	record, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{Q: "nowhere"})

	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestFindMostRecent_ServerError_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"dba":"RETRIED","grade":"B"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	record, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{Q: "retry"})

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "RETRIED", record.DBA)
	assert.Equal(t, 3, attempts)
}

func TestFindMostRecent_TooManyRequests_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"dba":"OK"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	record, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{Q: "throttled"})

	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.Equal(t, 2, attempts)
}

func TestFindMostRecent_ClientError_NoRetry(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid SoQL query"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	record, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{Where: "bad ("})

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, attempts)
}

func TestFindMostRecent_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	record, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{Q: "x"})

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestFindMostRecent_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	record, err := client.FindMostRecent(ctx, domain.InspectionQuery{Q: "slow"})

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFindMostRecent_LimiterWaitPastDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL:           server.URL,
		Dataset:           "43nn-pn8j",
		RequestsPerSecond: 0.01,
	}, logger.Discard())

	// Drain the burst so the next token is ~100s away.
	for i := 0; i < 4; i++ {
		require.True(t, client.rateLimiter.Allow())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	record, err := client.FindMostRecent(ctx, domain.InspectionQuery{Q: "throttled"})

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, ctx.Err())
	assert.Less(t, time.Since(start), time.Second)
}

func TestFindMostRecent_RetriesExhausted(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL:           server.URL,
		Dataset:           "43nn-pn8j",
		MaxRetries:        2,
		RequestsPerSecond: 100,
	}, logger.Discard())

	start := time.Now()
	record, err := client.FindMostRecent(context.Background(), domain.InspectionQuery{Q: "down"})

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, 2, attempts)
	// one backoff between the two attempts, none after the last
	assert.Less(t, time.Since(start), time.Second)
}
