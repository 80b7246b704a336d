package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/search"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ReturnsFiltersAndParams(t *testing.T) {
	h := setupRouter(t, defaultCatalog(), nil)

	rec := do(t, h, http.MethodGet, "/api/v1/search/parse?q=formal+shirt+under+500", sessionOne, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ParseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.CategoryShirt, resp.Query.Category)
	assert.Equal(t, domain.StyleFormal, resp.Query.Style)
	require.NotNil(t, resp.Query.Price)
	assert.Equal(t, int64(500), resp.Query.Price.Max)
	assert.Equal(t, "category=shirt&max_price=500&min_price=0&style=formal", resp.Params)
	assert.Equal(t, "formal shirt 0-500", resp.Description)
}

func TestSearch_ForwardsAndPublishes(t *testing.T) {
	var got domain.ParsedQuery
	searcher := searcherMock{fn: func(_ context.Context, q domain.ParsedQuery) (*search.Result, error) {
		got = q
		return &search.Result{Products: []json.RawMessage{json.RawMessage(`{"id":"p1"}`)}}, nil
	}}
	h := setupRouter(t, defaultCatalog(), searcher)

	rec := do(t, h, http.MethodGet, "/api/v1/search?q=300-700+red+dress", sessionOne, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Stale)
	assert.Equal(t, "300-700 red dress", resp.Raw)
	assert.Equal(t, domain.CategoryDress, got.Category)
	assert.Equal(t, domain.ColorRed, got.Color)
	require.Len(t, resp.Result.Products, 1)

	rec = do(t, h, http.MethodGet, "/api/v1/search/latest", sessionOne, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&latest))
	assert.Equal(t, resp.Token, latest.Token)
}

func TestSearch_EmptyQuery(t *testing.T) {
	h := setupRouter(t, defaultCatalog(), nil)

	rec := do(t, h, http.MethodGet, "/api/v1/search?q=++", sessionOne, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatest_NoSearchYet(t *testing.T) {
	h := setupRouter(t, defaultCatalog(), nil)

	rec := do(t, h, http.MethodGet, "/api/v1/search/latest", sessionOne, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch_NewerSearchSupersedesOlder(t *testing.T) {
	started := make(chan struct{})
	searcher := searcherMock{fn: func(ctx context.Context, q domain.ParsedQuery) (*search.Result, error) {
		if q.Search == "slow" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &search.Result{Products: []json.RawMessage{}}, nil
	}}
	h := setupRouter(t, defaultCatalog(), searcher)

	var wg sync.WaitGroup
	var slow *httptest.ResponseRecorder
	wg.Add(1)
	go func() {
		defer wg.Done()
		slow = do(t, h, http.MethodGet, "/api/v1/search?q=slow", sessionOne, "")
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("slow search did not start")
	}

	fast := do(t, h, http.MethodGet, "/api/v1/search?q=fast", sessionOne, "")
	wg.Wait()

	assert.Equal(t, http.StatusOK, fast.Code)
	assert.Equal(t, http.StatusConflict, slow.Code)
	assert.Equal(t, "superseded", decodeError(t, slow).Code)

	rec := do(t, h, http.MethodGet, "/api/v1/search/latest", sessionOne, "")
	var latest SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&latest))
	assert.Equal(t, "fast", latest.Raw)
}

func TestSearch_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"status error", &search.StatusError{StatusCode: 500, Body: "boom"}, http.StatusBadGateway, "upstream_error"},
		{"breaker open", gobreaker.ErrOpenState, http.StatusServiceUnavailable, "service_unavailable"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := searcherMock{fn: func(context.Context, domain.ParsedQuery) (*search.Result, error) {
				return nil, tt.err
			}}
			h := setupRouter(t, defaultCatalog(), searcher)

			rec := do(t, h, http.MethodGet, "/api/v1/search?q=red", sessionOne, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestSearch_LateResponseIsMarkedStale(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	searcher := searcherMock{fn: func(_ context.Context, q domain.ParsedQuery) (*search.Result, error) {
		if q.Search == "slow" {
			close(started)
			<-release
			return &search.Result{Products: []json.RawMessage{json.RawMessage(`{"id":"old"}`)}}, nil
		}
		return &search.Result{Products: []json.RawMessage{json.RawMessage(`{"id":"new"}`)}}, nil
	}}
	h := setupRouter(t, defaultCatalog(), searcher)

	var wg sync.WaitGroup
	var slow *httptest.ResponseRecorder
	wg.Add(1)
	go func() {
		defer wg.Done()
		slow = do(t, h, http.MethodGet, "/api/v1/search?q=slow", sessionOne, "")
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("slow search did not start")
	}

	fast := do(t, h, http.MethodGet, "/api/v1/search?q=fast", sessionOne, "")
	require.Equal(t, http.StatusOK, fast.Code)

	close(release)
	wg.Wait()

	require.Equal(t, http.StatusOK, slow.Code)
	var late SearchResponse
	require.NoError(t, json.NewDecoder(slow.Body).Decode(&late))
	assert.True(t, late.Stale)
	assert.Equal(t, "slow", late.Raw)

	rec := do(t, h, http.MethodGet, "/api/v1/search/latest", sessionOne, "")
	var latest SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&latest))
	assert.Equal(t, "fast", latest.Raw)
	assert.False(t, latest.Stale)
	require.Len(t, latest.Result.Products, 1)
	assert.JSONEq(t, `{"id":"new"}`, string(latest.Result.Products[0]))
}

func TestSearch_RequestDeadlineAnsweredByTimeoutMiddleware(t *testing.T) {
	searcher := searcherMock{fn: func(ctx context.Context, _ domain.ParsedQuery) (*search.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	sessions := session.NewManager(nil, time.Hour, nil)
	t.Cleanup(sessions.Close)
	h := newTestRouter(20*time.Millisecond, sessions, defaultCatalog(), searcher)

	rec := do(t, h, http.MethodGet, "/api/v1/search?q=red", sessionOne, "")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Zero(t, rec.Body.Len())
}
