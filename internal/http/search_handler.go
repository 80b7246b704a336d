package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/query"
	"github.com/fjod/go_cart/storefront/internal/search"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"go.uber.org/zap"
)

type Searcher interface {
	Search(ctx context.Context, q domain.ParsedQuery) (*search.Result, error)
}

type SearchHandler struct {
	sessions *session.Manager
	searcher Searcher
}

func NewSearchHandler(sessions *session.Manager, searcher Searcher) *SearchHandler {
	return &SearchHandler{
		sessions: sessions,
		searcher: searcher,
	}
}

type ParseResponse struct {
	Query       domain.ParsedQuery `json:"query"`
	Params      string             `json:"params"`
	Description string             `json:"description"`
}

type SearchResponse struct {
	search.Outcome
	Stale bool `json:"stale"`
}

func (h *SearchHandler) Parse(w http.ResponseWriter, r *http.Request) {
	q := query.Parse(r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, ParseResponse{
		Query:       q,
		Params:      query.Values(q).Encode(),
		Description: query.Describe(q),
	})
}

// Search interprets q and forwards it to smart-search. A newer search from
// the same session cancels this one; a response that arrives after a newer
// one was published is returned but marked stale.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("q")
	if strings.TrimSpace(raw) == "" {
		respondError(w, http.StatusBadRequest, "invalid_query", "q is required")
		return
	}

	parsed := query.Parse(raw)
	tracker, err := h.sessions.Searches(ctx, getSessionID(ctx))
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}
	searchCtx, token := tracker.Begin(ctx)
	defer tracker.Finish(token)

	result, err := h.searcher.Search(searchCtx, parsed)
	if err != nil {
		h.handleSearchError(ctx, w, err)
		return
	}

	outcome := search.Outcome{
		Token:       token,
		Raw:         raw,
		Query:       parsed,
		Result:      result,
		CompletedAt: time.Now(),
	}
	visible := tracker.Commit(outcome)
	respondJSON(w, http.StatusOK, SearchResponse{Outcome: outcome, Stale: !visible})
}

func (h *SearchHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracker, err := h.sessions.Searches(ctx, getSessionID(ctx))
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}
	outcome, ok := tracker.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "no search yet")
		return
	}
	respondJSON(w, http.StatusOK, SearchResponse{Outcome: outcome})
}

func (h *SearchHandler) handleSearchError(ctx context.Context, w http.ResponseWriter, err error) {
	var statusErr *search.StatusError

	// The timeout middleware answers 504 itself once the request deadline
	// has passed.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.FromContext(ctx).Warn("search outlived request deadline", zap.Error(err))
		return
	}

	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		respondError(w, http.StatusConflict, "superseded", "a newer search replaced this one")
	case circuitbreaker.IsOpen(err):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "search is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "search timed out")
	case errors.As(err, &statusErr):
		logger.FromContext(ctx).Warn("search upstream error", zap.Int("status", statusErr.StatusCode))
		respondError(w, http.StatusBadGateway, "upstream_error", statusErr.Error())
	default:
		logger.FromContext(ctx).Error("search failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "upstream_error", "search failed")
	}
}
