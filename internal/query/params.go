package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Outgoing parameter names understood by the smart-search endpoint.
const (
	ParamStyle    = "style"
	ParamCategory = "category"
	ParamColor    = "color"
	ParamMinPrice = "min_price"
	ParamMaxPrice = "max_price"
	ParamSearch   = "search"
)

// Values encodes q as smart-search URL parameters. The free-text term is only
// sent when no structured filter is present.
func Values(q domain.ParsedQuery) url.Values {
	v := url.Values{}
	if q.Style != "" {
		v.Set(ParamStyle, string(q.Style))
	}
	if q.Category != "" {
		v.Set(ParamCategory, string(q.Category))
	}
	if q.Color != "" {
		v.Set(ParamColor, string(q.Color))
	}
	if q.Price != nil {
		v.Set(ParamMinPrice, strconv.FormatInt(q.Price.Min, 10))
		v.Set(ParamMaxPrice, strconv.FormatInt(q.Price.Max, 10))
	}
	if len(v) == 0 && q.Search != "" {
		v.Set(ParamSearch, q.Search)
	}
	return v
}

// Describe renders the detected filters for display, e.g. "formal shirt red 0-500".
func Describe(q domain.ParsedQuery) string {
	var parts []string
	if q.Style != "" {
		parts = append(parts, string(q.Style))
	}
	if q.Category != "" {
		parts = append(parts, string(q.Category))
	}
	if q.Color != "" {
		parts = append(parts, string(q.Color))
	}
	if q.Price != nil {
		parts = append(parts, fmt.Sprintf("%d-%d", q.Price.Min, q.Price.Max))
	}
	return strings.Join(parts, " ")
}
