// Package query turns free-text search input into structured filters.
//
// Every dimension is resolved by scanning a fixed, ordered table of patterns
// and keeping the first hit. Parse performs no I/O.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// MaxPriceCeiling is the upper bound used for "above N" searches.
const MaxPriceCeiling int64 = 10000

var (
	priceUnder = regexp.MustCompile(`(under|below|less than|upto)\s*(\d+)`)
	priceRange = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	priceAbove = regexp.MustCompile(`(above|over|more than)\s*(\d+)`)
)

type rule[T any] struct {
	value   T
	pattern *regexp.Regexp
}

func words(ws ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + strings.Join(ws, "|") + `)\b`)
}

// Order matters: the first matching entry wins.
var categories = []rule[domain.Category]{
	{domain.CategoryShirt, words("shirt", "shirts", "top", "tops", "t-shirt", "tshirt")},
	{domain.CategoryPant, words("pant", "pants", "trouser", "trousers", "jeans", "jean")},
	{domain.CategoryShoe, words("shoe", "shoes", "footwear", "sneaker", "sneakers")},
	{domain.CategoryBelt, words("belt", "belts")},
	{domain.CategoryDress, words("dress", "dresses", "gown", "gowns")},
	{domain.CategoryClothing, words("cloth", "clothes", "clothing", "apparel", "wear")},
}

var styles = []rule[domain.Style]{
	{domain.StyleFormal, words("formal", "office", "business", "corporate")},
	{domain.StyleCasual, words("casual", "everyday", "regular", "comfort")},
	{domain.StyleParty, words("party", "night", "celebration", "festive", "evening")},
	{domain.StyleSports, words("sports", "sport", "active", "athletic", "gym")},
	{domain.StyleTraditional, words("traditional", "ethnic", "cultural", "indian")},
}

var colors = []rule[domain.Color]{
	{domain.ColorRed, words("red", "scarlet", "crimson", "maroon")},
	{domain.ColorBlue, words("blue", "navy", "sky", "azure")},
	{domain.ColorBlack, words("black", "ebony", "charcoal")},
	{domain.ColorWhite, words("white", "ivory", "cream")},
	{domain.ColorGreen, words("green", "emerald", "olive")},
	{domain.ColorYellow, words("yellow", "gold", "mustard")},
	{domain.ColorPink, words("pink", "rose", "fuchsia")},
	{domain.ColorPurple, words("purple", "violet", "lavender")},
	{domain.ColorBrown, words("brown", "tan", "beige")},
	{domain.ColorGray, words("gray", "grey", "silver")},
}

// Parse extracts category, style, color and price range from raw. When none
// of them is found the trimmed input is kept as a full-text search term.
func Parse(raw string) domain.ParsedQuery {
	trimmed := strings.TrimSpace(raw)
	text := strings.ToLower(trimmed)
	if text == "" {
		return domain.ParsedQuery{}
	}

	q := domain.ParsedQuery{
		Price:    parsePrice(text),
		Category: firstMatch(categories, text),
		Style:    firstMatch(styles, text),
		Color:    firstMatch(colors, text),
	}
	if !q.HasFilters() {
		q.Search = trimmed
	}
	return q
}

func firstMatch[T comparable](rules []rule[T], text string) T {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.value
		}
	}
	var zero T
	return zero
}

// parsePrice tries "under N", then "N-M", then "above N". A range with N > M
// is returned as written.
func parsePrice(text string) *domain.PriceRange {
	if m := priceUnder.FindStringSubmatch(text); m != nil {
		if hi, ok := parseAmount(m[2]); ok {
			return &domain.PriceRange{Min: 0, Max: hi}
		}
	}
	if m := priceRange.FindStringSubmatch(text); m != nil {
		lo, okLo := parseAmount(m[1])
		hi, okHi := parseAmount(m[2])
		if okLo && okHi {
			return &domain.PriceRange{Min: lo, Max: hi}
		}
	}
	if m := priceAbove.FindStringSubmatch(text); m != nil {
		if lo, ok := parseAmount(m[2]); ok {
			return &domain.PriceRange{Min: lo, Max: MaxPriceCeiling}
		}
	}
	return nil
}

// parseAmount rejects digit runs that overflow int64.
func parseAmount(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
