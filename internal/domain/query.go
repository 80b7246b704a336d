package domain

type Category string

const (
	CategoryShirt    Category = "shirt"
	CategoryPant     Category = "pant"
	CategoryShoe     Category = "shoe"
	CategoryBelt     Category = "belt"
	CategoryDress    Category = "dress"
	CategoryClothing Category = "clothing"
)

type Style string

const (
	StyleFormal      Style = "formal"
	StyleCasual      Style = "casual"
	StyleParty       Style = "party"
	StyleSports      Style = "sports"
	StyleTraditional Style = "traditional"
)

type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorBlack  Color = "black"
	ColorWhite  Color = "white"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
	ColorBrown  Color = "brown"
	ColorGray   Color = "gray"
)

// PriceRange is an inclusive price window in whole currency units.
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ParsedQuery holds the structured filters extracted from a free-text search.
// Empty string fields and a nil Price mean "not detected". Search carries the
// raw text only when nothing else was detected.
type ParsedQuery struct {
	Category Category    `json:"category,omitempty"`
	Style    Style       `json:"style,omitempty"`
	Color    Color       `json:"color,omitempty"`
	Price    *PriceRange `json:"price_range,omitempty"`
	Search   string      `json:"search,omitempty"`
}

// HasFilters reports whether any structured field was detected.
func (q ParsedQuery) HasFilters() bool {
	return q.Category != "" || q.Style != "" || q.Color != "" || q.Price != nil
}

func (q ParsedQuery) IsEmpty() bool {
	return !q.HasFilters() && q.Search == ""
}
