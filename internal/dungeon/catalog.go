package dungeon

import (
	"fmt"
	"strings"
)

// RoomCategory is a room size class. Its ordinal indexes the Catalog.
type RoomCategory int

const (
	Small RoomCategory = iota
	Medium
	Large
	Huge

	numCategories = 4
)

// AllCategories returns every category in catalog order.
func AllCategories() []RoomCategory {
	return []RoomCategory{Small, Medium, Large, Huge}
}

// String returns the string representation of a RoomCategory
func (c RoomCategory) String() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	case Huge:
		return "huge"
	default:
		return "unknown"
	}
}

// ParseRoomCategory converts a category name back to its value.
func ParseRoomCategory(s string) (RoomCategory, error) {
	for _, c := range AllCategories() {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown room category %q", s)
}

// SizeBounds is the inclusive width/height range for one category.
type SizeBounds struct {
	Min Size
	Max Size
}

// Catalog maps each category to its size bounds. It is fixed once a Map
// is constructed.
type Catalog struct {
	bounds [numCategories]SizeBounds
}

// DefaultCatalog returns the standard room size table.
func DefaultCatalog() Catalog {
	return Catalog{bounds: [numCategories]SizeBounds{
		Small:  {Min: Size{3, 3}, Max: Size{5, 5}},
		Medium: {Min: Size{5, 5}, Max: Size{7, 7}},
		Large:  {Min: Size{7, 7}, Max: Size{9, 9}},
		Huge:   {Min: Size{9, 9}, Max: Size{17, 17}},
	}}
}

// NewCatalog builds a catalog from explicit bounds. Every category must be
// present with 1 <= min <= max on both axes.
func NewCatalog(bounds map[RoomCategory]SizeBounds) (Catalog, error) {
	var c Catalog
	for _, cat := range AllCategories() {
		b, ok := bounds[cat]
		if !ok {
			return Catalog{}, fmt.Errorf("%w: missing category %s", ErrInvalidCatalog, cat)
		}
		c.bounds[cat] = b
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// validate checks 1 <= min <= max on both axes for every category. The
// zero Catalog fails it.
func (c Catalog) validate() error {
	for _, cat := range AllCategories() {
		b := c.bounds[cat]
		if b.Min.Width < 1 || b.Min.Height < 1 {
			return fmt.Errorf("%w: %s minimum %s must be at least 1x1", ErrInvalidCatalog, cat, b.Min)
		}
		if b.Min.Width > b.Max.Width || b.Min.Height > b.Max.Height {
			return fmt.Errorf("%w: %s minimum %s exceeds maximum %s", ErrInvalidCatalog, cat, b.Min, b.Max)
		}
	}
	return nil
}

// fitsWithMargin reports whether the minimum size of at least one category
// fits a grid of the given dimensions with a one tile margin on every side.
func (c Catalog) fitsWithMargin(dims Size) bool {
	for _, b := range c.bounds {
		if b.Min.Width <= dims.Width-2 && b.Min.Height <= dims.Height-2 {
			return true
		}
	}
	return false
}

// Len returns the number of categories.
func (c Catalog) Len() int {
	return len(c.bounds)
}

// SizeFor returns the bounds of a category.
func (c Catalog) SizeFor(cat RoomCategory) SizeBounds {
	return c.bounds[cat]
}

// MinSize returns the smallest minimum width and height over all categories.
// The two axes may come from different categories.
func (c Catalog) MinSize() Size {
	s := c.bounds[0].Min
	for _, b := range c.bounds[1:] {
		s.Width = min(s.Width, b.Min.Width)
		s.Height = min(s.Height, b.Min.Height)
	}
	return s
}

// MaxSize returns the largest maximum width and height over all categories.
func (c Catalog) MaxSize() Size {
	s := c.bounds[0].Max
	for _, b := range c.bounds[1:] {
		s.Width = max(s.Width, b.Max.Width)
		s.Height = max(s.Height, b.Max.Height)
	}
	return s
}
