package filter

import (
	"fmt"
	"strconv"
	"strings"

	filtererrors "carrent/internal/filter/errors"
	"carrent/pkg/model"
	"carrent/pkg/sanitizer"
)

// Criteria holds the optional predicates. A nil field is absent and matches
// everything; a zero MaxPrice is a real bound that keeps only free offers.
type Criteria struct {
	Brand    *string `json:"brand,omitempty"`
	MaxPrice *int    `json:"max_price,omitempty"`
}

func WithBrand(brand string) Criteria {
	return Criteria{Brand: &brand}
}

func WithMaxPrice(price int) Criteria {
	return Criteria{MaxPrice: &price}
}

// ParseCriteria builds Criteria from raw settings. Empty strings mean absent.
func ParseCriteria(brand, maxPrice string) (Criteria, error) {
	var c Criteria

	if b := sanitizer.NormalizeBrand(brand); b != "" {
		c.Brand = &b
	}

	if p := strings.TrimSpace(maxPrice); p != "" {
		price, err := strconv.Atoi(p)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: max price %q is not an integer", filtererrors.ErrInvalidCriteria, maxPrice)
		}
		if price < 0 {
			return Criteria{}, fmt.Errorf("%w: max price %d is negative", filtererrors.ErrInvalidCriteria, price)
		}
		c.MaxPrice = &price
	}

	return c, nil
}

func (c Criteria) Match(o model.Offer) bool {
	if c.Brand != nil && o.Brand != *c.Brand {
		return false
	}
	if c.MaxPrice != nil && o.Price > *c.MaxPrice {
		return false
	}
	return true
}

// Apply returns the offers matching c, preserving input order.
func (c Criteria) Apply(offers []model.Offer) []model.Offer {
	out := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if c.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

func (c Criteria) String() string {
	brand, price := "*", "*"
	if c.Brand != nil {
		brand = *c.Brand
	}
	if c.MaxPrice != nil {
		price = strconv.Itoa(*c.MaxPrice)
	}
	return fmt.Sprintf("brand=%s max_price=%s", brand, price)
}
