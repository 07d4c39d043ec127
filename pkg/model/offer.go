package model

import "fmt"

// Offer is one car available from a rental source. It is produced by a source
// client and never mutated afterwards; URL is the identity key.
type Offer struct {
	URL   string `json:"url" validate:"required"`
	Price int    `json:"price" validate:"gte=0"`
	Brand string `json:"brand" validate:"required"`
}

func (o Offer) String() string {
	return fmt.Sprintf("%s (%s, %d)", o.URL, o.Brand, o.Price)
}

// URLs returns the urls of offers in input order.
func URLs(offers []Offer) []string {
	urls := make([]string, 0, len(offers))
	for _, o := range offers {
		urls = append(urls, o.URL)
	}
	return urls
}
