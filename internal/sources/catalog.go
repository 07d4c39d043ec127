package sources

import (
	"fmt"

	"carrent/pkg/model"
)

type catalogEntry struct {
	price int
	brand string
}

var catalogEntries = []catalogEntry{
	{price: 1000, brand: "LADA"},
	{price: 5000, brand: "MITSUBISHI"},
	{price: 3000, brand: "KIA"},
	{price: 2000, brand: "DAEWOO"},
	{price: 10000, brand: "PORSCHE"},
}

// CatalogSize is the number of offers every source returns.
var CatalogSize = len(catalogEntries)

// Catalog returns the fixed offers of one source. Urls embed the source id so
// offers from different sources never share an identity.
func Catalog(sourceID string) []model.Offer {
	offers := make([]model.Offer, 0, len(catalogEntries))
	for i, entry := range catalogEntries {
		offers = append(offers, model.Offer{
			URL:   OfferURL(sourceID, i+1),
			Price: entry.price,
			Brand: entry.brand,
		})
	}
	return offers
}

func OfferURL(sourceID string, id int) string {
	return fmt.Sprintf("http://%s/car?id=%d", sourceID, id)
}
