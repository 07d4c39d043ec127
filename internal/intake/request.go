package intake

import (
	"fmt"

	"carrent/pkg/sanitizer"
)

// BookingRequest asks the pipeline to book one offer for a requester out of
// everything the listed sources currently have. At most 20 sources are allowed.
type BookingRequest struct {
	RequesterID string   `json:"requester_id" validate:"required"`
	Sources     []string `json:"sources" validate:"required,min=1,max=20,dive,required"`
}

func (r *BookingRequest) normalize(defaultSources []string) {
	r.RequesterID = sanitizer.NormalizeRequesterID(r.RequesterID)
	r.Sources = sanitizer.NormalizeSources(r.Sources)
	if len(r.Sources) == 0 {
		r.Sources = sanitizer.NormalizeSources(defaultSources)
	}
}

// DemoRequests builds n requests, one per requester, all over the same sources.
func DemoRequests(n int, sources []string) []BookingRequest {
	requests := make([]BookingRequest, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		requests = append(requests, BookingRequest{
			RequesterID: fmt.Sprintf("requester-%d", i),
			Sources:     append([]string(nil), sources...),
		})
	}
	return requests
}
