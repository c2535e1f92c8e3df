package places

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nablem/bluette/internal/model"
)

// DefaultFieldMask lists the detail fields the enricher needs. Field
// selection is configuration, not pipeline logic; callers may narrow or
// widen it.
const DefaultFieldMask = "place_id,name,formatted_address,geometry,opening_hours,rating,user_ratings_total,url,timezone"

// ErrMissingFields marks a detail record lacking the identifier or name
// required for upsert. Such records are dropped and counted, never retried.
var ErrMissingFields = errors.New("missing required fields")

// enrich fetches the detail record for one candidate and maps it to a Place.
// Every failure mode is returned to the caller for counting; none of them
// may abort the surrounding batch.
func enrich(ctx context.Context, client *Client, placeID, query, fieldMask string) (model.Place, error) {
	resp, err := client.Details(ctx, placeID, fieldMask)
	if err != nil {
		return model.Place{}, fmt.Errorf("fetching details for %s: %w", placeID, err)
	}
	if resp.Result == nil {
		return model.Place{}, fmt.Errorf("no details for %s", placeID)
	}
	return buildPlace(resp.Result, query)
}

// buildPlace maps a detail record into the persisted entity shape. Optional
// fields default to their zero values; the identifier and name are required.
func buildPlace(d *PlaceDetails, query string) (model.Place, error) {
	p := model.Place{
		ExternalID:  d.PlaceID,
		Name:        d.Name,
		Address:     d.FormattedAddress,
		Latitude:    d.Geometry.Location.Lat,
		Longitude:   d.Geometry.Location.Lng,
		MapURI:      d.URL,
		Timezone:    d.Timezone,
		Rating:      d.Rating,
		RatingCount: d.UserRatingsTotal,
		Query:       query,
	}

	if d.OpeningHours != nil {
		p.Availability = NormalizeHours(d.OpeningHours.Periods)
	} else {
		p.Availability = map[string]model.TimeWindow{}
	}

	if !p.Valid() {
		return model.Place{}, fmt.Errorf("place %q: %w", d.PlaceID, ErrMissingFields)
	}
	return p, nil
}

func logEnrichFailure(logger *log.Logger, placeID string, err error) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		logger.Printf("DETAIL_FAILED id=%s status=%s fatal=%t", placeID, apiErr.Status, apiErr.Fatal())
	case errors.Is(err, ErrMissingFields):
		logger.Printf("DETAIL_DROPPED id=%s err=%v", placeID, err)
	default:
		logger.Printf("DETAIL_ERROR id=%s err=%v", placeID, err)
	}
}
