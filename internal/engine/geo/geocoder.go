package geo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
)

type nominatimResult struct {
	BoundingBox []string `json:"boundingbox"` // [minLat, maxLat, minLng, maxLng]
	DisplayName string   `json:"display_name"`
}

// GeocodeArea returns the bounding box for a location within a country
// using the OSM Nominatim API.
func GeocodeArea(location, country string) (orb.Bound, error) {
	q := location
	if country != "" {
		q = location + ", " + country
	}

	u := "https://nominatim.openstreetmap.org/search?" + url.Values{
		"q":      {q},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "bluette-placefetch/0.1 (venue ingest)")

	resp, err := client.Do(req)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return orb.Bound{}, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return orb.Bound{}, fmt.Errorf("decoding geocoding response: %w", err)
	}

	if len(results) == 0 {
		return orb.Bound{}, fmt.Errorf("area %q not found", q)
	}

	bb := results[0].BoundingBox
	if len(bb) < 4 {
		return orb.Bound{}, fmt.Errorf("invalid bounding box from geocoder")
	}

	// Nominatim returns [minLat, maxLat, minLng, maxLng] as strings
	minLat, _ := strconv.ParseFloat(bb[0], 64)
	maxLat, _ := strconv.ParseFloat(bb[1], 64)
	minLng, _ := strconv.ParseFloat(bb[2], 64)
	maxLng, _ := strconv.ParseFloat(bb[3], 64)

	// orb points are [lng, lat]
	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}, nil
}
