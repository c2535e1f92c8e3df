package places

import (
	"errors"
	"testing"
)

func TestBuildPlace_MapsAllFields(t *testing.T) {
	details := &PlaceDetails{
		PlaceID:          "ChIJ123",
		Name:             "Le Comptoir",
		FormattedAddress: "12 Rue des Dames, 75017 Paris",
		Geometry:         Geometry{Location: Location{Lat: 48.8845, Lng: 2.3215}},
		OpeningHours: &OpeningHours{Periods: []Period{
			{Open: pt(1, "1700"), Close: pt(2, "0100")},
		}},
		Rating:           4.5,
		UserRatingsTotal: 320,
		URL:              "https://maps.example.com/?id=ChIJ123",
		Timezone:         "Europe/Paris",
	}

	place, err := buildPlace(details, "bars")
	if err != nil {
		t.Fatalf("buildPlace failed: %v", err)
	}
	if place.ExternalID != "ChIJ123" || place.Name != "Le Comptoir" {
		t.Errorf("identity fields wrong: %+v", place)
	}
	if place.Latitude != 48.8845 || place.Longitude != 2.3215 {
		t.Errorf("coordinates wrong: %+v", place)
	}
	if place.MapURI == "" || place.Timezone != "Europe/Paris" {
		t.Errorf("enrichment fields not carried: %+v", place)
	}
	w, ok := place.Availability["monday"]
	if !ok || w.Start != "17:00" || w.End != "23:59" {
		t.Errorf("availability not normalized: %v", place.Availability)
	}
}

func TestBuildPlace_OptionalFieldsDefault(t *testing.T) {
	place, err := buildPlace(&PlaceDetails{PlaceID: "x", Name: "Bar X"}, "bars")
	if err != nil {
		t.Fatalf("buildPlace failed: %v", err)
	}
	if place.Address != "" || place.Latitude != 0 || place.Longitude != 0 {
		t.Errorf("expected zero defaults: %+v", place)
	}
	if place.Availability == nil || len(place.Availability) != 0 {
		t.Errorf("expected empty availability, got %v", place.Availability)
	}
}

func TestBuildPlace_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		details PlaceDetails
	}{
		{"empty id", PlaceDetails{Name: "Bar X"}},
		{"empty name", PlaceDetails{PlaceID: "x"}},
		{"both empty", PlaceDetails{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildPlace(&tc.details, "bars")
			if !errors.Is(err, ErrMissingFields) {
				t.Errorf("expected ErrMissingFields, got %v", err)
			}
		})
	}
}
