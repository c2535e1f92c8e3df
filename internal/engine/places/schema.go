package places

// Domain-level status values returned in the directory API's "status" field.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location Location `json:"location"`
}

// SearchResult is one candidate returned by a text search. It is transient:
// once its PlaceID has been used for a details call it is discarded.
type SearchResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
}

// SearchResponse is the body of a text-search call.
type SearchResponse struct {
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
	Results       []SearchResult `json:"results"`
	NextPageToken string         `json:"next_page_token"`
}

// PeriodPoint is one side of an opening period. Day is 0-6, Sunday=0.
// Time is a zero-padded "HHMM" clock string.
type PeriodPoint struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

// Period is one raw opening period. Close is absent when the source gives
// no closing time (open until end of day).
type Period struct {
	Open  *PeriodPoint `json:"open"`
	Close *PeriodPoint `json:"close"`
}

type OpeningHours struct {
	Periods []Period `json:"periods"`
}

// PlaceDetails is the detail record for one place.
type PlaceDetails struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address"`
	Geometry         Geometry      `json:"geometry"`
	OpeningHours     *OpeningHours `json:"opening_hours"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int           `json:"user_ratings_total"`
	URL              string        `json:"url"`
	Timezone         string        `json:"timezone"`
}

// DetailsResponse is the body of a details call.
type DetailsResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Result       *PlaceDetails `json:"result"`
}
