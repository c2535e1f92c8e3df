package model

// TimeWindow is one open/close span using zero-padded 24h clock strings.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Place is the persisted unit produced by the ingest pipeline.
// Days absent from Availability are closed.
type Place struct {
	ExternalID   string                `json:"external_id"`
	Name         string                `json:"name"`
	Address      string                `json:"address"`
	Latitude     float64               `json:"latitude"`
	Longitude    float64               `json:"longitude"`
	Availability map[string]TimeWindow `json:"availability"`
	MapURI       string                `json:"map_uri,omitempty"`
	Timezone     string                `json:"timezone,omitempty"`
	Rating       float64               `json:"rating"`
	RatingCount  int                   `json:"rating_count"`
	Query        string                `json:"query"`
}

// Valid reports whether the place carries the fields required for upsert.
func (p *Place) Valid() bool {
	return p.ExternalID != "" && p.Name != ""
}

// IngestParams holds all configuration for one ingest run.
type IngestParams struct {
	APIKey   string
	Location string
	Country  string
	Category string // search term, e.g. "bars"

	MaxResults  int // result cap after ranking
	MaxPages    int // pagination ceiling
	Concurrency int // concurrent detail fetches (1 = sequential)

	FieldMask string // detail fields requested from the API
	GeoFilter bool   // drop results outside the geocoded region bound
	ProxyURL  string // HTTP/SOCKS5 proxy URL (optional)
	Debug     bool   // dump raw responses
}
