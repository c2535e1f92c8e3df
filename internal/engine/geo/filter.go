package geo

import (
	"github.com/paulmach/orb"

	"github.com/nablem/bluette/internal/model"
)

// Within reports whether the place's coordinates fall inside the bound.
// Places with no coordinates (0,0 default) are kept: absence of geometry is
// not evidence the venue is out of area.
func Within(bound orb.Bound, p model.Place) bool {
	if p.Latitude == 0 && p.Longitude == 0 {
		return true
	}
	return bound.Contains(orb.Point{p.Longitude, p.Latitude}) // orb.Point is [lng, lat]
}
