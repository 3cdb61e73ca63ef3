package camera

import (
	"github.com/yourorg/doctor-finder/internal/doctor"
	"github.com/yourorg/doctor-finder/internal/filter"
)

// Zoom levels, closest first.
const (
	DetailZoom  = 16
	CityZoom    = 12
	CountryZoom = 6
)

// DefaultCenter is the fallback region shown with no filter active (Dubai).
var DefaultCenter = LatLng{Lat: 25.276987, Lng: 55.296249}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Camera is the derived map position. The zero value means "unset": no plan
// has run yet. Compare with Equal, by value, when suppressing redundant moves.
type Camera struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

func (c Camera) Unset() bool { return c == Camera{} }

func (c Camera) Equal(o Camera) bool { return c == o }

// Plan computes the camera for the filtered subset and filter state. lookup
// resolves an explicitly selected doctor against the full set. Precedence:
// explicit selection, then city, then country, then the default region.
// Deterministic: identical inputs produce identical output.
func Plan(subset []doctor.Doctor, st filter.State, lookup func(id string) (doctor.Doctor, bool)) Camera {
	if st.SelectedDoctorID != "" && lookup != nil {
		if d, ok := lookup(st.SelectedDoctorID); ok {
			return Camera{Center: LatLng{Lat: d.Latitude, Lng: d.Longitude}, Zoom: DetailZoom}
		}
	}

	if st.City != "" {
		for _, d := range subset {
			if d.City == st.City {
				return Camera{Center: LatLng{Lat: d.Latitude, Lng: d.Longitude}, Zoom: CityZoom}
			}
		}
	}

	if st.Country != "" && len(subset) > 0 {
		var sumLat, sumLng float64
		for _, d := range subset {
			sumLat += d.Latitude
			sumLng += d.Longitude
		}
		n := float64(len(subset))
		return Camera{Center: LatLng{Lat: sumLat / n, Lng: sumLng / n}, Zoom: CountryZoom}
	}

	return Camera{Center: DefaultCenter, Zoom: CountryZoom}
}
