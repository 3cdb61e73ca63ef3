package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/doctor-finder/internal/doctor"
	"github.com/yourorg/doctor-finder/internal/filter"
)

var uae = []doctor.Doctor{
	{ID: "amina", City: "Dubai", Country: "UAE", Latitude: 25.2, Longitude: 55.3},
	{ID: "bilal", City: "Abu Dhabi", Country: "UAE", Latitude: 24.4, Longitude: 54.4},
}

func lookup(id string) (doctor.Doctor, bool) {
	for _, d := range uae {
		if d.ID == id {
			return d, true
		}
	}
	return doctor.Doctor{}, false
}

func TestPlanDefaultRegion(t *testing.T) {
	got := Plan(uae, filter.State{}, lookup)
	assert.Equal(t, Camera{Center: DefaultCenter, Zoom: CountryZoom}, got)
}

func TestPlanCountryAveragesCoordinates(t *testing.T) {
	got := Plan(uae, filter.State{Country: "UAE"}, lookup)
	assert.Equal(t, CountryZoom, got.Zoom)
	assert.InDelta(t, 24.8, got.Center.Lat, 1e-9)
	assert.InDelta(t, 54.85, got.Center.Lng, 1e-9)
}

func TestPlanCityUsesFirstMatchingDoctor(t *testing.T) {
	subset := []doctor.Doctor{uae[0]}
	got := Plan(subset, filter.State{Country: "UAE", City: "Dubai"}, lookup)
	assert.Equal(t, Camera{Center: LatLng{Lat: 25.2, Lng: 55.3}, Zoom: CityZoom}, got)
}

func TestPlanSelectionWinsOverFilters(t *testing.T) {
	st := filter.State{Country: "UAE", City: "Dubai", SelectedDoctorID: "bilal"}
	got := Plan([]doctor.Doctor{uae[0]}, st, lookup)
	assert.Equal(t, Camera{Center: LatLng{Lat: 24.4, Lng: 54.4}, Zoom: DetailZoom}, got)
}

func TestPlanUnknownSelectionFallsThrough(t *testing.T) {
	st := filter.State{Country: "UAE", SelectedDoctorID: "nobody"}
	got := Plan(uae, st, lookup)
	assert.Equal(t, CountryZoom, got.Zoom)
}

func TestPlanEmptySubsetWithCountry(t *testing.T) {
	got := Plan(nil, filter.State{Country: "UAE"}, lookup)
	assert.Equal(t, Camera{Center: DefaultCenter, Zoom: CountryZoom}, got)
}

func TestPlanDeterministic(t *testing.T) {
	st := filter.State{Country: "UAE"}
	first := Plan(uae, st, lookup)
	second := Plan(uae, st, lookup)
	assert.True(t, first.Equal(second))
}

func TestCameraUnset(t *testing.T) {
	assert.True(t, Camera{}.Unset())
	assert.False(t, Plan(uae, filter.State{}, lookup).Unset())
}
