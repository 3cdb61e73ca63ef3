package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/doctor-finder/internal/doctor"
)

var sample = []doctor.Doctor{
	{ID: "amina", City: "Dubai", Country: "UAE"},
	{ID: "bilal", City: "Abu Dhabi", Country: "UAE"},
	{ID: "carla", City: "Cairo", Country: "Egypt"},
}

func ids(ds []doctor.Doctor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestApplyNoFilter(t *testing.T) {
	out := Apply(sample, State{})
	assert.Equal(t, []string{"amina", "bilal", "carla"}, ids(out))
}

func TestApplyCountry(t *testing.T) {
	out := Apply(sample, State{Country: "UAE"})
	assert.Equal(t, []string{"amina", "bilal"}, ids(out))
}

func TestApplyCityNarrowsCountry(t *testing.T) {
	st := State{}.WithCountry("UAE").WithCity("Dubai")
	out := Apply(sample, st)
	assert.Equal(t, []string{"amina"}, ids(out))

	// A city subset is always contained in the country subset.
	country := Apply(sample, State{Country: "UAE"})
	for _, d := range out {
		assert.Contains(t, ids(country), d.ID)
	}
}

func TestApplyNoMatches(t *testing.T) {
	out := Apply(sample, State{Country: "UAE", City: "Cairo"})
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestWithCountryClearsDependents(t *testing.T) {
	st := State{Country: "UAE", City: "Dubai", SelectedDoctorID: "amina"}

	next := st.WithCountry("Egypt")
	assert.Equal(t, State{Country: "Egypt"}, next)

	// Re-picking the same country keeps city and selection.
	same := st.WithCountry("UAE")
	assert.Equal(t, st, same)

	cleared := st.WithCountry("")
	assert.Equal(t, State{}, cleared)
}

func TestWithCityClearsSelection(t *testing.T) {
	st := State{Country: "UAE", City: "Dubai", SelectedDoctorID: "amina"}
	next := st.WithCity("Abu Dhabi")
	assert.Equal(t, "UAE", next.Country)
	assert.Equal(t, "Abu Dhabi", next.City)
	assert.Empty(t, next.SelectedDoctorID)
}

func TestEmpty(t *testing.T) {
	assert.True(t, State{}.Empty())
	assert.True(t, State{SelectedDoctorID: "amina"}.Empty())
	assert.False(t, State{Country: "UAE"}.Empty())
}
