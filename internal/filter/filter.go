package filter

import "github.com/yourorg/doctor-finder/internal/doctor"

// State is the current filter selection. City is only meaningful with a
// country set; changing country clears city and any selection.
type State struct {
	Country          string
	City             string
	SelectedDoctorID string
}

// WithCountry returns the state after picking a country. Picking a different
// country (or clearing it) drops the dependent city and selection.
func (s State) WithCountry(country string) State {
	if country == s.Country {
		return s
	}
	return State{Country: country}
}

// WithCity returns the state after picking a city within the current country.
func (s State) WithCity(city string) State {
	next := s
	next.City = city
	next.SelectedDoctorID = ""
	return next
}

// WithSelection returns the state with a single doctor selected.
func (s State) WithSelection(id string) State {
	next := s
	next.SelectedDoctorID = id
	return next
}

// Empty reports whether no filter is active.
func (s State) Empty() bool { return s.Country == "" && s.City == "" }

// Apply returns the doctors matching the state, keeping source order. A doctor
// matches when its country equals the selected one (or none is selected) and
// likewise for city. Pure; recomputed fully on every call.
func Apply(doctors []doctor.Doctor, s State) []doctor.Doctor {
	out := make([]doctor.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if s.Country != "" && d.Country != s.Country {
			continue
		}
		if s.City != "" && d.City != s.City {
			continue
		}
		out = append(out, d)
	}
	return out
}
