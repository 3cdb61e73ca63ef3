package doctor

import "fmt"

// Doctor is one validated practitioner. Records missing finite coordinates or
// a city/country never become a Doctor.
type Doctor struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	SortKey     string  `json:"-"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	ClinicName  string  `json:"clinicName,omitempty"`
	ProfileSlug string  `json:"profileSlug,omitempty"`
	PhotoRef    string  `json:"photoRef,omitempty"`
}

// DirectionsURL returns a Google Maps directions link for the doctor's clinic.
func (d Doctor) DirectionsURL() string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%v,%v", d.Latitude, d.Longitude)
}

// ProfileURL returns the site-relative profile path, or "" when the doctor has
// no profile page.
func (d Doctor) ProfileURL() string {
	if d.ProfileSlug == "" {
		return ""
	}
	return "/doctor-profile/" + d.ProfileSlug
}
