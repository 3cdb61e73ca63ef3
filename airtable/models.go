package airtable

import "encoding/json"

// Record is one row of the doctors table. Field names follow the table schema;
// coordinates arrive as numbers or strings depending on how the row was edited,
// so they are kept textual until normalization.
type Record struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

type Fields struct {
	Name       string       `json:"Name"`
	ArabicName string       `json:"Arabic Name"`
	Lat        stringNumber `json:"Lat"`
	Lng        stringNumber `json:"Long"`
	City       string       `json:"City"`
	Country    string       `json:"Country"`
	ClinicName string       `json:"Clinic Name"`
	Profile    string       `json:"Profile Slug"`
	Portrait   []Attachment `json:"Doctor Portrait"`
}

type Attachment struct {
	URL string `json:"url"`
}

// stringNumber accepts string or number JSON and stores the textual form.
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringNumber(num.String())
	return nil
}

func (s stringNumber) String() string { return string(s) }
