package doctor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/doctor-finder/airtable"
)

func recordFromJSON(t *testing.T, raw string) airtable.Record {
	t.Helper()
	var rec airtable.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestNormalizeValidRecord(t *testing.T) {
	rec := recordFromJSON(t, `{
		"id": "rec1",
		"fields": {
			"Name": "Dr. Amina",
			"Lat": 25.2,
			"Long": 55.3,
			"City": "Dubai",
			"Country": "UAE",
			"Clinic Name": "Smile Clinic",
			"Profile Slug": "amina",
			"Doctor Portrait": [{"url": "https://cdn.example.com/amina.jpg"}]
		}
	}`)

	d, ok := Normalize(rec)
	require.True(t, ok)
	assert.Equal(t, "rec1", d.ID)
	assert.Equal(t, "Dr. Amina", d.DisplayName)
	assert.Equal(t, "amina", d.SortKey)
	assert.Equal(t, 25.2, d.Latitude)
	assert.Equal(t, 55.3, d.Longitude)
	assert.Equal(t, "Dubai", d.City)
	assert.Equal(t, "UAE", d.Country)
	assert.Equal(t, "Smile Clinic", d.ClinicName)
	assert.Equal(t, "https://cdn.example.com/amina.jpg", d.PhotoRef)
	assert.Equal(t, "/doctor-profile/amina", d.ProfileURL())
}

func TestNormalizePrefersLocalizedName(t *testing.T) {
	rec := recordFromJSON(t, `{
		"id": "rec2",
		"fields": {
			"Name": "Dr. Ahmed",
			"Arabic Name": "دكتور أحمد",
			"Lat": "24.4", "Long": "54.4",
			"City": "Abu Dhabi", "Country": "UAE"
		}
	}`)

	d, ok := Normalize(rec)
	require.True(t, ok)
	assert.Equal(t, "دكتور أحمد", d.DisplayName)
	assert.Equal(t, "أحمد", d.SortKey)
}

func TestNormalizeStringCoordinates(t *testing.T) {
	rec := recordFromJSON(t, `{
		"id": "rec3",
		"fields": {"Name": "Dr. B", "Lat": "25.1", "Long": "55.2", "City": "Dubai", "Country": "UAE"}
	}`)
	d, ok := Normalize(rec)
	require.True(t, ok)
	assert.Equal(t, 25.1, d.Latitude)
}

func TestNormalizeInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"non-numeric lat": `{"id":"x","fields":{"Name":"Dr. C","Lat":"not-a-number","Long":55.0,"City":"Dubai","Country":"UAE"}}`,
		"missing lng":     `{"id":"x","fields":{"Name":"Dr. C","Lat":25.0,"City":"Dubai","Country":"UAE"}}`,
		"blank city":      `{"id":"x","fields":{"Name":"Dr. C","Lat":25.0,"Long":55.0,"City":"   ","Country":"UAE"}}`,
		"blank country":   `{"id":"x","fields":{"Name":"Dr. C","Lat":25.0,"Long":55.0,"City":"Dubai","Country":""}}`,
		"empty name":      `{"id":"x","fields":{"Lat":25.0,"Long":55.0,"City":"Dubai","Country":"UAE"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := Normalize(recordFromJSON(t, raw))
			assert.False(t, ok)
		})
	}
}

func TestStripHonorific(t *testing.T) {
	cases := map[string]string{
		"Dr. Amina":   "Amina",
		"dr Amina":    "Amina",
		"Dr.Amina":    "Amina",
		"Doctor Omar": "Omar",
		"د. أحمد":     "أحمد",
		"دكتور أحمد":  "أحمد",
		"Drew Smith":  "Drew Smith",
		"  Dr. Lina ": "Lina",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripHonorific(in), "input %q", in)
	}
}

func TestSortKeyEqualAcrossHonorificAndCase(t *testing.T) {
	assert.Equal(t, SortKeyFor("Dr. Amina"), SortKeyFor("amina"))
	assert.Equal(t, SortKeyFor("DOCTOR OMAR"), SortKeyFor("Omar"))
}
