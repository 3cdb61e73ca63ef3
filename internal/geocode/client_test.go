package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleClientReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25.2,55.3", r.URL.Query().Get("latlng"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "ar", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"شارع الشيخ زايد، دبي"}]}`))
	}))
	defer srv.Close()

	c := NewGoogleClient("test-key", "ar")
	c.SetBaseURL(srv.URL)

	addr, err := c.ReverseGeocode(context.Background(), 25.2, 55.3)
	require.NoError(t, err)
	assert.Equal(t, "شارع الشيخ زايد، دبي", addr)
}

func TestGoogleClientZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	c := NewGoogleClient("test-key", "")
	c.SetBaseURL(srv.URL)

	_, err := c.ReverseGeocode(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGoogleClientDeniedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","results":[]}`))
	}))
	defer srv.Close()

	c := NewGoogleClient("bad-key", "")
	c.SetBaseURL(srv.URL)

	_, err := c.ReverseGeocode(context.Background(), 25.2, 55.3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}
