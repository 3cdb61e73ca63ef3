package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	httpapi "github.com/yourorg/doctor-finder/http"
)

func TestRouterHealth(t *testing.T) {
	router := BuildRouter(httpapi.DoctorsDeps{}, httpapi.GeocodeDeps{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := BuildRouter(httpapi.DoctorsDeps{}, httpapi.GeocodeDeps{})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, "/doctors", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.JSONEq(t, `{"error":"method_not_allowed"}`, rec.Body.String())
	}
}

func TestRouterUnknownPath(t *testing.T) {
	router := BuildRouter(httpapi.DoctorsDeps{}, httpapi.GeocodeDeps{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
