package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/doctor-finder/internal/geocode"
)

type GeocodeDeps struct {
	Resolver *geocode.Resolver
}

func RegisterGeocode(r chi.Router, d GeocodeDeps) {
	r.Get("/geocode/reverse", func(w http.ResponseWriter, req *http.Request) {
		if d.Resolver == nil {
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]any{"error": "server_configuration"})
			return
		}
		q := req.URL.Query()
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLng != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "lat_lng_required"})
			return
		}
		addr, err := d.Resolver.Resolve(req.Context(), lat, lng)
		if err != nil {
			if errors.Is(err, geocode.ErrNotFound) {
				render.Status(req, http.StatusNotFound)
				render.JSON(w, req, map[string]any{"error": "address_not_found"})
				return
			}
			render.Status(req, http.StatusBadGateway)
			render.JSON(w, req, map[string]any{"error": "geocode_failed", "detail": err.Error()})
			return
		}
		render.JSON(w, req, map[string]any{"ok": true, "address": addr})
	})
}
