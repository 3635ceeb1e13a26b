package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/pihub/internal/sensor"
)

// handleListSensors returns every cache family keyed by family name.
//
// GET /api/sensors
func (s *Server) handleListSensors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.All())
}

// handleGetFamily returns one family's readings.
//
// GET /api/sensors/{family}
func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	family := chi.URLParam(r, "family")

	entries, ok := s.cache.Family(family)
	if !ok {
		writeNotFound(w, "unknown family: "+family)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// updateMetaRequest is the PATCH body for sensor metadata. Absent
// fields are left unchanged.
type updateMetaRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

// handleUpdateSensorMeta renames a sensor unit or moves it to a new
// location. Changes persist across restarts and show up in the cache
// on the next republish, which is triggered immediately.
//
// PATCH /api/sensors/{family}/{key}
func (s *Server) handleUpdateSensorMeta(w http.ResponseWriter, r *http.Request) {
	family := chi.URLParam(r, "family")
	key := chi.URLParam(r, "key")

	agg, ok := s.aggregators[family]
	if !ok {
		writeNotFound(w, "unknown family: "+family)
		return
	}

	var req updateMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == nil && req.Location == nil {
		writeBadRequest(w, "nothing to update: provide name and/or location")
		return
	}

	err := agg.UpdateUnitMeta(r.Context(), key, req.Name, req.Location)
	if err != nil {
		if errors.Is(err, sensor.ErrUnitNotFound) {
			writeNotFound(w, "unknown sensor: "+key)
			return
		}
		s.logger.Error("sensor metadata update failed",
			"family", family, "key", key, "error", err)
		writeInternalError(w, "metadata update failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
