package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/pihub/internal/relay"
)

// handleListRelays returns every registered relay's published state.
//
// GET /api/relays
func (s *Server) handleListRelays(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.relays.List())
}

// setStateRequest is the POST body for relay commands. The canonical
// key is "relay_id"; "id" is accepted as an alias. State is raw so both
// the "on"/"off" tokens and JSON booleans are accepted.
type setStateRequest struct {
	RelayID string          `json:"relay_id"`
	ID      string          `json:"id"`
	State   json.RawMessage `json:"state"`
}

// relayID resolves the command's target, preferring the canonical key.
func (r setStateRequest) relayID() string {
	if r.RelayID != "" {
		return r.RelayID
	}
	return r.ID
}

// handleSetRelayState drives one relay to the requested state.
//
// POST /api/relay/state
//
// Responses: 204 on success, 400 for a malformed body or state token,
// 404 for an unknown relay id, 500 when the hardware write fails.
func (s *Server) handleSetRelayState(w http.ResponseWriter, r *http.Request) {
	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	id := req.relayID()
	if id == "" {
		writeBadRequest(w, "missing relay id")
		return
	}

	on, err := parseStateToken(req.State)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.relays.Set(r.Context(), id, on); err != nil {
		if errors.Is(err, relay.ErrNotFound) {
			writeNotFound(w, "unknown relay: "+id)
			return
		}
		s.logger.Error("relay command failed",
			"relay", id, "state", on, "error", err)
		writeInternalError(w, "relay command failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseStateToken interprets the state field: the strings "on"/"off"
// (case-insensitive) or a JSON boolean.
func parseStateToken(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 {
		return false, errors.New("missing state")
	}

	var token string
	if err := json.Unmarshal(raw, &token); err == nil {
		switch strings.ToLower(token) {
		case "on":
			return true, nil
		case "off":
			return false, nil
		default:
			return false, errors.New(`invalid state: want "on" or "off"`)
		}
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	return false, errors.New(`invalid state: want "on", "off", or a boolean`)
}
