package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/home"
	"github.com/kotakee/kotakee-core/internal/rules"
)

// toggleRequest is the body for POST /api/v1/actions/toggle. Virtual requests
// record the target state on the device without actuating, letting clients
// repair a recorded state that drifted from the hardware.
type toggleRequest struct {
	RoomID   int  `json:"roomId"`
	ActionID int  `json:"actionId"`
	ToState  int  `json:"toState"`
	Virtual  bool `json:"virtual,omitempty"`
}

// handleActionToggle drives a single action to an explicit state.
func (s *Server) handleActionToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.home.ActionToggle(r.Context(), req.RoomID, action.ID(req.ActionID), req.ToState, req.Virtual)
	if err != nil {
		s.writeHomeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// toggleAllRequest is the body for POST /api/v1/actions/toggleAll.
type toggleAllRequest struct {
	ToOn bool `json:"toOn"`
}

// handleActionToggleAll drives every non-input action to its on or off side.
func (s *Server) handleActionToggleAll(w http.ResponseWriter, r *http.Request) {
	var req toggleAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.home.ActionToggleAll(r.Context(), req.ToOn); err != nil {
		s.writeHomeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// switchRequest is the body for POST /api/v1/actions/switch.
type switchRequest struct {
	RoomID   int `json:"roomId"`
	ActionID int `json:"actionId"`
	LEDMode  int `json:"ledMode"`
}

// handleActionSwitch cycles a multi-state action to its next stable state.
func (s *Server) handleActionSwitch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.home.ActionSwitch(r.Context(), req.RoomID, action.ID(req.ActionID), req.LEDMode)
	if err != nil {
		switch {
		case errors.Is(err, action.ErrSettling):
			writeConflict(w, "action is settling, try again")
		case errors.Is(err, action.ErrNoPolicy):
			writeBadRequest(w, "action does not support switching")
		default:
			s.writeHomeError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// inputRequest is the body for POST /api/v1/input. Value may be a JSON
// number (state report) or string (composite climate reading).
type inputRequest struct {
	RoomID   int             `json:"roomId"`
	ActionID int             `json:"actionId"`
	Value    json.RawMessage `json:"value"`
}

// handleInput injects an input value as if a module had reported it. This is
// how virtual inputs (admin triggers) and test harnesses drive the rule engine.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Value) == 0 {
		writeBadRequest(w, "value is required")
		return
	}

	var value string
	isString := bytes.HasPrefix(bytes.TrimSpace(req.Value), []byte(`"`))
	if isString {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			writeBadRequest(w, "invalid string value")
			return
		}
	} else {
		var n int
		if err := json.Unmarshal(req.Value, &n); err != nil {
			writeBadRequest(w, "value must be an integer or string")
			return
		}
		value = strconv.Itoa(n)
	}

	err := s.home.ModuleInput(r.Context(), req.RoomID, action.ID(req.ActionID), value, isString)
	if err != nil {
		switch {
		case errors.Is(err, action.ErrMalformedReading):
			writeBadRequest(w, "malformed climate reading")
		default:
			s.writeHomeError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdateRules replaces a room's input rule table.
func (s *Server) handleUpdateRules(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.Atoi(chi.URLParam(r, "roomID"))
	if err != nil {
		writeBadRequest(w, "invalid room ID")
		return
	}

	var table rules.Table
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		writeBadRequest(w, "invalid rule table: "+err.Error())
		return
	}

	if err := s.home.ModuleInputModify(roomID, table); err != nil {
		if errors.Is(err, home.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeBadRequest(w, "invalid rule table: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// disabledRequest is the body for the kill-switch endpoints.
type disabledRequest struct {
	Disabled bool `json:"disabled"`
}

// handleServerDisabled flips the whole-server kill switch.
func (s *Server) handleServerDisabled(w http.ResponseWriter, r *http.Request) {
	var req disabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.home.SetServerDisabled(req.Disabled)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInputDisabled flips the module-input kill switch.
func (s *Server) handleInputDisabled(w http.ResponseWriter, r *http.Request) {
	var req disabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.home.SetModuleInputDisabled(req.Disabled)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHomeStatus serves the home-status long poll. Returns 204 when nothing
// changed since the client's timestamp, so pollers can distinguish "no update"
// from an empty update.
func (s *Server) handleHomeStatus(w http.ResponseWriter, r *http.Request) {
	since, ok := parseSince(w, r)
	if !ok {
		return
	}

	payload := s.home.HomeStatus(since)
	if payload == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleHomeActions serves the action-states long poll.
func (s *Server) handleHomeActions(w http.ResponseWriter, r *http.Request) {
	since, ok := parseSince(w, r)
	if !ok {
		return
	}

	payload := s.home.ActionStates(since)
	if payload == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleHistoryActions returns recent action state transitions, newest first.
func (s *Server) handleHistoryActions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []any{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeInternalError(w, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// parseSince reads the optional since query parameter (milliseconds).
// Writes a 400 response and returns ok=false on a malformed value.
func parseSince(w http.ResponseWriter, r *http.Request) (since int64, ok bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeBadRequest(w, "since must be a millisecond timestamp")
		return 0, false
	}
	return n, true
}

// writeHomeError maps home aggregate errors to HTTP responses.
func (s *Server) writeHomeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, home.ErrRoomNotFound):
		writeNotFound(w, "room not found")
	case errors.Is(err, home.ErrActionNotFound):
		writeNotFound(w, "action not found")
	case errors.Is(err, home.ErrModuleNotFound):
		writeNotFound(w, "module not found")
	case errors.Is(err, home.ErrServerDisabled):
		writeConflict(w, "server is disabled")
	default:
		s.logger.Error("request failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
