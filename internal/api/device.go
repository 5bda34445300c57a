package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/home"
)

// Device protocol handlers. Module firmware speaks plain GET requests with
// path parameters and expects a bare 200; these routes keep that contract
// byte-for-byte so modules need no changes when the core is swapped out.

// handleModuleStateUpdate records a device's self-reported state.
//
// GET /moduleStateUpdate/{roomID}/{actionID}/{toState}
func (s *Server) handleModuleStateUpdate(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.Atoi(chi.URLParam(r, "roomID"))
	if err != nil {
		writeBadRequest(w, "invalid room ID")
		return
	}
	actionID, err := strconv.Atoi(chi.URLParam(r, "actionID"))
	if err != nil {
		writeBadRequest(w, "invalid action ID")
		return
	}
	toState, err := strconv.Atoi(chi.URLParam(r, "toState"))
	if err != nil {
		writeBadRequest(w, "invalid state")
		return
	}

	if err := s.home.ModuleStateUpdate(roomID, action.ID(actionID), toState); err != nil {
		s.writeHomeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleModuleInput feeds a module's input report into the rule engine.
// Numeric values are state reports (motion, door); anything else is treated
// as a composite climate reading.
//
// GET /moduleInput/{roomID}/{actionID}/{value}
func (s *Server) handleModuleInput(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.Atoi(chi.URLParam(r, "roomID"))
	if err != nil {
		writeBadRequest(w, "invalid room ID")
		return
	}
	actionID, err := strconv.Atoi(chi.URLParam(r, "actionID"))
	if err != nil {
		writeBadRequest(w, "invalid action ID")
		return
	}
	value := chi.URLParam(r, "value")
	if value == "" {
		writeBadRequest(w, "value is required")
		return
	}

	_, convErr := strconv.Atoi(value)
	isString := convErr != nil

	err = s.home.ModuleInput(r.Context(), roomID, action.ID(actionID), value, isString)
	if err != nil {
		if errors.Is(err, action.ErrMalformedReading) {
			writeBadRequest(w, "malformed climate reading")
			return
		}
		if errors.Is(err, home.ErrServerDisabled) {
			// Firmware retries on non-200; a disabled server is not a module
			// fault, so acknowledge and drop.
			w.WriteHeader(http.StatusOK)
			return
		}
		s.writeHomeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleModuleUpdate pushes capabilities and requests fresh states from a
// module that just booted.
//
// GET /moduleUpdate/{ipAddress}
func (s *Server) handleModuleUpdate(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "ipAddress")
	if addr == "" {
		writeBadRequest(w, "ip address is required")
		return
	}

	if err := s.home.ModuleUpdate(r.Context(), addr); err != nil {
		s.writeHomeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
