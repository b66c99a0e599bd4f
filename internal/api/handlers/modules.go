package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/growhub/growhub/internal/api/types"
	"github.com/growhub/growhub/internal/database/repository"
)

// GetModuleState handles GET /modules/{moduleId}/state. It returns the
// module's actuator-state document, including whatever schedule entries the
// engine has materialized for its pins.
func (h *Handler) GetModuleState(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleId")

	state, err := h.devices.Get(r.Context(), moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "module state not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to get module state")
		return
	}

	h.respondJSON(w, http.StatusOK, types.DeviceStateFromModel(state))
}

// GetModuleActiveCycle handles GET /modules/{moduleId}/cycle. It returns the
// module's active cycle, if any.
func (h *Handler) GetModuleActiveCycle(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleId")

	cycle, err := h.cycles.FindActiveByModule(r.Context(), moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "module has no active grow cycle")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to get active cycle")
		return
	}

	h.respondJSON(w, http.StatusOK, types.CycleFromModel(cycle))
}
