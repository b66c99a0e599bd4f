package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/growhub/growhub/internal/api/types"
	"github.com/growhub/growhub/internal/auth"
	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/repository"
)

// StartCycle handles POST /cycles.
func (h *Handler) StartCycle(w http.ResponseWriter, r *http.Request) {
	var req types.StartCycleRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.respondValidationError(w, err)
		return
	}

	bindings := req.Bindings()
	if err := bindings.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	program, err := h.programs.GetByID(r.Context(), req.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "program not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to get program")
		return
	}

	organizationID := ""
	if ident := auth.IdentityFromContext(r.Context()); ident != nil {
		organizationID = ident.OrganizationID
	}

	cycle, err := h.engine.Start(r.Context(), program, req.ModuleID, organizationID, bindings)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, types.CycleFromModel(cycle))
}

// GetCycle handles GET /cycles/{id}.
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cycle, err := h.cycles.GetByID(r.Context(), id)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, types.CycleFromModel(cycle))
}

// ListCycles handles GET /cycles. Supports module_id, organization_id and
// status query filters.
func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	limit, offset := getPaginationParams(r)

	filter := repository.CycleFilter{
		ModuleID:       r.URL.Query().Get("module_id"),
		OrganizationID: r.URL.Query().Get("organization_id"),
		Status:         models.CycleStatus(r.URL.Query().Get("status")),
	}

	cycles, err := h.cycles.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list cycles")
		return
	}

	responses := types.CyclesFromModels(cycles)
	h.respondJSON(w, http.StatusOK, types.NewListResponse(responses, limit, offset))
}

// PauseCycle handles POST /cycles/{id}/pause.
func (h *Handler) PauseCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cycle, err := h.engine.Pause(r.Context(), id)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, types.CycleFromModel(cycle))
}

// ResumeCycle handles POST /cycles/{id}/resume.
func (h *Handler) ResumeCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cycle, err := h.engine.Resume(r.Context(), id)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, types.CycleFromModel(cycle))
}

// CompleteCycle handles POST /cycles/{id}/complete. The body is optional;
// when present it may carry the harvest outcome.
func (h *Handler) CompleteCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.CompleteCycleRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := h.decodeAndValidate(r, &req); err != nil {
			h.respondValidationError(w, err)
			return
		}
	}

	var harvest *models.HarvestRecord
	if req.Harvest != nil {
		harvest = req.Harvest.ToModel()
	}

	cycle, err := h.engine.Complete(r.Context(), id, harvest)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, types.CycleFromModel(cycle))
}

// AbortCycle handles POST /cycles/{id}/abort.
func (h *Handler) AbortCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cycle, err := h.engine.Abort(r.Context(), id)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, types.CycleFromModel(cycle))
}

// EvaluateCycle handles POST /cycles/{id}/evaluate. This triggers the same
// stage evaluation the durable scheduler runs, useful for operators who do
// not want to wait for the next sweep tick.
func (h *Handler) EvaluateCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cycle, err := h.cycles.GetByID(r.Context(), id)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	transitioned, err := h.engine.Evaluate(r.Context(), cycle)
	if err != nil {
		h.respondCycleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, types.EvaluateResponse{
		Transitioned: transitioned,
		Cycle:        types.CycleFromModel(cycle),
	})
}
