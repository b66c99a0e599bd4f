package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/growhub/growhub/internal/api/types"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/internal/growcycle"
)

// CreateProgram handles POST /programs.
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req types.CreateProgramRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.respondValidationError(w, err)
		return
	}

	program := req.ToModel()
	if err := growcycle.ValidateProgram(program); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.programs.Create(r.Context(), program); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to create program")
		return
	}

	h.respondJSON(w, http.StatusCreated, types.ProgramFromModel(program))
}

// GetProgram handles GET /programs/{id}.
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	program, err := h.programs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "program not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to get program")
		return
	}

	h.respondJSON(w, http.StatusOK, types.ProgramFromModel(program))
}

// ListPrograms handles GET /programs.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	limit, offset := getPaginationParams(r)

	programs, err := h.programs.List(r.Context(), limit, offset)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list programs")
		return
	}

	responses := types.ProgramsFromModels(programs)
	h.respondJSON(w, http.StatusOK, types.NewListResponse(responses, limit, offset))
}
