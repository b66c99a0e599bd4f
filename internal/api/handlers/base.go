// Package handlers contains HTTP request handlers for the API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/growhub/growhub/internal/api/types"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/internal/growcycle"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	programs repository.ProgramRepo
	cycles   repository.CycleRepo
	devices  repository.DeviceStateRepo
	engine   *growcycle.Engine
	validate *validator.Validate
	checkers []HealthChecker
}

// NewHandler creates a new Handler with the given repositories and engine.
// Accepts any types that implement the repository interfaces.
func NewHandler(
	programs repository.ProgramRepo,
	cycles repository.CycleRepo,
	devices repository.DeviceStateRepo,
	engine *growcycle.Engine,
) *Handler {
	return &Handler{
		programs: programs,
		cycles:   cycles,
		devices:  devices,
		engine:   engine,
		validate: validator.New(),
	}
}

// NewHandlerFromRepositories creates a new Handler from a Repositories struct.
func NewHandlerFromRepositories(repos *repository.Repositories, engine *growcycle.Engine) *Handler {
	return NewHandler(repos.Programs, repos.Cycles, repos.Devices, engine)
}

// respondJSON writes a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't change response at this point
			return
		}
	}
}

// respondError writes a JSON error response with the given status code.
func (h *Handler) respondError(w http.ResponseWriter, code int, message string) {
	h.respondJSON(w, code, types.ErrorResponse{Error: message})
}

// respondValidationError writes a JSON validation error response.
func (h *Handler) respondValidationError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]string)
		for _, e := range validationErrs {
			details[e.Field()] = formatValidationError(e)
		}
		h.respondJSON(w, http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation failed",
			Details: details,
		})
		return
	}
	h.respondError(w, http.StatusBadRequest, "invalid input")
}

// respondCycleError maps engine and repository errors onto HTTP statuses.
// Only a handful of failure modes are caller-addressable; everything else is
// a 500 with a generic message.
func (h *Handler) respondCycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrActiveCycleExists):
		h.respondError(w, http.StatusConflict, "module already has an active grow cycle")
	case errors.Is(err, repository.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "grow cycle not found")
	case errors.Is(err, growcycle.ErrInvalidStatus):
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// formatValidationError formats a validation error into a human-readable message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// decodeJSON decodes a JSON request body into the given value.
func (h *Handler) decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeAndValidate decodes and validates a JSON request.
func (h *Handler) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := h.decodeJSON(r, v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

// getPaginationParams extracts pagination parameters from the request.
func getPaginationParams(r *http.Request) (limit, offset int) {
	limit = types.DefaultLimit
	offset = 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > types.DefaultMaxLimit {
				parsed = types.DefaultMaxLimit
			}
			limit = parsed
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}
