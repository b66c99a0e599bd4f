package types

import (
	"time"

	"github.com/growhub/growhub/internal/database/models"
)

// ProgramResponse represents a grow program in API responses.
type ProgramResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CropType  string             `json:"crop_type"`
	TotalDays int                `json:"total_days"`
	Stages    []models.GrowStage `json:"stages"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ProgramFromModel converts a domain program to an API response.
func ProgramFromModel(p *models.GrowProgram) *ProgramResponse {
	return &ProgramResponse{
		ID:        p.ID,
		Name:      p.Name,
		CropType:  p.CropType,
		TotalDays: p.TotalDays,
		Stages:    p.Stages,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ProgramsFromModels converts a slice of domain programs to API responses.
func ProgramsFromModels(programs []*models.GrowProgram) []*ProgramResponse {
	responses := make([]*ProgramResponse, len(programs))
	for i, p := range programs {
		responses[i] = ProgramFromModel(p)
	}
	return responses
}

// CycleResponse represents a grow cycle in API responses.
type CycleResponse struct {
	ID              string                     `json:"id"`
	ModuleID        string                     `json:"module_id"`
	OrganizationID  string                     `json:"organization_id,omitempty"`
	ProgramID       string                     `json:"program_id"`
	ProgramName     string                     `json:"program_name"`
	CropType        string                     `json:"crop_type"`
	TotalDays       int                        `json:"total_days"`
	Status          models.CycleStatus         `json:"status"`
	AwaitingHarvest bool                       `json:"awaiting_harvest"`
	CurrentDay      int                        `json:"current_day"`
	CurrentStage    models.StageType           `json:"current_stage"`
	PinBindings     models.PinBindings         `json:"pin_bindings"`
	StageHistory    []models.StageHistoryEntry `json:"stage_history"`
	Harvest         *models.HarvestRecord      `json:"harvest,omitempty"`
	StartedAt       time.Time                  `json:"started_at"`
	PausedAt        *time.Time                 `json:"paused_at,omitempty"`
	CompletedAt     *time.Time                 `json:"completed_at,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// CycleFromModel converts a domain cycle to an API response.
func CycleFromModel(c *models.GrowCycle) *CycleResponse {
	return &CycleResponse{
		ID:              c.ID,
		ModuleID:        c.ModuleID,
		OrganizationID:  c.OrganizationID,
		ProgramID:       c.ProgramID,
		ProgramName:     c.ProgramName,
		CropType:        c.CropType,
		TotalDays:       c.TotalDays,
		Status:          c.Status,
		AwaitingHarvest: c.AwaitingHarvest,
		CurrentDay:      c.CurrentDay,
		CurrentStage:    c.CurrentStage,
		PinBindings:     c.PinBindings,
		StageHistory:    c.StageHistory,
		Harvest:         c.Harvest,
		StartedAt:       c.StartedAt,
		PausedAt:        c.PausedAt,
		CompletedAt:     c.CompletedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// CyclesFromModels converts a slice of domain cycles to API responses.
func CyclesFromModels(cycles []*models.GrowCycle) []*CycleResponse {
	responses := make([]*CycleResponse, len(cycles))
	for i, c := range cycles {
		responses[i] = CycleFromModel(c)
	}
	return responses
}

// EvaluateResponse reports the outcome of a manual cycle evaluation.
type EvaluateResponse struct {
	Transitioned bool           `json:"transitioned"`
	Cycle        *CycleResponse `json:"cycle"`
}

// DeviceStateResponse represents a module's actuator state in API responses.
type DeviceStateResponse struct {
	ModuleID  string                     `json:"module_id"`
	Pins      map[string]models.PinState `json:"pins,omitempty"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// DeviceStateFromModel converts a device-state document to an API response.
func DeviceStateFromModel(d *models.DeviceState) *DeviceStateResponse {
	return &DeviceStateResponse{
		ModuleID:  d.ModuleID,
		Pins:      d.Pins,
		UpdatedAt: d.UpdatedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ListResponse represents a paginated list response.
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewListResponse creates a new list response.
func NewListResponse[T any](data []T, limit, offset int) *ListResponse[T] {
	return &ListResponse[T]{
		Data:   data,
		Limit:  limit,
		Offset: offset,
	}
}
