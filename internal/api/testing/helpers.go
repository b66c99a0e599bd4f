// Package testing provides test utilities for the API package.
package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/growhub/growhub/internal/api/handlers"
	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/repository"
	"github.com/growhub/growhub/internal/growcycle"
)

// Fixture bundles in-memory repositories, an engine and a handler for
// HTTP-level tests.
type Fixture struct {
	Programs *repository.MemoryProgramRepository
	Cycles   *repository.MemoryCycleRepository
	Devices  *repository.MemoryDeviceStateRepository
	Engine   *growcycle.Engine
	Handler  *handlers.Handler
}

// NewFixture creates a handler fixture backed by in-memory repositories.
func NewFixture(opts ...growcycle.Option) *Fixture {
	programs := repository.NewMemoryProgramRepository()
	cycles := repository.NewMemoryCycleRepository()
	devices := repository.NewMemoryDeviceStateRepository()
	engine := growcycle.NewEngine(cycles, devices, opts...)

	return &Fixture{
		Programs: programs,
		Cycles:   cycles,
		Devices:  devices,
		Engine:   engine,
		Handler:  handlers.NewHandler(programs, cycles, devices, engine),
	}
}

// SeedProgram stores a three-stage tomato program and returns it.
func (f *Fixture) SeedProgram(t *testing.T) *models.GrowProgram {
	t.Helper()
	on, off := 6, 22
	program := models.NewGrowProgram("Tomato Standard", "tomato", 30, []models.GrowStage{
		{
			Type: models.StageGermination, Name: "Germination", DayStart: 1, DayEnd: 7,
			Schedules: []models.ScheduleRule{
				{TargetRole: models.RolePump, DurationSeconds: 60, FrequencySeconds: 3600},
			},
		},
		{
			Type: models.StageVegetative, Name: "Vegetative", DayStart: 8, DayEnd: 21,
			Schedules: []models.ScheduleRule{
				{TargetRole: models.RolePump, DurationSeconds: 120, FrequencySeconds: 1800},
				{TargetRole: models.RoleFan, DurationSeconds: 300, FrequencySeconds: 7200},
			},
			Lighting: models.LightingRule{Enabled: true, OnHour: &on, OffHour: &off},
		},
		{
			Type: models.StageFlowering, Name: "Flowering", DayStart: 22, DayEnd: 30,
			Schedules: []models.ScheduleRule{
				{TargetRole: models.RolePump, DurationSeconds: 90, FrequencySeconds: 2700},
			},
			Lighting: models.LightingRule{Enabled: true, OnHour: &on, OffHour: &off},
		},
	})
	require.NoError(t, f.Programs.Create(context.Background(), program))
	return program
}

// DefaultBindings returns pin bindings covering the seed program's roles.
func DefaultBindings() models.PinBindings {
	return models.PinBindings{
		models.RolePump:  1,
		models.RoleLight: 2,
		models.RoleFan:   3,
	}
}

// TestServer wraps httptest.Server with additional testing utilities.
type TestServer struct {
	*httptest.Server
	t      *testing.T
	router chi.Router
}

// NewTestServer creates a new test server with the given router.
func NewTestServer(t *testing.T, router chi.Router) *TestServer {
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &TestServer{
		Server: ts,
		t:      t,
		router: router,
	}
}

// MakeRequest makes an HTTP request to the test server.
func (ts *TestServer) MakeRequest(method, path string, body interface{}) *http.Response {
	return MakeRequest(ts.t, ts.Server.Client(), ts.Server.URL, method, path, body)
}

// MakeRequest makes an HTTP request and returns the response.
func MakeRequest(t *testing.T, client *http.Client, baseURL, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, reqBody)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err, "failed to execute request")

	return resp
}

// AssertStatus asserts that the response has the expected status code.
func AssertStatus(t *testing.T, resp *http.Response, expectedCode int) {
	t.Helper()
	require.Equal(t, expectedCode, resp.StatusCode, "unexpected status code")
}

// AssertJSON unmarshals the response body into the given value and asserts no error.
func AssertJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertJSONError asserts that the response is a JSON error with the expected message.
func AssertJSONError(t *testing.T, resp *http.Response, expectedMessage string) {
	t.Helper()
	var errResp ErrorResponse
	AssertJSON(t, resp, &errResp)
	require.Equal(t, expectedMessage, errResp.Error, "unexpected error message")
}

// ErrorResponse represents a standard error response for assertions.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
