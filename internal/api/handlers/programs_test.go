package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growhub/growhub/internal/api"
	apitest "github.com/growhub/growhub/internal/api/testing"
	"github.com/growhub/growhub/internal/api/types"
)

func newProgramBody() map[string]interface{} {
	return map[string]interface{}{
		"name":       "Tomato Standard",
		"crop_type":  "tomato",
		"total_days": 14,
		"stages": []map[string]interface{}{
			{
				"type": "germination", "name": "Germination", "day_start": 1, "day_end": 7,
				"schedules": []map[string]interface{}{
					{"target_role": "pump", "duration_seconds": 60, "frequency_seconds": 3600},
				},
			},
			{
				"type": "vegetative", "name": "Vegetative", "day_start": 8, "day_end": 14,
				"lighting": map[string]interface{}{"enabled": true, "on_hour": 6, "off_hour": 22},
			},
		},
	}
}

func TestCreateProgram(t *testing.T) {
	f := apitest.NewFixture()
	server := apitest.NewTestServer(t, api.NewRouter(f.Handler))

	t.Run("creates a valid program", func(t *testing.T) {
		resp := server.MakeRequest(http.MethodPost, "/programs", newProgramBody())
		apitest.AssertStatus(t, resp, http.StatusCreated)

		var created types.ProgramResponse
		apitest.AssertJSON(t, resp, &created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Tomato Standard", created.Name)
		assert.Len(t, created.Stages, 2)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		body := newProgramBody()
		delete(body, "name")

		resp := server.MakeRequest(http.MethodPost, "/programs", body)
		apitest.AssertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("rejects unknown actuator role", func(t *testing.T) {
		body := newProgramBody()
		body["stages"].([]map[string]interface{})[0]["schedules"] = []map[string]interface{}{
			{"target_role": "sprinkler", "duration_seconds": 60, "frequency_seconds": 3600},
		}

		resp := server.MakeRequest(http.MethodPost, "/programs", body)
		apitest.AssertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("rejects stage gaps", func(t *testing.T) {
		body := newProgramBody()
		body["stages"].([]map[string]interface{})[1]["day_start"] = 9

		resp := server.MakeRequest(http.MethodPost, "/programs", body)
		apitest.AssertStatus(t, resp, http.StatusBadRequest)
		apitest.AssertJSONError(t, resp, `stage "Vegetative": dayStart 9 leaves a gap or overlap (expected 8)`)
	})
}

func TestGetProgram(t *testing.T) {
	f := apitest.NewFixture()
	server := apitest.NewTestServer(t, api.NewRouter(f.Handler))
	program := f.SeedProgram(t)

	t.Run("returns the program", func(t *testing.T) {
		resp := server.MakeRequest(http.MethodGet, "/programs/"+program.ID, nil)
		apitest.AssertStatus(t, resp, http.StatusOK)

		var got types.ProgramResponse
		apitest.AssertJSON(t, resp, &got)
		assert.Equal(t, program.ID, got.ID)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		resp := server.MakeRequest(http.MethodGet, "/programs/unknown", nil)
		apitest.AssertStatus(t, resp, http.StatusNotFound)
	})
}

func TestListPrograms(t *testing.T) {
	f := apitest.NewFixture()
	server := apitest.NewTestServer(t, api.NewRouter(f.Handler))
	f.SeedProgram(t)

	resp := server.MakeRequest(http.MethodGet, "/programs?limit=10", nil)
	apitest.AssertStatus(t, resp, http.StatusOK)

	var list types.ListResponse[*types.ProgramResponse]
	apitest.AssertJSON(t, resp, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, 10, list.Limit)
}
