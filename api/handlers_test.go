/*
handlers_test.go - HTTP round-trip tests over the full router

Each test drives the real router with an in-memory store, asserting both
the status mapping of the error taxonomy and the JSON payload shapes.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stechuhr/attendance-engine/api"
	"github.com/stechuhr/attendance-engine/service"
	"github.com/stechuhr/attendance-engine/store/sqlite"
)

func newTestRouter(t *testing.T) http.Handler {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := service.New(store, zerolog.Nop())
	return api.NewRouter(api.NewHandler(svc, zerolog.Nop()))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createUser(t *testing.T, router http.Handler, name string) string {
	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]any{
		"name":                name,
		"annualVacationDays":  "30",
		"timeTrackingEnabled": true,
		"isActive":            true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.NotEmpty(t, user.ID)
	return user.ID
}

func TestUserLifecycle(t *testing.T) {
	router := newTestRouter(t)
	id := createUser(t, router, "Max Mustermann")

	rec := doJSON(t, router, http.MethodGet, "/api/users/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Max Mustermann")

	rec = doJSON(t, router, http.MethodGet, "/api/users/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/users", map[string]any{"name": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClockEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createUser(t, router, "Max Mustermann")

	rec := doJSON(t, router, http.MethodPost, "/api/users/"+id+"/clock",
		map[string]string{"type": "CLOCK_IN", "reason": "Arbeitsbeginn"}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"source":"WEB"`)

	// Missing reason maps to 400
	rec = doJSON(t, router, http.MethodPost, "/api/users/"+id+"/clock",
		map[string]string{"type": "CLOCK_IN"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown type maps to 400
	rec = doJSON(t, router, http.MethodPost, "/api/users/"+id+"/clock",
		map[string]string{"type": "CLOCK_SIDEWAYS", "reason": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverrideDayEndpoint_SelfWindowForbidden(t *testing.T) {
	// GIVEN: No actor header, so the user acts on their own account
	// WHEN: Overriding a day far in the past
	// THEN: The back-dating window rejects with 403

	router := newTestRouter(t)
	id := createUser(t, router, "Max Mustermann")

	rec := doJSON(t, router, http.MethodPut, "/api/users/"+id+"/days/2020-01-06", map[string]any{
		"note":   "Nachtrag",
		"events": []map[string]string{{"type": "CLOCK_IN", "time": "08:00"}},
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	// A supervisor (different actor) is not window-bound
	rec = doJSON(t, router, http.MethodPut, "/api/users/"+id+"/days/2020-01-06", map[string]any{
		"note": "Nachtrag",
		"events": []map[string]string{
			{"type": "CLOCK_IN", "time": "08:00"},
			{"type": "CLOCK_OUT", "time": "16:00"},
		},
	}, map[string]string{"X-Actor-ID": "supervisor-1"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"createdCount":2`)
}

func TestLeaveEndpoints_OverlapConflict(t *testing.T) {
	router := newTestRouter(t)
	id := createUser(t, router, "Max Mustermann")

	book := map[string]string{
		"kind": "VACATION", "startDate": "2030-07-01", "endDate": "2030-07-05", "note": "Sommer",
	}
	rec := doJSON(t, router, http.MethodPost, "/api/users/"+id+"/leave", book, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Request struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "SUBMITTED", created.Request.Status)

	// Overlapping booking maps to 409
	rec = doJSON(t, router, http.MethodPost, "/api/users/"+id+"/leave", map[string]string{
		"kind": "VACATION", "startDate": "2030-07-05", "endDate": "2030-07-10",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// Approve, then a second decision maps to 409
	decidePath := fmt.Sprintf("/api/leave/%s/decision", created.Request.ID)
	rec = doJSON(t, router, http.MethodPost, decidePath,
		map[string]string{"decision": "APPROVED"}, map[string]string{"X-Actor-ID": "supervisor-1"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, decidePath,
		map[string]string{"decision": "REJECTED"}, map[string]string{"X-Actor-ID": "supervisor-1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelLeave_RequiresActor(t *testing.T) {
	router := newTestRouter(t)
	id := createUser(t, router, "Max Mustermann")

	rec := doJSON(t, router, http.MethodPost, "/api/users/"+id+"/leave", map[string]string{
		"kind": "OVERTIME", "startDate": "2030-08-01", "endDate": "2030-08-01",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Request struct {
			ID string `json:"id"`
		} `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/api/leave/"+created.Request.ID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/leave/"+created.Request.ID+"/cancel", nil,
		map[string]string{"X-Actor-ID": id})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"CANCELED"`)
}

func TestConfigRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/config", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"workingDays":"MON,TUE,WED,THU,FRI"`)

	rec = doJSON(t, router, http.MethodPut, "/api/config", map[string]any{
		"defaultDailyHours":     "7.5",
		"workingDays":           "MON,TUE,WED,THU",
		"autoBreakMinutes":      45,
		"autoBreakAfterHours":   "6",
		"selfCorrectionMaxDays": 5,
		"companyName":           "Musterfirma GmbH",
	}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/config", nil, nil)
	assert.Contains(t, rec.Body.String(), `"workingDays":"MON,TUE,WED,THU"`)
	assert.Contains(t, rec.Body.String(), `"autoBreakMinutes":45`)
}

func TestHolidayEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/holidays",
		map[string]string{"date": "2030-10-03", "name": "Tag der Deutschen Einheit"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var holiday struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &holiday))

	rec = doJSON(t, router, http.MethodGet, "/api/holidays?year=2030", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tag der Deutschen Einheit")

	rec = doJSON(t, router, http.MethodDelete, "/api/holidays/"+holiday.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/holidays/"+holiday.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryAndAvailabilityEndpoints(t *testing.T) {
	router := newTestRouter(t)
	id := createUser(t, router, "Max Mustermann")

	rec := doJSON(t, router, http.MethodGet, "/api/users/"+id+"/summary", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"plannedHours"`)

	rec = doJSON(t, router, http.MethodGet, "/api/users/"+id+"/availability", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"availableVacationDays":"30"`)
}

func TestMonthViewEndpoint_BadMonth(t *testing.T) {
	router := newTestRouter(t)
	id := createUser(t, router, "Max Mustermann")

	rec := doJSON(t, router, http.MethodGet, "/api/users/"+id+"/months/2024/13", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users/"+id+"/months/2024/6", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
