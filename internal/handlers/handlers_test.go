package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
	"github.com/ternarybob/outing/internal/ratelimit"
)

// mockItineraryService implements interfaces.ItineraryService for testing
type mockItineraryService struct {
	generateFunc func(ctx context.Context, filters models.GenerationFilters) (*models.GenerationResult, error)
}

func (m *mockItineraryService) GenerateItinerary(ctx context.Context, filters models.GenerationFilters) (*models.GenerationResult, error) {
	return m.generateFunc(ctx, filters)
}

// mockPlacesService implements interfaces.PlacesService for testing
type mockPlacesService struct {
	lookupFunc func(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error)
}

func (m *mockPlacesService) LookupBusiness(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error) {
	return m.lookupFunc(ctx, name, locationHint, bias)
}

// mockEnricher implements interfaces.StepEnricher for testing
type mockEnricher struct {
	enrichFunc func(ctx context.Context, step models.ItineraryStep, label string) (models.ItineraryStep, error)
}

func (m *mockEnricher) EnrichStep(ctx context.Context, step models.ItineraryStep, label string) (models.ItineraryStep, error) {
	return m.enrichFunc(ctx, step, label)
}

func (m *mockEnricher) EnrichSteps(ctx context.Context, steps []models.ItineraryStep, label string, bias *models.LocationBias) ([]models.ItineraryStep, error) {
	return steps, nil
}

// mockScheduler implements interfaces.SchedulerService for testing
type mockScheduler struct {
	interfaces.SchedulerService
	jobs map[string]string
}

func (m *mockScheduler) IsRunning() bool { return true }

func (m *mockScheduler) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	out := make(map[string]*interfaces.JobStatus)
	for name := range m.jobs {
		out[name] = &interfaces.JobStatus{Name: name}
	}
	return out
}

func (m *mockScheduler) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	if _, ok := m.jobs[name]; !ok {
		return nil, errors.New("job " + name + " not found")
	}
	return &interfaces.JobStatus{Name: name}, nil
}

func (m *mockScheduler) TriggerJob(ctx context.Context, name string) (string, error) {
	return m.jobs[name], nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerateHandler_Success(t *testing.T) {
	var got models.GenerationFilters
	svc := &mockItineraryService{generateFunc: func(ctx context.Context, filters models.GenerationFilters) (*models.GenerationResult, error) {
		got = filters
		return &models.GenerationResult{ID: "itn_1", Source: models.SourceStructured}, nil
	}}
	handler := NewItineraryHandler(svc, validator.New(), arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/itinerary", strings.NewReader(`{"location":"Austin","interests":["food"],"group_size":2}`))
	rec := httptest.NewRecorder()
	handler.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Austin", got.Location)
	assert.Equal(t, 2, got.GroupSize)
	assert.Equal(t, "itn_1", decodeBody(t, rec)["id"])
}

func TestGenerateHandler_Validation(t *testing.T) {
	svc := &mockItineraryService{generateFunc: func(ctx context.Context, filters models.GenerationFilters) (*models.GenerationResult, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	handler := NewItineraryHandler(svc, validator.New(), arbor.NewLogger())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"location":`},
		{"unknown field", `{"locaton":"Austin"}`},
		{"latitude out of range", `{"location":"Austin","latitude":123,"longitude":1}`},
		{"negative group size", `{"group_size":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/itinerary", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.GenerateHandler(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", decodeBody(t, rec)["status"])
		})
	}
}

func TestGenerateHandler_MethodNotAllowed(t *testing.T) {
	handler := NewItineraryHandler(&mockItineraryService{}, validator.New(), arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.GenerateHandler(rec, httptest.NewRequest(http.MethodGet, "/api/itinerary", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGenerateHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ratelimit.ErrQueueFull, http.StatusTooManyRequests},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		svc := &mockItineraryService{generateFunc: func(ctx context.Context, filters models.GenerationFilters) (*models.GenerationResult, error) {
			return nil, tt.err
		}}
		handler := NewItineraryHandler(svc, validator.New(), arbor.NewLogger())

		rec := httptest.NewRecorder()
		handler.GenerateHandler(rec, httptest.NewRequest(http.MethodPost, "/api/itinerary", strings.NewReader(`{}`)))
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}
}

func TestLookupHandler(t *testing.T) {
	var gotName, gotLocation string
	var gotBias *models.LocationBias
	places := &mockPlacesService{lookupFunc: func(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error) {
		gotName, gotLocation, gotBias = name, locationHint, bias
		if name == "Nowhere Cafe" {
			return nil, nil
		}
		return &models.EnrichedPlace{PlaceCandidate: models.PlaceCandidate{ID: "place-1", DisplayName: name}}, nil
	}}
	handler := NewPlacesHandler(places, &mockEnricher{}, validator.New(), arbor.NewLogger())

	t.Run("found with bias", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.LookupHandler(rec, httptest.NewRequest(http.MethodGet, "/api/places/lookup?name=Uchi&location=Austin&lat=30.25&lng=-97.75&radius=5000", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Uchi", gotName)
		assert.Equal(t, "Austin", gotLocation)
		require.NotNil(t, gotBias)
		assert.Equal(t, 5000.0, gotBias.RadiusMeters)
		assert.Equal(t, "place-1", decodeBody(t, rec)["id"])
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.LookupHandler(rec, httptest.NewRequest(http.MethodGet, "/api/places/lookup?name=Nowhere+Cafe", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Nil(t, gotBias)
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, query := range []string{
			"",
			"?location=Austin",
			"?name=Uchi&lat=abc",
			"?name=Uchi&lat=30.2",
			"?name=Uchi&lat=95&lng=10",
		} {
			rec := httptest.NewRecorder()
			handler.LookupHandler(rec, httptest.NewRequest(http.MethodGet, "/api/places/lookup"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		}
	})
}

func TestEnrichStepHandler(t *testing.T) {
	enricher := &mockEnricher{enrichFunc: func(ctx context.Context, step models.ItineraryStep, label string) (models.ItineraryStep, error) {
		assert.Equal(t, "Austin", label)
		step.Validated = true
		return step, nil
	}}
	handler := NewPlacesHandler(&mockPlacesService{}, enricher, validator.New(), arbor.NewLogger())

	body := `{"step":{"time":"12:00 PM","title":"Lunch","location":"East Austin","business_name":"Franklin Barbecue","booking":{"method":"walk-in"}},"location_label":"Austin"}`
	rec := httptest.NewRecorder()
	handler.EnrichStepHandler(rec, httptest.NewRequest(http.MethodPost, "/api/steps/enrich", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var step models.ItineraryStep
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &step))
	assert.True(t, step.Validated)
	assert.Equal(t, "Franklin Barbecue", step.BusinessName)
}

func TestMaintenanceHandler(t *testing.T) {
	handler := NewMaintenanceHandler(&mockScheduler{jobs: map[string]string{"purge_expired_cache": "removed 2 expired entries"}})

	rec := httptest.NewRecorder()
	handler.ListJobsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/maintenance/jobs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["jobs"], "purge_expired_cache")

	rec = httptest.NewRecorder()
	handler.RunJobHandler(rec, httptest.NewRequest(http.MethodPost, "/api/maintenance/jobs/purge_expired_cache/run", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "removed 2 expired entries", decodeBody(t, rec)["result"])

	rec = httptest.NewRecorder()
	handler.RunJobHandler(rec, httptest.NewRequest(http.MethodPost, "/api/maintenance/jobs/unknown/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIHandler(t *testing.T) {
	handler := NewAPIHandler(arbor.NewLogger(), "memory")

	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", decodeBody(t, rec)["storage"])

	rec = httptest.NewRecorder()
	handler.VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "version")
}
