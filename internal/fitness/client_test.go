package fitness_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/accessfit/accessfit-gateway/internal/backend"
	"github.com/accessfit/accessfit-gateway/internal/fitness"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory rendition of the fitness REST service,
// enough of it to exercise every accessor.
type fakeBackend struct {
	mu        sync.Mutex
	exercises map[int]fitness.Exercise
	nextID    int
	requests  []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		exercises: map[int]fitness.Exercise{},
		nextID:    1,
	}
}

func (f *fakeBackend) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()

		switch {
		case r.URL.Path == "/exercises" && r.Method == http.MethodGet:
			f.mu.Lock()
			list := make([]fitness.Exercise, 0, len(f.exercises))
			for _, ex := range f.exercises {
				list = append(list, ex)
			}
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(list)

		case r.URL.Path == "/exercises" && r.Method == http.MethodPost:
			var params fitness.ExerciseParams
			_ = json.NewDecoder(r.Body).Decode(&params)
			f.mu.Lock()
			created := fitness.Exercise{
				ID:                f.nextID,
				Name:              params.Name,
				Description:       params.Description,
				Difficulty:        params.Difficulty,
				TargetMuscleGroup: params.TargetMuscleGroup,
				EquipmentNeeded:   params.EquipmentNeeded,
			}
			f.exercises[f.nextID] = created
			f.nextID++
			f.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(created)

		case strings.HasPrefix(r.URL.Path, "/exercises/") && r.Method == http.MethodDelete:
			id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/exercises/"))
			f.mu.Lock()
			_, found := f.exercises[id]
			delete(f.exercises, id)
			f.mu.Unlock()
			if !found {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"exercise not found"}`))
				return
			}
			w.WriteHeader(http.StatusOK)

		case strings.HasPrefix(r.URL.Path, "/exercises/") && r.Method == http.MethodGet:
			id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/exercises/"))
			f.mu.Lock()
			ex, found := f.exercises[id]
			f.mu.Unlock()
			if !found {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(ex)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestClient(t *testing.T, handler http.Handler) (*fitness.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return fitness.NewClient(backend.NewClient(srv.URL, srv.Client()), 60), srv
}

func TestClient_exerciseRoundTrip(t *testing.T) {
	fake := newFakeBackend()
	client, _ := newTestClient(t, fake.handler())
	ctx := context.Background()

	params := fitness.ExerciseParams{
		Name:              "Seated Arm Raises",
		Description:       gofakeit.Sentence(8),
		Difficulty:        fitness.DifficultyEasy,
		TargetMuscleGroup: "Shoulders",
		EquipmentNeeded:   "None",
	}

	created, err := client.CreateExercise(ctx, params)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	listed, err := client.Exercises(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, params.Name, listed[0].Name)
	assert.Equal(t, params.Description, listed[0].Description)
	assert.Equal(t, params.Difficulty, listed[0].Difficulty)
	assert.Equal(t, params.TargetMuscleGroup, listed[0].TargetMuscleGroup)
	assert.Equal(t, params.EquipmentNeeded, listed[0].EquipmentNeeded)

	fetched, err := client.Exercise(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *fetched)
}

func TestClient_createExercise_validation(t *testing.T) {
	fake := newFakeBackend()
	client, _ := newTestClient(t, fake.handler())

	_, err := client.CreateExercise(context.Background(), fitness.ExerciseParams{
		Name:       "",
		Difficulty: "Impossible",
	})
	require.Error(t, err)

	var valErr *fitness.ValidationError
	require.True(t, errors.As(err, &valErr))
	// nothing went over the wire
	assert.Zero(t, fake.requestCount())
}

func TestClient_exercisesCache(t *testing.T) {
	fake := newFakeBackend()
	client, _ := newTestClient(t, fake.handler())
	ctx := context.Background()

	_, err := client.Exercises(ctx)
	require.NoError(t, err)
	_, err = client.Exercises(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.requestCount(), "second list should be served from cache")

	// a create invalidates the catalog cache
	_, err = client.CreateExercise(ctx, fitness.ExerciseParams{
		Name:       "Wheelchair Push",
		Difficulty: fitness.DifficultyMedium,
	})
	require.NoError(t, err)

	listed, err := client.Exercises(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, 3, fake.requestCount())
}

func TestClient_deleteExercise_idempotence(t *testing.T) {
	fake := newFakeBackend()
	client, _ := newTestClient(t, fake.handler())
	ctx := context.Background()

	first, err := client.CreateExercise(ctx, fitness.ExerciseParams{
		Name:       "Resistance Band Pull",
		Difficulty: fitness.DifficultyHard,
	})
	require.NoError(t, err)
	second, err := client.CreateExercise(ctx, fitness.ExerciseParams{
		Name:       "Seated March",
		Difficulty: fitness.DifficultyEasy,
	})
	require.NoError(t, err)

	require.NoError(t, client.DeleteExercise(ctx, first.ID))

	// the second delete fails distinctly with not-found
	err = client.DeleteExercise(ctx, first.ID)
	require.Error(t, err)
	var reqErr *backend.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "exercise not found", reqErr.Message)

	// other exercises stay intact
	listed, err := client.Exercises(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, second.ID, listed[0].ID)
}

func TestClient_missingIDGuards(t *testing.T) {
	requestsSeen := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsSeen++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ctx := context.Background()

	assignments, err := client.UserAssignments(ctx, 0, "")
	require.NoError(t, err)
	assert.Empty(t, assignments)

	stats, err := client.WeeklyProgress(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, fitness.WeeklyStats{}, stats)

	summary, err := client.ProgressSummary(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, fitness.ProgressSummary{}, summary)

	metrics, err := client.HealthMetrics(ctx, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, metrics)

	assert.Zero(t, requestsSeen, "missing-id guards must not hit the network")

	// mutations with a missing user id fail locally instead
	_, err = client.AddHealthMetric(ctx, 0, fitness.HealthMetricParams{
		Weight:        80,
		BloodPressure: "120/80",
		MobilityScore: 7,
	})
	var valErr *fitness.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Zero(t, requestsSeen)
}

func TestClient_userAssignments_defaultStatus(t *testing.T) {
	var gotStatus string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := client.UserAssignments(context.Background(), 12, "")
	require.NoError(t, err)
	assert.Equal(t, "Active", gotStatus)

	_, err = client.UserAssignments(context.Background(), 12, "Completed")
	require.NoError(t, err)
	assert.Equal(t, "Completed", gotStatus)
}

func TestClient_healthMetrics_limit(t *testing.T) {
	var gotLimit string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := client.HealthMetrics(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "5", gotLimit)

	_, err = client.HealthMetrics(context.Background(), 3, 20)
	require.NoError(t, err)
	assert.Equal(t, "20", gotLimit)
}

func TestClient_logProgress_validation(t *testing.T) {
	requestsSeen := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsSeen++
	}))

	testCases := []fitness.ProgressParams{
		{AssignmentID: 0, DurationMinutes: 30, ProgressScore: 5},
		{AssignmentID: 1, DurationMinutes: 0, ProgressScore: 5},
		{AssignmentID: 1, DurationMinutes: 30, ProgressScore: 0},
		{AssignmentID: 1, DurationMinutes: 30, ProgressScore: 11},
		{AssignmentID: 1, DurationMinutes: 30, ProgressScore: 5, CaloriesBurned: -10},
	}
	for i, params := range testCases {
		_, err := client.LogProgress(context.Background(), params)
		var valErr *fitness.ValidationError
		require.True(t, errors.As(err, &valErr), "case %d should fail validation", i)
	}
	assert.Zero(t, requestsSeen)
}

func TestClient_patients_fallbackToAllUsers(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/patients":
			w.WriteHeader(http.StatusNotFound)
		case "/users/all":
			_, _ = w.Write([]byte(`[
				{"id":1,"name":"Pat","role":"PWD"},
				{"id":2,"name":"Terry","role":"THERAPIST"},
				{"id":3,"name":"Paula","role":"PWD"}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	patients, err := client.Patients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 2)
	for _, p := range patients {
		assert.Equal(t, fitness.RolePWD, p.Role)
	}
}

func TestClient_patients_dedicatedEndpoint(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/patients", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Pat","role":"PWD"}]`))
	}))

	patients, err := client.Patients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Pat", patients[0].Name)
}

func TestClient_education_categoryQuery(t *testing.T) {
	var queries []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		_, _ = w.Write([]byte(fmt.Sprintf(`[{"content_id":%d,"title":"t","category":"c"}]`, len(queries))))
	}))
	ctx := context.Background()

	_, err := client.Education(ctx, "")
	require.NoError(t, err)
	_, err = client.Education(ctx, "Nutrition")
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Empty(t, queries[0])
	assert.Equal(t, "category=Nutrition", queries[1])

	// both categories are now cached independently
	_, err = client.Education(ctx, "")
	require.NoError(t, err)
	_, err = client.Education(ctx, "Nutrition")
	require.NoError(t, err)
	assert.Len(t, queries, 2)
}

func TestClient_educationItem(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/education/12", r.URL.Path)
		_, _ = w.Write([]byte(`{"content_id":12,"title":"Stretching Basics","category":"Mobility"}`))
	}))
	ctx := context.Background()

	content, err := client.EducationItem(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, content.ID)
	assert.Equal(t, "Stretching Basics", content.Title)
	assert.Equal(t, 1, requests)

	// a missing id resolves locally, nothing is fetched
	_, err = client.EducationItem(ctx, 0)
	require.ErrorIs(t, err, fitness.ErrNotFound)
	assert.Equal(t, 1, requests)
}

func TestClient_educationItem_notFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"content not found"}`))
	}))

	_, err := client.EducationItem(context.Background(), 404)
	var reqErr *backend.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "content not found", reqErr.Message)
}
