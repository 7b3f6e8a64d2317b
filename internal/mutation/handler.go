package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/accessfit/accessfit-gateway/internal/backend"
	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"
	"github.com/accessfit/accessfit-gateway/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type fitnessAPI interface {
	CreateExercise(ctx context.Context, params fitness.ExerciseParams) (*fitness.Exercise, error)
	UpdateExercise(ctx context.Context, id int, params fitness.ExerciseParams) (*fitness.Exercise, error)
	DeleteExercise(ctx context.Context, id int) error
	CreateAssignment(ctx context.Context, params fitness.AssignmentParams) (*fitness.Assignment, error)
	LogProgress(ctx context.Context, params fitness.ProgressParams) (*fitness.ProgressLog, error)
	AddHealthMetric(ctx context.Context, userID int, params fitness.HealthMetricParams) (*fitness.HealthMetric, error)
	LogContentAccess(ctx context.Context, userID, contentID int) error
}

type sessionReader interface {
	CurrentUser() (userID int, role fitness.Role, loggedIn bool)
}

type dashboardRefresher interface {
	Refresh(ctx context.Context, userID int, role fitness.Role)
}

// Handler exposes the mutation endpoints. Every successful mutation ends
// with a full dashboard refresh for the current session.
type Handler struct {
	runner    *Runner
	fitness   fitnessAPI
	session   sessionReader
	dashboard dashboardRefresher
}

func NewHandler(
	runner *Runner,
	fitnessClient fitnessAPI,
	session sessionReader,
	refresher dashboardRefresher,
) *Handler {
	return &Handler{
		runner:    runner,
		fitness:   fitnessClient,
		session:   session,
		dashboard: refresher,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/exercises", handler.handleCreateExercise).Methods("POST", "OPTIONS").Name("create-exercise")
	router.HandleFunc("/exercises/{id}", handler.handleUpdateExercise).Methods("PUT", "OPTIONS").Name("update-exercise")
	router.HandleFunc("/exercises/{id}", handler.handleDeleteExercise).Methods("DELETE", "OPTIONS").Name("delete-exercise")
	router.HandleFunc("/assignments", handler.handleCreateAssignment).Methods("POST", "OPTIONS").Name("create-assignment")
	router.HandleFunc("/progress", handler.handleLogProgress).Methods("POST", "OPTIONS").Name("log-progress")
	router.HandleFunc("/health-metrics", handler.handleAddHealthMetric).Methods("POST", "OPTIONS").Name("add-health-metric")
	router.HandleFunc("/education/{id}/access", handler.handleLogContentAccess).Methods("POST", "OPTIONS").Name("log-content-access")
	router.HandleFunc("/mutations/state", handler.handleState).Methods("GET").Name("mutation-state")
}

func (handler *Handler) refreshFunc() func(ctx context.Context) {
	return func(ctx context.Context) {
		userID, role, loggedIn := handler.session.CurrentUser()
		if !loggedIn {
			return
		}
		handler.dashboard.Refresh(ctx, userID, role)
	}
}

func (handler *Handler) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mutationHandler.createExercise")
	defer span.End()

	var params fitness.ExerciseParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("create exercise, unmarshal json params: %s", err)
		http.Error(w, "create exercise failed", http.StatusBadRequest)
		return
	}

	var created *fitness.Exercise
	err := handler.runner.Run(ctx, "exercise", false, false,
		func(ctx context.Context) error {
			var opErr error
			created, opErr = handler.fitness.CreateExercise(ctx, params)
			return opErr
		},
		handler.refreshFunc(),
	)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	log.Tracef("exercise %d [%s] created", created.ID, created.Name)
	writeEntityResponse(w, created, http.StatusCreated)
}

func (handler *Handler) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mutationHandler.updateExercise")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	var params fitness.ExerciseParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("update exercise, unmarshal json params: %s", err)
		http.Error(w, "update exercise failed", http.StatusBadRequest)
		return
	}

	var updated *fitness.Exercise
	err = handler.runner.Run(ctx, "exercise", false, false,
		func(ctx context.Context) error {
			var opErr error
			updated, opErr = handler.fitness.UpdateExercise(ctx, id, params)
			return opErr
		},
		handler.refreshFunc(),
	)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeEntityResponse(w, updated, http.StatusOK)
}

func (handler *Handler) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mutationHandler.deleteExercise")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	confirmed := r.URL.Query().Get("confirm") == "true"

	err = handler.runner.Run(ctx, "exercise", true, confirmed,
		func(ctx context.Context) error {
			return handler.fitness.DeleteExercise(ctx, id)
		},
		handler.refreshFunc(),
	)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func (handler *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mutationHandler.createAssignment")
	defer span.End()

	var params fitness.AssignmentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("create assignment, unmarshal json params: %s", err)
		http.Error(w, "create assignment failed", http.StatusBadRequest)
		return
	}

	// the assigner defaults to the logged-in user
	if params.AssignedBy == 0 {
		if userID, _, loggedIn := handler.session.CurrentUser(); loggedIn {
			params.AssignedBy = userID
		}
	}

	var created *fitness.Assignment
	err := handler.runner.Run(ctx, "assignment", false, false,
		func(ctx context.Context) error {
			var opErr error
			created, opErr = handler.fitness.CreateAssignment(ctx, params)
			return opErr
		},
		handler.refreshFunc(),
	)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeEntityResponse(w, created, http.StatusCreated)
}

func (handler *Handler) handleLogProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mutationHandler.logProgress")
	defer span.End()

	var params fitness.ProgressParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("log progress, unmarshal json params: %s", err)
		http.Error(w, "log progress failed", http.StatusBadRequest)
		return
	}

	var created *fitness.ProgressLog
	err := handler.runner.Run(ctx, "progress", false, false,
		func(ctx context.Context) error {
			var opErr error
			created, opErr = handler.fitness.LogProgress(ctx, params)
			return opErr
		},
		handler.refreshFunc(),
	)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeEntityResponse(w, created, http.StatusCreated)
}

func (handler *Handler) handleAddHealthMetric(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mutationHandler.addHealthMetric")
	defer span.End()

	userID, _, loggedIn := handler.session.CurrentUser()
	if !loggedIn {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	var params fitness.HealthMetricParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("add health metric, unmarshal json params: %s", err)
		http.Error(w, "add health metric failed", http.StatusBadRequest)
		return
	}

	var created *fitness.HealthMetric
	err := handler.runner.Run(ctx, "health_metric", false, false,
		func(ctx context.Context) error {
			var opErr error
			created, opErr = handler.fitness.AddHealthMetric(ctx, userID, params)
			return opErr
		},
		handler.refreshFunc(),
	)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeEntityResponse(w, created, http.StatusCreated)
}

func (handler *Handler) handleLogContentAccess(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mutationHandler.logContentAccess")
	defer span.End()

	userID, _, loggedIn := handler.session.CurrentUser()
	if !loggedIn {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	contentID, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	// access logging is fire-and-forget bookkeeping, no dashboard refresh
	err = handler.runner.Run(ctx, "content_access", false, false,
		func(ctx context.Context) error {
			return handler.fitness.LogContentAccess(ctx, userID, contentID)
		},
		nil,
	)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("access-logged:%d", contentID))
}

func (handler *Handler) handleState(w http.ResponseWriter, _ *http.Request) {
	outcome, lastErr := handler.runner.LastOutcome()
	resp := struct {
		State       State  `json:"state"`
		LastOutcome State  `json:"last_outcome"`
		LastError   string `json:"last_error,omitempty"`
	}{
		State:       handler.runner.State(),
		LastOutcome: outcome,
		LastError:   lastErr,
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func pathID(r *http.Request) (int, error) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		return 0, errors.New("id empty")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, errors.New("id invalid")
	}
	return id, nil
}

func writeEntityResponse(w http.ResponseWriter, entity any, statusCode int) {
	entityBytes, err := json.Marshal(entity)
	if err != nil {
		log.Errorf("marshal mutation response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, entityBytes, statusCode)
}

func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrConfirmationRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSubmissionInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		var valErr *fitness.ValidationError
		var reqErr *backend.RequestError
		switch {
		case errors.As(err, &valErr):
			http.Error(w, NormalizeError(err), http.StatusBadRequest)
		case errors.As(err, &reqErr) && reqErr.StatusCode >= 400 && reqErr.StatusCode < 500:
			http.Error(w, NormalizeError(err), reqErr.StatusCode)
		default:
			log.Errorf("mutation failed: %s", err)
			http.Error(w, NormalizeError(err), http.StatusInternalServerError)
		}
	}
}
