package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/accessfit/accessfit-gateway/internal/backend"
	"github.com/accessfit/accessfit-gateway/internal/dashboard"
	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/internal/middleware"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/metrics"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"
	"github.com/accessfit/accessfit-gateway/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type authAPI interface {
	Login(ctx context.Context, creds fitness.Credentials) (*fitness.User, error)
	Register(ctx context.Context, params fitness.RegisterParams) (*fitness.User, error)
}

type dashboardRefresher interface {
	Refresh(ctx context.Context, userID int, role fitness.Role)
	Reset()
}

type Handler struct {
	manager   *Manager
	fitness   authAPI
	dashboard dashboardRefresher
}

func NewHandler(manager *Manager, fitnessClient authAPI, refresher dashboardRefresher) *Handler {
	return &Handler{
		manager:   manager,
		fitness:   fitnessClient,
		dashboard: refresher,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) {
	// registered before the /a subrouter so it is matched first and stays
	// outside the auth rate limit
	mainRouter.HandleFunc("/a/tab/{tab}", handler.handleSetTab).Methods("POST", "OPTIONS").Name("set-tab")

	authSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	authSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	authSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "POST", "OPTIONS").Name("logout")
	authSubrouter.
		HandleFunc("/register", handler.handleRegister).
		Methods("POST", "OPTIONS").Name("register")

	// rate limit login/register to prevent credential stuffing
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", allowedPerMin, metricsManager))
	authSubrouter.Use(middleware.Cors())
}

type loginResponse struct {
	Token string       `json:"token"`
	User  fitness.User `json:"user"`
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "sessionHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var creds fitness.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	user, err := handler.fitness.Login(ctx, creds)
	if err != nil {
		writeAuthError(w, "login", err)
		return
	}

	token, err := handler.manager.Set(ctx, *user)
	if err != nil {
		log.Errorf("login, set session: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	// hydrate the dashboard for the fresh session before answering, so the
	// first snapshot read is never empty
	handler.dashboard.Refresh(ctx, user.ID, user.Role)

	log.Tracef("login success for user %d [%s]", user.ID, user.Role)

	respBytes, err := json.Marshal(loginResponse{Token: token, User: *user})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "sessionHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := handler.manager.Clear(ctx); err != nil {
		log.Errorf("logout, clear session: %s", err)
	}
	handler.dashboard.Reset()

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "sessionHandler.register")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var params fitness.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	user, err := handler.fitness.Register(ctx, params)
	if err != nil {
		writeAuthError(w, "register", err)
		return
	}

	log.Tracef("register success for user %d [%s]", user.ID, user.Role)

	userBytes, err := json.Marshal(user)
	if err != nil {
		log.Errorf("register, marshal response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userBytes, http.StatusCreated)
}

func (handler *Handler) handleSetTab(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "sessionHandler.setTab")
	defer span.End()

	vars := mux.Vars(r)
	tab, err := dashboard.ParseTab(vars["tab"])
	if err != nil {
		http.Error(w, "unknown tab", http.StatusBadRequest)
		return
	}

	if err := handler.manager.SetActiveTab(ctx, tab); err != nil {
		log.Tracef("set tab refused: %s", err)
		http.Error(w, "tab not available", http.StatusForbidden)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("tab:%s", tab))
}

// writeAuthError maps a failed backend auth call onto the response: the
// backend's own 4xx verdicts pass through with their message, everything
// else is a plain 500.
func writeAuthError(w http.ResponseWriter, op string, err error) {
	var valErr *fitness.ValidationError
	if errors.As(err, &valErr) {
		http.Error(w, valErr.Error(), http.StatusBadRequest)
		return
	}

	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode >= 400 && reqErr.StatusCode < 500 {
		log.Tracef("%s refused by backend: %s", op, reqErr.Message)
		http.Error(w, reqErr.Message, reqErr.StatusCode)
		return
	}

	log.Errorf("%s failed: %s", op, err)
	http.Error(w, op+" failed", http.StatusInternalServerError)
}
