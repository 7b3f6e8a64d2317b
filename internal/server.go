package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/accessfit/accessfit-gateway/internal/backend"
	"github.com/accessfit/accessfit-gateway/internal/config"
	"github.com/accessfit/accessfit-gateway/internal/dashboard"
	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/internal/middleware"
	"github.com/accessfit/accessfit-gateway/internal/mutation"
	"github.com/accessfit/accessfit-gateway/internal/session"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/metrics"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"
	"github.com/accessfit/accessfit-gateway/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config         *config.Config
	fitnessClient  *fitness.Client
	sessionManager *session.Manager
	holder         *dashboard.Holder

	redisClient *redis.Client

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("gateway", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "accessfit-gateway")
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   time.Duration(params.Config.FitnessApiTimeoutSeconds) * time.Second,
	}

	fitnessClient := fitness.NewClient(
		backend.NewClient(params.Config.FitnessApiURL, tracedHttpClient),
		params.Config.CatalogCacheTTLSeconds,
	)

	sessionStore, err := newSessionStore(params.Config, rdb)
	if err != nil {
		return nil, err
	}
	sessionManager := session.NewManager(sessionStore)
	if err := sessionManager.Init(ctx); err != nil {
		return nil, fmt.Errorf("init session manager: %w", err)
	}

	aggregator := dashboard.NewAggregator(fitnessClient, metricsManager)
	holder := dashboard.NewHolder(aggregator, metricsManager)

	// rebuild the dashboard for a session restored from the store
	if userID, role, loggedIn := sessionManager.CurrentUser(); loggedIn {
		holder.Refresh(ctx, userID, role)
	}

	return &Server{
		config:         params.Config,
		versionInfo:    params.VersionInfo,
		fitnessClient:  fitnessClient,
		sessionManager: sessionManager,
		holder:         holder,

		redisClient: rdb,

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func newSessionStore(cfg *config.Config, rdb *redis.Client) (session.Store, error) {
	switch cfg.SessionStore {
	case "redis":
		return session.NewRedisStore(rdb, session.DefaultSessionTTL), nil
	case "file", "":
		store, err := session.NewFileStore(cfg.SessionFilePath)
		if err != nil {
			return nil, fmt.Errorf("new file session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store: %s", cfg.SessionStore)
	}
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gateway-router"))

	r.HandleFunc("/", s.handleRoot).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", s.handleGetVersionInfo).Methods("GET").Name("version")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	sessionHandler := session.NewHandler(s.sessionManager, s.fitnessClient, s.holder)
	sessionHandler.SetupRoutes(r, reqRateLimiter, s.config.LoginRateLimitAllowedPerMin, s.metricsManager)

	dashboardHandler := dashboard.NewHandler(s.holder, s.sessionManager)
	dashboardHandler.SetupRoutes(r)

	mutationHandler := mutation.NewHandler(
		mutation.NewRunner(s.metricsManager),
		s.fitnessClient,
		s.sessionManager,
		s.holder,
	)
	mutationHandler.SetupRoutes(r)

	// read-only passthroughs that live outside the snapshot
	r.HandleFunc("/education", s.handleListEducation).Methods("GET", "OPTIONS").Name("list-education")
	r.HandleFunc("/education/{id}", s.handleGetEducationItem).Methods("GET", "OPTIONS").Name("get-education-item")
	r.HandleFunc("/patients/{id}/summary", s.handlePatientSummary).Methods("GET", "OPTIONS").Name("patient-summary")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionManager)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (s *Server) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) handleListEducation(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "server.listEducation")
	defer span.End()

	contents, err := s.fitnessClient.Education(ctx, r.URL.Query().Get("category"))
	if err != nil {
		log.Errorf("list education content: %s", err)
		http.Error(w, "failed to get education content", http.StatusInternalServerError)
		return
	}

	contentsJson, err := json.Marshal(contents)
	if err != nil {
		log.Errorf("marshal education content: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, contentsJson)
}

func (s *Server) handleGetEducationItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "server.getEducationItem")
	defer span.End()

	contentID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || contentID <= 0 {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	content, err := s.fitnessClient.EducationItem(ctx, contentID)
	if err != nil {
		var reqErr *backend.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			http.Error(w, "content not found", http.StatusNotFound)
			return
		}
		log.Errorf("get education content %d: %s", contentID, err)
		http.Error(w, "failed to get education content", http.StatusInternalServerError)
		return
	}

	contentJson, err := json.Marshal(content)
	if err != nil {
		log.Errorf("marshal education content: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, contentJson)
}

func (s *Server) handlePatientSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "server.patientSummary")
	defer span.End()

	_, role, loggedIn := s.sessionManager.CurrentUser()
	if !loggedIn {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	if !role.ManagesPatients() {
		http.Error(w, "not available", http.StatusForbidden)
		return
	}

	patientID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || patientID <= 0 {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	summary, err := s.fitnessClient.ProgressSummary(ctx, patientID)
	if err != nil {
		log.Errorf("get progress summary for patient %d: %s", patientID, err)
		http.Error(w, "failed to get progress summary", http.StatusInternalServerError)
		return
	}

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("marshal progress summary: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, summaryJson)
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("gateway service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
