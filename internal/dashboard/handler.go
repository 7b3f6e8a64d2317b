package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type sessionReader interface {
	CurrentUser() (userID int, role fitness.Role, loggedIn bool)
}

type Handler struct {
	holder  *Holder
	session sessionReader
}

func NewHandler(holder *Holder, session sessionReader) *Handler {
	return &Handler{
		holder:  holder,
		session: session,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard", handler.handleGetSnapshot).Methods("GET", "OPTIONS").Name("dashboard")
	router.HandleFunc("/dashboard/refresh", handler.handleRefresh).Methods("POST", "OPTIONS").Name("dashboard-refresh")
	router.HandleFunc("/dashboard/{tab}", handler.handleGetTab).Methods("GET", "OPTIONS").Name("dashboard-tab")
}

func (handler *Handler) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if _, _, loggedIn := handler.session.CurrentUser(); !loggedIn {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	snapshotJson, err := json.Marshal(handler.holder.Current())
	if err != nil {
		log.Errorf("marshal dashboard snapshot: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, snapshotJson)
}

func (handler *Handler) handleGetTab(w http.ResponseWriter, r *http.Request) {
	_, role, loggedIn := handler.session.CurrentUser()
	if !loggedIn {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	tab, err := ParseTab(vars["tab"])
	if err != nil {
		http.Error(w, "unknown tab", http.StatusBadRequest)
		return
	}

	view, err := BuildView(handler.holder.Current(), role, tab)
	if err != nil {
		http.Error(w, "tab not available", http.StatusForbidden)
		return
	}

	viewJson, err := json.Marshal(view)
	if err != nil {
		log.Errorf("marshal dashboard view: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, viewJson)
}

func (handler *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, role, loggedIn := handler.session.CurrentUser()
	if !loggedIn {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	handler.holder.Refresh(r.Context(), userID, role)
	pkg.WriteTextResponseOK(w, "refreshed")
}
