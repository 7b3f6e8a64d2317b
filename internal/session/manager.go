package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/accessfit/accessfit-gateway/internal/dashboard"
	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/pkg"

	log "github.com/sirupsen/logrus"
)

const tokenLength = 35

// Manager is the single writer of session state. It reads the store once
// at startup (Init), writes on login (Set) and logout (Clear); everything
// else only reads. The active tab lives here too, because its lifecycle is
// bound to the session: it is revalidated on every session change and
// reset on logout.
type Manager struct {
	store Store
	// injectable for unit and dev testing
	RandStringFunc func(n int) (string, error)

	mu        sync.RWMutex
	current   *Session
	activeTab dashboard.Tab
}

func NewManager(store Store) *Manager {
	return &Manager{
		store:          store,
		RandStringFunc: pkg.GenerateRandomString,
		activeTab:      dashboard.DefaultTab,
	}
}

// Init hydrates the manager from the persisted store, exactly once, at
// startup. A missing session is the normal logged-out start; a stale or
// unparsable one is discarded from the store and logged.
func (m *Manager) Init(ctx context.Context) error {
	stored, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			log.Debugln("session manager: no persisted session, starting logged out")
			return nil
		}
		var staleErr *StaleSessionError
		if errors.As(err, &staleErr) {
			log.Warnf("session manager: discarding persisted session: %s", staleErr)
			return m.store.Delete(ctx)
		}
		return err
	}

	if err := stored.validate(); err != nil {
		log.Warnf("session manager: discarding persisted session: %s", err)
		return m.store.Delete(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &stored
	m.activeTab = revalidateTab(stored.User.Role, stored.ActiveTab)

	log.Infof("session manager: restored session for user %d [%s]", stored.User.ID, stored.User.Role)
	return nil
}

// Set installs a fresh session for the given user and returns the gateway
// token the browser authenticates with from now on. A failure to persist
// is logged but does not fail the login; the session just won't survive a
// restart.
func (m *Manager) Set(ctx context.Context, user fitness.User) (string, error) {
	if user.ID == 0 {
		return "", &StaleSessionError{Reason: "missing user id"}
	}
	if !user.Role.Valid() {
		return "", &StaleSessionError{Reason: "unknown role " + string(user.Role)}
	}

	token, err := m.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	fresh := Session{
		Token:     token,
		User:      user,
		ActiveTab: dashboard.DefaultTab,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.current = &fresh
	m.activeTab = dashboard.DefaultTab
	m.mu.Unlock()

	if err := m.store.Save(ctx, fresh); err != nil {
		log.Errorf("session manager: persist session: %s", err)
	}

	return token, nil
}

// Clear logs out: drops the in-memory session, resets the active tab to
// the default and removes the persisted blob.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.activeTab = dashboard.DefaultTab
	m.mu.Unlock()

	return m.store.Delete(ctx)
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// CurrentUser is the read side the dashboard handlers use.
func (m *Manager) CurrentUser() (userID int, role fitness.Role, loggedIn bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return 0, "", false
	}
	return m.current.User.ID, m.current.User.Role, true
}

// IsLogged makes the manager usable as the auth middleware's login
// checker: a token is valid iff it matches the current session's.
func (m *Manager) IsLogged(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.Token == token, nil
}

func (m *Manager) ActiveTab() dashboard.Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeTab
}

// SetActiveTab switches tabs, refusing tabs the current role cannot see.
func (m *Manager) SetActiveTab(ctx context.Context, tab dashboard.Tab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return errors.New("no active session")
	}
	if !dashboard.TabAllowed(m.current.User.Role, tab) {
		return fmt.Errorf("tab %s not allowed for role %s", tab, m.current.User.Role)
	}

	m.activeTab = tab
	m.current.ActiveTab = tab
	if err := m.store.Save(ctx, *m.current); err != nil {
		log.Errorf("session manager: persist active tab: %s", err)
	}
	return nil
}

func revalidateTab(role fitness.Role, tab dashboard.Tab) dashboard.Tab {
	if dashboard.TabAllowed(role, tab) {
		return tab
	}
	return dashboard.DefaultTab
}
