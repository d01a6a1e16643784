// Package session is the client's session state machine. It drives the auth
// and directory calls against the service, keeps the credential store in step
// with the in-memory state and notifies subscribers on every transition.
//
// Each operation runs pending → fulfilled | rejected. Transitions are atomic,
// but independent operations are not ordered: when two calls overlap, the one
// that completes last wins. Callers gate duplicate submissions themselves
// (State.IsLoading is there for that).
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/docdesk/internal/client/api"
	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/logging"
)

// Service is the slice of the remote API the machine needs.
type Service interface {
	Signup(ctx context.Context, req models.SignupRequest) (*api.Response[models.AuthResponse], error)
	Login(ctx context.Context, req models.LoginRequest) (*api.Response[models.AuthResponse], error)
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (*api.Response[json.RawMessage], error)
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*api.Response[models.AuthResponse], error)
	GoogleOAuthSuccess(ctx context.Context, googleToken string) (*api.Response[models.AuthResponse], error)
	GetUsers(ctx context.Context, page, limit int) (*api.UserListing, error)
}

// CredentialStore persists the live credential.
type CredentialStore interface {
	SetCredential(ctx context.Context, token string, user *models.User) error
	Token(ctx context.Context) (string, bool)
	User(ctx context.Context) (*models.User, bool)
	Clear(ctx context.Context)
}

// Listener receives a copy of the state after a transition. Listeners run
// one at a time and must not start transitions themselves.
type Listener func(State)

type Machine struct {
	svc   Service
	creds CredentialStore
	log   logging.Logger

	mu      sync.Mutex
	state   State
	version uint64

	notifyMu  sync.Mutex
	notified  uint64
	listeners []subscription
	nextSubID int
}

type subscription struct {
	id int
	fn Listener
}

func NewMachine(svc Service, creds CredentialStore, log logging.Logger) *Machine {
	return &Machine{
		svc:   svc,
		creds: creds,
		log:   log.With("component", "session"),
		state: baseline(),
	}
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *Machine) Phase() Phase {
	return m.Snapshot().Phase()
}

// Subscribe registers fn and returns a function that removes it.
func (m *Machine) Subscribe(fn Listener) (unsubscribe func()) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.nextSubID++
	id := m.nextSubID
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})

	return func() {
		m.notifyMu.Lock()
		defer m.notifyMu.Unlock()
		for i, s := range m.listeners {
			if s.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// update applies fn as one transition and notifies listeners. A notification
// overtaken by a newer transition is dropped, so listeners never observe the
// state going backwards.
func (m *Machine) update(fn func(*State)) {
	m.mu.Lock()
	fn(&m.state)
	m.version++
	v := m.version
	snap := m.state.clone()
	m.mu.Unlock()

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if v <= m.notified {
		return
	}
	m.notified = v
	for _, s := range m.listeners {
		s.fn(snap.clone())
	}
}

func (m *Machine) ClearErrors() {
	m.update(func(s *State) { s.Error = "" })
}

func (m *Machine) ClearMessages() {
	m.update(func(s *State) {
		s.Messages = Messages{}
	})
}

func (m *Machine) SetLoading(loading bool) {
	m.update(func(s *State) { s.IsLoading = loading })
}

func (m *Machine) SetError(msg string) {
	m.update(func(s *State) { s.Error = msg })
}
