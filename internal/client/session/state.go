package session

import (
	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/client/persist"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

// Phase is the conceptual state of the session, derived from State.
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
	PhaseError          Phase = "error"
)

// Directory is the paginated user listing.
type Directory struct {
	Items   []models.User
	Total   int
	Page    int
	HasMore bool
}

// Messages hold the one-shot confirmations of the password flows.
type Messages struct {
	ForgotPassword string
	ResetPassword  string
}

// State is the in-memory session. Readers always get a deep copy.
type State struct {
	User            *models.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	Directory       Directory
	Messages        Messages
}

func baseline() State {
	return State{Directory: Directory{Page: common.DefaultPage}}
}

func (s State) clone() State {
	c := s
	c.User = s.User.Clone()
	if s.Directory.Items != nil {
		c.Directory.Items = append([]models.User(nil), s.Directory.Items...)
	}
	return c
}

// Phase derives the conceptual state.
func (s State) Phase() Phase {
	switch {
	case s.IsAuthenticated:
		return PhaseAuthenticated
	case s.IsLoading:
		return PhaseAuthenticating
	case s.Error != "":
		return PhaseError
	default:
		return PhaseAnonymous
	}
}

// Persisted returns the whitelisted subset saved across restarts.
func (s State) Persisted() persist.Snapshot {
	return persist.Snapshot{
		User:            s.User.Clone(),
		Token:           s.Token,
		IsAuthenticated: s.IsAuthenticated,
	}
}

func (s *State) authenticate(token string, user *models.User) {
	s.User = user.Clone()
	s.Token = token
	s.IsAuthenticated = true
	s.Error = ""
}

func (s *State) deauthenticate(msg string) {
	s.User = nil
	s.Token = ""
	s.IsAuthenticated = false
	s.Error = msg
}
