package session

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/docdesk/internal/client/api"
	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/client/persist"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

// Rejection is returned by an operation that ended rejected. Message is the
// same text recorded in State.Error.
type Rejection struct {
	Op      string
	Message string
	Err     error
}

func (r *Rejection) Error() string { return r.Op + ": " + r.Message }

func (r *Rejection) Unwrap() error { return r.Err }

func (m *Machine) Signup(ctx context.Context, req models.SignupRequest) error {
	m.authPending()
	resp, err := m.svc.Signup(ctx, req)
	return m.settleAuth(ctx, "signup", resp, err, common.MsgSignupFailed)
}

func (m *Machine) Login(ctx context.Context, req models.LoginRequest) error {
	m.authPending()
	resp, err := m.svc.Login(ctx, req)
	return m.settleAuth(ctx, "login", resp, err, common.MsgLoginFailed)
}

// OAuthSuccess takes a credential handed over by the OAuth callback. It
// does not call the service.
func (m *Machine) OAuthSuccess(ctx context.Context, token string, user *models.User) error {
	m.authPending()
	if token == "" || user == nil {
		return m.rejectAuth(ctx, "oauth", common.ErrNoCredential, common.MsgOAuthFailed)
	}
	m.fulfillAuth(ctx, token, user)
	return nil
}

// GoogleSignIn exchanges a Google credential for a session with the service.
func (m *Machine) GoogleSignIn(ctx context.Context, googleToken string) error {
	m.authPending()
	if googleToken == "" {
		return m.rejectAuth(ctx, "google-signin", common.ErrNoCredential, common.MsgOAuthFailed)
	}
	resp, err := m.svc.GoogleOAuthSuccess(ctx, googleToken)
	return m.settleAuth(ctx, "google-signin", resp, err, common.MsgOAuthFailed)
}

func (m *Machine) authPending() {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})
}

func (m *Machine) settleAuth(ctx context.Context, op string, resp *api.Response[models.AuthResponse], err error, fallback string) error {
	if err == nil {
		err = authPayloadError(resp)
	}
	if err != nil {
		return m.rejectAuth(ctx, op, err, fallback)
	}
	m.fulfillAuth(ctx, resp.Data.Token, resp.Data.User)
	return nil
}

func authPayloadError(resp *api.Response[models.AuthResponse]) error {
	if !resp.Success || resp.Data == nil {
		return &api.RejectedError{Message: resp.Message}
	}
	if resp.Data.Token == "" || resp.Data.User == nil {
		return common.ErrNoCredential
	}
	return nil
}

func (m *Machine) fulfillAuth(ctx context.Context, token string, user *models.User) {
	if err := m.creds.SetCredential(ctx, token, user); err != nil {
		m.log.Error(ctx, "store credential", "error", err)
	}
	m.update(func(s *State) {
		s.IsLoading = false
		s.authenticate(token, user)
	})
}

// rejectAuth drops whatever session existed, in memory and in the store.
func (m *Machine) rejectAuth(ctx context.Context, op string, err error, fallback string) error {
	msg := ExtractMessage(err, fallback)
	m.log.Info(ctx, "auth rejected", "op", op, "error", err)
	m.creds.Clear(ctx)
	m.update(func(s *State) {
		s.IsLoading = false
		s.deauthenticate(msg)
	})
	return &Rejection{Op: op, Message: msg, Err: err}
}

func (m *Machine) ForgotPassword(ctx context.Context, email string) error {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
		s.Messages.ForgotPassword = ""
	})

	resp, err := m.svc.ForgotPassword(ctx, models.ForgotPasswordRequest{Email: email})
	if err == nil && !resp.Success {
		err = &api.RejectedError{Message: resp.Message}
	}
	if err != nil {
		msg := ExtractMessage(err, common.MsgForgotFailed)
		m.update(func(s *State) {
			s.IsLoading = false
			s.Error = msg
			s.Messages.ForgotPassword = ""
		})
		return &Rejection{Op: "forgot-password", Message: msg, Err: err}
	}

	m.update(func(s *State) {
		s.IsLoading = false
		s.Error = ""
		s.Messages.ForgotPassword = resp.Message
	})
	return nil
}

// ResetPassword sets the new password. When the service answers with a fresh
// credential the session becomes authenticated with it.
func (m *Machine) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
		s.Messages.ResetPassword = ""
	})

	resp, err := m.svc.ResetPassword(ctx, req)
	if err == nil && !resp.Success {
		err = &api.RejectedError{Message: resp.Message}
	}
	if err != nil {
		msg := ExtractMessage(err, common.MsgResetFailed)
		m.update(func(s *State) {
			s.IsLoading = false
			s.Error = msg
			s.Messages.ResetPassword = ""
		})
		return &Rejection{Op: "reset-password", Message: msg, Err: err}
	}

	var cred *models.AuthResponse
	if resp.Data != nil && resp.Data.Token != "" && resp.Data.User != nil {
		cred = resp.Data
		if err := m.creds.SetCredential(ctx, cred.Token, cred.User); err != nil {
			m.log.Error(ctx, "store credential", "error", err)
		}
	}
	m.update(func(s *State) {
		s.IsLoading = false
		s.Error = ""
		s.Messages.ResetPassword = resp.Message
		if cred != nil {
			s.authenticate(cred.Token, cred.User)
		}
	})
	return nil
}

// Logout clears the credential store and the persisted keys, then resets the
// state to baseline in one transition.
func (m *Machine) Logout(ctx context.Context) {
	m.creds.Clear(ctx)
	m.update(func(s *State) { *s = baseline() })
}

// LoadFromStorage restores the session from the credential store when both
// token and user are readable. It reports whether it did.
func (m *Machine) LoadFromStorage(ctx context.Context) bool {
	token, ok := m.creds.Token(ctx)
	if !ok {
		return false
	}
	user, ok := m.creds.User(ctx)
	if !ok {
		return false
	}
	m.update(func(s *State) {
		s.User = user
		s.Token = token
		s.IsAuthenticated = true
	})
	return true
}

// Rehydrate applies a persisted snapshot. If it disagrees with the credential
// store, both the store and the state are forced to baseline. It reports
// whether the snapshot was accepted.
func (m *Machine) Rehydrate(ctx context.Context, snap persist.Snapshot) bool {
	token, tokenOK := m.creds.Token(ctx)
	user, userOK := m.creds.User(ctx)

	var agree bool
	if snap.IsAuthenticated {
		agree = tokenOK && userOK &&
			snap.Token == token &&
			snap.User != nil && snap.User.ID == user.ID
	} else {
		agree = !tokenOK && !userOK
	}

	if !agree {
		m.log.Warn(ctx, "persisted session disagrees with credential store, resetting")
		m.creds.Clear(ctx)
		m.update(func(s *State) { *s = baseline() })
		return false
	}

	m.update(func(s *State) {
		if snap.IsAuthenticated {
			s.User = snap.User.Clone()
			s.Token = snap.Token
			s.IsAuthenticated = true
			return
		}
		s.User = nil
		s.Token = ""
		s.IsAuthenticated = false
	})
	return true
}

// IsRejection reports whether err came from a rejected operation.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
