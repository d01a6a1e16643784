package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/docdesk/internal/client/api"
	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/common"
	"github.com/dmitrijs2005/docdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	signup   func(models.SignupRequest) (*api.Response[models.AuthResponse], error)
	login    func(models.LoginRequest) (*api.Response[models.AuthResponse], error)
	forgot   func(models.ForgotPasswordRequest) (*api.Response[json.RawMessage], error)
	reset    func(models.ResetPasswordRequest) (*api.Response[models.AuthResponse], error)
	google   func(googleToken string) (*api.Response[models.AuthResponse], error)
	getUsers func(page, limit int) (*api.UserListing, error)
}

func (f *fakeService) Signup(_ context.Context, r models.SignupRequest) (*api.Response[models.AuthResponse], error) {
	return f.signup(r)
}

func (f *fakeService) Login(_ context.Context, r models.LoginRequest) (*api.Response[models.AuthResponse], error) {
	return f.login(r)
}

func (f *fakeService) ForgotPassword(_ context.Context, r models.ForgotPasswordRequest) (*api.Response[json.RawMessage], error) {
	return f.forgot(r)
}

func (f *fakeService) ResetPassword(_ context.Context, r models.ResetPasswordRequest) (*api.Response[models.AuthResponse], error) {
	return f.reset(r)
}

func (f *fakeService) GoogleOAuthSuccess(_ context.Context, googleToken string) (*api.Response[models.AuthResponse], error) {
	return f.google(googleToken)
}

func (f *fakeService) GetUsers(_ context.Context, page, limit int) (*api.UserListing, error) {
	return f.getUsers(page, limit)
}

type fakeCreds struct {
	mu      sync.Mutex
	token   string
	user    *models.User
	cleared int
	setErr  error
}

func (f *fakeCreds) SetCredential(_ context.Context, token string, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.token, f.user = token, user.Clone()
	return nil
}

func (f *fakeCreds) Token(context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeCreds) User(context.Context) (*models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user.Clone(), f.user != nil
}

func (f *fakeCreds) Clear(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.user = "", nil
	f.cleared++
}

var (
	alice = &models.User{ID: 1, Name: "Alice", Email: "alice@example.com", Provider: models.ProviderLocal}
	bob   = &models.User{ID: 2, Name: "Bob", Email: "bob@example.com", Provider: models.ProviderGoogle}
)

func authOK(token string, u *models.User) (*api.Response[models.AuthResponse], error) {
	return &api.Response[models.AuthResponse]{
		Success: true,
		Message: "ok",
		Data:    &models.AuthResponse{Token: token, User: u.Clone()},
	}, nil
}

func users(ids ...int64) []models.User {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.User{ID: id})
	}
	return out
}

func page(items []models.User, pg int, hasMore bool) *api.UserListing {
	return &api.UserListing{
		Page:      models.Page[models.User]{Items: items, Total: 10, Page: pg, Limit: 2, HasMore: hasMore},
		Paginated: true,
	}
}

func newMachine(svc *fakeService) (*Machine, *fakeCreds) {
	creds := &fakeCreds{}
	return NewMachine(svc, creds, logging.Discard()), creds
}

func TestBaseline(t *testing.T) {
	m, _ := newMachine(&fakeService{})
	s := m.Snapshot()
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, common.DefaultPage, s.Directory.Page)
	assert.Equal(t, PhaseAnonymous, m.Phase())
}

func TestLogin_Fulfilled(t *testing.T) {
	svc := &fakeService{login: func(r models.LoginRequest) (*api.Response[models.AuthResponse], error) {
		assert.Equal(t, "alice@example.com", r.Email)
		return authOK("tok-a", alice)
	}}
	m, creds := newMachine(svc)
	m.SetError("stale")

	require.NoError(t, m.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "pw"}))

	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Empty(t, s.Error)
	assert.Equal(t, "tok-a", s.Token)
	assert.Equal(t, alice, s.User)
	assert.Equal(t, PhaseAuthenticated, s.Phase())

	assert.Equal(t, "tok-a", creds.token)
	assert.Equal(t, alice, creds.user)
}

func TestLogin_RejectedWithServerMessage(t *testing.T) {
	svc := &fakeService{login: func(models.LoginRequest) (*api.Response[models.AuthResponse], error) {
		return nil, &api.APIError{StatusCode: 401, Message: "Invalid email or password.", Err: api.ErrUnauthorized}
	}}
	m, creds := newMachine(svc)
	require.NoError(t, creds.SetCredential(context.Background(), "old", bob))
	m.LoadFromStorage(context.Background())
	require.True(t, m.Snapshot().IsAuthenticated)

	err := m.Login(context.Background(), models.LoginRequest{Email: "a", Password: "b"})
	require.Error(t, err)
	assert.True(t, IsRejection(err))
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	s := m.Snapshot()
	assert.Equal(t, "Invalid email or password.", s.Error)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	assert.Equal(t, PhaseError, s.Phase())

	_, ok := creds.Token(context.Background())
	assert.False(t, ok)
}

func TestSignup_SuccessFalseRejects(t *testing.T) {
	tests := []struct {
		name string
		resp *api.Response[models.AuthResponse]
		want string
	}{
		{"server message", &api.Response[models.AuthResponse]{Success: false, Message: "Email already registered"}, "Email already registered"},
		{"no message", &api.Response[models.AuthResponse]{Success: false}, common.MsgSignupFailed},
		{"success without data", &api.Response[models.AuthResponse]{Success: true, Message: ""}, common.MsgSignupFailed},
		{"data without token", &api.Response[models.AuthResponse]{Success: true, Data: &models.AuthResponse{User: alice}}, common.MsgSignupFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{signup: func(models.SignupRequest) (*api.Response[models.AuthResponse], error) {
				return tt.resp, nil
			}}
			m, _ := newMachine(svc)

			err := m.Signup(context.Background(), models.SignupRequest{Name: "A", Email: "a@x", Password: "p"})
			require.Error(t, err)
			s := m.Snapshot()
			assert.Equal(t, tt.want, s.Error)
			assert.False(t, s.IsAuthenticated)
			assert.False(t, s.IsLoading)
		})
	}
}

func TestSignup_Fulfilled(t *testing.T) {
	svc := &fakeService{signup: func(models.SignupRequest) (*api.Response[models.AuthResponse], error) {
		return authOK("tok-new", alice)
	}}
	m, creds := newMachine(svc)

	require.NoError(t, m.Signup(context.Background(), models.SignupRequest{Name: "Alice"}))
	assert.True(t, m.Snapshot().IsAuthenticated)
	assert.Equal(t, "tok-new", creds.token)
}

func TestLogin_CredentialWriteFailureStillAuthenticates(t *testing.T) {
	svc := &fakeService{login: func(models.LoginRequest) (*api.Response[models.AuthResponse], error) {
		return authOK("tok", alice)
	}}
	m, creds := newMachine(svc)
	creds.setErr = errors.New("disk full")

	require.NoError(t, m.Login(context.Background(), models.LoginRequest{}))
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestLogin_PendingState(t *testing.T) {
	seen := make(chan State, 1)
	var m *Machine
	svc := &fakeService{login: func(models.LoginRequest) (*api.Response[models.AuthResponse], error) {
		seen <- m.Snapshot()
		return authOK("t", alice)
	}}
	m, _ = newMachine(svc)
	m.SetError("previous failure")

	require.NoError(t, m.Login(context.Background(), models.LoginRequest{}))
	pending := <-seen
	assert.True(t, pending.IsLoading)
	assert.Empty(t, pending.Error)
	assert.Equal(t, PhaseAuthenticating, pending.Phase())
}

func TestForgotPassword(t *testing.T) {
	t.Run("fulfilled", func(t *testing.T) {
		svc := &fakeService{forgot: func(r models.ForgotPasswordRequest) (*api.Response[json.RawMessage], error) {
			assert.Equal(t, "a@x.io", r.Email)
			return &api.Response[json.RawMessage]{Success: true, Message: "Reset code sent"}, nil
		}}
		m, _ := newMachine(svc)

		require.NoError(t, m.ForgotPassword(context.Background(), "a@x.io"))
		s := m.Snapshot()
		assert.Equal(t, "Reset code sent", s.Messages.ForgotPassword)
		assert.False(t, s.IsAuthenticated)
		assert.False(t, s.IsLoading)

		m.ClearMessages()
		assert.Empty(t, m.Snapshot().Messages.ForgotPassword)
	})

	t.Run("rejected", func(t *testing.T) {
		svc := &fakeService{forgot: func(models.ForgotPasswordRequest) (*api.Response[json.RawMessage], error) {
			return nil, &api.NetworkError{Method: "POST", Path: "/auth/forgot-password", Err: errors.New("refused")}
		}}
		m, _ := newMachine(svc)

		require.Error(t, m.ForgotPassword(context.Background(), "a@x.io"))
		s := m.Snapshot()
		assert.Equal(t, common.MsgNetworkError, s.Error)
		assert.Empty(t, s.Messages.ForgotPassword)
	})
}

func TestResetPassword(t *testing.T) {
	t.Run("with credential authenticates", func(t *testing.T) {
		svc := &fakeService{reset: func(r models.ResetPasswordRequest) (*api.Response[models.AuthResponse], error) {
			assert.Equal(t, "123456", r.OTP)
			resp, _ := authOK("fresh", alice)
			resp.Message = "Password reset"
			return resp, nil
		}}
		m, creds := newMachine(svc)

		require.NoError(t, m.ResetPassword(context.Background(), models.ResetPasswordRequest{Email: "a", OTP: "123456", NewPassword: "n"}))
		s := m.Snapshot()
		assert.Equal(t, "Password reset", s.Messages.ResetPassword)
		assert.True(t, s.IsAuthenticated)
		assert.Equal(t, "fresh", s.Token)
		assert.Equal(t, "fresh", creds.token)
	})

	t.Run("without credential stays anonymous", func(t *testing.T) {
		svc := &fakeService{reset: func(models.ResetPasswordRequest) (*api.Response[models.AuthResponse], error) {
			return &api.Response[models.AuthResponse]{Success: true, Message: "Password reset"}, nil
		}}
		m, creds := newMachine(svc)

		require.NoError(t, m.ResetPassword(context.Background(), models.ResetPasswordRequest{}))
		s := m.Snapshot()
		assert.Equal(t, "Password reset", s.Messages.ResetPassword)
		assert.False(t, s.IsAuthenticated)
		assert.Empty(t, creds.token)
	})

	t.Run("rejected uses nested message", func(t *testing.T) {
		svc := &fakeService{reset: func(models.ResetPasswordRequest) (*api.Response[models.AuthResponse], error) {
			return nil, &api.APIError{StatusCode: 400, Response: &api.ErrorResponse{Status: 400, Message: "Invalid OTP"}}
		}}
		m, _ := newMachine(svc)

		require.Error(t, m.ResetPassword(context.Background(), models.ResetPasswordRequest{}))
		assert.Equal(t, "Invalid OTP", m.Snapshot().Error)
	})
}

func TestOAuthSuccess(t *testing.T) {
	m, creds := newMachine(&fakeService{})
	ctx := context.Background()

	require.NoError(t, m.OAuthSuccess(ctx, "g-tok", bob))
	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, bob, s.User)
	assert.Equal(t, "g-tok", creds.token)

	err := m.OAuthSuccess(ctx, "", bob)
	require.Error(t, err)
	s = m.Snapshot()
	assert.Equal(t, common.MsgOAuthFailed, s.Error)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
}

func TestGetUsers_Replaces(t *testing.T) {
	calls := 0
	svc := &fakeService{getUsers: func(pg, limit int) (*api.UserListing, error) {
		calls++
		if calls == 1 {
			return page(users(1, 2), 1, true), nil
		}
		return page(users(3, 4), 1, false), nil
	}}
	m, _ := newMachine(svc)
	ctx := context.Background()

	require.NoError(t, m.GetUsers(ctx, 1, 2))
	require.NoError(t, m.GetUsers(ctx, 1, 2))

	d := m.Snapshot().Directory
	assert.Equal(t, users(3, 4), d.Items)
	assert.False(t, d.HasMore)
	assert.Equal(t, 1, d.Page)
}

func TestLoadMoreUsers_Appends(t *testing.T) {
	svc := &fakeService{getUsers: func(pg, limit int) (*api.UserListing, error) {
		if pg == 1 {
			return page(users(1, 2), 1, true), nil
		}
		return page(users(3, 4), 2, true), nil
	}}
	m, _ := newMachine(svc)
	ctx := context.Background()

	require.NoError(t, m.GetUsers(ctx, 1, 2))
	m.SetError("kept")
	require.NoError(t, m.LoadMoreUsers(ctx, 2, 2))

	s := m.Snapshot()
	assert.Equal(t, users(1, 2, 3, 4), s.Directory.Items)
	assert.Equal(t, 2, s.Directory.Page)
	assert.True(t, s.Directory.HasMore)
	assert.Equal(t, 10, s.Directory.Total)
	assert.Equal(t, "kept", s.Error)
}

func TestDirectory_NonPaginated(t *testing.T) {
	svc := &fakeService{getUsers: func(pg, limit int) (*api.UserListing, error) {
		return &api.UserListing{Page: models.Page[models.User]{Items: users(7, 8, 9)}}, nil
	}}
	m, _ := newMachine(svc)
	ctx := context.Background()

	require.NoError(t, m.GetUsers(ctx, 3, 2))
	d := m.Snapshot().Directory
	assert.Equal(t, users(7, 8, 9), d.Items)
	assert.Equal(t, 3, d.Total)
	assert.Equal(t, 1, d.Page)
	assert.False(t, d.HasMore)

	require.NoError(t, m.LoadMoreUsers(ctx, 2, 2))
	d = m.Snapshot().Directory
	assert.Equal(t, users(7, 8, 9), d.Items)
	assert.Equal(t, 0, d.Total)
	assert.Equal(t, 2, d.Page)
	assert.False(t, d.HasMore)
}

func TestDirectory_Rejected(t *testing.T) {
	svc := &fakeService{getUsers: func(pg, limit int) (*api.UserListing, error) {
		return nil, &api.APIError{StatusCode: 500, Errors: []string{"db down", "retry later"}}
	}}
	m, _ := newMachine(svc)

	require.Error(t, m.GetUsers(context.Background(), 1, 2))
	assert.Equal(t, "db down, retry later", m.Snapshot().Error)

	svc.getUsers = func(int, int) (*api.UserListing, error) { return nil, errors.New("opaque") }
	require.Error(t, m.LoadMoreUsers(context.Background(), 2, 2))
	assert.Equal(t, common.MsgLoadMoreFailed, m.Snapshot().Error)
}

// Two overlapping directory requests: the response applied last wins, even
// when it belongs to the request issued first.
func TestGetUsers_LastCompletionWins(t *testing.T) {
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	svc := &fakeService{getUsers: func(pg, limit int) (*api.UserListing, error) {
		<-gates[limit]
		if limit == 1 {
			return page(users(10), 1, false), nil
		}
		return page(users(20), 1, false), nil
	}}
	m, _ := newMachine(svc)
	ctx := context.Background()

	first := make(chan error, 1)
	second := make(chan error, 1)
	go func() { first <- m.GetUsers(ctx, 1, 1) }()
	go func() { second <- m.GetUsers(ctx, 1, 2) }()

	close(gates[2])
	require.NoError(t, <-second)
	assert.Equal(t, users(20), m.Snapshot().Directory.Items)

	close(gates[1])
	require.NoError(t, <-first)
	assert.Equal(t, users(10), m.Snapshot().Directory.Items)
}

func TestLogout(t *testing.T) {
	svc := &fakeService{
		login: func(models.LoginRequest) (*api.Response[models.AuthResponse], error) { return authOK("t", alice) },
		getUsers: func(int, int) (*api.UserListing, error) {
			return page(users(1), 1, true), nil
		},
		forgot: func(models.ForgotPasswordRequest) (*api.Response[json.RawMessage], error) {
			return &api.Response[json.RawMessage]{Success: true, Message: "sent"}, nil
		},
	}
	m, creds := newMachine(svc)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, models.LoginRequest{}))
	require.NoError(t, m.GetUsers(ctx, 1, 1))
	require.NoError(t, m.ForgotPassword(ctx, "x"))

	m.Logout(ctx)

	assert.Equal(t, baseline(), m.Snapshot())
	assert.Equal(t, 1, creds.cleared)
	_, ok := creds.Token(ctx)
	assert.False(t, ok)
}

func TestLoadFromStorage(t *testing.T) {
	m, creds := newMachine(&fakeService{})
	ctx := context.Background()

	assert.False(t, m.LoadFromStorage(ctx))

	creds.token = "t"
	assert.False(t, m.LoadFromStorage(ctx), "user missing")

	creds.user = alice.Clone()
	assert.True(t, m.LoadFromStorage(ctx))
	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, alice, s.User)
}

func TestSubscribe(t *testing.T) {
	m, _ := newMachine(&fakeService{})

	var got []string
	unsubscribe := m.Subscribe(func(s State) { got = append(got, s.Error) })

	m.SetError("a")
	m.SetError("b")
	unsubscribe()
	m.SetError("c")

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	svc := &fakeService{
		login:    func(models.LoginRequest) (*api.Response[models.AuthResponse], error) { return authOK("t", alice) },
		getUsers: func(int, int) (*api.UserListing, error) { return page(users(1, 2), 1, false), nil },
	}
	m, _ := newMachine(svc)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, models.LoginRequest{}))
	require.NoError(t, m.GetUsers(ctx, 1, 2))

	s := m.Snapshot()
	s.User.Name = "mutated"
	s.Directory.Items[0].ID = 99

	fresh := m.Snapshot()
	assert.Equal(t, "Alice", fresh.User.Name)
	assert.Equal(t, int64(1), fresh.Directory.Items[0].ID)
}

func TestSetLoadingClearErrors(t *testing.T) {
	m, _ := newMachine(&fakeService{})
	m.SetLoading(true)
	m.SetError("x")
	assert.True(t, m.Snapshot().IsLoading)
	m.ClearErrors()
	assert.Empty(t, m.Snapshot().Error)
}
