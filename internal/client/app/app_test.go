package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/docdesk/internal/client/config"
	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/client/storage"
	"github.com/dmitrijs2005/docdesk/internal/common"
	"github.com/dmitrijs2005/docdesk/internal/logging"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceJSON = `{"id":1,"name":"Alice","email":"alice@example.com","provider":"local"}`

// fakeService is a minimal in-process stand-in for the remote API.
type fakeService struct {
	mu          sync.Mutex
	docStatus   string
	statusCalls int
	listCalls   int
	cookies     []string
	expired     bool
}

func (f *fakeService) handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"success":true,"message":"ok","data":{"token":"tok-1","user":%s}}`, aliceJSON)
	}).Methods(http.MethodPost)

	api.HandleFunc("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		if c, err := r.Cookie(common.AuthCookieName); err == nil {
			f.cookies = append(f.cookies, c.Value)
		}
		expired := f.expired
		f.mu.Unlock()
		if expired || r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"message":"Unauthorized"}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"data":%s}`, aliceJSON)
	}).Methods(http.MethodGet)

	api.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.listCalls++
		st := f.docStatus
		f.mu.Unlock()
		fmt.Fprintf(w, `{"success":true,"data":{"items":[{"id":5,"originalName":"a.txt","status":%q}],"total":1,"page":1,"limit":20,"hasMore":false}}`, st)
	}).Methods(http.MethodGet)

	api.HandleFunc("/documents/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.statusCalls++
		f.docStatus = string(models.StatusCompleted)
		f.mu.Unlock()
		fmt.Fprintf(w, `{"success":true,"data":{"id":%s,"status":"completed","progress":100}}`, mux.Vars(r)["id"])
	}).Methods(http.MethodGet)

	return r
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = baseURL + "/api"
	cfg.EncryptionSecret = "test-secret"
	cfg.StoragePath = filepath.Join(t.TempDir(), "docdesk.db")
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	a, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return a
}

func TestApp_LoginSurvivesRestart(t *testing.T) {
	f := &fakeService{}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	a := newTestApp(t, cfg)
	a.Init(ctx)
	require.NoError(t, a.Session.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "pw"}))

	tok, ok := a.Mirror.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok)

	_, err := a.API.Profile(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Teardown())
	require.NoError(t, a.Teardown())

	b := newTestApp(t, cfg)
	defer b.Teardown()
	b.Init(ctx)

	s := b.Session.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "Alice", s.User.Name)

	tok, ok = b.Mirror.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok)

	_, err = b.API.Profile(ctx)
	require.NoError(t, err)

	f.mu.Lock()
	assert.Equal(t, []string{"tok-1", "tok-1"}, f.cookies)
	f.mu.Unlock()
}

func TestApp_WrongSecretStartsLoggedOut(t *testing.T) {
	f := &fakeService{}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	a := newTestApp(t, cfg)
	a.Init(ctx)
	require.NoError(t, a.Session.Login(ctx, models.LoginRequest{}))
	require.NoError(t, a.Teardown())

	cfg.EncryptionSecret = "rotated"
	b := newTestApp(t, cfg)
	defer b.Teardown()
	assert.NotPanics(t, func() { b.Init(ctx) })

	s := b.Session.Snapshot()
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.False(t, b.Credentials.IsAuthenticated(ctx))
}

func TestApp_UnauthorizedLogsOutAndRedirects(t *testing.T) {
	f := &fakeService{}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()
	ctx := context.Background()

	var routes []string
	var mu sync.Mutex
	nav := NavigatorFunc(func(r string) {
		mu.Lock()
		routes = append(routes, r)
		mu.Unlock()
	})

	a := newTestApp(t, testConfig(t, srv.URL), WithNavigator(nav))
	defer a.Teardown()
	a.Init(ctx)
	require.NoError(t, a.Session.Login(ctx, models.LoginRequest{}))

	_, err := a.API.Profile(ctx)
	require.NoError(t, err)

	f.mu.Lock()
	f.expired = true
	f.mu.Unlock()

	_, err = a.API.Profile(ctx)
	require.Error(t, err)

	mu.Lock()
	assert.Equal(t, []string{common.RouteLogin}, routes)
	mu.Unlock()

	s := a.Session.Snapshot()
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, common.MsgSessionExpired, s.Error)
	_, ok := a.Mirror.Token()
	assert.False(t, ok)
}

func TestApp_PollerFollowsListing(t *testing.T) {
	f := &fakeService{docStatus: string(models.StatusPending)}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()
	ctx := context.Background()

	a := newTestApp(t, testConfig(t, srv.URL))
	defer a.Teardown()
	a.Init(ctx)

	require.NoError(t, a.Documents.Fetch(ctx, 1, 20))
	assert.True(t, a.Poller.Running())

	require.Eventually(t, func() bool { return !a.Poller.Running() }, 2*time.Second, 10*time.Millisecond)

	docs := a.Documents.Snapshot().Documents
	require.Len(t, docs, 1)
	assert.Equal(t, models.StatusCompleted, docs[0].Status)

	f.mu.Lock()
	assert.Equal(t, 1, f.statusCalls)
	assert.Equal(t, 2, f.listCalls)
	f.mu.Unlock()
}

func TestApp_LogoutClearsEverything(t *testing.T) {
	f := &fakeService{docStatus: string(models.StatusProcessing)}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()
	ctx := context.Background()

	st, err := storage.Open(ctx, filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer st.Close()

	a := newTestApp(t, testConfig(t, srv.URL), WithStorage(st))
	defer a.Teardown()
	a.Init(ctx)
	require.NoError(t, a.Session.Login(ctx, models.LoginRequest{}))

	all, err := st.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, common.StorageKeyPersistRoot)

	a.Logout(ctx)

	all, err = st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.False(t, a.Poller.Running())
	assert.Empty(t, a.Documents.Snapshot().Documents)
	_, ok := a.Mirror.Token()
	assert.False(t, ok)
}

func TestNew_BadAPIURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = "not a url"
	_, err := New(context.Background(), cfg, WithLogger(logging.Discard()), WithStorage(storage.Noop{}))
	require.Error(t, err)
}

func TestApp_NoopStorage(t *testing.T) {
	f := &fakeService{}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()
	ctx := context.Background()

	a := newTestApp(t, testConfig(t, srv.URL), WithStorage(storage.Noop{}))
	defer a.Teardown()
	a.Init(ctx)

	require.NoError(t, a.Session.Login(ctx, models.LoginRequest{}))
	assert.True(t, a.Session.Snapshot().IsAuthenticated)
	assert.False(t, a.Credentials.IsAuthenticated(ctx))
}
