// Package app builds a client session from configuration: storage, the
// credential store, the API transport, the session machine, the document
// listing and the poller, wired together. The caller owns the lifecycle
// through Init and Teardown.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/docdesk/internal/client/api"
	"github.com/dmitrijs2005/docdesk/internal/client/config"
	"github.com/dmitrijs2005/docdesk/internal/client/credentials"
	"github.com/dmitrijs2005/docdesk/internal/client/documents"
	"github.com/dmitrijs2005/docdesk/internal/client/persist"
	"github.com/dmitrijs2005/docdesk/internal/client/poller"
	"github.com/dmitrijs2005/docdesk/internal/client/session"
	"github.com/dmitrijs2005/docdesk/internal/client/sidechannel"
	"github.com/dmitrijs2005/docdesk/internal/client/storage"
	"github.com/dmitrijs2005/docdesk/internal/common"
	"github.com/dmitrijs2005/docdesk/internal/cryptox"
	"github.com/dmitrijs2005/docdesk/internal/logging"
)

// Navigator moves the UI to another route.
type Navigator interface {
	Redirect(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Redirect(route string) { f(route) }

type options struct {
	log       logging.Logger
	storage   storage.Storage
	navigator Navigator
	transport http.RoundTripper
}

type Option func(*options)

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithStorage supplies the storage instead of opening Config.StoragePath.
// The App does not close it.
func WithStorage(st storage.Storage) Option {
	return func(o *options) { o.storage = st }
}

func WithNavigator(n Navigator) Option {
	return func(o *options) { o.navigator = n }
}

// WithTransport sets the round tripper used for calls to the service.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

type App struct {
	Config      *config.Config
	Credentials *credentials.Store
	Mirror      *sidechannel.CookieMirror
	API         *api.Client
	Session     *session.Machine
	Documents   *documents.Listing
	Poller      *poller.Poller
	Persistor   *persist.Persistor

	log       logging.Logger
	storage   storage.Storage
	closeFn   func() error
	navigator Navigator

	mu       sync.Mutex
	runCtx   context.Context
	cancel   context.CancelFunc
	unsubs   []func()
	teardown sync.Once
}

// New wires a session from cfg. It opens local storage but does not read it;
// call Init for that.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	}
	if o.navigator == nil {
		o.navigator = NavigatorFunc(func(string) {})
	}

	codec, err := cryptox.NewCodec(cfg.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("init codec: %w", err)
	}

	jar, err := sidechannel.NewJar()
	if err != nil {
		return nil, fmt.Errorf("init cookie jar: %w", err)
	}
	mirror, err := sidechannel.NewCookieMirror(jar, cfg.APIBaseURL)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Mirror: mirror, log: o.log, navigator: o.navigator}

	if o.storage != nil {
		a.storage = o.storage
	} else {
		st, err := storage.Open(ctx, cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		a.storage, a.closeFn = st, st.Close
	}

	a.Credentials = credentials.New(a.storage, codec, mirror, o.log)

	httpClient := &http.Client{Jar: jar, Transport: o.transport}
	a.API = api.NewClient(cfg.APIBaseURL, httpClient, a.Credentials.TokenSource(), o.log)
	a.API.SetTimeout(cfg.RequestTimeout)
	a.API.OnUnauthorized(a.sessionExpired)

	a.Session = session.NewMachine(a.API, a.Credentials, o.log)
	a.Documents = documents.NewListing(a.API, o.log)
	a.Poller = poller.New(a.Documents, a.Documents, a.Documents, cfg.PollInterval, o.log)
	a.Persistor = persist.NewPersistor(a.storage, persist.NewTransform(codec, o.log), o.log)

	return a, nil
}

// Init restores the previous session and starts persisting changes. The
// persisted snapshot is applied first; if it disagrees with the credential
// store both are reset.
func (a *App) Init(ctx context.Context) {
	if a.Config.UsesDefaultSecret() {
		a.log.Warn(ctx, "storage encryption uses the built-in development secret; set DOCDESK_ENCRYPTION_KEY or -k")
	}

	a.mu.Lock()
	a.runCtx, a.cancel = context.WithCancel(context.WithoutCancel(ctx))
	runCtx := a.runCtx
	a.mu.Unlock()

	if snap, found := a.Persistor.Rehydrate(ctx); found {
		a.Session.Rehydrate(ctx, snap)
	}
	a.Session.LoadFromStorage(ctx)
	// The snapshot may predate the last credential write.
	a.Persistor.Save(ctx, a.Session.Snapshot().Persisted())
	if a.Session.Snapshot().IsAuthenticated {
		a.Credentials.Restore(ctx)
	}

	unsubSession := a.Session.Subscribe(func(s session.State) {
		a.Persistor.Save(runCtx, s.Persisted())
	})
	unsubDocs := a.Documents.Subscribe(func(s documents.State) {
		for _, d := range s.Documents {
			if !d.Status.Terminal() {
				a.Poller.Ensure(runCtx)
				return
			}
		}
	})

	a.mu.Lock()
	a.unsubs = append(a.unsubs, unsubSession, unsubDocs)
	a.mu.Unlock()

	if s := a.Session.Snapshot(); s.IsAuthenticated {
		a.log.Info(ctx, "session restored", "user_id", s.User.ID)
	}
}

// Logout ends the session and drops everything it loaded.
func (a *App) Logout(ctx context.Context) {
	a.Poller.Stop()
	a.Session.Logout(ctx)
	a.Documents.Reset()
}

// sessionExpired runs on any 401. It may be called from the poller goroutine,
// so it must not wait for the poller; the poller winds down once the listing
// is empty.
func (a *App) sessionExpired(ctx context.Context) {
	a.log.Info(ctx, "service rejected the session, logging out")
	a.Session.Logout(ctx)
	a.Documents.Reset()
	a.Session.SetError(common.MsgSessionExpired)
	a.navigator.Redirect(common.RouteLogin)
}

// Teardown stops background work and releases storage. Safe to call more
// than once.
func (a *App) Teardown() error {
	var err error
	a.teardown.Do(func() {
		a.mu.Lock()
		cancel, unsubs := a.cancel, a.unsubs
		a.unsubs = nil
		a.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		a.Poller.Stop()
		for _, u := range unsubs {
			u()
		}
		if a.closeFn != nil {
			err = a.closeFn()
		}
	})
	return err
}
