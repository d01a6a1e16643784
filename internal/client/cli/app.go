package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/docdesk/internal/client/app"
	"github.com/dmitrijs2005/docdesk/internal/client/config"
	"github.com/dmitrijs2005/docdesk/internal/client/session"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

var errNotLoggedIn = errors.New("not logged in")

// App is the interactive front-end over a client session. It doubles as the
// session's navigator: a redirect switches the current route shown in the
// prompt.
type App struct {
	core   *app.App
	config *config.Config
	reader *bufio.Reader
	out    io.Writer

	mu    sync.Mutex
	route string
}

// NewApp builds the session from c. Output goes to stdout, input comes from
// stdin.
func NewApp(ctx context.Context, c *config.Config, opts ...app.Option) (*App, error) {
	return newApp(ctx, c, os.Stdin, os.Stdout, opts...)
}

func newApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer, opts ...app.Option) (*App, error) {
	a := &App{
		config: c,
		reader: bufio.NewReader(in),
		out:    &syncWriter{w: out},
		route:  common.RouteLogin,
	}
	core, err := app.New(ctx, c, append(opts, app.WithNavigator(a))...)
	if err != nil {
		return nil, err
	}
	a.core = core
	return a, nil
}

// Run restores the previous session and serves commands until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) error {
	a.core.Init(ctx)
	defer func() {
		if err := a.core.Teardown(); err != nil {
			a.printf("error closing storage: %v\n", err)
		}
	}()

	if a.isLoggedIn() {
		s := a.core.Session.Snapshot()
		a.printf("Welcome back, %s\n", s.User.Name)
		a.Redirect(common.RouteDashboard)
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(&lineReader{r: a.reader}))
	return nil
}

// Redirect implements app.Navigator.
func (a *App) Redirect(route string) {
	a.mu.Lock()
	changed := a.route != route
	a.route = route
	a.mu.Unlock()

	if changed {
		a.printf("-> %s\n", route)
	}
}

func (a *App) currentRoute() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) status() string {
	s := a.core.Session.Snapshot()
	if s.IsAuthenticated && s.User != nil {
		return fmt.Sprintf("%s %s", s.User.Email, a.currentRoute())
	}
	return fmt.Sprintf("%s %s", s.Phase(), a.currentRoute())
}

func (a *App) isLoggedIn() bool {
	return a.core.Session.Snapshot().IsAuthenticated
}

func (a *App) requireLogin() error {
	if a.isLoggedIn() {
		return nil
	}
	a.printf("Please login first\n")
	return errNotLoggedIn
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// report prints the user-facing message carried by err.
func (a *App) report(err error) {
	var r *session.Rejection
	if errors.As(err, &r) {
		a.printf("Error: %s\n", r.Message)
		return
	}
	a.printf("Error: %s\n", session.ExtractMessage(err, err.Error()))
}

func (a *App) prompt(text string) (string, error) {
	return GetSimpleText(a.reader, text, a.out)
}

func (a *App) password(text string) ([]byte, error) {
	return GetPassword(a.reader, text, a.out)
}

// lineReader hands a bufio.Scanner at most one line per Read, so the prompts
// reading from the same bufio.Reader never lose buffered input.
type lineReader struct {
	r       *bufio.Reader
	pending []byte
}

func (l *lineReader) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		line, err := l.r.ReadBytes('\n')
		if len(line) == 0 {
			return 0, err
		}
		l.pending = line
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

// syncWriter serialises output; redirects may arrive from the poller
// goroutine while a command is printing.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
