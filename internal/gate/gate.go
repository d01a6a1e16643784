// Package gate is the routing layer in front of the web client. It cannot
// read the encrypted session, so it decides from the side-channel cookie
// alone: signed-in visitors are kept off the sign-in pages, anonymous
// visitors are kept out of the protected area.
package gate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/docdesk/internal/common"
	"github.com/dmitrijs2005/docdesk/internal/logging"
	"github.com/gorilla/mux"
)

// PublicRoutes are the sign-in pages. Matched exactly.
var PublicRoutes = []string{
	common.RouteLogin,
	common.RouteSignup,
	common.RouteForgotPassword,
	common.RouteResetPassword,
	common.RouteOAuthCallback,
}

// ProtectedRoutes require a session. Matched by prefix.
var ProtectedRoutes = []string{
	common.RouteDashboard,
	common.RouteProfile,
}

// bypass lists path prefixes the gate never looks at.
var bypass = []string{"/api", "/_next/static", "/_next/image", "/favicon.ico"}

// Decide returns the route to redirect to, or "" to let the request through.
func Decide(path string, hasToken bool) string {
	for _, p := range bypass {
		if strings.HasPrefix(path, p) {
			return ""
		}
	}
	if hasToken {
		for _, r := range PublicRoutes {
			if path == r {
				return common.RouteDashboard
			}
		}
		return ""
	}
	for _, r := range ProtectedRoutes {
		if strings.HasPrefix(path, r) {
			return common.RouteLogin
		}
	}
	return ""
}

func hasToken(r *http.Request) bool {
	c, err := r.Cookie(common.AuthCookieName)
	return err == nil && c.Value != ""
}

// Middleware applies Decide to every request.
func Middleware(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if to := Decide(r.URL.Path, hasToken(r)); to != "" {
				log.Debug(r.Context(), "gate redirect", "path", r.URL.Path, "to", to)
				http.Redirect(w, r, to, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter serves /healthz itself and hands everything else that passes the
// gate to upstream. A nil upstream answers with a plain page naming the route.
func NewRouter(upstream http.Handler, log logging.Logger) *mux.Router {
	log = log.With("component", "gate")
	if upstream == nil {
		upstream = http.HandlerFunc(placeholder)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			log.Warn(context.Background(), "write health response", "error", err)
		}
	}).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(upstream)
	r.Use(Middleware(log))
	return r
}

func placeholder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "docdesk %s\n", r.URL.Path)
}
