package session

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

// OAuthCallback handles the redirect back from the OAuth provider. callback
// is either the full callback URL or just its query string, carrying token
// and user (JSON), a googleToken to exchange, or error. It returns the route
// to go to next.
func (m *Machine) OAuthCallback(ctx context.Context, callback string) string {
	q, err := parseCallback(callback)
	if err != nil {
		m.log.Warn(ctx, "unparseable oauth callback", "error", err)
		return loginWithError("invalid_data")
	}

	if e := q.Get("error"); e != "" {
		m.log.Warn(ctx, "oauth error", "error", e)
		return loginWithError(e)
	}

	token, rawUser := q.Get("token"), q.Get("user")
	if token == "" && rawUser == "" {
		if g := q.Get("googleToken"); g != "" {
			if err := m.GoogleSignIn(ctx, g); err != nil {
				return loginWithError("oauth_failed")
			}
			return common.RouteDashboard
		}
	}
	if token == "" || rawUser == "" {
		return loginWithError("missing_data")
	}

	user, err := decodeUser(rawUser)
	if err != nil {
		m.log.Warn(ctx, "oauth user data", "error", err)
		return loginWithError("invalid_data")
	}

	if err := m.OAuthSuccess(ctx, token, user); err != nil {
		return loginWithError("oauth_failed")
	}
	return common.RouteDashboard
}

func parseCallback(callback string) (url.Values, error) {
	callback = strings.TrimSpace(callback)
	if _, after, ok := strings.Cut(callback, "?"); ok {
		callback = after
	}
	return url.ParseQuery(callback)
}

// decodeUser accepts the user parameter once or twice URL-encoded.
func decodeUser(raw string) (*models.User, error) {
	var u models.User
	err := json.Unmarshal([]byte(raw), &u)
	if err == nil {
		return &u, nil
	}
	unescaped, uerr := url.QueryUnescape(raw)
	if uerr != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(unescaped), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func loginWithError(code string) string {
	return common.RouteLogin + "?error=" + url.QueryEscape(code)
}
