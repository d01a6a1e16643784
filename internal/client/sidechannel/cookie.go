// Package sidechannel mirrors the plaintext session token into a cookie so
// that a routing layer which cannot decrypt local storage can still tell
// whether a session exists. Only the opaque token travels this way.
package sidechannel

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/dmitrijs2005/docdesk/internal/common"
	"golang.org/x/net/publicsuffix"
)

// Mirror is the write/read surface of the side channel.
type Mirror interface {
	Set(token string)
	Clear()
	Token() (string, bool)
}

// NewJar returns a cookie jar that applies public-suffix domain rules.
// Share it with the http.Client talking to the service so the mirror travels
// with every request.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// CookieMirror stores the token as a site-wide cookie in a jar.
type CookieMirror struct {
	jar  http.CookieJar
	site *url.URL
}

// NewCookieMirror scopes the cookie to the origin of siteURL with Path=/.
func NewCookieMirror(jar http.CookieJar, siteURL string) (*CookieMirror, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("site url %q must be absolute", siteURL)
	}
	return &CookieMirror{jar: jar, site: &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}}, nil
}

// AuthCookie builds the mirror cookie for token. A negative maxAge expires it.
func AuthCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *CookieMirror) Set(token string) {
	m.jar.SetCookies(m.site, []*http.Cookie{AuthCookie(token, int(common.AuthCookieMaxAge.Seconds()))})
}

func (m *CookieMirror) Clear() {
	m.jar.SetCookies(m.site, []*http.Cookie{AuthCookie("", -1)})
}

func (m *CookieMirror) Token() (string, bool) {
	for _, c := range m.jar.Cookies(m.site) {
		if c.Name == common.AuthCookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
