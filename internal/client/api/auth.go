package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
)

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*Response[models.AuthResponse], error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/auth/signup", nil, req)
	if err != nil {
		return nil, err
	}
	return decode[models.AuthResponse](env)
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*Response[models.AuthResponse], error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, req)
	if err != nil {
		return nil, err
	}
	return decode[models.AuthResponse](env)
}

func (c *Client) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (*Response[json.RawMessage], error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", nil, req)
	if err != nil {
		return nil, err
	}
	return decode[json.RawMessage](env)
}

func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*Response[models.AuthResponse], error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/auth/reset-password", nil, req)
	if err != nil {
		return nil, err
	}
	return decode[models.AuthResponse](env)
}

// GoogleOAuthSuccess exchanges a Google credential for a session.
func (c *Client) GoogleOAuthSuccess(ctx context.Context, googleToken string) (*Response[models.AuthResponse], error) {
	body := map[string]string{"googleToken": googleToken}
	env, err := c.doJSON(ctx, http.MethodPost, "/auth/google/success", nil, body)
	if err != nil {
		return nil, err
	}
	return decode[models.AuthResponse](env)
}

func (c *Client) Profile(ctx context.Context) (*Response[models.User], error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[models.User](env)
}

// UserListing is one page of the user directory. Paginated is false when the
// service answered with a bare array instead of a page object.
type UserListing struct {
	models.Page[models.User]
	Paginated bool
}

// GetUsers fetches one page of the user directory.
func (c *Client) GetUsers(ctx context.Context, page, limit int) (*UserListing, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/auth/users", pageQuery(page, limit), nil)
	if err != nil {
		return nil, err
	}
	if !env.Success && !env.HasData() {
		return nil, &RejectedError{Message: env.Message}
	}

	out := &UserListing{}
	data := bytes.TrimSpace(env.Data)
	switch {
	case !env.HasData():
	case data[0] == '[':
		if err := json.Unmarshal(data, &out.Items); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
	default:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
		if _, ok := fields["items"]; !ok {
			break
		}
		if err := json.Unmarshal(data, &out.Page); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
		out.Paginated = true
	}
	return out, nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}
