package cli

import (
	"context"
	"net/url"
	"time"

	"github.com/dmitrijs2005/docdesk/internal/client/credentials"
	"github.com/dmitrijs2005/docdesk/internal/client/forms"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

func (a *App) Signup(ctx context.Context) error {
	name, err := a.prompt("-Enter name")
	if err != nil {
		return err
	}
	email, err := a.prompt("-Enter email")
	if err != nil {
		return err
	}
	password, err := a.password("-Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := a.password("-Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	form := forms.Signup{Name: name, Email: email, Password: string(password), ConfirmPassword: string(confirm)}
	if err := a.validate(&form); err != nil {
		return err
	}
	if err := a.core.Session.Signup(ctx, form.Request()); err != nil {
		a.report(err)
		return err
	}
	a.printf("Account created, welcome %s\n", a.core.Session.Snapshot().User.Name)
	a.Redirect(common.RouteDashboard)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.prompt("-Enter email")
	if err != nil {
		return err
	}
	password, err := a.password("-Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	form := forms.Login{Email: email, Password: string(password)}
	if err := a.validate(&form); err != nil {
		return err
	}
	if err := a.core.Session.Login(ctx, form.Request()); err != nil {
		a.report(err)
		return err
	}
	a.printf("Login successful, welcome %s\n", a.core.Session.Snapshot().User.Name)
	a.Redirect(common.RouteDashboard)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.core.Logout(ctx)
	a.printf("Logged out\n")
	a.Redirect(common.RouteLogin)
	return nil
}

func (a *App) ForgotPassword(ctx context.Context) error {
	a.core.Session.ClearMessages()
	email, err := a.prompt("-Enter email")
	if err != nil {
		return err
	}

	form := forms.ForgotPassword{Email: email}
	if err := a.validate(&form); err != nil {
		return err
	}
	if err := a.core.Session.ForgotPassword(ctx, form.Email); err != nil {
		a.report(err)
		return err
	}
	if msg := a.core.Session.Snapshot().Messages.ForgotPassword; msg != "" {
		a.printf("%s\n", msg)
	}
	a.Redirect(common.RouteResetPassword)
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	a.core.Session.ClearMessages()
	email, err := a.prompt("-Enter email")
	if err != nil {
		return err
	}
	otp, err := a.prompt("-Enter the 6-digit code from the email")
	if err != nil {
		return err
	}
	password, err := a.password("-Enter new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := a.password("-Confirm new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	form := forms.ResetPassword{Email: email, OTP: otp, NewPassword: string(password), ConfirmNewPassword: string(confirm)}
	if err := a.validate(&form); err != nil {
		return err
	}
	if err := a.core.Session.ResetPassword(ctx, form.Request()); err != nil {
		a.report(err)
		return err
	}

	s := a.core.Session.Snapshot()
	if msg := s.Messages.ResetPassword; msg != "" {
		a.printf("%s\n", msg)
	}
	if s.IsAuthenticated {
		a.Redirect(common.RouteDashboard)
	} else {
		a.Redirect(common.RouteLogin)
	}
	return nil
}

// OAuth finishes a Google sign-in from the URL the browser landed on.
func (a *App) OAuth(ctx context.Context, callback string) error {
	route := a.core.Session.OAuthCallback(ctx, callback)
	a.Redirect(route)
	if route == common.RouteDashboard {
		a.printf("Signed in with Google as %s\n", a.core.Session.Snapshot().User.Email)
		return nil
	}
	code := route
	if u, err := url.Parse(route); err == nil && u.Query().Get("error") != "" {
		code = u.Query().Get("error")
	}
	a.printf("Google sign-in failed: %s\n", code)
	return common.ErrInvalidCallback
}

// Whoami checks the session against the service and prints the account.
func (a *App) Whoami(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	resp, err := a.core.API.Profile(ctx)
	if err != nil {
		a.report(err)
		return err
	}

	u := resp.Data
	if u == nil {
		u = a.core.Session.Snapshot().User
	}
	a.printf("%s <%s> id=%d provider=%s\n", u.Name, u.Email, u.ID, u.Provider)
	if exp, ok := credentials.TokenExpiry(a.core.Session.Snapshot().Token); ok {
		a.printf("Session valid until %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

type validator interface {
	Validate() error
}

// validate prints every field problem of f. Nothing is sent when it fails.
func (a *App) validate(f validator) error {
	err := f.Validate()
	for _, msg := range forms.Messages(err) {
		a.printf("  %s\n", msg)
	}
	return err
}
