// Package forms validates user input before it reaches the session: the
// signup, login and password-recovery forms. Emails are normalised to lower
// case as part of validation.
package forms

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	otpPattern  = regexp.MustCompile(`^[0-9]+$`)
)

const msgWeakPassword = "Password must contain at least one uppercase letter, one lowercase letter, and one number"

type Signup struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f *Signup) Validate() error {
	f.Email = normalizeEmail(f.Email)
	return validation.ValidateStruct(f,
		validation.Field(&f.Name,
			validation.Required.Error("Name is required"),
			validation.Length(2, 50).Error("Name must be between 2 and 50 characters"),
			validation.Match(namePattern).Error("Name can only contain letters and spaces"),
		),
		emailField(&f.Email),
		passwordField(&f.Password, "Password is required"),
		validation.Field(&f.ConfirmPassword,
			validation.Required.Error("Please confirm your password"),
			validation.By(equals(f.Password)),
		),
	)
}

func (f *Signup) Request() models.SignupRequest {
	return models.SignupRequest{Name: strings.TrimSpace(f.Name), Email: f.Email, Password: f.Password}
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f *Login) Validate() error {
	f.Email = normalizeEmail(f.Email)
	return validation.ValidateStruct(f,
		emailField(&f.Email),
		validation.Field(&f.Password, validation.Required.Error("Password is required")),
	)
}

func (f *Login) Request() models.LoginRequest {
	return models.LoginRequest{Email: f.Email, Password: f.Password}
}

type ForgotPassword struct {
	Email string `json:"email"`
}

func (f *ForgotPassword) Validate() error {
	f.Email = normalizeEmail(f.Email)
	return validation.ValidateStruct(f, emailField(&f.Email))
}

type ResetPassword struct {
	Email              string `json:"email"`
	OTP                string `json:"otp"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (f *ResetPassword) Validate() error {
	f.Email = normalizeEmail(f.Email)
	f.OTP = strings.TrimSpace(f.OTP)
	return validation.ValidateStruct(f,
		emailField(&f.Email),
		validation.Field(&f.OTP,
			validation.Required.Error("OTP is required"),
			validation.Length(6, 6).Error("OTP must be exactly 6 digits"),
			validation.Match(otpPattern).Error("OTP must contain only numbers"),
		),
		passwordField(&f.NewPassword, "New password is required"),
		validation.Field(&f.ConfirmNewPassword,
			validation.Required.Error("Please confirm your new password"),
			validation.By(equals(f.NewPassword)),
		),
	)
}

func (f *ResetPassword) Request() models.ResetPasswordRequest {
	return models.ResetPasswordRequest{Email: f.Email, OTP: f.OTP, NewPassword: f.NewPassword}
}

// Messages flattens a validation error into "field: message" lines, sorted
// by field. Any other error comes back as its own message.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for f := range verrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, fmt.Sprintf("%s: %s", f, verrs[f].Error()))
	}
	return out
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func emailField(email *string) *validation.FieldRules {
	return validation.Field(email,
		validation.Required.Error("Email is required"),
		is.Email.Error("Please enter a valid email address"),
	)
}

func passwordField(pw *string, required string) *validation.FieldRules {
	return validation.Field(pw,
		validation.Required.Error(required),
		validation.Length(6, 0).Error("Password must be at least 6 characters"),
		validation.By(strongPassword),
	)
}

func strongPassword(value interface{}) error {
	s, _ := value.(string)
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return errors.New(msgWeakPassword)
	}
	return nil
}

func equals(want string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New("Passwords must match")
		}
		return nil
	}
}
