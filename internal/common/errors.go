// Package common defines shared constants and sentinel errors used across
// the docdesk client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session errors.
	ErrNoCredential    = errors.New("no credential")
	ErrInvalidCallback = errors.New("invalid oauth callback")
)
