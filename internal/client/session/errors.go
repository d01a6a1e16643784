package session

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/docdesk/internal/client/api"
)

// ExtractMessage picks the user-facing text for a failed call, in order: the
// error's own message, the nested response-body message, the joined field
// errors, then fallback. Other layers rely on this order.
func ExtractMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.Response != nil && apiErr.Response.Message != "":
			return apiErr.Response.Message
		case len(apiErr.Errors) > 0:
			return strings.Join(apiErr.Errors, ", ")
		}
		return fallback
	}

	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return netErr.Message()
	}

	var rejected *api.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}

	return fallback
}
