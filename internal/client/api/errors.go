package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/docdesk/internal/common"
)

// Sentinel errors for status classification. Match with errors.Is.
var (
	ErrBadRequest   = errors.New("api: bad request")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrConflict     = errors.New("api: conflict")
	ErrServerError  = errors.New("api: server error")
)

// NetworkError is a transport-level failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Message is what the user sees for any transport failure.
func (e *NetworkError) Message() string { return common.MsgNetworkError }

// ErrorResponse is the nested body of a failed response as far as it could be
// understood.
type ErrorResponse struct {
	Status  int
	Message string
}

// APIError is a non-2xx response from the service.
//
// Message is the body's top-level "message"; Response carries the nested
// "error" field (a string or an object with "message"); Errors holds field
// errors from an "errors" array.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Response   *ErrorResponse
	Errors     []string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Response != nil {
		msg = e.Response.Message
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("api: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, msg)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// RejectedError is a 2xx response whose envelope says success=false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "api: request rejected"
	}
	return "api: request rejected: " + e.Message
}

func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}
		return nil
	}
}

type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// newAPIError builds an APIError from a failed response body. Bodies that are
// not JSON still yield a usable error.
func newAPIError(status int, requestID string, body []byte) *APIError {
	e := &APIError{StatusCode: status, RequestID: requestID, Err: classifyStatus(status)}

	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil {
		return e
	}
	e.Message = b.Message
	if nested := nestedMessage(b.Error); nested != "" {
		e.Response = &ErrorResponse{Status: status, Message: nested}
	}
	e.Errors = fieldErrors(b.Errors)
	return e
}

func nestedMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// fieldErrors accepts ["msg", ...] as well as [{"field": f, "message": m}, ...].
func fieldErrors(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var detailed []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &detailed); err != nil {
		return nil
	}
	out := make([]string, 0, len(detailed))
	for _, d := range detailed {
		if d.Message == "" {
			continue
		}
		if d.Field != "" {
			out = append(out, d.Field+": "+d.Message)
			continue
		}
		out = append(out, d.Message)
	}
	return out
}
