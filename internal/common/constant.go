package common

import "time"

// Storage keys. Values mirror what the service's web front-end uses so a
// storage file can be inspected with the same vocabulary.
const (
	StorageKeyToken       = "auth_token"
	StorageKeyUser        = "user_data"
	StorageKeyPersistRoot = "persist:root"
	StorageKeyPersistAuth = "persist:auth"
)

// AuthCookieName is the side-channel cookie carrying the plaintext token.
const AuthCookieName = "auth_token"

// AuthCookieMaxAge is the fixed lifetime of the side-channel cookie.
const AuthCookieMaxAge = 24 * time.Hour

// Route paths understood by the gate and the REPL navigator.
const (
	RouteHome           = "/"
	RouteLogin          = "/login"
	RouteSignup         = "/signup"
	RouteDashboard      = "/dashboard"
	RouteDocuments      = "/documents"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteOAuthCallback  = "/oauth/callback"
	RouteProfile        = "/profile"
)

// Pagination defaults.
const (
	UsersPerPage     = 20
	DocumentsPerPage = 20
	DefaultPage      = 1
)

// User-facing fallback messages.
const (
	MsgNetworkError       = "Network error occurred"
	MsgSignupFailed       = "Signup failed"
	MsgLoginFailed        = "Login failed"
	MsgForgotFailed       = "Failed to send reset email"
	MsgResetFailed        = "Failed to reset password"
	MsgFetchUsersFailed   = "Failed to fetch users"
	MsgLoadMoreFailed     = "Failed to load more users"
	MsgOAuthFailed        = "Failed to process Google OAuth success"
	MsgUploadFailed       = "Failed to upload document"
	MsgFetchDocsFailed    = "Failed to fetch documents"
	MsgFetchDocFailed     = "Failed to fetch document details"
	MsgDeleteDocFailed    = "Failed to delete document"
	MsgSessionExpired     = "Your session has expired. Please login again."
	MsgInvalidCredentials = "Invalid email or password."
)
