// Package cli provides the interactive docdesk command-line client.
//
// It builds a client session from configuration (see package app), restores
// the previous session from local storage and runs a REPL over it. The REPL
// plays the part of the UI: it triggers session and document operations and
// renders the resulting state.
//
// Commands:
//   - signup, login, logout, whoami (input checked by package forms)
//   - forgot, reset (password recovery by emailed code)
//   - oauth <callback-url> (finish a Google sign-in, or exchange a googleToken)
//   - users, more (user directory)
//   - docs, upload <path>, show <id>, delete <id>, poll
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
