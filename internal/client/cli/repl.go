package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	OAuth(ctx context.Context, callback string) error
	Whoami(ctx context.Context) error
	Users(ctx context.Context) error
	MoreUsers(ctx context.Context) error
	Docs(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Show(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Poll(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: signup, login, forgot, reset, oauth <callback-url>, exit"
	helpSignedIn  = "Available commands: whoami, users, more, docs, upload <path>, show <id>, delete <id>, poll, logout, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit"/"quit". Handlers report their own failures; errors are not
// surfaced here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("docdesk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "signup":
			_ = a.Signup(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "forgot":
			_ = a.ForgotPassword(ctx)
		case "reset":
			_ = a.ResetPassword(ctx)
		case "oauth":
			if len(args) == 0 {
				printlnFn("Usage: oauth <callback-url>")
				continue
			}
			_ = a.OAuth(ctx, args[0])
		case "whoami":
			_ = a.Whoami(ctx)
		case "users":
			_ = a.Users(ctx)
		case "more":
			_ = a.MoreUsers(ctx)
		case "docs":
			_ = a.Docs(ctx)
		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <path>")
				continue
			}
			_ = a.Upload(ctx, strings.Join(args, " "))
		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])
		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])
		case "poll":
			_ = a.Poll(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
