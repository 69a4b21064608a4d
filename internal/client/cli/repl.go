package cli

import (
	"bufio"
	"context"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Open(ctx context.Context, path string) error
	Retry(ctx context.Context) error
	Status(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Routes(ctx context.Context) error
	say(format string, args ...any)
}

// runREPL starts a simple read-eval-print loop for the FireStation client.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//   - help           - show available commands
//   - login          - authenticate
//   - open <path>    - go to a view, e.g. open /ui-elements
//   - whoami         - show the current user
//   - retry          - check the server again after an outage
//   - status         - show the session state
//   - routes         - list views
//   - logout         - log out
//   - exit | quit    - leave the program
//
// Every command is accepted in both states; help lists the ones that make
// sense for the current one.
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		a.say("firestation %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				a.say("Available commands: open <path>, whoami, status, retry, routes, logout, exit")
			} else {
				a.say("Available commands: login, open <path>, status, retry, routes, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "open":
			if len(args) == 0 {
				a.say("Usage: open <path>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "retry":
			_ = a.Retry(ctx)

		case "status":
			_ = a.Status(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "routes":
			_ = a.Routes(ctx)

		case "exit", "quit":
			a.say("Bye!")
			return

		default:
			a.say("Unknown command: %s", cmd)
		}
	}
}
