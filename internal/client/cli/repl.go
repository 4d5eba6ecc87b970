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
	Login(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	Respond(ctx context.Context, args []string) error
	Requests(ctx context.Context, args []string) error
	Sent(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Friends(ctx context.Context, args []string) error
	Check(ctx context.Context, args []string) error
	Unfriend(ctx context.Context, args []string) error
	TOTP(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
}

const (
	guestHelp = "Available commands: login [username], totp <secret>, exit"
	userHelp  = "Available commands: whoami, send <user> [message], respond <user> accept|reject, " +
		"requests [status] [limit] [offset], sent [status] [limit] [offset], show <id>, stats, " +
		"friends, check <user>, unfriend <user>, totp <secret>, logout, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit"/"quit". Command errors are printed and the loop continues.
//
// Commands that need a session are refused while logged out.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gf %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(userHelp)
			} else {
				printlnFn(guestHelp)
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "login":
			err = a.Login(ctx, args)

		case "totp":
			err = a.TOTP(ctx, args)

		case "whoami", "send", "respond", "requests", "sent", "show", "stats", "friends", "check", "unfriend", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			err = dispatch(ctx, a, cmd, args)

		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "whoami":
		return a.WhoAmI(ctx, args)
	case "send":
		return a.Send(ctx, args)
	case "respond":
		return a.Respond(ctx, args)
	case "requests":
		return a.Requests(ctx, args)
	case "sent":
		return a.Sent(ctx, args)
	case "show":
		return a.Show(ctx, args)
	case "stats":
		return a.Stats(ctx, args)
	case "friends":
		return a.Friends(ctx, args)
	case "check":
		return a.Check(ctx, args)
	case "unfriend":
		return a.Unfriend(ctx, args)
	case "logout":
		return a.Logout(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
