package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/client/client"
	"github.com/dmitrijs2005/gophfriends/internal/client/config"
)

type App struct {
	config   *config.Config
	client   client.Client
	userName string
	in       *bufio.Scanner
	out      io.Writer
	now      func() time.Time
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, cl client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: cl, in: bufio.NewScanner(in), out: out, now: time.Now}
}

// Run starts the REPL on the app's input and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	fmt.Fprintln(a.out, "Welcome to GophFriends CLI (type 'help' for commands)")

	pingCtx, cancel := a.callContext(ctx)
	if err := a.client.Ping(pingCtx); err != nil {
		fmt.Fprintln(a.out, "Warning:", err)
	}
	cancel()

	runREPL(ctx, a, a.getStatus, a.in)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(guest)"
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// callContext bounds one server call by the configured timeout.
func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
