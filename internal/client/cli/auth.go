package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/server/auth"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

// Login asks for the missing factors and opens a session. The username may
// be given as the first argument.
func (a *App) Login(ctx context.Context, args []string) error {
	var userName string
	if len(args) > 0 {
		userName = args[0]
	} else {
		var err error
		if userName, err = getSimpleText(a.in, "Enter username", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	code, err := getSimpleText(a.in, "Enter 6-digit code", a.out)
	if err != nil {
		return err
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.client.Login(callCtx, userName, string(password), code)
	if err != nil {
		return err
	}

	a.userName = resp.Username
	fmt.Fprintf(a.out, "Logged in as %s until %s\n", resp.Username, resp.ExpiresAt.Local().Format(timeLayout))
	return nil
}

// Logout forgets the session locally.
func (a *App) Logout(ctx context.Context, args []string) error {
	a.client.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context, args []string) error {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.client.WhoAmI(callCtx)
	if err != nil {
		return a.dropSessionOn(err)
	}
	fmt.Fprintf(a.out, "%s (%s), session valid until %s\n", resp.Username, resp.UserID, resp.ExpiresAt.Local().Format(timeLayout))
	return nil
}

// TOTP prints the current login code for a base32 secret.
func (a *App) TOTP(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("totp <secret>")
	}

	code, err := auth.GenerateCode(strings.ToUpper(args[0]), a.now())
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, code)
	return nil
}
