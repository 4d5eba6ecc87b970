package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophfriends/internal/api"
	"github.com/dmitrijs2005/gophfriends/internal/client/client"
)

const timeLayout = "2006-01-02 15:04"

// dropSessionOn forgets the local session when the server no longer accepts
// it.
func (a *App) dropSessionOn(err error) error {
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotLoggedIn) {
		a.client.Logout()
		a.userName = ""
	}
	return err
}

func (a *App) Send(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("send <user> [message]")
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	fr, err := a.client.SendRequest(callCtx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return a.dropSessionOn(err)
	}

	fmt.Fprintf(a.out, "Request %s to %s is %s\n", fr.ID, fr.RecipientUsername, fr.Status)
	return nil
}

func (a *App) Respond(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("respond <user> accept|reject")
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	t, err := a.client.RespondRequest(callCtx, args[0], args[1])
	if err != nil {
		return a.dropSessionOn(err)
	}

	fmt.Fprintf(a.out, "%s (%s -> %s)\n", t.Message, t.PreviousStatus, t.Status)
	return nil
}

// pageArgs parses "[status] [limit] [offset]". A leading number is taken as
// the limit.
func pageArgs(args []string) (status string, limit, offset int, err error) {
	if len(args) > 0 {
		if _, convErr := strconv.Atoi(args[0]); convErr != nil {
			status, args = args[0], args[1:]
		}
	}
	if len(args) > 2 {
		return "", 0, 0, usage("[status] [limit] [offset]")
	}
	nums := []*int{&limit, &offset}
	for i, v := range args {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return "", 0, 0, usage("[status] [limit] [offset]")
		}
		*nums[i] = n
	}
	return status, limit, offset, nil
}

func (a *App) printPage(page *api.ListRequestsResponse, sent bool) {
	if len(page.Requests) == 0 {
		fmt.Fprintln(a.out, "No requests")
		return
	}
	for _, r := range page.Requests {
		who := r.SenderUsername
		if sent {
			who = r.RecipientUsername
		}
		fmt.Fprintf(a.out, "%s  %-20s %-9s %s\n", r.ID, who, r.Status, r.UpdatedAt.Local().Format(timeLayout))
	}
	fmt.Fprintf(a.out, "%d-%d of %d\n", page.Offset+1, page.Offset+len(page.Requests), page.Total)
	if page.HasMore {
		fmt.Fprintf(a.out, "more: offset %d\n", page.Offset+len(page.Requests))
	}
}

func (a *App) Requests(ctx context.Context, args []string) error {
	status, limit, offset, err := pageArgs(args)
	if err != nil {
		return err
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	page, err := a.client.ListRequests(callCtx, status, limit, offset)
	if err != nil {
		return a.dropSessionOn(err)
	}

	a.printPage(page, false)
	return nil
}

func (a *App) Sent(ctx context.Context, args []string) error {
	status, limit, offset, err := pageArgs(args)
	if err != nil {
		return err
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	page, err := a.client.ListSentRequests(callCtx, status, limit, offset)
	if err != nil {
		return a.dropSessionOn(err)
	}

	a.printPage(page, true)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <id>")
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	r, err := a.client.GetRequest(callCtx, args[0])
	if err != nil {
		return a.dropSessionOn(err)
	}

	fmt.Fprintf(a.out, "ID:      %s\nFrom:    %s\nTo:      %s\nStatus:  %s\nUpdated: %s\n",
		r.ID, r.SenderUsername, r.RecipientUsername, r.Status, r.UpdatedAt.Local().Format(timeLayout))
	if len(r.Payload) > 0 {
		fmt.Fprintf(a.out, "Payload: %s\n", r.Payload)
	}
	return nil
}

func (a *App) Stats(ctx context.Context, args []string) error {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	st, err := a.client.RequestStats(callCtx)
	if err != nil {
		return a.dropSessionOn(err)
	}

	for _, row := range []struct {
		name string
		c    api.StatusCounts
	}{{"received", st.Received}, {"sent", st.Sent}} {
		fmt.Fprintf(a.out, "%-8s pending %d, accepted %d, rejected %d\n", row.name, row.c.Pending, row.c.Accepted, row.c.Rejected)
	}
	fmt.Fprintf(a.out, "friends  %d\n", st.Friends)
	return nil
}

func (a *App) Friends(ctx context.Context, args []string) error {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	fl, err := a.client.ListFriends(callCtx)
	if err != nil {
		return a.dropSessionOn(err)
	}

	if fl.Count == 0 {
		fmt.Fprintln(a.out, "No friends yet")
		return nil
	}
	for _, f := range fl.Friends {
		fmt.Fprintf(a.out, "%-20s since %s\n", f.Username, f.Since.Local().Format(timeLayout))
	}
	return nil
}

func (a *App) Check(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("check <user>")
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.client.CheckFriendship(callCtx, args[0])
	if err != nil {
		return a.dropSessionOn(err)
	}

	if resp.AreFriends {
		fmt.Fprintf(a.out, "You and %s are friends\n", resp.Username)
	} else {
		fmt.Fprintf(a.out, "You and %s are not friends\n", resp.Username)
	}
	return nil
}

func (a *App) Unfriend(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("unfriend <user>")
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.client.RemoveFriend(callCtx, args[0])
	if err != nil {
		return a.dropSessionOn(err)
	}

	if resp.Removed {
		fmt.Fprintf(a.out, "Removed %s from friends\n", resp.Username)
	} else {
		fmt.Fprintf(a.out, "%s was not a friend\n", resp.Username)
	}
	return nil
}
