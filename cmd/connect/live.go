package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"campusconnect/internal/livelist"
	"campusconnect/internal/service"
)

type liveView interface {
	Mount(ctx context.Context) error
	Refresh(ctx context.Context) error
	Dispose()
}

// show draws the view once, or with watch keeps polling and redraws on every
// change until ctx ends or the session does.
func show(ctx context.Context, e *env, view liveView, watch bool, draw func()) error {
	defer view.Dispose()
	if !watch {
		if err := view.Refresh(ctx); err != nil {
			return err
		}
		draw()
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := e.app.OnSignOut(func() {
		fmt.Println("Session ended, sign in again with 'connect login'")
		cancel()
	})
	defer stop()
	if err := e.app.Start(); err != nil {
		return err
	}
	if err := view.Mount(ctx); err != nil {
		return err
	}
	draw()
	<-ctx.Done()
	return nil
}

// redraw defers to draw once it is set, so views can be built before their
// render func exists.
type redraw struct {
	draw func()
}

func (r *redraw) onChange() {
	if r.draw != nil {
		fmt.Println()
		r.draw()
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", service.ErrInvalidInput, raw)
	}
	return id, nil
}

func runNotifications(ctx context.Context, e *env, args []string) error {
	flags := newFlags("notifications")
	watch := flags.BoolP("watch", "w", false, "keep polling and redraw on changes")
	readID := flags.Int64("read", 0, "mark one notification read")
	readAll := flags.Bool("read-all", false, "mark every notification read")
	if err := flags.Parse(args); err != nil {
		return err
	}

	rd := &redraw{}
	view, err := e.app.Notifications(rd.onChange)
	if err != nil {
		return err
	}
	draw := func() { fmt.Print(e.out.Notifications(view.Entries())) }

	if *readID != 0 || *readAll {
		if err := view.Refresh(ctx); err != nil {
			view.Dispose()
			return err
		}
		if *readAll {
			err = view.MarkAllRead(ctx)
		} else {
			err = view.MarkRead(ctx, *readID)
		}
		if err != nil {
			view.Dispose()
			return err
		}
	}
	if *watch {
		rd.draw = draw
	}
	return show(ctx, e, view, *watch, draw)
}

func runChat(ctx context.Context, e *env, args []string) error {
	flags := newFlags("chat")
	send := flags.StringP("send", "s", "", "send a message and exit")
	watch := flags.BoolP("watch", "w", false, "stay open: poll, and send each line typed")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: connect chat <user-id> [--send text] [--watch]")
	}
	partnerID, err := parseID(flags.Arg(0))
	if err != nil {
		return err
	}

	rd := &redraw{}
	view, err := e.app.Conversation(partnerID, rd.onChange)
	if err != nil {
		return err
	}
	self := e.app.Sessions.Current().User.UserID
	partner := "user " + strconv.FormatInt(partnerID, 10)
	if p, err := e.app.API.GetProfile(ctx, partnerID); err == nil {
		partner = p.Name
	}
	draw := func() { fmt.Print(e.out.Conversation(view.Entries(), self, partner)) }

	if *send != "" {
		if err := view.Refresh(ctx); err != nil {
			view.Dispose()
			return err
		}
		if err := view.Send(ctx, *send); err != nil {
			view.Dispose()
			return err
		}
	}
	if !*watch {
		return show(ctx, e, view, false, draw)
	}

	rd.draw = draw
	go readLines(ctx, os.Stdin, func(line string) {
		var err error
		if key, ok := strings.CutPrefix(line, "/retry "); ok {
			err = view.Retry(ctx, strings.TrimSpace(key))
		} else {
			err = view.Send(ctx, line)
		}
		if err != nil && !errors.Is(err, livelist.ErrDisposed) {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
		}
	})
	return show(ctx, e, view, true, draw)
}

func readLines(ctx context.Context, f *os.File, handle func(string)) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			handle(line)
		}
	}
}

func runPartners(ctx context.Context, e *env, _ []string) error {
	current := e.app.Sessions.Current()
	if !current.IsAuthenticated() {
		return service.ErrNotSignedIn
	}
	partners, err := e.app.API.ConversationPartners(ctx, current.User.UserID)
	if err != nil {
		return err
	}
	if len(partners) == 0 {
		fmt.Println("No conversations yet")
	}
	for _, p := range partners {
		fmt.Printf("%6d  %s <%s>\n", p.UserID, p.Name, p.Email)
	}
	return nil
}

func runFeed(ctx context.Context, e *env, args []string) error {
	flags := newFlags("feed")
	watch := flags.BoolP("watch", "w", false, "keep polling and redraw on changes")
	if err := flags.Parse(args); err != nil {
		return err
	}

	rd := &redraw{}
	view, err := e.app.Feed(rd.onChange)
	if err != nil {
		return err
	}
	draw := func() { fmt.Print(e.out.Feed(view.Entries())) }
	if *watch {
		rd.draw = draw
	}
	return show(ctx, e, view, *watch, draw)
}

func runLike(ctx context.Context, e *env, args []string) error {
	return setLike(ctx, e, args, true)
}

func runUnlike(ctx context.Context, e *env, args []string) error {
	return setLike(ctx, e, args, false)
}

// setLike goes through the feed when the post is on its first page and
// straight to the portal otherwise.
func setLike(ctx context.Context, e *env, args []string, like bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: connect like|unlike <post-id>")
	}
	postID, err := parseID(args[0])
	if err != nil {
		return err
	}
	view, err := e.app.Feed(nil)
	if err != nil {
		return err
	}
	defer view.Dispose()
	if err := view.Refresh(ctx); err != nil {
		return err
	}

	if like {
		err = view.Like(ctx, postID)
	} else {
		err = view.Unlike(ctx, postID)
	}
	if errors.Is(err, livelist.ErrUnknownKey) {
		userID := e.app.Sessions.Current().User.UserID
		if like {
			err = e.app.API.LikePost(ctx, postID, userID)
		} else {
			err = e.app.API.UnlikePost(ctx, postID, userID)
		}
	}
	if err != nil {
		return err
	}
	fmt.Println("Done")
	return nil
}
