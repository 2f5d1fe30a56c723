// connect is a terminal client for the campus portal. It keeps the signed-in
// session on disk (or in Redis), guards module routes by role and polls
// notifications, direct messages and the post feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"campusconnect/internal/app"
	"campusconnect/internal/config"
	"campusconnect/internal/log"
	"campusconnect/internal/render"
)

type command struct {
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

// env is what every command gets: the wired client and a renderer.
type env struct {
	app *app.App
	out render.Renderer
	cfg *config.AppConfig
	log zerolog.Logger
}

var commands = map[string]command{
	"login":           {"sign in with email and password", runLogin},
	"register":        {"create an account", runRegister},
	"verify-email":    {"confirm an email address with the emailed token", runVerifyEmail},
	"forgot-password": {"request a password reset email", runForgotPassword},
	"reset-password":  {"set a new password with a reset token", runResetPassword},
	"change-password": {"change the signed-in user's password", runChangePassword},
	"logout":          {"end the session and forget recent modules", runLogout},
	"whoami":          {"show the signed-in user's profile", runWhoami},
	"open":            {"navigate to a portal module, e.g. open /rides", runOpen},
	"recent":          {"list recently accessed modules", runRecent},
	"notifications":   {"list notifications; --watch to keep polling", runNotifications},
	"chat":            {"show or send direct messages with a user", runChat},
	"partners":        {"list conversation partners", runPartners},
	"feed":            {"show the post feed", runFeed},
	"like":            {"like a post", runLike},
	"unlike":          {"remove a like from a post", runUnlike},
	"devserver":       {"run the in-memory portal for local development", runDevServer},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		printHelp()
		return nil
	}
	name, args := os.Args[1], os.Args[2:]
	cmd, ok := commands[name]
	if !ok {
		printHelp()
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := &env{cfg: cfg, out: render.New(render.DefaultTheme, 80), log: logger}
	if name != "devserver" {
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn().Err(err).Msg("close app")
			}
		}()
		e.app = a
	}

	err = cmd.run(ctx, e, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func printHelp() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "Usage:\n  connect <command> [flags]\n\nCommands:")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(os.Stderr, "\nRun 'connect <command> --help' for command flags.")
}

func newFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet("connect "+name, pflag.ContinueOnError)
}
