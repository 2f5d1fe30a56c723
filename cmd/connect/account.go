package main

import (
	"context"
	"fmt"

	"campusconnect/internal/navigation"
	"campusconnect/internal/service"
)

func runLogin(ctx context.Context, e *env, args []string) error {
	flags := newFlags("login")
	email := flags.StringP("email", "e", "", "account email")
	password := flags.StringP("password", "p", "", "account password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	user, err := e.app.Auth.Login(ctx, service.LoginInput{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	outcome := e.app.Router.Navigate(ctx, navigation.PathDashboard)
	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Role)
	fmt.Println(e.out.Outcome(outcome))
	return nil
}

func runRegister(ctx context.Context, e *env, args []string) error {
	flags := newFlags("register")
	name := flags.StringP("name", "n", "", "full name")
	email := flags.StringP("email", "e", "", "account email")
	password := flags.StringP("password", "p", "", "password")
	role := flags.String("role", "STUDENT", "STUDENT or FACULTY")
	if err := flags.Parse(args); err != nil {
		return err
	}

	msg, err := e.app.Auth.Register(ctx, service.RegisterInput{Name: *name, Email: *email, Password: *password, Role: *role})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func runVerifyEmail(ctx context.Context, e *env, args []string) error {
	flags := newFlags("verify-email")
	token := flags.StringP("token", "t", "", "token from the verification email")
	if err := flags.Parse(args); err != nil {
		return err
	}
	msg, err := e.app.Auth.VerifyEmail(ctx, *token)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func runForgotPassword(ctx context.Context, e *env, args []string) error {
	flags := newFlags("forgot-password")
	email := flags.StringP("email", "e", "", "account email")
	if err := flags.Parse(args); err != nil {
		return err
	}
	msg, err := e.app.Auth.ForgotPassword(ctx, *email)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func runResetPassword(ctx context.Context, e *env, args []string) error {
	flags := newFlags("reset-password")
	token := flags.StringP("token", "t", "", "token from the reset email")
	password := flags.StringP("password", "p", "", "new password")
	if err := flags.Parse(args); err != nil {
		return err
	}
	msg, err := e.app.Auth.ResetPassword(ctx, *token, *password)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func runChangePassword(ctx context.Context, e *env, args []string) error {
	flags := newFlags("change-password")
	current := flags.String("current", "", "current password")
	next := flags.String("new", "", "new password")
	if err := flags.Parse(args); err != nil {
		return err
	}
	msg, err := e.app.Auth.ChangePassword(ctx, *current, *next)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func runWhoami(ctx context.Context, e *env, _ []string) error {
	profile, err := e.app.Auth.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Println(e.out.Profile(profile))
	return nil
}

func runOpen(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: connect open <path>")
	}
	fmt.Println(e.out.Outcome(e.app.Router.Navigate(ctx, args[0])))
	return nil
}

func runRecent(ctx context.Context, e *env, _ []string) error {
	fmt.Print(e.out.Recent(e.app.Recent.List(ctx)))
	return nil
}
