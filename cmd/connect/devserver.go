package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusconnect/internal/devportal"
	"campusconnect/internal/models"
)

var demoAccounts = []struct {
	name, email string
	role        models.UserRole
}{
	{"Ayesha Khan", "a@nust.edu.pk", models.UserRoleStudent},
	{"Bilal Ahmed", "b@nust.edu.pk", models.UserRoleStudent},
	{"Dr. Sara Malik", "faculty@nust.edu.pk", models.UserRoleFaculty},
	{"Portal Admin", "admin@nust.edu.pk", models.UserRoleAdmin},
}

func runDevServer(ctx context.Context, e *env, args []string) error {
	flags := newFlags("devserver")
	seed := flags.Bool("seed", true, "create demo accounts (password \"x\") and a welcome post")
	port := flags.Int("port", e.cfg.DevServer.Port, "listen port")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := e.cfg.DevServer
	cfg.Port = *port
	portal := devportal.New(cfg, e.cfg.Environment, e.log)
	if *seed {
		if err := seedPortal(portal); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- portal.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := portal.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func seedPortal(portal *devportal.Server) error {
	var users []models.User
	for _, acc := range demoAccounts {
		user, err := portal.SeedUser(acc.name, acc.email, "x", acc.role)
		if err != nil {
			return fmt.Errorf("seed %s: %w", acc.email, err)
		}
		users = append(users, user)
	}
	portal.CreatePost(users[2], "Welcome to the new semester! Office hours are posted on the Events page.")
	portal.Notify(users[0].UserID, "Your ride to F-10 has been confirmed", "/rides")
	return nil
}
