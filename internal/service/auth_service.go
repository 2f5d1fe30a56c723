package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"campusconnect/internal/apiclient"
	"campusconnect/internal/models"
	"campusconnect/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrMissingToken       = errors.New("portal returned no token")
	ErrInvalidInput       = errors.New("invalid input")
)

type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.MessageResponse, error)
	VerifyEmail(ctx context.Context, token string) (models.MessageResponse, error)
	ForgotPassword(ctx context.Context, email string) (models.MessageResponse, error)
	ResetPassword(ctx context.Context, token string, newPassword string) (models.MessageResponse, error)
	ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) (models.MessageResponse, error)
	GetProfile(ctx context.Context, userID int64) (models.Profile, error)
}

type AuthService struct {
	api      AuthAPI
	sessions *session.Store
	log      zerolog.Logger
}

func NewAuthService(api AuthAPI, sessions *session.Store, log zerolog.Logger) *AuthService {
	return &AuthService{
		api:      api,
		sessions: sessions,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

type LoginInput struct {
	Email    string
	Password string
}

// Login exchanges credentials for a token and starts the session.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (models.User, error) {
	input.Email = normalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}

	resp, err := s.api.Login(ctx, models.LoginRequest{Email: input.Email, Password: input.Password})
	if err != nil {
		switch apiclient.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusBadRequest:
			return models.User{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return models.User{}, err
	}
	if resp.Token == "" {
		return models.User{}, ErrMissingToken
	}

	user := resp.User()
	if role, ok := models.ParseUserRole(string(user.Role)); ok {
		user.Role = role
	} else {
		s.log.Warn().Str("role", string(user.Role)).Msg("portal returned an unknown role")
	}

	if err := s.sessions.Login(ctx, user, resp.Token); err != nil {
		return user, fmt.Errorf("save session: %w", err)
	}
	s.log.Info().Int64("user_id", user.UserID).Str("role", string(user.Role)).Msg("signed in")
	return user, nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates an account. The portal emails a verification link; no
// session is started.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" || input.Password == "" || input.Name == "" {
		return "", fmt.Errorf("%w: name, email and password required", ErrInvalidInput)
	}
	role := models.UserRoleStudent
	if input.Role != "" {
		parsed, ok := models.ParseUserRole(input.Role)
		if !ok {
			return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
		}
		role = parsed
	}

	resp, err := s.api.Register(ctx, models.RegisterRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     role,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: verification token required", ErrInvalidInput)
	}
	resp, err := s.api.VerifyEmail(ctx, token)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	resp, err := s.api.ForgotPassword(ctx, email)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if strings.TrimSpace(token) == "" || newPassword == "" {
		return "", fmt.Errorf("%w: token and new password required", ErrInvalidInput)
	}
	resp, err := s.api.ResetPassword(ctx, strings.TrimSpace(token), newPassword)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	current := s.sessions.Current()
	if !current.IsAuthenticated() {
		return "", ErrNotSignedIn
	}
	if currentPassword == "" || newPassword == "" {
		return "", fmt.Errorf("%w: current and new password required", ErrInvalidInput)
	}
	resp, err := s.api.ChangePassword(ctx, current.User.UserID, models.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *AuthService) Profile(ctx context.Context) (models.Profile, error) {
	current := s.sessions.Current()
	if !current.IsAuthenticated() {
		return models.Profile{}, ErrNotSignedIn
	}
	return s.api.GetProfile(ctx, current.User.UserID)
}

// Logout is local only; the portal keeps no server-side session to end.
func (s *AuthService) Logout(ctx context.Context) error {
	userID := s.sessions.Current().User.UserID
	if err := s.sessions.Logout(ctx); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Msg("signed out")
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
