package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"campusconnect/internal/models"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.Do(ctx, http.MethodPost, "/auth/login", nil, req, &resp)
	return resp, err
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := c.Do(ctx, http.MethodPost, "/auth/register", nil, req, &resp)
	return resp, err
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := c.Do(ctx, http.MethodGet, "/auth/verify-email", url.Values{"token": {token}}, nil, &resp)
	return resp, err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := c.Do(ctx, http.MethodPost, "/auth/forgot-password", nil, models.ForgotPasswordRequest{Email: email}, &resp)
	return resp, err
}

func (c *Client) ResetPassword(ctx context.Context, token string, newPassword string) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := c.Do(ctx, http.MethodPost, "/auth/reset-password", nil, models.ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	}, &resp)
	return resp, err
}

func (c *Client) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := c.Do(ctx, http.MethodPost, "/auth/change-password/"+strconv.FormatInt(userID, 10), nil, req, &resp)
	return resp, err
}

func (c *Client) GetProfile(ctx context.Context, userID int64) (models.Profile, error) {
	var resp models.Profile
	err := c.Do(ctx, http.MethodGet, "/users/"+strconv.FormatInt(userID, 10), nil, nil, &resp)
	return resp, err
}
