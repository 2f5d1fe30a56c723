package models

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

// AuthResponse is the body of a successful POST /auth/login.
type AuthResponse struct {
	Token  string   `json:"token"`
	UserID int64    `json:"userId"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}

func (r AuthResponse) User() User {
	return User{
		UserID: r.UserID,
		Name:   r.Name,
		Email:  r.Email,
		Role:   r.Role,
	}
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// MessageResponse is the generic {"message": "..."} acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
