package devportal

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/models"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	acc, err := s.store.accountByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	ok, err := verifyPassword(req.Password, acc.passwordHash)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if !acc.profile.IsEmailVerified {
		c.JSON(http.StatusForbidden, gin.H{"message": "Please verify your email before logging in"})
		return
	}

	user := acc.user()
	token, err := issueToken(s.cfg.JWTSecret, user, acc.generation, s.cfg.TokenTTL, s.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{
		Token:  token,
		UserID: user.UserID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	})
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func (s *Server) registerAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	role := models.UserRoleStudent
	if req.Role != "" {
		parsed, ok := models.ParseUserRole(req.Role)
		if !ok || parsed == models.UserRoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
			return
		}
		role = parsed
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user, token, err := s.store.createAccount(strings.TrimSpace(req.Name), req.Email, role, hash, false)
	if errors.Is(err, ErrEmailTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// no mailer: the link goes to the log
	s.log.Info().Int64("user_id", user.UserID).Str("token", token).Msg("email verification token issued")
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Registration successful. Please check your email to verify your account."})
}

func (s *Server) verifyEmail(c *gin.Context) {
	if err := s.store.verifyEmail(c.Query("token")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired verification token"})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Email verified successfully"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}
	if token, ok := s.store.createResetToken(req.Email); ok {
		s.log.Info().Str("token", token).Msg("password reset token issued")
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "If that email is registered, a reset link has been sent"})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Token and new password are required"})
		return
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.resetPassword(req.Token, hash); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired reset token"})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Password has been reset"})
}

func (s *Server) changePassword(c *gin.Context) {
	user, ok := s.self(c, c.Param("id"))
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Current and new password are required"})
		return
	}

	acc, err := s.store.accountByID(user.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if valid, err := verifyPassword(req.CurrentPassword, acc.passwordHash); err != nil || !valid {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Current password is incorrect"})
		return
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.setPassword(user.UserID, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Password changed successfully"})
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	acc, err := s.store.accountByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, acc.profile)
}

func (s *Server) adminStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.stats())
}

// self resolves raw to the caller's own id, answering 403 for anyone else.
func (s *Server) self(c *gin.Context, raw string) (models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.User{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return models.User{}, false
	}
	if id != user.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return models.User{}, false
	}
	return user, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return 0, false
	}
	return id, true
}
