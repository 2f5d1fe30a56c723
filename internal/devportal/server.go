// Package devportal is an in-memory implementation of the portal's REST API.
// It backs the end-to-end tests and `connect devserver`; it is not the
// production backend.
package devportal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campusconnect/internal/config"
	"campusconnect/internal/models"
)

type Server struct {
	cfg    config.DevServerConfig
	engine *gin.Engine
	server *http.Server
	store  *memoryStore
	now    func() time.Time
	log    zerolog.Logger
}

func New(cfg config.DevServerConfig, environment string, log zerolog.Logger) *Server {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	log = log.With().Str("component", "devportal").Logger()
	s := &Server{
		cfg: cfg,
		now: time.Now,
		log: log,
	}
	s.store = newMemoryStore(func() time.Time { return s.now().UTC() })

	engine := gin.New()
	engine.Use(
		requestID(),
		requestLogger(log),
		recovery(log),
		cors(),
	)
	s.register(engine.Group("/api"))
	s.engine = engine

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) register(router *gin.RouterGroup) {
	router.GET("/healthz", s.health)

	auth := router.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/register", s.registerAccount)
	auth.GET("/verify-email", s.verifyEmail)
	auth.POST("/forgot-password", s.forgotPassword)
	auth.POST("/reset-password", s.resetPassword)

	protected := router.Group("")
	protected.Use(s.auth())
	protected.POST("/auth/change-password/:id", s.changePassword)
	protected.GET("/users/:id", s.getUser)

	protected.GET("/notifications/user/:id", s.listNotifications)
	protected.PATCH("/notifications/user/:id/read-all", s.markAllNotificationsRead)
	protected.PATCH("/notifications/:id/read", s.markNotificationRead)

	protected.GET("/messages/conversation/:a/:b", s.conversation)
	protected.POST("/messages/send/:receiverId", s.sendMessage)
	protected.GET("/messages/partners/:id", s.partners)
	protected.PATCH("/messages/:id/read", s.markMessageRead)

	protected.GET("/posts", s.listPosts)
	protected.POST("/posts", s.createPost)
	protected.POST("/posts/:id/like", s.likePost)
	protected.DELETE("/posts/:id/unlike", s.unlikePost)

	admin := router.Group("/admin")
	admin.Use(s.auth(), requireRoles(models.UserRoleAdmin, models.UserRoleFaculty))
	admin.GET("/stats", s.adminStats)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("dev portal starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("dev portal shutting down")
	return s.server.Shutdown(ctx)
}

// SeedUser creates a verified account.
func (s *Server) SeedUser(name, email, password string, role models.UserRole) (models.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	user, _, err := s.store.createAccount(name, email, role, hash, true)
	return user, err
}

func (s *Server) Notify(userID int64, content, link string) models.Notification {
	return s.store.addNotification(userID, "SYSTEM", content, link)
}

func (s *Server) CreatePost(author models.User, content string) models.Post {
	return s.store.addPost(author, content, "", "")
}

// RevokeTokens makes every token issued to the user so far fail with 401.
func (s *Server) RevokeTokens(userID int64) {
	s.store.revoke(userID)
}
