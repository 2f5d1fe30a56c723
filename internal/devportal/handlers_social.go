package devportal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/models"
)

func (s *Server) listNotifications(c *gin.Context) {
	user, ok := s.self(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.notificationsFor(user.UserID))
}

func (s *Server) markNotificationRead(c *gin.Context) {
	user, _ := currentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := s.store.markNotificationRead(id, user.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) markAllNotificationsRead(c *gin.Context) {
	user, ok := s.self(c, c.Param("id"))
	if !ok {
		return
	}
	count := s.store.markAllNotificationsRead(user.UserID)
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("%d notifications marked as read", count)})
}

func (s *Server) conversation(c *gin.Context) {
	user, _ := currentUser(c)
	a, ok := pathID(c, "a")
	if !ok {
		return
	}
	b, ok := pathID(c, "b")
	if !ok {
		return
	}
	if user.UserID != a && user.UserID != b {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, s.store.conversation(a, b))
}

func (s *Server) sendMessage(c *gin.Context) {
	sender, ok := s.self(c, c.Query("senderId"))
	if !ok {
		return
	}
	receiverID, ok := pathID(c, "receiverId")
	if !ok {
		return
	}
	if _, err := s.store.accountByID(receiverID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Receiver not found"})
		return
	}
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message content is required"})
		return
	}

	msg := s.store.addMessage(sender.UserID, receiverID, req.Content)
	s.store.addNotification(receiverID, "MESSAGE", "New message from "+sender.Name, "/messages")
	c.JSON(http.StatusOK, msg)
}

func (s *Server) partners(c *gin.Context) {
	user, ok := s.self(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.partners(user.UserID))
}

func (s *Server) markMessageRead(c *gin.Context) {
	user, _ := currentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.markMessageRead(id, user.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Message marked as read"})
}

func (s *Server) listPosts(c *gin.Context) {
	user, _ := currentUser(c)
	page, size := 0, 10
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v >= 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 100 {
		size = v
	}
	c.JSON(http.StatusOK, s.store.postPage(user.UserID, page, size))
}

type createPostRequest struct {
	ContentText string `json:"contentText" binding:"required"`
	MediaURL    string `json:"mediaUrl"`
	Visibility  string `json:"visibility"`
}

func (s *Server) createPost(c *gin.Context) {
	user, _ := currentUser(c)
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s.store.addPost(user, req.ContentText, req.MediaURL, req.Visibility))
}

func (s *Server) likePost(c *gin.Context) {
	s.setLike(c, true)
}

func (s *Server) unlikePost(c *gin.Context) {
	s.setLike(c, false)
}

func (s *Server) setLike(c *gin.Context, liked bool) {
	user, ok := s.self(c, c.Query("userId"))
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := s.store.setLike(postID, user.UserID, liked)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}
