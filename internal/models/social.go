package models

import (
	"strconv"
	"time"
)

type Notification struct {
	NotificationID int64     `json:"notificationId"`
	UserID         int64     `json:"userId"`
	Type           string    `json:"type,omitempty"`
	Content        string    `json:"content"`
	Link           string    `json:"link,omitempty"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (n Notification) Key() string {
	return strconv.FormatInt(n.NotificationID, 10)
}

type Message struct {
	MessageID  int64     `json:"messageId"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
	IsRead     bool      `json:"isRead"`

	// LocalID identifies a message composed on this client before the portal
	// assigned it a MessageID.
	LocalID string `json:"-"`
}

func (m Message) Key() string {
	if m.MessageID == 0 {
		return m.LocalID
	}
	return strconv.FormatInt(m.MessageID, 10)
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type Post struct {
	PostID             int64     `json:"postId"`
	UserID             int64     `json:"userId"`
	AuthorName         string    `json:"authorName,omitempty"`
	ContentText        string    `json:"contentText"`
	MediaURL           string    `json:"mediaUrl,omitempty"`
	Visibility         string    `json:"visibility,omitempty"`
	LikeCount          int       `json:"likeCount"`
	CommentCount       int       `json:"commentCount"`
	LikedByCurrentUser bool      `json:"likedByCurrentUser"`
	IsEdited           bool      `json:"isEdited"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (p Post) Key() string {
	return strconv.FormatInt(p.PostID, 10)
}

// PostPage mirrors the portal's paginated post listing.
type PostPage struct {
	Content       []Post `json:"content"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
}

type ConversationPartner struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}
