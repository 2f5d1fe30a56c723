package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"campusconnect/internal/models"
)

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (c *Client) ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	var resp []models.Notification
	err := c.Do(ctx, http.MethodGet, "/notifications/user/"+id(userID), nil, nil, &resp)
	return resp, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	return c.Do(ctx, http.MethodPatch, fmt.Sprintf("/notifications/%d/read", notificationID), nil, nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	return c.Do(ctx, http.MethodPatch, fmt.Sprintf("/notifications/user/%d/read-all", userID), nil, nil, nil)
}

func (c *Client) Conversation(ctx context.Context, userID int64, otherUserID int64) ([]models.Message, error) {
	var resp []models.Message
	err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/messages/conversation/%d/%d", userID, otherUserID), nil, nil, &resp)
	return resp, err
}

// SendMessage returns the stored message, including its server-assigned id.
func (c *Client) SendMessage(ctx context.Context, senderID int64, receiverID int64, content string) (models.Message, error) {
	var resp models.Message
	err := c.Do(ctx, http.MethodPost, "/messages/send/"+id(receiverID),
		url.Values{"senderId": {id(senderID)}},
		models.SendMessageRequest{Content: content},
		&resp,
	)
	return resp, err
}

func (c *Client) ConversationPartners(ctx context.Context, userID int64) ([]models.ConversationPartner, error) {
	var resp []models.ConversationPartner
	err := c.Do(ctx, http.MethodGet, "/messages/partners/"+id(userID), nil, nil, &resp)
	return resp, err
}

func (c *Client) MarkMessageRead(ctx context.Context, messageID int64) error {
	return c.Do(ctx, http.MethodPatch, fmt.Sprintf("/messages/%d/read", messageID), nil, nil, nil)
}

func (c *Client) ListPosts(ctx context.Context, page int, size int) (models.PostPage, error) {
	var resp models.PostPage
	err := c.Do(ctx, http.MethodGet, "/posts", url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}, nil, &resp)
	return resp, err
}

func (c *Client) LikePost(ctx context.Context, postID int64, userID int64) error {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/like", postID), url.Values{"userId": {id(userID)}}, nil, nil)
}

func (c *Client) UnlikePost(ctx context.Context, postID int64, userID int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d/unlike", postID), url.Values{"userId": {id(userID)}}, nil, nil)
}
