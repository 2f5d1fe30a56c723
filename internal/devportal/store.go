package devportal

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"campusconnect/internal/ids"
	"campusconnect/internal/models"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
	ErrNotFound     = errors.New("not found")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type account struct {
	profile      models.Profile
	passwordHash []byte
	generation   int
}

func (a *account) user() models.User {
	return models.User{
		UserID: a.profile.UserID,
		Name:   a.profile.Name,
		Email:  a.profile.Email,
		Role:   a.profile.Role,
	}
}

type postRecord struct {
	post  models.Post
	likes map[int64]struct{}
}

// memoryStore is the portal's whole database.
type memoryStore struct {
	mu  sync.Mutex
	now func() time.Time

	lastID int64

	accounts      map[int64]*account
	byEmail       map[string]int64
	notifications []models.Notification
	messages      []models.Message
	posts         []*postRecord
	verifyTokens  map[string]int64
	resetTokens   map[string]int64
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{
		now:          now,
		accounts:     make(map[int64]*account),
		byEmail:      make(map[string]int64),
		verifyTokens: make(map[string]int64),
		resetTokens:  make(map[string]int64),
	}
}

func (s *memoryStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

// createAccount returns the new user and, for unverified accounts, the
// email verification token.
func (s *memoryStore) createAccount(name, email string, role models.UserRole, passwordHash []byte, verified bool) (models.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.byEmail[email]; ok {
		return models.User{}, "", ErrEmailTaken
	}
	acc := &account{
		profile: models.Profile{
			UserID:          s.nextID(),
			Name:            name,
			Email:           email,
			Role:            role,
			IsActive:        true,
			IsEmailVerified: verified,
		},
		passwordHash: passwordHash,
	}
	s.accounts[acc.profile.UserID] = acc
	s.byEmail[email] = acc.profile.UserID

	var token string
	if !verified {
		token = ids.New()
		s.verifyTokens[token] = acc.profile.UserID
	}
	return acc.user(), token, nil
}

func (s *memoryStore) accountByEmail(email string) (account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return account{}, ErrUserNotFound
	}
	return *s.accounts[id], nil
}

func (s *memoryStore) accountByID(id int64) (account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return account{}, ErrUserNotFound
	}
	return *acc, nil
}

func (s *memoryStore) verifyEmail(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.verifyTokens[token]
	if !ok {
		return ErrInvalidToken
	}
	delete(s.verifyTokens, token)
	s.accounts[id].profile.IsEmailVerified = true
	return nil
}

func (s *memoryStore) createResetToken(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", false
	}
	token := ids.New()
	s.resetTokens[token] = id
	return token, true
}

func (s *memoryStore) resetPassword(token string, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.resetTokens[token]
	if !ok {
		return ErrInvalidToken
	}
	delete(s.resetTokens, token)
	acc := s.accounts[id]
	acc.passwordHash = passwordHash
	acc.generation++
	return nil
}

func (s *memoryStore) setPassword(id int64, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrUserNotFound
	}
	acc.passwordHash = passwordHash
	return nil
}

// revoke invalidates every token issued to the user so far.
func (s *memoryStore) revoke(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[id]; ok {
		acc.generation++
	}
}

func (s *memoryStore) addNotification(userID int64, kind, content, link string) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := models.Notification{
		NotificationID: s.nextID(),
		UserID:         userID,
		Type:           kind,
		Content:        content,
		Link:           link,
		CreatedAt:      s.now(),
	}
	s.notifications = append(s.notifications, n)
	return n
}

// notificationsFor returns newest first.
func (s *memoryStore) notificationsFor(userID int64) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out
}

func (s *memoryStore) markNotificationRead(id, ownerID int64) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].NotificationID == id && s.notifications[i].UserID == ownerID {
			s.notifications[i].IsRead = true
			return s.notifications[i], nil
		}
	}
	return models.Notification{}, ErrNotFound
}

func (s *memoryStore) markAllNotificationsRead(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			count++
		}
	}
	return count
}

func (s *memoryStore) addMessage(senderID, receiverID int64, content string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := models.Message{
		MessageID:  s.nextID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		SentAt:     s.now(),
	}
	s.messages = append(s.messages, m)
	return m
}

func (s *memoryStore) conversation(a, b int64) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, 0)
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out
}

func (s *memoryStore) partners(userID int64) []models.ConversationPartner {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]struct{})
	out := make([]models.ConversationPartner, 0)
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		var other int64
		switch userID {
		case m.SenderID:
			other = m.ReceiverID
		case m.ReceiverID:
			other = m.SenderID
		default:
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		if acc, ok := s.accounts[other]; ok {
			out = append(out, models.ConversationPartner{UserID: other, Name: acc.profile.Name, Email: acc.profile.Email})
		}
	}
	return out
}

func (s *memoryStore) markMessageRead(id, receiverID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].MessageID == id && s.messages[i].ReceiverID == receiverID {
			s.messages[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryStore) addPost(author models.User, content, mediaURL, visibility string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if visibility == "" {
		visibility = "PUBLIC"
	}
	rec := &postRecord{
		post: models.Post{
			PostID:      s.nextID(),
			UserID:      author.UserID,
			AuthorName:  author.Name,
			ContentText: content,
			MediaURL:    mediaURL,
			Visibility:  visibility,
			CreatedAt:   s.now(),
		},
		likes: make(map[int64]struct{}),
	}
	s.posts = append(s.posts, rec)
	return rec.post
}

// postPage lists posts newest first as seen by viewerID.
func (s *memoryStore) postPage(viewerID int64, page, size int) models.PostPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.posts)
	result := models.PostPage{
		Content:       make([]models.Post, 0, size),
		Number:        page,
		Size:          size,
		TotalElements: int64(total),
		TotalPages:    (total + size - 1) / size,
	}
	start := page * size
	for i := total - 1 - start; i >= 0 && len(result.Content) < size; i-- {
		result.Content = append(result.Content, s.view(s.posts[i], viewerID))
	}
	return result
}

func (s *memoryStore) view(rec *postRecord, viewerID int64) models.Post {
	p := rec.post
	p.LikeCount = len(rec.likes)
	_, p.LikedByCurrentUser = rec.likes[viewerID]
	return p
}

// setLike is idempotent in both directions.
func (s *memoryStore) setLike(postID, userID int64, liked bool) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.posts {
		if rec.post.PostID != postID {
			continue
		}
		if liked {
			rec.likes[userID] = struct{}{}
		} else {
			delete(rec.likes, userID)
		}
		return s.view(rec, userID), nil
	}
	return models.Post{}, ErrPostNotFound
}

type stats struct {
	Users         int `json:"users"`
	Posts         int `json:"posts"`
	Messages      int `json:"messages"`
	Notifications int `json:"notifications"`
}

func (s *memoryStore) stats() stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stats{
		Users:         len(s.accounts),
		Posts:         len(s.posts),
		Messages:      len(s.messages),
		Notifications: len(s.notifications),
	}
}
