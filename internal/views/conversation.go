package views

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"campusconnect/internal/clock"
	"campusconnect/internal/ids"
	"campusconnect/internal/livelist"
	"campusconnect/internal/models"
)

const (
	DefaultConversationInterval = 5 * time.Second
	// sentAtSkew bounds the clock difference tolerated when matching a
	// locally composed message with its stored copy.
	sentAtSkew = 2 * time.Minute
)

var (
	ErrEmptyMessage   = errors.New("message content required")
	ErrNothingToRetry = errors.New("no failed message with that key")
)

type ConversationAPI interface {
	Conversation(ctx context.Context, userID int64, otherUserID int64) ([]models.Message, error)
	SendMessage(ctx context.Context, senderID int64, receiverID int64, content string) (models.Message, error)
	MarkMessageRead(ctx context.Context, messageID int64) error
}

// Conversation is a direct-message thread ordered by send time.
type Conversation struct {
	base[models.Message]
	api       ConversationAPI
	clock     clock.Clock
	log       zerolog.Logger
	userID    int64
	partnerID int64

	readMu sync.Mutex
	read   map[int64]struct{}
}

func NewConversation(api ConversationAPI, userID, partnerID int64, opts Options) *Conversation {
	if opts.Interval == 0 {
		opts.Interval = DefaultConversationInterval
	}
	v := &Conversation{
		api:       api,
		clock:     opts.clock(),
		log:       opts.Logger.With().Str("view", "conversation").Logger(),
		userID:    userID,
		partnerID: partnerID,
		read:      make(map[int64]struct{}),
	}
	lo := listOptions(opts, "conversation", models.Message.Key, v.fetch)
	lo.Less = func(a, b models.Message) bool { return a.SentAt.Before(b.SentAt) }
	v.list = livelist.New(lo)
	return v
}

// fetch loads the thread and marks incoming unread messages read, each at
// most once per view. A failed receipt is retried on the next poll.
func (v *Conversation) fetch(ctx context.Context) ([]models.Message, error) {
	messages, err := v.api.Conversation(ctx, v.userID, v.partnerID)
	if err != nil {
		return nil, err
	}

	v.readMu.Lock()
	defer v.readMu.Unlock()
	for i := range messages {
		m := &messages[i]
		if m.ReceiverID != v.userID || m.MessageID == 0 {
			continue
		}
		if _, done := v.read[m.MessageID]; !done && !m.IsRead {
			if err := v.api.MarkMessageRead(ctx, m.MessageID); err != nil {
				if unauthorized(err) {
					return nil, err
				}
				v.log.Warn().Err(err).Int64("message_id", m.MessageID).Msg("mark message read failed")
				continue
			}
			v.read[m.MessageID] = struct{}{}
		}
		if _, done := v.read[m.MessageID]; done {
			m.IsRead = true
		}
	}
	return messages, nil
}

// Send shows the message at once as pending and posts it. A failed send
// removes the message and returns the error.
func (v *Conversation) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}

	local := models.Message{
		SenderID:   v.userID,
		ReceiverID: v.partnerID,
		Content:    content,
		SentAt:     v.clock.Now(),
		LocalID:    ids.NewLocal(),
	}

	// messages already on screen can never confirm this one
	known := make(map[int64]struct{})
	for _, entry := range v.Entries() {
		if entry.Value.MessageID != 0 {
			known[entry.Value.MessageID] = struct{}{}
		}
	}
	match := func(m models.Message) bool {
		if _, ok := known[m.MessageID]; ok {
			return false
		}
		if m.SenderID != local.SenderID || m.ReceiverID != local.ReceiverID || m.Content != local.Content {
			return false
		}
		delta := m.SentAt.Sub(local.SentAt)
		return delta <= sentAtSkew && delta >= -sentAtSkew
	}

	return v.list.Append(ctx, local, match, func(ctx context.Context) (models.Message, error) {
		return v.api.SendMessage(ctx, v.userID, v.partnerID, content)
	})
}

// Retry resends a message that was flagged failed.
func (v *Conversation) Retry(ctx context.Context, key string) error {
	if !ids.IsLocal(key) {
		return ErrNothingToRetry
	}
	for _, entry := range v.Entries() {
		if entry.Key == key && entry.Status == livelist.StatusFailed {
			v.Dismiss(key)
			return v.Send(ctx, entry.Value.Content)
		}
	}
	return ErrNothingToRetry
}

func (v *Conversation) PartnerID() int64 {
	return v.partnerID
}
