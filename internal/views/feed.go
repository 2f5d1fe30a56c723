package views

import (
	"context"
	"time"

	"campusconnect/internal/livelist"
	"campusconnect/internal/models"
)

const (
	DefaultFeedInterval = 30 * time.Second
	FeedPageSize        = 10
)

type FeedAPI interface {
	ListPosts(ctx context.Context, page int, size int) (models.PostPage, error)
	LikePost(ctx context.Context, postID int64, userID int64) error
	UnlikePost(ctx context.Context, postID int64, userID int64) error
}

// Feed is the first page of posts in the order the portal returns them.
type Feed struct {
	base[models.Post]
	api    FeedAPI
	userID int64
}

func NewFeed(api FeedAPI, userID int64, opts Options) *Feed {
	if opts.Interval == 0 {
		opts.Interval = DefaultFeedInterval
	}
	v := &Feed{api: api, userID: userID}
	v.list = livelist.New(listOptions(opts, "feed", models.Post.Key,
		func(ctx context.Context) ([]models.Post, error) {
			page, err := api.ListPosts(ctx, 0, FeedPageSize)
			if err != nil {
				return nil, err
			}
			return page.Content, nil
		}))
	return v
}

func likePost(p models.Post) models.Post {
	if !p.LikedByCurrentUser {
		p.LikedByCurrentUser = true
		p.LikeCount++
	}
	return p
}

func unlikePost(p models.Post) models.Post {
	if p.LikedByCurrentUser {
		p.LikedByCurrentUser = false
		if p.LikeCount > 0 {
			p.LikeCount--
		}
	}
	return p
}

func liked(p models.Post) bool   { return p.LikedByCurrentUser }
func unliked(p models.Post) bool { return !p.LikedByCurrentUser }

func (v *Feed) Like(ctx context.Context, postID int64) error {
	return v.list.Patch(ctx, postKey(postID), likePost, liked, func(ctx context.Context) error {
		return v.api.LikePost(ctx, postID, v.userID)
	})
}

func (v *Feed) Unlike(ctx context.Context, postID int64) error {
	return v.list.Patch(ctx, postKey(postID), unlikePost, unliked, func(ctx context.Context) error {
		return v.api.UnlikePost(ctx, postID, v.userID)
	})
}

// Toggle likes or unlikes depending on what is currently shown.
func (v *Feed) Toggle(ctx context.Context, postID int64) error {
	post, ok := v.find(postKey(postID))
	if !ok {
		return livelist.ErrUnknownKey
	}
	if post.LikedByCurrentUser {
		return v.Unlike(ctx, postID)
	}
	return v.Like(ctx, postID)
}

func postKey(postID int64) string {
	return models.Post{PostID: postID}.Key()
}
