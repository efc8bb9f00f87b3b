package dto

import (
	"time"

	commonDto "anoa.com/feedsync/pkg/dto"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Selection picks which posts the feed returns. At most one of AuthorID,
// PostID and GroupID is set; none means every post.
type Selection struct {
	AuthorID *uuid.UUID
	PostID   *uuid.UUID
	GroupID  *uuid.UUID
	Limit    int
}

func All() Selection { return Selection{} }

func ByAuthor(userID uuid.UUID) Selection { return Selection{AuthorID: &userID} }

func ByID(postID uuid.UUID) Selection { return Selection{PostID: &postID, Limit: 1} }

func ByGroup(groupID uuid.UUID) Selection { return Selection{GroupID: &groupID} }

func (s Selection) WithLimit(limit int) Selection {
	s.Limit = limit
	return s
}

// EffectiveLimit clamps the limit to (0, MaxLimit].
func (s Selection) EffectiveLimit() int {
	switch {
	case s.Limit <= 0:
		return DefaultLimit
	case s.Limit > MaxLimit:
		return MaxLimit
	default:
		return s.Limit
	}
}

// Post is the flat display record of one post.
type Post struct {
	ID            uuid.UUID                `json:"id"`
	UserID        uuid.UUID                `json:"user_id"`
	Author        commonDto.AuthorResponse `json:"profiles"`
	Content       string                   `json:"content"`
	ImageURL      *string                  `json:"image_url"`
	GroupID       *uuid.UUID               `json:"group_id"`
	CreatedAt     time.Time                `json:"created_at"`
	LikesCount    int64                    `json:"likes_count"`
	CommentsCount int64                    `json:"comments_count"`
	UserHasLiked  bool                     `json:"user_has_liked"`
}

type FeedQuery struct {
	GroupID string `form:"group_id" binding:"omitempty,uuid"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
