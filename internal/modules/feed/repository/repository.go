package repository

import (
	"context"
	"time"

	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Row is one post joined with its author and aggregates, as scanned.
type Row struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Content         string
	ImageURL        *string
	GroupID         *uuid.UUID
	CreatedAt       time.Time
	AuthorUsername  string
	AuthorFullName  *string
	AuthorAvatarURL *string
	LikesCount      int64
	CommentsCount   int64
	UserHasLiked    bool
}

type FeedRepository interface {
	List(ctx context.Context, viewerID uuid.UUID, sel feedDto.Selection) ([]Row, error)
}

type feedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

const feedColumns = `posts.id, posts.user_id, posts.content, posts.image_url, posts.group_id, posts.created_at,
	profiles.username AS author_username,
	profiles.full_name AS author_full_name,
	profiles.avatar_url AS author_avatar_url,
	(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count,
	EXISTS (SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS user_has_liked`

// Posts of private groups are only visible to the group's members.
const visibleToViewer = `(posts.group_id IS NULL
	OR EXISTS (SELECT 1 FROM groups WHERE groups.id = posts.group_id AND NOT groups.is_private)
	OR EXISTS (SELECT 1 FROM group_members WHERE group_members.group_id = posts.group_id AND group_members.user_id = ?))`

// List runs the whole aggregation as one query. An anonymous viewer is
// passed as uuid.Nil, which never matches a like or a membership.
func (r *feedRepository) List(ctx context.Context, viewerID uuid.UUID, sel feedDto.Selection) ([]Row, error) {
	var rows []Row
	err := r.query(r.db.WithContext(ctx), viewerID, sel).Find(&rows).Error
	return rows, err
}

func (r *feedRepository) query(db *gorm.DB, viewerID uuid.UUID, sel feedDto.Selection) *gorm.DB {
	query := db.
		Table("posts").
		Select(feedColumns, viewerID).
		Joins("JOIN profiles ON profiles.id = posts.user_id").
		Where(visibleToViewer, viewerID)

	switch {
	case sel.PostID != nil:
		query = query.Where("posts.id = ?", *sel.PostID)
	case sel.AuthorID != nil:
		query = query.Where("posts.user_id = ?", *sel.AuthorID)
	case sel.GroupID != nil:
		query = query.Where("posts.group_id = ?", *sel.GroupID)
	}

	return query.
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(sel.EffectiveLimit())
}
