package repository

import (
	"context"

	"anoa.com/feedsync/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InteractionRepository interface {
	// Like is idempotent: liking twice leaves one row.
	Like(ctx context.Context, postID, userID uuid.UUID) error
	// Unlike deleting a missing row is not an error.
	Unlike(ctx context.Context, postID, userID uuid.UUID) error
	CountLikes(ctx context.Context, postID uuid.UUID) (int64, error)
	LikeState(ctx context.Context, postID, userID uuid.UUID) (count int64, liked bool, err error)

	// CreateComment inserts the row only; Author is left empty.
	CreateComment(ctx context.Context, comment *entity.Comment) error
	FindAuthor(ctx context.Context, userID uuid.UUID) (entity.Profile, error)
	ListComments(ctx context.Context, postID uuid.UUID, limit int) ([]entity.Comment, error)
	CountComments(ctx context.Context, postID uuid.UUID) (int64, error)
}

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Like(ctx context.Context, postID, userID uuid.UUID) error {
	like := &entity.Like{PostID: postID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(like).Error
}

func (r *interactionRepository) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&entity.Like{}).Error
}

func (r *interactionRepository) CountLikes(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

func (r *interactionRepository) LikeState(ctx context.Context, postID, userID uuid.UUID) (int64, bool, error) {
	var row struct {
		Count int64
		Liked bool
	}
	err := r.db.WithContext(ctx).
		Raw(`SELECT
			(SELECT COUNT(*) FROM likes WHERE post_id = ?) AS count,
			EXISTS (SELECT 1 FROM likes WHERE post_id = ? AND user_id = ?) AS liked`,
			postID, postID, userID).
		Scan(&row).Error
	return row.Count, row.Liked, err
}

func (r *interactionRepository) CreateComment(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Omit("Author").Create(comment).Error
}

func (r *interactionRepository) FindAuthor(ctx context.Context, userID uuid.UUID) (entity.Profile, error) {
	var profile entity.Profile
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error
	return profile, err
}

func (r *interactionRepository) ListComments(ctx context.Context, postID uuid.UUID, limit int) ([]entity.Comment, error) {
	var comments []entity.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *interactionRepository) CountComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}
