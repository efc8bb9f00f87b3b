package repository

import (
	"context"

	"anoa.com/feedsync/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MentionRepository interface {
	CreateMany(ctx context.Context, mentions []entity.Mention) error
	ListByPost(ctx context.Context, postID uuid.UUID) ([]entity.Mention, error)
}

type mentionRepository struct {
	db *gorm.DB
}

func NewMentionRepository(db *gorm.DB) MentionRepository {
	return &mentionRepository{db: db}
}

func (r *mentionRepository) CreateMany(ctx context.Context, mentions []entity.Mention) error {
	if len(mentions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&mentions).Error
}

func (r *mentionRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]entity.Mention, error) {
	var mentions []entity.Mention
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at asc").
		Find(&mentions).Error
	return mentions, err
}
