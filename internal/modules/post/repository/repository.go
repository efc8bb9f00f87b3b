package repository

import (
	"context"

	"anoa.com/feedsync/internal/entity"
	"gorm.io/gorm"
)

type PostRepository interface {
	// Create inserts the post and loads its author.
	Create(ctx context.Context, post *entity.Post) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(post).Error; err != nil {
		return err
	}
	return db.Where("id = ?", post.UserID).First(&post.Author).Error
}
