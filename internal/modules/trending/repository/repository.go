package repository

import (
	"context"

	"anoa.com/feedsync/internal/entity"
	"gorm.io/gorm"
)

type CorpusRepository interface {
	// Contents streams every public post body to fn in batches.
	Contents(ctx context.Context, fn func(contents []string) error) error
}

type corpusRepository struct {
	db        *gorm.DB
	batchSize int
}

func NewCorpusRepository(db *gorm.DB) CorpusRepository {
	return &corpusRepository{db: db, batchSize: 500}
}

// publicPosts leaves out posts of private groups.
func publicPosts(db *gorm.DB) *gorm.DB {
	return db.Model(&entity.Post{}).
		Select("posts.id", "posts.content").
		Where("posts.group_id IS NULL OR EXISTS (SELECT 1 FROM groups WHERE groups.id = posts.group_id AND NOT groups.is_private)")
}

func (r *corpusRepository) Contents(ctx context.Context, fn func(contents []string) error) error {
	var batch []entity.Post
	result := r.db.WithContext(ctx).
		Scopes(publicPosts).
		FindInBatches(&batch, r.batchSize, func(tx *gorm.DB, _ int) error {
			contents := make([]string, 0, len(batch))
			for _, p := range batch {
				contents = append(contents, p.Content)
			}
			return fn(contents)
		})
	return result.Error
}
