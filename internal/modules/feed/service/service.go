package service

import (
	"context"
	"fmt"

	"anoa.com/feedsync/internal/auth"
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	feedRepo "anoa.com/feedsync/internal/modules/feed/repository"
	"anoa.com/feedsync/pkg/apperror"
	commonDto "anoa.com/feedsync/pkg/dto"
	"github.com/google/uuid"
)

type FeedService interface {
	List(ctx context.Context, viewer auth.Viewer, sel feedDto.Selection) ([]feedDto.Post, error)
	Get(ctx context.Context, viewer auth.Viewer, postID uuid.UUID) (*feedDto.Post, error)
}

type feedService struct {
	repo feedRepo.FeedRepository
}

func NewFeedService(repo feedRepo.FeedRepository) FeedService {
	return &feedService{repo: repo}
}

// List returns posts newest first, ties by id descending. A result that
// arrives after ctx is done is discarded.
func (s *feedService) List(ctx context.Context, viewer auth.Viewer, sel feedDto.Selection) ([]feedDto.Post, error) {
	rows, err := s.repo.List(ctx, viewer.UserID, sel)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, apperror.Remote(err)
	}

	if sel.PostID != nil && len(rows) == 0 {
		return nil, fmt.Errorf("post %s: %w", *sel.PostID, apperror.ErrNotFound)
	}

	posts := make([]feedDto.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, toPost(row, viewer))
	}
	return posts, nil
}

func (s *feedService) Get(ctx context.Context, viewer auth.Viewer, postID uuid.UUID) (*feedDto.Post, error) {
	posts, err := s.List(ctx, viewer, feedDto.ByID(postID))
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func toPost(row feedRepo.Row, viewer auth.Viewer) feedDto.Post {
	return feedDto.Post{
		ID:     row.ID,
		UserID: row.UserID,
		Author: commonDto.AuthorResponse{
			ID:        row.UserID,
			Username:  row.AuthorUsername,
			FullName:  row.AuthorFullName,
			AvatarURL: row.AuthorAvatarURL,
		},
		Content:       row.Content,
		ImageURL:      row.ImageURL,
		GroupID:       row.GroupID,
		CreatedAt:     row.CreatedAt,
		LikesCount:    row.LikesCount,
		CommentsCount: row.CommentsCount,
		UserHasLiked:  viewer.Authenticated() && row.UserHasLiked,
	}
}
