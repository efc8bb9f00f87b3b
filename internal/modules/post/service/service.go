package post

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	groupRepo "anoa.com/feedsync/internal/modules/group/repository"
	postDto "anoa.com/feedsync/internal/modules/post/dto"
	postRepo "anoa.com/feedsync/internal/modules/post/repository"
	profileDto "anoa.com/feedsync/internal/modules/profile/dto"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/ratelimiter"
	"anoa.com/feedsync/pkg/richtext"
	"anoa.com/feedsync/pkg/storage"
	"github.com/google/uuid"
)

const postAction = "post"

// MentionProcessor records the mentions in a new post body.
type MentionProcessor interface {
	Process(ctx context.Context, authorID, postID uuid.UUID, commentID *uuid.UUID, content string) ([]uuid.UUID, error)
}

// Indexer makes a post searchable.
type Indexer interface {
	IndexPost(ctx context.Context, post *entity.Post, private bool) error
}

type Notifier interface {
	Notify(ctx context.Context, notification *entity.Notification) error
}

type PostService interface {
	CreatePost(ctx context.Context, viewer auth.Viewer, req postDto.CreatePostRequest) (*feedDto.Post, error)
	UploadImage(ctx context.Context, viewer auth.Viewer, r io.Reader, fileName string) (string, error)
}

type postService struct {
	postRepo    postRepo.PostRepository
	groupRepo   groupRepo.GroupRepository
	mentions    MentionProcessor
	indexer     Indexer
	notifier    Notifier
	fileStorage storage.ImageStorage
	limiter     *ratelimiter.Limiter
	cooldown    time.Duration
}

func NewPostService(postRepo postRepo.PostRepository, groupRepo groupRepo.GroupRepository, mentions MentionProcessor, indexer Indexer, notifier Notifier, fileStorage storage.ImageStorage, limiter *ratelimiter.Limiter, cooldown time.Duration) PostService {
	return &postService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		mentions:    mentions,
		indexer:     indexer,
		notifier:    notifier,
		fileStorage: fileStorage,
		limiter:     limiter,
		cooldown:    cooldown,
	}
}

func (s *postService) CreatePost(ctx context.Context, viewer auth.Viewer, req postDto.CreatePostRequest) (*feedDto.Post, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	if richtext.IsBlank(req.Content) {
		return nil, apperror.ErrEmptyContent
	}

	var group *entity.Group
	if req.GroupID != nil && *req.GroupID != "" {
		groupID, err := uuid.Parse(*req.GroupID)
		if err != nil {
			return nil, fmt.Errorf("invalid group id: %w", apperror.ErrValidation)
		}
		group, err = s.groupRepo.FindByID(ctx, groupID)
		if err != nil {
			return nil, apperror.Remote(err)
		}
		if group == nil {
			return nil, fmt.Errorf("group %s: %w", groupID, apperror.ErrNotFound)
		}
		member, err := s.groupRepo.IsMember(ctx, groupID, viewer.UserID)
		if err != nil {
			return nil, apperror.Remote(err)
		}
		if !member {
			return nil, fmt.Errorf("only members can post in this group: %w", apperror.ErrForbidden)
		}
	}

	if err := s.limiter.Acquire(ctx, viewer.UserID, postAction, s.cooldown); err != nil {
		return nil, err
	}

	post := &entity.Post{
		UserID:   viewer.UserID,
		Content:  richtext.Sanitize(req.Content),
		ImageURL: req.ImageURL,
	}
	if group != nil {
		post.GroupID = &group.ID
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if relErr := s.limiter.Release(ctx, viewer.UserID, postAction); relErr != nil {
			log.Printf("❌ release post cooldown: %v", relErr)
		}
		return nil, apperror.Remote(err)
	}

	// The post is committed from here on; side effects only log failures.
	if s.mentions != nil {
		if _, err := s.mentions.Process(ctx, viewer.UserID, post.ID, nil, post.Content); err != nil {
			log.Printf("❌ record mentions for post %s: %v", post.ID, err)
		}
	}
	if s.indexer != nil {
		if err := s.indexer.IndexPost(ctx, post, group != nil && group.IsPrivate); err != nil {
			log.Printf("❌ index post %s: %v", post.ID, err)
		}
	}
	if group != nil {
		s.notifyGroup(ctx, post, group)
	}

	return &feedDto.Post{
		ID:        post.ID,
		UserID:    post.UserID,
		Author:    profileDto.ToAuthor(post.Author),
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		GroupID:   post.GroupID,
		CreatedAt: post.CreatedAt,
	}, nil
}

// notifyGroup tells every other member about a new group post.
func (s *postService) notifyGroup(ctx context.Context, post *entity.Post, group *entity.Group) {
	members, err := s.groupRepo.MemberIDs(ctx, group.ID)
	if err != nil {
		log.Printf("❌ list members of group %s: %v", group.ID, err)
		return
	}

	for _, memberID := range members {
		if memberID == post.UserID {
			continue
		}
		notification := &entity.Notification{
			UserID: memberID,
			Type:   entity.NotificationNewPost,
			Data: map[string]any{
				"post_id":    post.ID.String(),
				"group_id":   group.ID.String(),
				"group_name": group.Title,
				"username":   post.Author.Username,
			},
		}
		if err := s.notifier.Notify(ctx, notification); err != nil {
			log.Printf("❌ notify %s of post %s: %v", memberID, post.ID, err)
		}
	}
}

func (s *postService) UploadImage(ctx context.Context, viewer auth.Viewer, r io.Reader, fileName string) (string, error) {
	if !viewer.Authenticated() {
		return "", apperror.ErrUnauthenticated
	}
	if !storage.IsImage(fileName) {
		return "", fmt.Errorf("only jpg, png, gif and webp images are accepted: %w", apperror.ErrValidation)
	}
	if s.fileStorage == nil {
		return "", apperror.New(http.StatusServiceUnavailable, "image upload is not configured", nil)
	}

	url, err := s.fileStorage.UploadImage(ctx, r, fileName)
	if err != nil {
		return "", apperror.Remote(err)
	}
	return url, nil
}
