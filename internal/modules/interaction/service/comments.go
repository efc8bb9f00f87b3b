package service

import (
	"context"
	"log"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/richtext"
	"github.com/google/uuid"
)

const (
	commentAction     = "comment"
	commentsPageLimit = 100
)

// commentThread is the local view of one post's comments, newest first.
type commentThread struct {
	items []entity.Comment
	count int64
}

// AddComment writes a comment and, once the store accepted it, puts it at
// the head of the local list. Blank content is rejected before any remote
// call.
func (c *Controller) AddComment(ctx context.Context, viewer auth.Viewer, postID uuid.UUID, content string) (*entity.Comment, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	if richtext.IsBlank(content) {
		return nil, apperror.ErrEmptyContent
	}
	content = richtext.Sanitize(content)

	if err := c.limiter.Acquire(ctx, viewer.UserID, commentAction, c.commentCooldown); err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		PostID:  postID,
		UserID:  viewer.UserID,
		Content: content,
	}
	if err := c.repo.CreateComment(ctx, comment); err != nil {
		if relErr := c.limiter.Release(ctx, viewer.UserID, commentAction); relErr != nil {
			log.Printf("❌ release comment cooldown: %v", relErr)
		}
		return nil, apperror.Remote(err)
	}
	// The row is committed; a missing author only leaves the name blank.
	if author, err := c.repo.FindAuthor(ctx, viewer.UserID); err != nil {
		log.Printf("❌ load author for comment %s: %v", comment.ID, err)
	} else {
		comment.Author = author
	}

	c.mu.Lock()
	thread, ok := c.comments[postID]
	if !ok {
		thread = &commentThread{}
		c.comments[postID] = thread
	}
	thread.items = append([]entity.Comment{*comment}, thread.items...)
	thread.count++
	c.mu.Unlock()
	c.notify(postID)

	if c.mentions != nil {
		if _, err := c.mentions.Process(ctx, viewer.UserID, postID, &comment.ID, content); err != nil {
			log.Printf("❌ record mentions for comment %s: %v", comment.ID, err)
		}
	}
	return comment, nil
}

// LoadComments replaces the local list with the newest comments from the
// store. A result that arrives after ctx is done is discarded.
func (c *Controller) LoadComments(ctx context.Context, postID uuid.UUID) ([]entity.Comment, error) {
	comments, err := c.repo.ListComments(ctx, postID, commentsPageLimit)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, apperror.Remote(err)
	}

	c.mu.Lock()
	thread, ok := c.comments[postID]
	if !ok {
		thread = &commentThread{}
		c.comments[postID] = thread
	}
	thread.items = comments
	if int64(len(comments)) > thread.count {
		thread.count = int64(len(comments))
	}
	c.mu.Unlock()
	c.notify(postID)

	return append([]entity.Comment(nil), comments...), nil
}

// Comments returns a copy of the local list.
func (c *Controller) Comments(postID uuid.UUID) []entity.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()

	thread, ok := c.comments[postID]
	if !ok {
		return []entity.Comment{}
	}
	return append([]entity.Comment{}, thread.items...)
}

// CommentCount returns the local count, false when the post is unknown.
func (c *Controller) CommentCount(postID uuid.UUID) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	thread, ok := c.comments[postID]
	if !ok {
		return 0, false
	}
	return thread.count, true
}
