package service

import (
	"context"
	"sync"
	"time"

	"anoa.com/feedsync/internal/auth"
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	interactionRepo "anoa.com/feedsync/internal/modules/interaction/repository"
	"anoa.com/feedsync/pkg/ratelimiter"
	"github.com/google/uuid"
)

// MentionProcessor records the mentions of a new comment.
type MentionProcessor interface {
	Process(ctx context.Context, authorID, postID uuid.UUID, commentID *uuid.UUID, content string) ([]uuid.UUID, error)
}

type pairKey struct {
	viewer uuid.UUID
	post   uuid.UUID
}

// Controller applies likes and comments locally ahead of the store and
// reconciles once the write settles. Each post/viewer pair has at most one
// like write in flight.
type Controller struct {
	repo            interactionRepo.InteractionRepository
	mentions        MentionProcessor
	limiter         *ratelimiter.Limiter
	commentCooldown time.Duration

	mu        sync.Mutex
	likes     map[pairKey]*likeEntry
	comments  map[uuid.UUID]*commentThread
	listeners []func(postID uuid.UUID)
}

func NewController(repo interactionRepo.InteractionRepository, mentions MentionProcessor, limiter *ratelimiter.Limiter, commentCooldown time.Duration) *Controller {
	return &Controller{
		repo:            repo,
		mentions:        mentions,
		limiter:         limiter,
		commentCooldown: commentCooldown,
		likes:           make(map[pairKey]*likeEntry),
		comments:        make(map[uuid.UUID]*commentThread),
	}
}

// OnChange registers fn to be called with the post id after any local change,
// including settled background writes.
func (c *Controller) OnChange(fn func(postID uuid.UUID)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Controller) notify(postID uuid.UUID) {
	c.mu.Lock()
	listeners := append([]func(uuid.UUID){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(postID)
	}
}

// Seed loads confirmed state from freshly read feed records. Pairs with a
// write in flight keep their local state.
func (c *Controller) Seed(viewer auth.Viewer, posts []feedDto.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range posts {
		if thread, ok := c.comments[p.ID]; ok {
			thread.count = p.CommentsCount
		} else {
			c.comments[p.ID] = &commentThread{count: p.CommentsCount}
		}

		if !viewer.Authenticated() {
			continue
		}
		key := pairKey{viewer: viewer.UserID, post: p.ID}
		if e, ok := c.likes[key]; ok && e.inFlight {
			continue
		}
		c.likes[key] = &likeEntry{
			confirmedLiked: p.UserHasLiked,
			confirmedCount: p.LikesCount,
			desiredLiked:   p.UserHasLiked,
		}
	}
}

// Overlay returns posts with the local like and comment state applied.
func (c *Controller) Overlay(viewer auth.Viewer, posts []feedDto.Post) []feedDto.Post {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]feedDto.Post, len(posts))
	for i, p := range posts {
		if viewer.Authenticated() {
			if e, ok := c.likes[pairKey{viewer: viewer.UserID, post: p.ID}]; ok {
				p.UserHasLiked = e.desiredLiked
				p.LikesCount = e.displayCount()
			}
		}
		if thread, ok := c.comments[p.ID]; ok {
			p.CommentsCount = thread.count
		}
		out[i] = p
	}
	return out
}
