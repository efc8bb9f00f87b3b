package service

import (
	"context"
	"log"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/pkg/apperror"
	"github.com/google/uuid"
)

// LikeState is what the viewer sees for one post.
type LikeState struct {
	PostID  uuid.UUID `json:"post_id"`
	Liked   bool      `json:"liked"`
	Count   int64     `json:"count"`
	Pending bool      `json:"pending"`
	// Err is the failure of the last settled write, nil after a success.
	Err error `json:"-"`
}

type likeEntry struct {
	confirmedLiked bool
	confirmedCount int64
	desiredLiked   bool
	inFlight       bool
	err            error
	done           chan struct{}
}

// displayCount is the confirmed count moved by at most one toward the
// desired state.
func (e *likeEntry) displayCount() int64 {
	count := e.confirmedCount
	switch {
	case e.desiredLiked && !e.confirmedLiked:
		count++
	case !e.desiredLiked && e.confirmedLiked && count > 0:
		count--
	}
	return count
}

func (e *likeEntry) state(postID uuid.UUID) LikeState {
	return LikeState{
		PostID:  postID,
		Liked:   e.desiredLiked,
		Count:   e.displayCount(),
		Pending: e.inFlight,
		Err:     e.err,
	}
}

// ToggleLike flips the viewer's like locally and returns the new state
// without waiting for the store. Toggles made while a write is in flight
// only move the target; the latest target is written once the current
// write settles. A failed write restores the last confirmed state.
func (c *Controller) ToggleLike(ctx context.Context, viewer auth.Viewer, postID uuid.UUID) (LikeState, error) {
	if !viewer.Authenticated() {
		return LikeState{}, apperror.ErrUnauthenticated
	}
	key := pairKey{viewer: viewer.UserID, post: postID}

	if err := c.ensureLike(ctx, key); err != nil {
		return LikeState{}, err
	}

	c.mu.Lock()
	e := c.likes[key]
	e.desiredLiked = !e.desiredLiked
	e.err = nil
	if !e.inFlight && e.desiredLiked != e.confirmedLiked {
		e.inFlight = true
		e.done = make(chan struct{})
		go c.flushLike(context.WithoutCancel(ctx), key, e.desiredLiked)
	}
	state := e.state(postID)
	c.mu.Unlock()

	c.notify(postID)
	return state, nil
}

// ensureLike loads the confirmed state of a pair never seen before.
func (c *Controller) ensureLike(ctx context.Context, key pairKey) error {
	c.mu.Lock()
	_, known := c.likes[key]
	c.mu.Unlock()
	if known {
		return nil
	}

	count, liked, err := c.repo.LikeState(ctx, key.post, key.viewer)
	if err != nil {
		return apperror.Remote(err)
	}

	c.mu.Lock()
	if _, known := c.likes[key]; !known {
		c.likes[key] = &likeEntry{confirmedLiked: liked, confirmedCount: count, desiredLiked: liked}
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) flushLike(ctx context.Context, key pairKey, target bool) {
	for {
		var err error
		if target {
			err = c.repo.Like(ctx, key.post, key.viewer)
		} else {
			err = c.repo.Unlike(ctx, key.post, key.viewer)
		}

		var count int64
		var countErr error
		if err == nil {
			count, countErr = c.repo.CountLikes(ctx, key.post)
		}

		c.mu.Lock()
		e := c.likes[key]
		if err != nil {
			log.Printf("❌ like write for post %s failed, rolling back: %v", key.post, err)
			e.desiredLiked = e.confirmedLiked
			e.err = apperror.Remote(err)
			c.settle(e, key.post)
			return
		}

		e.confirmedLiked = target
		if countErr == nil {
			e.confirmedCount = count
		} else if target {
			e.confirmedCount++
		} else if e.confirmedCount > 0 {
			e.confirmedCount--
		}

		if e.desiredLiked == e.confirmedLiked {
			c.settle(e, key.post)
			return
		}
		target = e.desiredLiked
		c.mu.Unlock()
		c.notify(key.post)
	}
}

// settle ends the flight of e. It is called with c.mu held and releases it.
// Waiters are woken after listeners have seen the final state.
func (c *Controller) settle(e *likeEntry, postID uuid.UUID) {
	e.inFlight = false
	done := e.done
	c.mu.Unlock()

	c.notify(postID)
	close(done)
}

// LikeState returns the local state of a pair, false when never loaded.
func (c *Controller) LikeState(viewer auth.Viewer, postID uuid.UUID) (LikeState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.likes[pairKey{viewer: viewer.UserID, post: postID}]
	if !ok {
		return LikeState{}, false
	}
	return e.state(postID), true
}

// Wait blocks until the latest like flight of the pair has settled and its
// listeners have run.
func (c *Controller) Wait(ctx context.Context, viewer auth.Viewer, postID uuid.UUID) error {
	c.mu.Lock()
	e, ok := c.likes[pairKey{viewer: viewer.UserID, post: postID}]
	if !ok || e.done == nil {
		c.mu.Unlock()
		return nil
	}
	done := e.done
	c.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
