package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/realtime"
	"github.com/google/uuid"
)

const DefaultFetchLimit = 20

// Snapshot is an immutable view of the center. Items are newest first.
type Snapshot struct {
	Items  []entity.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

// Center holds one viewer's recent notifications. Fetch results and push
// events are merged by id, so the same notification arriving through both
// paths is held once. The unread count is always derived from held items.
type Center struct {
	viewer     auth.Viewer
	dispatcher Dispatcher
	subscriber realtime.Subscriber
	toaster    Toaster
	limit      int

	mu        sync.Mutex
	items     map[uuid.UUID]entity.Notification
	listeners []func(Snapshot)
}

func NewCenter(viewer auth.Viewer, dispatcher Dispatcher, subscriber realtime.Subscriber, toaster Toaster, limit int) (*Center, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	return &Center{
		viewer:     viewer,
		dispatcher: dispatcher,
		subscriber: subscriber,
		toaster:    toaster,
		limit:      limit,
		items:      make(map[uuid.UUID]entity.Notification),
	}, nil
}

// OnChange registers a listener called with a fresh snapshot after every
// state change. Listeners run outside the center's lock.
func (c *Center) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Fetch loads the most recent notifications and merges them in. A result
// that arrives after ctx is done is discarded.
func (c *Center) Fetch(ctx context.Context) error {
	notifications, err := c.dispatcher.List(ctx, c.viewer.UserID, c.limit)
	if err != nil {
		return apperror.Remote(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	for _, n := range notifications {
		c.merge(n)
	}
	c.mu.Unlock()

	c.emit()
	return nil
}

// Run applies push events for the viewer until ctx is done or the channel
// closes. The subscription is released on every exit path.
func (c *Center) Run(ctx context.Context) error {
	sub, err := c.subscriber.Open(ctx, realtime.Channel(realtime.TopicNotifications, c.viewer.UserID))
	if err != nil {
		return apperror.Remote(err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			c.Apply(event)
		}
	}
}

// Apply merges one push event.
func (c *Center) Apply(event realtime.Event) {
	if event.Table != notificationsTable {
		return
	}

	var n entity.Notification
	if err := event.Decode(&n); err != nil {
		log.Printf("❌ decode notification event: %v", err)
		return
	}
	if n.ID == uuid.Nil || n.UserID != c.viewer.UserID {
		return
	}

	fresh := false
	c.mu.Lock()
	switch event.Type {
	case realtime.Insert, realtime.Update:
		fresh = c.merge(n) && event.Type == realtime.Insert
	case realtime.Delete:
		delete(c.items, n.ID)
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if fresh && c.toaster != nil {
		c.toaster.Toast(Describe(n))
	}
	c.emit()
}

// MarkRead marks one held notification read. Marking an already-read item
// is a no-op and does not reach the store.
func (c *Center) MarkRead(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	n, ok := c.items[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("notification %s: %w", id, apperror.ErrNotFound)
	}
	if n.IsRead {
		return nil
	}

	if err := c.dispatcher.MarkRead(ctx, c.viewer.UserID, id); err != nil {
		return err
	}

	c.mu.Lock()
	if n, ok := c.items[id]; ok {
		n.IsRead = true
		c.items[id] = n
	}
	c.mu.Unlock()

	c.emit()
	return nil
}

func (c *Center) MarkAllRead(ctx context.Context) error {
	if c.Unread() == 0 {
		return nil
	}
	if err := c.dispatcher.MarkAllRead(ctx, c.viewer.UserID); err != nil {
		return err
	}

	c.mu.Lock()
	for id, n := range c.items {
		n.IsRead = true
		c.items[id] = n
	}
	c.mu.Unlock()

	c.emit()
	return nil
}

func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unreadLocked()
}

func (c *Center) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// merge upserts n and reports whether it was not held before. Read state only
// moves forward, so a stale fetch cannot undo a newer mark-read.
func (c *Center) merge(n entity.Notification) bool {
	existing, held := c.items[n.ID]
	if held && existing.IsRead {
		n.IsRead = true
	}
	c.items[n.ID] = n
	return !held
}

func (c *Center) unreadLocked() int {
	unread := 0
	for _, n := range c.items {
		if !n.IsRead {
			unread++
		}
	}
	return unread
}

func (c *Center) snapshotLocked() Snapshot {
	items := make([]entity.Notification, 0, len(c.items))
	for _, n := range c.items {
		items = append(items, n)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.String() > items[j].ID.String()
	})
	return Snapshot{Items: items, Unread: c.unreadLocked()}
}

func (c *Center) emit() {
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
