package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	feed "anoa.com/feedsync/internal/modules/feed/service"
	group "anoa.com/feedsync/internal/modules/group/service"
	interactionDto "anoa.com/feedsync/internal/modules/interaction/dto"
	interaction "anoa.com/feedsync/internal/modules/interaction/service"
	inviteDto "anoa.com/feedsync/internal/modules/invite/dto"
	invite "anoa.com/feedsync/internal/modules/invite/service"
	notification "anoa.com/feedsync/internal/modules/notification/service"
	trending "anoa.com/feedsync/internal/modules/trending/service"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/realtime"
	"github.com/google/uuid"
)

var ErrSessionClosed = errors.New("session closed")

// Deps are the services a session drives.
type Deps struct {
	Feed              feed.FeedService
	Trending          trending.TrendingService
	Invites           invite.InviteService
	Groups            group.GroupService
	Dispatcher        notification.Dispatcher
	Subscriber        realtime.Subscriber
	NewController     func() *interaction.Controller
	NotificationLimit int
}

type envelope struct {
	intent Intent
	origin *Conn
}

// Session owns one viewer's client-side state. A single loop goroutine
// handles intents one at a time and publishes a snapshot after each; the like
// controller and notification center only signal that something changed.
type Session struct {
	viewer    auth.Viewer
	deps      Deps
	ephemeral bool
	likes     *interaction.Controller
	center    *notification.Center

	intents  chan envelope
	dirty    chan struct{}
	toasts   chan notification.Toast
	done     chan struct{}
	stopping <-chan struct{}
	cancel   context.CancelFunc

	// owned by the loop
	selection feedDto.Selection
	posts     []feedDto.Post
	invites   []entity.GroupInvite
	threads   map[uuid.UUID]struct{}
	version   int64

	mu         sync.Mutex
	conns      map[*Conn]struct{}
	latest     *Snapshot
	trending   []trending.Tag
	lastActive time.Time
}

func newSession(viewer auth.Viewer, deps Deps, tags []trending.Tag, ephemeral bool) (*Session, error) {
	s := &Session{
		viewer:     viewer,
		deps:       deps,
		ephemeral:  ephemeral,
		likes:      deps.NewController(),
		intents:    make(chan envelope, 32),
		dirty:      make(chan struct{}, 1),
		toasts:     make(chan notification.Toast, 16),
		done:       make(chan struct{}),
		threads:    make(map[uuid.UUID]struct{}),
		conns:      make(map[*Conn]struct{}),
		trending:   tags,
		lastActive: time.Now(),
	}
	s.likes.OnChange(func(uuid.UUID) { s.markDirty() })

	if viewer.Authenticated() {
		center, err := notification.NewCenter(viewer, deps.Dispatcher, deps.Subscriber, notification.ToasterFunc(s.toast), deps.NotificationLimit)
		if err != nil {
			return nil, err
		}
		center.OnChange(func(notification.Snapshot) { s.markDirty() })
		s.center = center
	}
	return s, nil
}

func (s *Session) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.stopping = ctx.Done()
	go s.run(ctx)
}

// End stops the loop and releases the push subscription. It is safe to call
// more than once.
func (s *Session) End() {
	s.cancel()
	<-s.done
}

func (s *Session) Viewer() auth.Viewer { return s.viewer }

func (s *Session) Controller() *interaction.Controller { return s.likes }

// Snapshot returns the latest published snapshot, nil before the first one.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Session) run(ctx context.Context) {
	var wg sync.WaitGroup
	defer close(s.done)
	defer wg.Wait()

	if s.center != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.center.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("❌ notification push for %s stopped: %v", s.viewer.UserID, err)
			}
		}()
	}

	s.load(ctx)
	s.publish()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.intents:
			if err := s.handle(ctx, env.intent); err != nil {
				env.origin.deliver(Message{Type: MessageError, Intent: env.intent.Type, Error: err.Error()})
			}
			s.publish()
		case <-s.dirty:
			s.publish()
		case t := <-s.toasts:
			s.broadcast(Message{Type: MessageToast, Toast: &t})
		}
	}
}

// load fills the caches when the session starts. Failures leave the
// affected part empty until the UI asks again.
func (s *Session) load(ctx context.Context) {
	if err := s.refreshFeed(ctx, feedDto.All()); err != nil {
		log.Printf("❌ initial feed for %s: %v", s.viewer.UserID, err)
	}
	if s.center != nil {
		if err := s.center.Fetch(ctx); err != nil {
			log.Printf("❌ initial notifications for %s: %v", s.viewer.UserID, err)
		}
		if err := s.refreshInvites(ctx); err != nil {
			log.Printf("❌ initial invites for %s: %v", s.viewer.UserID, err)
		}
	}

	s.mu.Lock()
	missing := s.trending == nil
	s.mu.Unlock()
	if missing {
		if err := s.refreshTrending(ctx); err != nil {
			log.Printf("❌ initial trending tags: %v", err)
		}
	}
}

func (s *Session) handle(ctx context.Context, in Intent) error {
	switch in.Type {
	case IntentRefreshFeed:
		sel := feedDto.All()
		switch {
		case in.GroupID != nil:
			sel = feedDto.ByGroup(*in.GroupID)
		case in.AuthorID != nil:
			sel = feedDto.ByAuthor(*in.AuthorID)
		}
		return s.refreshFeed(ctx, sel.WithLimit(in.Limit))

	case IntentToggleLike:
		_, err := s.likes.ToggleLike(ctx, s.viewer, in.PostID)
		return err

	case IntentAddComment:
		if _, err := s.likes.AddComment(ctx, s.viewer, in.PostID, in.Content); err != nil {
			return err
		}
		s.threads[in.PostID] = struct{}{}
		return nil

	case IntentLoadComments:
		if _, err := s.likes.LoadComments(ctx, in.PostID); err != nil {
			return err
		}
		s.threads[in.PostID] = struct{}{}
		return nil

	case IntentMarkRead:
		if s.center == nil {
			return apperror.ErrUnauthenticated
		}
		return s.center.MarkRead(ctx, in.NotificationID)

	case IntentMarkAllRead:
		if s.center == nil {
			return apperror.ErrUnauthenticated
		}
		return s.center.MarkAllRead(ctx)

	case IntentRefreshInvites:
		return s.refreshInvites(ctx)

	case IntentRespondInvite:
		return s.respondInvite(ctx, in.InviteID, in.Accept)

	case IntentRefreshTrending:
		return s.refreshTrending(ctx)

	default:
		return fmt.Errorf("unknown intent %q: %w", in.Type, apperror.ErrValidation)
	}
}

func (s *Session) refreshFeed(ctx context.Context, sel feedDto.Selection) error {
	posts, err := s.deps.Feed.List(ctx, s.viewer, sel)
	if err != nil {
		return err
	}
	s.selection = sel
	s.posts = posts
	s.likes.Seed(s.viewer, posts)
	return nil
}

func (s *Session) refreshInvites(ctx context.Context) error {
	if !s.viewer.Authenticated() {
		return apperror.ErrUnauthenticated
	}
	invites, err := s.deps.Invites.ListPending(ctx, s.viewer)
	if err != nil {
		return err
	}
	s.invites = invites
	return nil
}

// respondInvite settles the invite and, on accept, joins the group. An
// existing membership counts as joined.
func (s *Session) respondInvite(ctx context.Context, inviteID uuid.UUID, accept bool) error {
	settled, err := s.deps.Invites.Respond(ctx, s.viewer, inviteID, accept)
	if err != nil {
		return err
	}

	var joinErr error
	if accept {
		joinErr = s.deps.Groups.Join(ctx, s.viewer, settled.GroupID)
		if errors.Is(joinErr, apperror.ErrAlreadyMember) {
			joinErr = nil
		}
		if joinErr == nil {
			if err := s.refreshFeed(ctx, s.selection); err != nil {
				log.Printf("❌ reload feed for %s: %v", s.viewer.UserID, err)
			}
		}
	}

	if err := s.refreshInvites(ctx); err != nil {
		log.Printf("❌ reload invites for %s: %v", s.viewer.UserID, err)
	}
	return joinErr
}

func (s *Session) refreshTrending(ctx context.Context) error {
	tags, err := s.deps.Trending.Top(ctx)
	if err != nil {
		return err
	}
	s.setTrending(tags)
	return nil
}

// SetTrending replaces the trending tags from outside the loop.
func (s *Session) SetTrending(tags []trending.Tag) {
	s.setTrending(tags)
	s.markDirty()
}

func (s *Session) setTrending(tags []trending.Tag) {
	s.mu.Lock()
	s.trending = append([]trending.Tag{}, tags...)
	s.mu.Unlock()
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Session) toast(t notification.Toast) {
	select {
	case s.toasts <- t:
	case <-s.stopping:
	}
}

// publish builds a fresh snapshot and offers it to every connection.
func (s *Session) publish() {
	s.version++
	snap := Snapshot{
		Version:  s.version,
		Feed:     s.likes.Overlay(s.viewer, s.posts),
		Comments: make(map[uuid.UUID][]interactionDto.CommentResponse, len(s.threads)),
		Invites:  inviteDto.ToInviteResponses(s.invites),
	}
	for postID := range s.threads {
		snap.Comments[postID] = interactionDto.ToCommentResponses(s.likes.Comments(postID))
	}
	if s.center != nil {
		snap.Notifications = s.center.Snapshot()
	} else {
		snap.Notifications = notification.Snapshot{Items: []entity.Notification{}}
	}

	s.mu.Lock()
	snap.Trending = append([]trending.Tag{}, s.trending...)
	s.latest = &snap
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.offer(snap)
	}
}

func (s *Session) broadcast(msg Message) {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.deliver(msg)
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// idle reports whether the session has no connection and saw no activity
// since cutoff.
func (s *Session) idle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns) == 0 && s.lastActive.Before(cutoff)
}

// Connect attaches a new connection. The latest snapshot, if any, is
// delivered right away.
func (s *Session) Connect() *Conn {
	c := &Conn{
		session:   s,
		snapshots: make(chan Snapshot, 1),
		messages:  make(chan Message, 32),
	}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.lastActive = time.Now()
	latest := s.latest
	s.mu.Unlock()

	if latest != nil {
		c.offer(*latest)
	}
	return c
}

func (s *Session) detach(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.lastActive = time.Now()
	empty := len(s.conns) == 0
	s.mu.Unlock()

	if empty && s.ephemeral {
		s.End()
	}
}

// Conn is one UI connection to a session. Snapshots are coalesced: a slow
// reader only ever sees the newest one.
type Conn struct {
	session   *Session
	snapshots chan Snapshot
	messages  chan Message

	mu        sync.Mutex
	closeOnce sync.Once
}

func (c *Conn) Snapshots() <-chan Snapshot { return c.snapshots }

// Messages carries toasts and intent errors.
func (c *Conn) Messages() <-chan Message { return c.messages }

// Done is closed when the session ends.
func (c *Conn) Done() <-chan struct{} { return c.session.done }

func (c *Conn) Session() *Session { return c.session }

// Send queues an intent for the session loop.
func (c *Conn) Send(ctx context.Context, in Intent) error {
	c.session.touch()
	// The buffer may have room after the loop exits, so check done first.
	select {
	case <-c.session.done:
		return ErrSessionClosed
	default:
	}
	select {
	case c.session.intents <- envelope{intent: in, origin: c}:
		return nil
	case <-c.session.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() { c.session.detach(c) })
}

func (c *Conn) offer(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.snapshots:
	default:
	}
	c.snapshots <- snap
}

func (c *Conn) deliver(msg Message) {
	select {
	case c.messages <- msg:
	default:
		log.Printf("❌ dropped %s message for %s: connection is not reading", msg.Type, c.session.viewer.UserID)
	}
}
