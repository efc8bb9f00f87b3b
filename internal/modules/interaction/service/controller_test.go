package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	likes    map[uuid.UUID]map[uuid.UUID]bool
	comments []entity.Comment

	gate       chan struct{}
	writeErr   error
	commentErr error
	authorErr  error

	likeWrites    []bool
	commentWrites int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{likes: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (f *fakeRepo) seedLikes(postID uuid.UUID, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.likes[postID] == nil {
		f.likes[postID] = make(map[uuid.UUID]bool)
	}
	for i := 0; i < n; i++ {
		f.likes[postID][uuid.New()] = true
	}
}

func (f *fakeRepo) write(postID, userID uuid.UUID, liked bool) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeWrites = append(f.likeWrites, liked)
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.likes[postID] == nil {
		f.likes[postID] = make(map[uuid.UUID]bool)
	}
	if liked {
		f.likes[postID][userID] = true
	} else {
		delete(f.likes[postID], userID)
	}
	return nil
}

func (f *fakeRepo) Like(_ context.Context, postID, userID uuid.UUID) error {
	return f.write(postID, userID, true)
}

func (f *fakeRepo) Unlike(_ context.Context, postID, userID uuid.UUID) error {
	return f.write(postID, userID, false)
}

func (f *fakeRepo) CountLikes(_ context.Context, postID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.likes[postID])), nil
}

func (f *fakeRepo) LikeState(_ context.Context, postID, userID uuid.UUID) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.likes[postID])), f.likes[postID][userID], nil
}

func (f *fakeRepo) CreateComment(_ context.Context, comment *entity.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentWrites++
	if f.commentErr != nil {
		return f.commentErr
	}
	comment.ID = uuid.New()
	comment.CreatedAt = time.Now()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeRepo) FindAuthor(_ context.Context, userID uuid.UUID) (entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authorErr != nil {
		return entity.Profile{}, f.authorErr
	}
	return entity.Profile{ID: userID, Username: "alice"}, nil
}

func (f *fakeRepo) ListComments(_ context.Context, postID uuid.UUID, _ int) ([]entity.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Comment
	for i := len(f.comments) - 1; i >= 0; i-- {
		if f.comments[i].PostID == postID {
			out = append(out, f.comments[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) CountComments(_ context.Context, postID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

type recordingMentions struct {
	mu      sync.Mutex
	content []string
}

func (r *recordingMentions) Process(_ context.Context, _, _ uuid.UUID, _ *uuid.UUID, content string) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content = append(r.content, content)
	return nil, nil
}

func newController(repo *fakeRepo) (*Controller, *recordingMentions) {
	mentions := &recordingMentions{}
	return NewController(repo, mentions, ratelimiter.New(nil), 0), mentions
}

func waitSettled(t *testing.T, c *Controller, viewer auth.Viewer, postID uuid.UUID) LikeState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx, viewer, postID))
	state, ok := c.LikeState(viewer, postID)
	require.True(t, ok)
	return state
}

func TestToggleLikeRequiresViewer(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newController(repo)
	postID := uuid.New()

	_, err := c.ToggleLike(context.Background(), auth.Anonymous, postID)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, ok := c.LikeState(auth.Anonymous, postID)
	assert.False(t, ok)
	assert.Empty(t, repo.likeWrites)
}

func TestConfirmedLikeAndUnlikeMoveCountByOne(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	repo.seedLikes(postID, 3)
	c.Seed(viewer, []feedDto.Post{{ID: postID, LikesCount: 3}})

	state, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.EqualValues(t, 4, state.Count)

	state = waitSettled(t, c, viewer, postID)
	assert.True(t, state.Liked)
	assert.EqualValues(t, 4, state.Count)
	assert.False(t, state.Pending)
	assert.NoError(t, state.Err)

	_, err = c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	state = waitSettled(t, c, viewer, postID)
	assert.False(t, state.Liked)
	assert.EqualValues(t, 3, state.Count)
}

func TestRapidTogglesConverge(t *testing.T) {
	repo := newFakeRepo()
	repo.gate = make(chan struct{})
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	repo.seedLikes(postID, 5)
	c.Seed(viewer, []feedDto.Post{{ID: postID, LikesCount: 5}})

	liked, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	assert.EqualValues(t, 6, liked.Count)
	assert.True(t, liked.Pending)

	unliked, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.EqualValues(t, 5, unliked.Count)

	// More toggles while the first write is still out never compound.
	again, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	assert.EqualValues(t, 6, again.Count)
	final, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, final.Count)

	close(repo.gate)
	state := waitSettled(t, c, viewer, postID)

	assert.False(t, state.Liked)
	assert.EqualValues(t, 5, state.Count)

	count, liked2, err := repo.LikeState(context.Background(), postID, viewer.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
	assert.False(t, liked2)
	// Only the first intent and the latest one reached the store.
	assert.Equal(t, []bool{true, false}, repo.likeWrites)
}

func TestFailedLikeRollsBack(t *testing.T) {
	repo := newFakeRepo()
	repo.writeErr = errors.New("service unavailable")
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	repo.seedLikes(postID, 2)
	c.Seed(viewer, []feedDto.Post{{ID: postID, LikesCount: 2}})

	var changes int
	var mu sync.Mutex
	c.OnChange(func(uuid.UUID) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	state, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, state.Count)

	state = waitSettled(t, c, viewer, postID)
	assert.False(t, state.Liked)
	assert.EqualValues(t, 2, state.Count)
	assert.ErrorIs(t, state.Err, apperror.ErrRemote)
	assert.Contains(t, state.Err.Error(), "service unavailable")

	mu.Lock()
	assert.Equal(t, 2, changes)
	mu.Unlock()
}

func TestToggleLoadsUnknownPair(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	repo.seedLikes(postID, 1)
	require.NoError(t, repo.Like(context.Background(), postID, viewer.UserID))
	repo.likeWrites = nil

	state, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.EqualValues(t, 1, state.Count)

	state = waitSettled(t, c, viewer, postID)
	assert.EqualValues(t, 1, state.Count)
}

func TestSeedKeepsInFlightState(t *testing.T) {
	repo := newFakeRepo()
	repo.gate = make(chan struct{})
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	c.Seed(viewer, []feedDto.Post{{ID: postID, LikesCount: 0}})
	_, err := c.ToggleLike(context.Background(), viewer, postID)
	require.NoError(t, err)

	c.Seed(viewer, []feedDto.Post{{ID: postID, LikesCount: 0, UserHasLiked: false}})
	out := c.Overlay(viewer, []feedDto.Post{{ID: postID}})
	assert.True(t, out[0].UserHasLiked)
	assert.EqualValues(t, 1, out[0].LikesCount)

	close(repo.gate)
	state := waitSettled(t, c, viewer, postID)
	assert.EqualValues(t, 1, state.Count)
}

func TestAddCommentRejectsBlank(t *testing.T) {
	repo := newFakeRepo()
	c, mentions := newController(repo)
	viewer := auth.NewViewer(uuid.New())

	for _, content := range []string{"   ", "", "<p> </p>"} {
		_, err := c.AddComment(context.Background(), viewer, uuid.New(), content)
		assert.ErrorIs(t, err, apperror.ErrEmptyContent)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}
	assert.Zero(t, repo.commentWrites)
	assert.Empty(t, mentions.content)
}

func TestAddCommentRequiresViewer(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newController(repo)

	_, err := c.AddComment(context.Background(), auth.Anonymous, uuid.New(), "hi")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Zero(t, repo.commentWrites)
}

func TestAddCommentPrependsAndCounts(t *testing.T) {
	repo := newFakeRepo()
	c, mentions := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	c.Seed(viewer, []feedDto.Post{{ID: postID, CommentsCount: 2}})

	first, err := c.AddComment(context.Background(), viewer, postID, "  first  ")
	require.NoError(t, err)
	second, err := c.AddComment(context.Background(), viewer, postID, "second @bob")
	require.NoError(t, err)

	comments := c.Comments(postID)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)
	assert.Equal(t, "first", first.Content)

	count, ok := c.CommentCount(postID)
	require.True(t, ok)
	assert.EqualValues(t, 4, count)

	out := c.Overlay(viewer, []feedDto.Post{{ID: postID, CommentsCount: 2}})
	assert.EqualValues(t, 4, out[0].CommentsCount)

	assert.Equal(t, []string{"first", "second @bob"}, mentions.content)
}

func TestAddCommentRemoteFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.commentErr = errors.New("insert failed")
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	_, err := c.AddComment(context.Background(), viewer, postID, "hello")
	assert.ErrorIs(t, err, apperror.ErrRemote)
	assert.Empty(t, c.Comments(postID))
	_, ok := c.CommentCount(postID)
	assert.False(t, ok)
}

func TestAddCommentAuthorLookupFails(t *testing.T) {
	repo := newFakeRepo()
	repo.authorErr = errors.New("connection reset")
	c, mentions := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	c.Seed(viewer, []feedDto.Post{{ID: postID, CommentsCount: 1}})

	comment, err := c.AddComment(context.Background(), viewer, postID, "hello @bob")
	require.NoError(t, err)
	assert.Equal(t, viewer.UserID, comment.UserID)
	assert.Empty(t, comment.Author.Username)

	comments := c.Comments(postID)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)
	count, ok := c.CommentCount(postID)
	require.True(t, ok)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, []string{"hello @bob"}, mentions.content)
	assert.Equal(t, 1, repo.commentWrites)
}

func TestAddCommentLoadsAuthor(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())

	comment, err := c.AddComment(context.Background(), viewer, uuid.New(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "alice", comment.Author.Username)
}

func TestLoadComments(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newController(repo)
	viewer := auth.NewViewer(uuid.New())
	postID := uuid.New()

	for _, body := range []string{"a", "b", "c"} {
		require.NoError(t, repo.CreateComment(context.Background(), &entity.Comment{PostID: postID, UserID: viewer.UserID, Content: body}))
	}

	comments, err := c.LoadComments(context.Background(), postID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "c", comments[0].Content)
	assert.Equal(t, comments, c.Comments(postID))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.LoadComments(ctx, postID)
	assert.ErrorIs(t, err, context.Canceled)
}
