package post

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	postDto "anoa.com/feedsync/internal/modules/post/dto"
	"anoa.com/feedsync/internal/storetest"
	"anoa.com/feedsync/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	store   *storetest.Store
	created []entity.Post
	err     error
}

func (f *fakePosts) Create(ctx context.Context, p *entity.Post) error {
	if f.err != nil {
		return f.err
	}
	p.ID = uuid.New()
	author, _ := f.store.Profiles().FindByID(ctx, p.UserID)
	if author != nil {
		p.Author = *author
	}
	f.created = append(f.created, *p)
	return nil
}

type fakeMentions struct {
	contents []string
}

func (f *fakeMentions) Process(_ context.Context, _, _ uuid.UUID, _ *uuid.UUID, content string) ([]uuid.UUID, error) {
	f.contents = append(f.contents, content)
	return nil, nil
}

type fakeIndexer struct {
	private []bool
	err     error
}

func (f *fakeIndexer) IndexPost(_ context.Context, _ *entity.Post, private bool) error {
	f.private = append(f.private, private)
	return f.err
}

type recordingNotifier struct {
	sent []entity.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *entity.Notification) error {
	r.sent = append(r.sent, *n)
	return nil
}

type fakeStorage struct {
	name string
}

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, fileName string) (string, error) {
	f.name = fileName
	_, _ = io.ReadAll(r)
	return "https://cdn.example.com/" + fileName, nil
}

type fixture struct {
	store    *storetest.Store
	posts    *fakePosts
	mentions *fakeMentions
	indexer  *fakeIndexer
	notifier *recordingNotifier
	storage  *fakeStorage
	svc      PostService
}

func newFixture() *fixture {
	store := storetest.New()
	f := &fixture{
		store:    store,
		posts:    &fakePosts{store: store},
		mentions: &fakeMentions{},
		indexer:  &fakeIndexer{},
		notifier: &recordingNotifier{},
		storage:  &fakeStorage{},
	}
	f.svc = NewPostService(f.posts, store.Groups(), f.mentions, f.indexer, f.notifier, f.storage, nil, 0)
	return f
}

func strPtr(s string) *string { return &s }

func TestCreatePost(t *testing.T) {
	f := newFixture()
	alice := f.store.AddProfile("alice")

	created, err := f.svc.CreatePost(context.Background(), auth.NewViewer(alice.ID), postDto.CreatePostRequest{
		Content: `<p>hello <script>alert(1)</script>#go</p>`,
	})
	require.NoError(t, err)

	assert.Equal(t, "<p>hello #go</p>", created.Content)
	assert.Equal(t, "alice", created.Author.Username)
	assert.Zero(t, created.LikesCount)
	assert.False(t, created.UserHasLiked)
	assert.Equal(t, []string{"<p>hello #go</p>"}, f.mentions.contents)
	assert.Equal(t, []bool{false}, f.indexer.private)
	assert.Empty(t, f.notifier.sent)
}

func TestCreatePostRejectsBlankContent(t *testing.T) {
	f := newFixture()
	alice := f.store.AddProfile("alice")

	_, err := f.svc.CreatePost(context.Background(), auth.NewViewer(alice.ID), postDto.CreatePostRequest{Content: "<p>   </p>"})
	assert.ErrorIs(t, err, apperror.ErrEmptyContent)
	assert.Empty(t, f.posts.created)
}

func TestCreatePostAnonymous(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreatePost(context.Background(), auth.Anonymous, postDto.CreatePostRequest{Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestCreateGroupPostNotifiesOtherMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.store.AddProfile("owner")
	bob := f.store.AddProfile("bob")
	g := f.store.AddGroup("Gophers", true, owner.ID)
	require.NoError(t, f.store.Groups().AddMember(ctx, &entity.GroupMember{GroupID: g.ID, UserID: bob.ID, Role: entity.RoleMember}))

	created, err := f.svc.CreatePost(ctx, auth.NewViewer(owner.ID), postDto.CreatePostRequest{
		Content: "meeting at noon",
		GroupID: strPtr(g.ID.String()),
	})
	require.NoError(t, err)
	require.NotNil(t, created.GroupID)
	assert.Equal(t, g.ID, *created.GroupID)
	assert.Equal(t, []bool{true}, f.indexer.private)

	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, bob.ID, n.UserID)
	assert.Equal(t, entity.NotificationNewPost, n.Type)
	assert.Equal(t, "Gophers", n.DataString("group_name"))
	assert.Equal(t, created.ID.String(), n.DataString("post_id"))
}

func TestCreateGroupPostRequiresMembership(t *testing.T) {
	f := newFixture()
	owner := f.store.AddProfile("owner")
	outsider := f.store.AddProfile("outsider")
	g := f.store.AddGroup("Gophers", false, owner.ID)

	_, err := f.svc.CreatePost(context.Background(), auth.NewViewer(outsider.ID), postDto.CreatePostRequest{
		Content: "hi",
		GroupID: strPtr(g.ID.String()),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.CreatePost(context.Background(), auth.NewViewer(outsider.ID), postDto.CreatePostRequest{
		Content: "hi",
		GroupID: strPtr(uuid.NewString()),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreatePostSideEffectFailuresAreNotSurfaced(t *testing.T) {
	f := newFixture()
	f.indexer.err = errors.New("meilisearch down")
	alice := f.store.AddProfile("alice")

	_, err := f.svc.CreatePost(context.Background(), auth.NewViewer(alice.ID), postDto.CreatePostRequest{Content: "still posted"})
	require.NoError(t, err)
	assert.Len(t, f.posts.created, 1)
}

func TestCreatePostStoreFailure(t *testing.T) {
	f := newFixture()
	f.posts.err = errors.New("connection refused")
	alice := f.store.AddProfile("alice")

	_, err := f.svc.CreatePost(context.Background(), auth.NewViewer(alice.ID), postDto.CreatePostRequest{Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrRemote)
	assert.Empty(t, f.mentions.contents)
}

func TestUploadImage(t *testing.T) {
	f := newFixture()
	viewer := auth.NewViewer(uuid.New())

	url, err := f.svc.UploadImage(context.Background(), viewer, strings.NewReader("png"), "cat.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cat.png", url)

	_, err = f.svc.UploadImage(context.Background(), viewer, strings.NewReader("x"), "notes.txt")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.UploadImage(context.Background(), auth.Anonymous, strings.NewReader("png"), "cat.png")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}
