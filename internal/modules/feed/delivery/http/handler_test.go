package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/feedsync/internal/auth"
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	"anoa.com/feedsync/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeed struct {
	viewer auth.Viewer
	sel    feedDto.Selection
	posts  []feedDto.Post
	err    error
}

func (s *stubFeed) List(_ context.Context, viewer auth.Viewer, sel feedDto.Selection) ([]feedDto.Post, error) {
	s.viewer, s.sel = viewer, sel
	return s.posts, s.err
}

func (s *stubFeed) Get(_ context.Context, viewer auth.Viewer, postID uuid.UUID) (*feedDto.Post, error) {
	s.viewer, s.sel = viewer, feedDto.ByID(postID)
	if s.err != nil {
		return nil, s.err
	}
	return &s.posts[0], nil
}

func newRouter(h *FeedHandler, viewer auth.Viewer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetViewer(c, viewer)
		c.Next()
	})
	r.GET("/api/feed", h.GetFeed)
	r.GET("/api/feed/:post_id", h.GetPost)
	r.GET("/api/users/:user_id/posts", h.GetUserPosts)
	return r
}

func TestGetFeed(t *testing.T) {
	viewer := auth.NewViewer(uuid.New())
	stub := &stubFeed{posts: []feedDto.Post{{ID: uuid.New(), LikesCount: 4, UserHasLiked: true}}}
	r := newRouter(NewFeedHandler(stub), viewer)

	groupID := uuid.New()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/feed?limit=5&group_id="+groupID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, viewer, stub.viewer)
	require.NotNil(t, stub.sel.GroupID)
	assert.Equal(t, groupID, *stub.sel.GroupID)
	assert.Equal(t, 5, stub.sel.Limit)

	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.EqualValues(t, 4, body.Data[0]["likes_count"])
	assert.Equal(t, true, body.Data[0]["user_has_liked"])
}

func TestGetFeedBadQuery(t *testing.T) {
	r := newRouter(NewFeedHandler(&stubFeed{}), auth.Anonymous)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/feed?group_id=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPostErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"missing": {apperror.ErrNotFound, http.StatusNotFound},
		"remote":  {apperror.Remote(errors.New("down")), http.StatusBadGateway},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newRouter(NewFeedHandler(&stubFeed{err: tc.err}), auth.Anonymous)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/feed/"+uuid.NewString(), nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestGetUserPosts(t *testing.T) {
	stub := &stubFeed{posts: []feedDto.Post{}}
	r := newRouter(NewFeedHandler(stub), auth.Anonymous)

	userID := uuid.New()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/"+userID.String()+"/posts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.sel.AuthorID)
	assert.Equal(t, userID, *stub.sel.AuthorID)
}
