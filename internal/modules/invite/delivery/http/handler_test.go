package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	inviteDto "anoa.com/feedsync/internal/modules/invite/dto"
	invite "anoa.com/feedsync/internal/modules/invite/service"
	"anoa.com/feedsync/internal/storetest"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, *entity.Notification) error { return nil }

func newRouter(h *InviteHandler, viewer auth.Viewer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetViewer(c, viewer)
		c.Next()
	})
	r.POST("/api/groups/:group_id/invites", h.CreateInvite)
	r.GET("/api/invites", h.GetPendingInvites)
	r.POST("/api/invites/:invite_id/respond", h.RespondInvite)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestInviteFlow(t *testing.T) {
	store := storetest.New()
	alice := store.AddProfile("alice")
	bob := store.AddProfile("bob")
	g := store.AddGroup("Gophers", true, alice.ID)

	h := NewInviteHandler(invite.NewInviteService(store.Invites(), store.Groups(), store.Profiles(), nopNotifier{}))
	asAlice := newRouter(h, auth.NewViewer(alice.ID))
	asBob := newRouter(h, auth.NewViewer(bob.ID))

	w := do(asAlice, http.MethodPost, "/api/groups/"+g.ID.String()+"/invites", `{"username":"@Bob"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[inviteDto.InviteResponse](t, w)
	assert.Equal(t, bob.ID, created.InviteeID)

	w = do(asAlice, http.MethodPost, "/api/groups/"+g.ID.String()+"/invites", `{"username":"bob"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(asBob, http.MethodGet, "/api/invites", "")
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]inviteDto.InviteResponse](t, w)
	require.Len(t, pending, 1)
	assert.Equal(t, "Gophers", pending[0].GroupName)
	assert.Equal(t, "alice", pending[0].Inviter)

	w = do(asAlice, http.MethodPost, "/api/invites/"+created.ID.String()+"/respond", `{"accept":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(asBob, http.MethodPost, "/api/invites/"+created.ID.String()+"/respond", `{"accept":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "declined", string(decode[inviteDto.InviteResponse](t, w).Status))

	w = do(asBob, http.MethodPost, "/api/invites/"+created.ID.String()+"/respond", `{"accept":true}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInviteBadRequests(t *testing.T) {
	store := storetest.New()
	h := NewInviteHandler(invite.NewInviteService(store.Invites(), store.Groups(), store.Profiles(), nopNotifier{}))
	r := newRouter(h, auth.NewViewer(uuid.New()))

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/groups/nope/invites", `{"username":"bob"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/groups/"+uuid.NewString()+"/invites", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/invites/nope/respond", `{"accept":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/invites/"+uuid.NewString()+"/respond", `{}`).Code)
}
