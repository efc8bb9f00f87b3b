package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	notification "anoa.com/feedsync/internal/modules/notification/service"
	"anoa.com/feedsync/internal/storetest"
	"anoa.com/feedsync/pkg/realtime"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *NotificationHandler, viewer auth.Viewer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetViewer(c, viewer)
		c.Next()
	})
	r.GET("/api/notifications", h.GetNotifications)
	r.GET("/api/notifications/unread-count", h.UnreadCount)
	r.PUT("/api/notifications/:id/read", h.MarkAsRead)
	r.PUT("/api/notifications/read-all", h.MarkAllAsRead)
	return r
}

func seed(t *testing.T, d notification.Dispatcher, userID uuid.UUID, n int) []entity.Notification {
	t.Helper()
	var out []entity.Notification
	for i := 0; i < n; i++ {
		item := &entity.Notification{UserID: userID, Type: entity.NotificationNewFollower}
		require.NoError(t, d.Notify(context.Background(), item))
		out = append(out, *item)
	}
	return out
}

func TestMarkAsReadPushesUpdate(t *testing.T) {
	store := storetest.New()
	broker := realtime.NewMemoryBroker()
	d := notification.NewDispatcher(store.Notifications(), broker)
	viewer := auth.NewViewer(uuid.New())
	items := seed(t, d, viewer.UserID, 3)

	sub, err := broker.Open(context.Background(), realtime.Channel(realtime.TopicNotifications, viewer.UserID))
	require.NoError(t, err)
	defer sub.Close()

	r := newRouter(NewNotificationHandler(d, 0), viewer)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/notifications/"+items[1].ID.String()+"/read", nil))
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case event := <-sub.Events():
		assert.Equal(t, realtime.Update, event.Type)
		assert.Equal(t, "notifications", event.Table)
	case <-time.After(time.Second):
		t.Fatal("no update event")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body.Count)
}

func TestMarkAsReadOtherUsersNotification(t *testing.T) {
	store := storetest.New()
	d := notification.NewDispatcher(store.Notifications(), nil)
	items := seed(t, d, uuid.New(), 1)

	r := newRouter(NewNotificationHandler(d, 0), auth.NewViewer(uuid.New()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/notifications/"+items[0].ID.String()+"/read", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetNotifications(t *testing.T) {
	store := storetest.New()
	d := notification.NewDispatcher(store.Notifications(), nil)
	viewer := auth.NewViewer(uuid.New())
	items := seed(t, d, viewer.UserID, 4)
	seed(t, d, uuid.New(), 2)

	r := newRouter(NewNotificationHandler(d, 0), viewer)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, items[3].ID, body.Data[0].ID)
	assert.Equal(t, items[2].ID, body.Data[1].ID)
}

func TestMarkAllAsRead(t *testing.T) {
	store := storetest.New()
	d := notification.NewDispatcher(store.Notifications(), nil)
	viewer := auth.NewViewer(uuid.New())
	seed(t, d, viewer.UserID, 3)

	r := newRouter(NewNotificationHandler(d, 0), viewer)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/notifications/read-all", nil))
	require.Equal(t, http.StatusOK, w.Code)

	count, err := d.UnreadCount(context.Background(), viewer.UserID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAnonymousRejected(t *testing.T) {
	store := storetest.New()
	d := notification.NewDispatcher(store.Notifications(), nil)
	r := newRouter(NewNotificationHandler(d, 0), auth.Anonymous)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
