package handler

import (
	"net/http"

	"anoa.com/feedsync/internal/auth"
	notification "anoa.com/feedsync/internal/modules/notification/service"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/dto"
	"anoa.com/feedsync/pkg/response"
	"anoa.com/feedsync/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotificationHandler serves the REST side of the notification center. Reads
// marked here are pushed to the viewer's live sessions as UPDATE events.
type NotificationHandler struct {
	dispatcher notification.Dispatcher
	limit      int
}

func NewNotificationHandler(dispatcher notification.Dispatcher, limit int) *NotificationHandler {
	if limit <= 0 {
		limit = notification.DefaultFetchLimit
	}
	return &NotificationHandler{dispatcher: dispatcher, limit: limit}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	viewer := auth.GetViewer(c)
	if !viewer.Authenticated() {
		response.ResponseError(c, apperror.ErrUnauthenticated)
		return
	}

	var query dto.LimitQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	items, err := h.dispatcher.List(c.Request.Context(), viewer.UserID, query.Or(h.limit))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, items)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	viewer := auth.GetViewer(c)
	if !viewer.Authenticated() {
		response.ResponseError(c, apperror.ErrUnauthenticated)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.dispatcher.MarkRead(c.Request.Context(), viewer.UserID, id); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Message(c, "Marked as read")
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	viewer := auth.GetViewer(c)
	if !viewer.Authenticated() {
		response.ResponseError(c, apperror.ErrUnauthenticated)
		return
	}

	if err := h.dispatcher.MarkAllRead(c.Request.Context(), viewer.UserID); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Message(c, "All notifications marked as read")
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	viewer := auth.GetViewer(c)
	if !viewer.Authenticated() {
		response.ResponseError(c, apperror.ErrUnauthenticated)
		return
	}

	count, err := h.dispatcher.UnreadCount(c.Request.Context(), viewer.UserID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
