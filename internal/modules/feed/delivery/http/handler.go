package handler

import (
	"net/http"

	"anoa.com/feedsync/internal/auth"
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	feed "anoa.com/feedsync/internal/modules/feed/service"
	"anoa.com/feedsync/pkg/response"
	"anoa.com/feedsync/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FeedHandler struct {
	feedService feed.FeedService
}

func NewFeedHandler(feedService feed.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

func (h *FeedHandler) GetFeed(c *gin.Context) {
	var query feedDto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	sel := feedDto.All()
	if query.GroupID != "" {
		sel = feedDto.ByGroup(uuid.MustParse(query.GroupID))
	}

	posts, err := h.feedService.List(c.Request.Context(), auth.GetViewer(c), sel.WithLimit(query.Limit))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, posts)
}

func (h *FeedHandler) GetPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, err := h.feedService.Get(c.Request.Context(), auth.GetViewer(c), postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, post)
}

func (h *FeedHandler) GetUserPosts(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var query feedDto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	posts, err := h.feedService.List(c.Request.Context(), auth.GetViewer(c), feedDto.ByAuthor(userID).WithLimit(query.Limit))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, posts)
}
