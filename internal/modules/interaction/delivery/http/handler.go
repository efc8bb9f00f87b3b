package handler

import (
	"net/http"

	"anoa.com/feedsync/internal/auth"
	interactionDto "anoa.com/feedsync/internal/modules/interaction/dto"
	interaction "anoa.com/feedsync/internal/modules/interaction/service"
	"anoa.com/feedsync/pkg/response"
	"anoa.com/feedsync/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ControllerProvider hands out the controller that owns a viewer's local
// like and comment state.
type ControllerProvider interface {
	Interactions(viewer auth.Viewer) (*interaction.Controller, error)
}

type InteractionHandler struct {
	provider ControllerProvider
}

func NewInteractionHandler(provider ControllerProvider) *InteractionHandler {
	return &InteractionHandler{provider: provider}
}

func (h *InteractionHandler) controller(c *gin.Context) (*interaction.Controller, uuid.UUID, bool) {
	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return nil, uuid.Nil, false
	}
	ctrl, err := h.provider.Interactions(auth.GetViewer(c))
	if err != nil {
		response.ResponseError(c, err)
		return nil, uuid.Nil, false
	}
	return ctrl, postID, true
}

func (h *InteractionHandler) ToggleLike(c *gin.Context) {
	ctrl, postID, ok := h.controller(c)
	if !ok {
		return
	}

	state, err := ctrl.ToggleLike(c.Request.Context(), auth.GetViewer(c), postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusAccepted, interactionDto.ToLikeResponse(state))
}

func (h *InteractionHandler) GetLike(c *gin.Context) {
	ctrl, postID, ok := h.controller(c)
	if !ok {
		return
	}

	viewer := auth.GetViewer(c)
	if c.Query("wait") == "true" {
		if err := ctrl.Wait(c.Request.Context(), viewer, postID); err != nil {
			response.ResponseError(c, err)
			return
		}
	}

	state, known := ctrl.LikeState(viewer, postID)
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "no local like state for this post"})
		return
	}
	response.Data(c, http.StatusOK, interactionDto.ToLikeResponse(state))
}

func (h *InteractionHandler) GetComments(c *gin.Context) {
	ctrl, postID, ok := h.controller(c)
	if !ok {
		return
	}

	comments, err := ctrl.LoadComments(c.Request.Context(), postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, interactionDto.ToCommentResponses(comments))
}

func (h *InteractionHandler) CreateComment(c *gin.Context) {
	ctrl, postID, ok := h.controller(c)
	if !ok {
		return
	}

	var req interactionDto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	comment, err := ctrl.AddComment(c.Request.Context(), auth.GetViewer(c), postID, req.Content)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, interactionDto.ToCommentResponse(*comment))
}
