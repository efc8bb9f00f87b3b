package handler

import (
	"net/http"

	"anoa.com/feedsync/internal/auth"
	inviteDto "anoa.com/feedsync/internal/modules/invite/dto"
	invite "anoa.com/feedsync/internal/modules/invite/service"
	"anoa.com/feedsync/pkg/response"
	"anoa.com/feedsync/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InviteHandler struct {
	inviteService invite.InviteService
}

func NewInviteHandler(inviteService invite.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// CreateInvite invites a user, by username, into the group in the path.
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req inviteDto.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	created, err := h.inviteService.InviteByUsername(c.Request.Context(), auth.GetViewer(c), groupID, req.Username)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, inviteDto.ToInviteResponse(*created))
}

func (h *InviteHandler) GetPendingInvites(c *gin.Context) {
	invites, err := h.inviteService.ListPending(c.Request.Context(), auth.GetViewer(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, inviteDto.ToInviteResponses(invites))
}

func (h *InviteHandler) RespondInvite(c *gin.Context) {
	inviteID, err := uuid.Parse(c.Param("invite_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invite id"})
		return
	}

	var req inviteDto.RespondInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	updated, err := h.inviteService.Respond(c.Request.Context(), auth.GetViewer(c), inviteID, *req.Accept)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, inviteDto.ToInviteResponse(*updated))
}
