package handler

import (
	"net/http"

	"anoa.com/feedsync/internal/auth"
	groupDto "anoa.com/feedsync/internal/modules/group/dto"
	group "anoa.com/feedsync/internal/modules/group/service"
	"anoa.com/feedsync/pkg/response"
	"anoa.com/feedsync/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GroupHandler struct {
	groupService group.GroupService
}

func NewGroupHandler(groupService group.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req groupDto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	g, err := h.groupService.Create(c.Request.Context(), auth.GetViewer(c), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, g)
}

func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	groups, err := h.groupService.ListForUser(c.Request.Context(), auth.GetViewer(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, groups)
}

func (h *GroupHandler) JoinGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	if err := h.groupService.Join(c.Request.Context(), auth.GetViewer(c), groupID); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Message(c, "Joined group")
}
