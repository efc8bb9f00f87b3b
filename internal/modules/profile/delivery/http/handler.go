package handler

import (
	"net/http"

	profileDto "anoa.com/feedsync/internal/modules/profile/dto"
	profile "anoa.com/feedsync/internal/modules/profile/service"
	"anoa.com/feedsync/pkg/response"
	"anoa.com/feedsync/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) GetProfileByUsername(c *gin.Context) {
	p, err := h.profileService.GetProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Data(c, http.StatusOK, profileDto.ToAuthor(*p))
}

func (h *ProfileHandler) Suggest(c *gin.Context) {
	var query profileDto.SuggestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	profiles, err := h.profileService.Suggest(c.Request.Context(), query.Query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Data(c, http.StatusOK, profileDto.ToAuthors(profiles))
}
