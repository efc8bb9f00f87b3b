package handler

import (
	"net/http"

	trending "anoa.com/feedsync/internal/modules/trending/service"
	"anoa.com/feedsync/pkg/response"
	"github.com/gin-gonic/gin"
)

type TrendingHandler struct {
	trendingService trending.TrendingService
}

func NewTrendingHandler(trendingService trending.TrendingService) *TrendingHandler {
	return &TrendingHandler{trendingService: trendingService}
}

func (h *TrendingHandler) GetTrending(c *gin.Context) {
	tags, err := h.trendingService.Top(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusOK, tags)
}
