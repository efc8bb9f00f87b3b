package handler

import (
	"net/http"

	"anoa.com/feedsync/internal/auth"
	postDto "anoa.com/feedsync/internal/modules/post/dto"
	post "anoa.com/feedsync/internal/modules/post/service"
	"anoa.com/feedsync/pkg/response"
	"anoa.com/feedsync/pkg/validator"
	"github.com/gin-gonic/gin"
)

// maxUploadSize caps image uploads at 5 MB.
const maxUploadSize = 5 << 20

type PostHandler struct {
	service post.PostService
}

func NewPostHandler(service post.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req postDto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	created, err := h.service.CreatePost(c.Request.Context(), auth.GetViewer(c), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, created)
}

func (h *PostHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	url, err := h.service.UploadImage(c.Request.Context(), auth.GetViewer(c), file, fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, postDto.UploadResponse{URL: url})
}
