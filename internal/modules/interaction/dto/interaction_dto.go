package dto

import (
	"time"

	"anoa.com/feedsync/internal/entity"
	interaction "anoa.com/feedsync/internal/modules/interaction/service"
	profileDto "anoa.com/feedsync/internal/modules/profile/dto"
	commonDto "anoa.com/feedsync/pkg/dto"
	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

type LikeResponse struct {
	PostID  uuid.UUID `json:"post_id"`
	Liked   bool      `json:"liked"`
	Count   int64     `json:"count"`
	Pending bool      `json:"pending"`
	Error   string    `json:"error,omitempty"`
}

func ToLikeResponse(s interaction.LikeState) LikeResponse {
	resp := LikeResponse{PostID: s.PostID, Liked: s.Liked, Count: s.Count, Pending: s.Pending}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

type CommentResponse struct {
	ID        uuid.UUID                `json:"id"`
	PostID    uuid.UUID                `json:"post_id"`
	Author    commonDto.AuthorResponse `json:"profiles"`
	Content   string                   `json:"content"`
	CreatedAt time.Time                `json:"created_at"`
}

func ToCommentResponse(c entity.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    profileDto.ToAuthor(c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func ToCommentResponses(comments []entity.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, ToCommentResponse(c))
	}
	return out
}
