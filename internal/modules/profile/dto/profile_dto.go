package dto

import (
	"anoa.com/feedsync/internal/entity"
	commonDto "anoa.com/feedsync/pkg/dto"
)

type SuggestQuery struct {
	Query string `form:"q"`
}

func ToAuthor(p entity.Profile) commonDto.AuthorResponse {
	return commonDto.AuthorResponse{
		ID:        p.ID,
		Username:  p.Username,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
	}
}

func ToAuthors(profiles []entity.Profile) []commonDto.AuthorResponse {
	out := make([]commonDto.AuthorResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ToAuthor(p))
	}
	return out
}
