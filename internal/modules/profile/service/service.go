package profile

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/feedsync/internal/entity"
	profileRepo "anoa.com/feedsync/internal/modules/profile/repository"
	"anoa.com/feedsync/pkg/apperror"
)

const suggestionLimit = 5

type ProfileService interface {
	GetProfileByUsername(ctx context.Context, username string) (*entity.Profile, error)
	// Suggest backs the mention picker of the rich text editor.
	Suggest(ctx context.Context, query string) ([]entity.Profile, error)
}

type profileService struct {
	repo profileRepo.ProfileRepository
}

func NewProfileService(repo profileRepo.ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*entity.Profile, error) {
	profile, err := s.repo.FindByUsername(ctx, strings.TrimPrefix(strings.TrimSpace(username), "@"))
	if err != nil {
		return nil, apperror.Remote(err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %q: %w", username, apperror.ErrNotFound)
	}
	return profile, nil
}

func (s *profileService) Suggest(ctx context.Context, query string) ([]entity.Profile, error) {
	query = strings.TrimPrefix(strings.TrimSpace(query), "@")
	if query == "" {
		return []entity.Profile{}, nil
	}
	profiles, err := s.repo.FindByUsernamePrefix(ctx, query, suggestionLimit)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	return profiles, nil
}
