package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	groupDto "anoa.com/feedsync/internal/modules/group/dto"
	groupRepo "anoa.com/feedsync/internal/modules/group/repository"
	inviteRepo "anoa.com/feedsync/internal/modules/invite/repository"
	"anoa.com/feedsync/pkg/apperror"
	"github.com/google/uuid"
)

type GroupService interface {
	Create(ctx context.Context, viewer auth.Viewer, req groupDto.CreateGroupRequest) (*entity.Group, error)
	ListForUser(ctx context.Context, viewer auth.Viewer) ([]groupRepo.GroupSummary, error)
	// Join adds the viewer as a member. Private groups need an accepted invite.
	Join(ctx context.Context, viewer auth.Viewer, groupID uuid.UUID) error
}

type groupService struct {
	repo    groupRepo.GroupRepository
	invites inviteRepo.InviteRepository
}

func NewGroupService(repo groupRepo.GroupRepository, invites inviteRepo.InviteRepository) GroupService {
	return &groupService{repo: repo, invites: invites}
}

func (s *groupService) Create(ctx context.Context, viewer auth.Viewer, req groupDto.CreateGroupRequest) (*entity.Group, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("group title is required: %w", apperror.ErrValidation)
	}

	group := &entity.Group{
		Title:         title,
		Description:   req.Description,
		CoverImageURL: req.CoverImageURL,
		IsPrivate:     req.IsPrivate,
	}
	if err := s.repo.Create(ctx, group, viewer.UserID); err != nil {
		return nil, apperror.Remote(err)
	}
	return group, nil
}

func (s *groupService) ListForUser(ctx context.Context, viewer auth.Viewer) ([]groupRepo.GroupSummary, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	groups, err := s.repo.ListForUser(ctx, viewer.UserID)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	return groups, nil
}

func (s *groupService) Join(ctx context.Context, viewer auth.Viewer, groupID uuid.UUID) error {
	if !viewer.Authenticated() {
		return apperror.ErrUnauthenticated
	}

	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return apperror.Remote(err)
	}
	if group == nil {
		return fmt.Errorf("group %s: %w", groupID, apperror.ErrNotFound)
	}

	if group.IsPrivate {
		accepted, err := s.invites.HasAccepted(ctx, groupID, viewer.UserID)
		if err != nil {
			return apperror.Remote(err)
		}
		if !accepted {
			return fmt.Errorf("group %s is private: %w", groupID, apperror.ErrForbidden)
		}
	}

	err = s.repo.AddMember(ctx, &entity.GroupMember{
		GroupID: groupID,
		UserID:  viewer.UserID,
		Role:    entity.RoleMember,
	})
	if errors.Is(err, groupRepo.ErrMemberExists) {
		return apperror.ErrAlreadyMember
	}
	if err != nil {
		return apperror.Remote(err)
	}
	return nil
}
