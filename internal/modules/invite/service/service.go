package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"anoa.com/feedsync/internal/auth"
	"anoa.com/feedsync/internal/entity"
	groupRepo "anoa.com/feedsync/internal/modules/group/repository"
	inviteRepo "anoa.com/feedsync/internal/modules/invite/repository"
	profileRepo "anoa.com/feedsync/internal/modules/profile/repository"
	"anoa.com/feedsync/pkg/apperror"
	"github.com/google/uuid"
)

// Notifier persists and pushes one notification.
type Notifier interface {
	Notify(ctx context.Context, notification *entity.Notification) error
}

// InviteService owns the invite lifecycle: pending moves once to accepted or
// declined. Accepting does not add the membership.
type InviteService interface {
	Create(ctx context.Context, groupID, inviterID, inviteeID uuid.UUID) (*entity.GroupInvite, error)
	InviteByUsername(ctx context.Context, viewer auth.Viewer, groupID uuid.UUID, username string) (*entity.GroupInvite, error)
	Respond(ctx context.Context, viewer auth.Viewer, inviteID uuid.UUID, accept bool) (*entity.GroupInvite, error)
	ListPending(ctx context.Context, viewer auth.Viewer) ([]entity.GroupInvite, error)
}

type inviteService struct {
	repo     inviteRepo.InviteRepository
	groups   groupRepo.GroupRepository
	profiles profileRepo.ProfileRepository
	notifier Notifier
}

func NewInviteService(repo inviteRepo.InviteRepository, groups groupRepo.GroupRepository, profiles profileRepo.ProfileRepository, notifier Notifier) InviteService {
	return &inviteService{
		repo:     repo,
		groups:   groups,
		profiles: profiles,
		notifier: notifier,
	}
}

func (s *inviteService) Create(ctx context.Context, groupID, inviterID, inviteeID uuid.UUID) (*entity.GroupInvite, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	if group == nil {
		return nil, fmt.Errorf("group %s: %w", groupID, apperror.ErrNotFound)
	}

	member, err := s.groups.IsMember(ctx, groupID, inviteeID)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	if member {
		return nil, apperror.ErrAlreadyMember
	}

	// Terminal invites of the same pair stay as they are.
	invite := &entity.GroupInvite{
		GroupID:   groupID,
		InviterID: inviterID,
		InviteeID: inviteeID,
	}
	if err := s.repo.CreatePending(ctx, invite); err != nil {
		if errors.Is(err, inviteRepo.ErrPendingExists) {
			return nil, apperror.ErrDuplicatePending
		}
		return nil, apperror.Remote(err)
	}

	notification := &entity.Notification{
		UserID: inviteeID,
		Type:   entity.NotificationGroupInvite,
		Data: map[string]any{
			"group_id":   groupID.String(),
			"group_name": group.Title,
			"inviter_id": inviterID.String(),
			"invite_id":  invite.ID.String(),
		},
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		log.Printf("❌ invite %s created but notification failed: %v", invite.ID, err)
	}

	invite.Group = group
	return invite, nil
}

func (s *inviteService) InviteByUsername(ctx context.Context, viewer auth.Viewer, groupID uuid.UUID, username string) (*entity.GroupInvite, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}

	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", apperror.ErrValidation)
	}

	invitee, err := s.profiles.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	if invitee == nil {
		return nil, fmt.Errorf("user %q: %w", username, apperror.ErrNotFound)
	}

	member, err := s.groups.IsMember(ctx, groupID, viewer.UserID)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	if !member {
		return nil, fmt.Errorf("only members can invite: %w", apperror.ErrForbidden)
	}

	return s.Create(ctx, groupID, viewer.UserID, invitee.ID)
}

func (s *inviteService) Respond(ctx context.Context, viewer auth.Viewer, inviteID uuid.UUID, accept bool) (*entity.GroupInvite, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}

	invite, err := s.repo.FindByID(ctx, inviteID)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	// Other users' invites are reported as missing.
	if invite == nil || invite.InviteeID != viewer.UserID {
		return nil, fmt.Errorf("invite %s: %w", inviteID, apperror.ErrNotFound)
	}
	if invite.Status != entity.InvitePending {
		return nil, apperror.ErrInvalidTransition
	}

	status := entity.InviteDeclined
	if accept {
		status = entity.InviteAccepted
	}

	moved, err := s.repo.Transition(ctx, inviteID, status)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	if !moved {
		return nil, apperror.ErrInvalidTransition
	}

	invite.Status = status
	return invite, nil
}

func (s *inviteService) ListPending(ctx context.Context, viewer auth.Viewer) ([]entity.GroupInvite, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	invites, err := s.repo.ListPendingForUser(ctx, viewer.UserID)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	return invites, nil
}
