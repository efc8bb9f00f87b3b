package repository

import (
	"context"
	"errors"

	"anoa.com/feedsync/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrPendingExists is returned when the pair already has a pending invite.
var ErrPendingExists = errors.New("pending invite exists")

type InviteRepository interface {
	CreatePending(ctx context.Context, invite *entity.GroupInvite) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.GroupInvite, error)
	// Transition moves a pending invite to status and reports whether it was
	// still pending.
	Transition(ctx context.Context, id uuid.UUID, status entity.InviteStatus) (bool, error)
	ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]entity.GroupInvite, error)
	HasAccepted(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

type inviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) CreatePending(ctx context.Context, invite *entity.GroupInvite) error {
	invite.Status = entity.InvitePending
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.GroupInvite{}).
			Where("group_id = ? AND invitee_id = ? AND status = ?", invite.GroupID, invite.InviteeID, entity.InvitePending).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrPendingExists
		}
		return tx.Create(invite).Error
	})
	// A concurrent insert loses on the partial unique index.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrPendingExists
	}
	return err
}

// FindByID returns (nil, nil) when absent.
func (r *inviteRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.GroupInvite, error) {
	var invite entity.GroupInvite
	err := r.db.WithContext(ctx).Preload("Group").Where("id = ?", id).First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) Transition(ctx context.Context, id uuid.UUID, status entity.InviteStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.GroupInvite{}).
		Where("id = ? AND status = ?", id, entity.InvitePending).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *inviteRepository) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]entity.GroupInvite, error) {
	var invites []entity.GroupInvite
	err := r.db.WithContext(ctx).
		Preload("Group").
		Preload("Inviter").
		Where("invitee_id = ? AND status = ?", userID, entity.InvitePending).
		Order("created_at desc").
		Find(&invites).Error
	return invites, err
}

func (r *inviteRepository) HasAccepted(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.GroupInvite{}).
		Where("group_id = ? AND invitee_id = ? AND status = ?", groupID, userID, entity.InviteAccepted).
		Count(&count).Error
	return count > 0, err
}
