package repository

import (
	"context"
	"errors"

	"anoa.com/feedsync/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrMemberExists is returned when the user already belongs to the group.
var ErrMemberExists = errors.New("member exists")

// GroupSummary is a group as listed for one of its members.
type GroupSummary struct {
	entity.Group
	Role        string `json:"role"`
	MemberCount int64  `json:"member_count"`
}

type GroupRepository interface {
	// Create stores the group and its owner membership together.
	Create(ctx context.Context, group *entity.Group, ownerID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Group, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, member *entity.GroupMember) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]GroupSummary, error)
	MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *entity.Group, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&entity.GroupMember{
			GroupID: group.ID,
			UserID:  ownerID,
			Role:    entity.RoleOwner,
		}).Error
	})
}

// FindByID returns (nil, nil) when absent.
func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Group, error) {
	var group entity.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *groupRepository) AddMember(ctx context.Context, member *entity.GroupMember) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrMemberExists
	}
	return err
}

func (r *groupRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]GroupSummary, error) {
	var groups []GroupSummary
	err := r.db.WithContext(ctx).
		Table("groups").
		Select(`groups.*, group_members.role AS role,
			(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = groups.id) AS member_count`).
		Joins("JOIN group_members ON group_members.group_id = groups.id AND group_members.user_id = ?", userID).
		Order("groups.created_at desc").
		Scan(&groups).Error
	return groups, err
}

func (r *groupRepository) MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}
