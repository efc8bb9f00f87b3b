package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Group struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   *string   `gorm:"type:text" json:"description"`
	CoverImageURL *string   `gorm:"type:text" json:"cover_image_url"`
	IsPrivate     bool      `gorm:"default:false" json:"is_private"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

type GroupMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_unique,priority:1" json:"group_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_unique,priority:2" json:"user_id"`
	Role      string    `gorm:"size:20;not null;default:member" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Group     *Group    `gorm:"constraint:OnDelete:CASCADE" json:"group,omitempty"`
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// Terminal reports whether no further transition is allowed.
func (s InviteStatus) Terminal() bool {
	return s == InviteAccepted || s == InviteDeclined
}

// GroupInvite rows are history: a pending row moves to a terminal status once
// and is never touched again. The partial unique index keeps at most one
// pending invite per (group, invitee).
type GroupInvite struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_group_invites_pending,unique,priority:1,where:status = 'pending'" json:"group_id"`
	InviterID uuid.UUID    `gorm:"type:uuid;not null" json:"inviter_id"`
	InviteeID uuid.UUID    `gorm:"type:uuid;not null;index;index:idx_group_invites_pending,unique,priority:2,where:status = 'pending'" json:"invitee_id"`
	Status    InviteStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	Group   *Group   `gorm:"constraint:OnDelete:CASCADE" json:"group,omitempty"`
	Inviter *Profile `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
}

func (i *GroupInvite) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID, err = uuid.NewV7()
	}
	return
}
