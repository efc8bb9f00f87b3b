package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Author    Profile    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profiles"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ImageURL  *string    `gorm:"type:text" json:"image_url"`
	GroupID   *uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

// Like is unique per (post, user).
type Like struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_post_user,priority:1" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_post_user,priority:2" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Author    Profile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profiles"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// Mention links a post (and optionally one of its comments) to a referenced user.
type Mention struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PostID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"post_id"`
	CommentID        *uuid.UUID `gorm:"type:uuid" json:"comment_id,omitempty"`
	MentioningUserID uuid.UUID  `gorm:"type:uuid;not null" json:"mentioning_user_id"`
	MentionedUserID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"mentioned_user_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (m *Mention) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}
