package dto

import (
	"time"

	"anoa.com/feedsync/internal/entity"
	"github.com/google/uuid"
)

type CreateInviteRequest struct {
	Username string `json:"username" binding:"required,max=50"`
}

type RespondInviteRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type InviteResponse struct {
	ID        uuid.UUID           `json:"id"`
	GroupID   uuid.UUID           `json:"group_id"`
	GroupName string              `json:"group_name,omitempty"`
	InviterID uuid.UUID           `json:"inviter_id"`
	Inviter   string              `json:"inviter_username,omitempty"`
	InviteeID uuid.UUID           `json:"invitee_id"`
	Status    entity.InviteStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

func ToInviteResponse(invite entity.GroupInvite) InviteResponse {
	res := InviteResponse{
		ID:        invite.ID,
		GroupID:   invite.GroupID,
		InviterID: invite.InviterID,
		InviteeID: invite.InviteeID,
		Status:    invite.Status,
		CreatedAt: invite.CreatedAt,
	}
	if invite.Group != nil {
		res.GroupName = invite.Group.Title
	}
	if invite.Inviter != nil {
		res.Inviter = invite.Inviter.Username
	}
	return res
}

func ToInviteResponses(invites []entity.GroupInvite) []InviteResponse {
	out := make([]InviteResponse, 0, len(invites))
	for _, invite := range invites {
		out = append(out, ToInviteResponse(invite))
	}
	return out
}
