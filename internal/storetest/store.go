// Package storetest provides an in-memory store implementing the repository
// interfaces, for service and session tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"anoa.com/feedsync/internal/entity"
	groupRepo "anoa.com/feedsync/internal/modules/group/repository"
	inviteRepo "anoa.com/feedsync/internal/modules/invite/repository"
	notifRepo "anoa.com/feedsync/internal/modules/notification/repository"
	profileRepo "anoa.com/feedsync/internal/modules/profile/repository"
	"github.com/google/uuid"
)

type Store struct {
	mu            sync.Mutex
	now           time.Time
	profiles      map[uuid.UUID]entity.Profile
	groups        map[uuid.UUID]entity.Group
	members       []entity.GroupMember
	invites       []entity.GroupInvite
	notifications []entity.Notification

	// Err, when set, fails every call.
	Err error
}

func New() *Store {
	return &Store{
		now:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		profiles: make(map[uuid.UUID]entity.Profile),
		groups:   make(map[uuid.UUID]entity.Group),
	}
}

// tick returns strictly increasing timestamps.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *Store) AddProfile(username string) entity.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := entity.Profile{ID: uuid.New(), Username: username, CreatedAt: s.tick()}
	s.profiles[p.ID] = p
	return p
}

// AddGroup stores a group owned by ownerID.
func (s *Store) AddGroup(title string, private bool, ownerID uuid.UUID) entity.Group {
	g := entity.Group{Title: title, IsPrivate: private}
	_ = s.Groups().Create(context.Background(), &g, ownerID)
	return g
}

func (s *Store) Invites() inviteRepo.InviteRepository            { return invites{s} }
func (s *Store) Groups() groupRepo.GroupRepository               { return groups{s} }
func (s *Store) Profiles() profileRepo.ProfileRepository         { return profiles{s} }
func (s *Store) Notifications() notifRepo.NotificationRepository { return notifications{s} }

// InviteRows returns every invite row in insertion order.
func (s *Store) InviteRows() []entity.GroupInvite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.GroupInvite(nil), s.invites...)
}

// NotificationRows returns every notification in insertion order.
func (s *Store) NotificationRows() []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Notification(nil), s.notifications...)
}

type invites struct{ s *Store }

func (r invites) CreatePending(_ context.Context, invite *entity.GroupInvite) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.invites {
		if existing.GroupID == invite.GroupID && existing.InviteeID == invite.InviteeID && existing.Status == entity.InvitePending {
			return inviteRepo.ErrPendingExists
		}
	}
	invite.ID = uuid.New()
	invite.Status = entity.InvitePending
	invite.CreatedAt = s.tick()
	invite.UpdatedAt = invite.CreatedAt
	s.invites = append(s.invites, *invite)
	return nil
}

func (r invites) FindByID(_ context.Context, id uuid.UUID) (*entity.GroupInvite, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, invite := range s.invites {
		if invite.ID == id {
			if g, ok := s.groups[invite.GroupID]; ok {
				invite.Group = &g
			}
			return &invite, nil
		}
	}
	return nil, nil
}

func (r invites) Transition(_ context.Context, id uuid.UUID, status entity.InviteStatus) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for i := range s.invites {
		if s.invites[i].ID == id && s.invites[i].Status == entity.InvitePending {
			s.invites[i].Status = status
			s.invites[i].UpdatedAt = s.tick()
			return true, nil
		}
	}
	return false, nil
}

func (r invites) ListPendingForUser(_ context.Context, userID uuid.UUID) ([]entity.GroupInvite, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []entity.GroupInvite
	for i := len(s.invites) - 1; i >= 0; i-- {
		invite := s.invites[i]
		if invite.InviteeID != userID || invite.Status != entity.InvitePending {
			continue
		}
		if g, ok := s.groups[invite.GroupID]; ok {
			invite.Group = &g
		}
		if p, ok := s.profiles[invite.InviterID]; ok {
			invite.Inviter = &p
		}
		out = append(out, invite)
	}
	return out, nil
}

func (r invites) HasAccepted(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, invite := range s.invites {
		if invite.GroupID == groupID && invite.InviteeID == userID && invite.Status == entity.InviteAccepted {
			return true, nil
		}
	}
	return false, nil
}

type groups struct{ s *Store }

func (r groups) Create(_ context.Context, group *entity.Group, ownerID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	group.ID = uuid.New()
	group.CreatedAt = s.tick()
	s.groups[group.ID] = *group
	s.members = append(s.members, entity.GroupMember{ID: uuid.New(), GroupID: group.ID, UserID: ownerID, Role: entity.RoleOwner})
	return nil
}

func (r groups) FindByID(_ context.Context, id uuid.UUID) (*entity.Group, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r groups) isMember(groupID, userID uuid.UUID) bool {
	for _, m := range r.s.members {
		if m.GroupID == groupID && m.UserID == userID {
			return true
		}
	}
	return false
}

func (r groups) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return r.isMember(groupID, userID), nil
}

func (r groups) AddMember(_ context.Context, member *entity.GroupMember) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if r.isMember(member.GroupID, member.UserID) {
		return groupRepo.ErrMemberExists
	}
	member.ID = uuid.New()
	s.members = append(s.members, *member)
	return nil
}

func (r groups) ListForUser(_ context.Context, userID uuid.UUID) ([]groupRepo.GroupSummary, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []groupRepo.GroupSummary
	for _, m := range s.members {
		if m.UserID != userID {
			continue
		}
		var count int64
		for _, other := range s.members {
			if other.GroupID == m.GroupID {
				count++
			}
		}
		out = append(out, groupRepo.GroupSummary{Group: s.groups[m.GroupID], Role: m.Role, MemberCount: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r groups) MemberIDs(_ context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var ids []uuid.UUID
	for _, m := range s.members {
		if m.GroupID == groupID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

type profiles struct{ s *Store }

func (r profiles) FindByID(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r profiles) FindByUsername(_ context.Context, username string) (*entity.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.profiles {
		if strings.EqualFold(p.Username, username) {
			return &p, nil
		}
	}
	return nil, nil
}

func (r profiles) FindByUsernamePrefix(_ context.Context, prefix string, limit int) ([]entity.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []entity.Profile
	for _, p := range s.profiles {
		if strings.HasPrefix(strings.ToLower(p.Username), strings.ToLower(prefix)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type notifications struct{ s *Store }

func (r notifications) Create(_ context.Context, n *entity.Notification) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = s.tick()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (r notifications) FindByID(_ context.Context, id uuid.UUID) (*entity.Notification, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, n := range s.notifications {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, nil
}

func (r notifications) GetByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []entity.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	if offset >= len(out) {
		return []entity.Notification{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r notifications) MarkAsRead(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r notifications) MarkAllAsRead(_ context.Context, userID uuid.UUID) ([]entity.Notification, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var marked []entity.Notification
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			marked = append(marked, s.notifications[i])
		}
	}
	return marked, nil
}

func (r notifications) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, item := range s.notifications {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

// SetErr sets or clears the failure injected into every call.
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}
