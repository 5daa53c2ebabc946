package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================
// In-memory store
// ============================================

// memoryStore holds every table behind one lock so that cross-table operations
// (desk creation, request approval) stay atomic, as they are in Postgres.
type memoryStore struct {
	mu sync.RWMutex

	users         map[string]*User
	refreshTokens map[string]*RefreshToken

	desks   map[string]*Desk
	members map[string][]*DeskMember // desk id -> rows in join order

	memberRequests []*DeskMemberRequest
	friendRequests []*FriendRequest
	notifications  []*Notification
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         make(map[string]*User),
		refreshTokens: make(map[string]*RefreshToken),
		desks:         make(map[string]*Desk),
		members:       make(map[string][]*DeskMember),
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (s *memoryStore) member(deskID, userID string) *DeskMember {
	for _, m := range s.members[deskID] {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

func (s *memoryStore) insertMember(deskID, userID string, isOwner bool) *DeskMember {
	m := &DeskMember{DeskID: deskID, UserID: userID, IsOwner: isOwner, JoinedAt: time.Now()}
	s.members[deskID] = append(s.members[deskID], m)
	return m
}

// ============================================
// Users
// ============================================

type inMemoryUserRepository struct {
	s *memoryStore
}

func (r *inMemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}

	now := time.Now()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastActiveAt = &now
	if user.Status == "" {
		user.Status = "online"
	}
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *inMemoryUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return copyUser(r.s.users[id]), nil
}

func (r *inMemoryUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []*User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *inMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepository) Search(ctx context.Context, query string, limit int) ([]*User, error) {
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(strings.TrimSpace(query))

	r.s.mu.RLock()
	var users []*User
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(strings.ToLower(u.PreferredName), q) {
			users = append(users, copyUser(u))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Email) < strings.ToLower(users[j].Email)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *inMemoryUserRepository) Update(ctx context.Context, user *User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return ErrNoRows
	}
	existing.PreferredName = user.PreferredName
	existing.Status = user.Status
	existing.UpdatedAt = time.Now()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *inMemoryUserRepository) UpdateLastActive(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[userID]; ok {
		now := time.Now()
		u.LastActiveAt = &now
		u.Status = "online"
	}
	return nil
}

func (r *inMemoryUserRepository) UpdateStatusForInactive(ctx context.Context, inactiveDuration time.Duration) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := time.Now().Add(-inactiveDuration)
	count := 0
	for _, u := range r.s.users {
		if u.Status == "online" && u.LastActiveAt != nil && u.LastActiveAt.Before(cutoff) {
			u.Status = "away"
			count++
		}
	}
	return count, nil
}

func (r *inMemoryUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	c := *token
	r.s.refreshTokens[token.Token] = &c
	return nil
}

func (r *inMemoryUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rt, ok := r.s.refreshTokens[token]
	if !ok {
		return nil, nil
	}
	c := *rt
	return &c, nil
}

func (r *inMemoryUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.refreshTokens, token)
	return nil
}

func (r *inMemoryUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for token, rt := range r.s.refreshTokens {
		if rt.UserID == userID {
			delete(r.s.refreshTokens, token)
		}
	}
	return nil
}

// ============================================
// Desks and members
// ============================================

type inMemoryDeskRepository struct {
	s *memoryStore
}

func (r *inMemoryDeskRepository) Create(ctx context.Context, desk *Desk) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	desk.ID = uuid.New().String()
	desk.CreatedAt = now
	desk.UpdatedAt = now
	c := *desk
	r.s.desks[desk.ID] = &c
	r.s.insertMember(desk.ID, desk.OwnerID, true)
	return nil
}

func (r *inMemoryDeskRepository) FindByID(ctx context.Context, id string) (*Desk, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.desks[id]
	if !ok {
		return nil, nil
	}
	c := *d
	return &c, nil
}

func (r *inMemoryDeskRepository) FindByUserID(ctx context.Context, userID string) ([]*Desk, error) {
	r.s.mu.RLock()
	var desks []*Desk
	for id, d := range r.s.desks {
		if r.s.member(id, userID) != nil {
			c := *d
			desks = append(desks, &c)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(desks, func(i, j int) bool {
		oi, oj := desks[i].OwnerID == userID, desks[j].OwnerID == userID
		if oi != oj {
			return oi
		}
		ni, nj := strings.ToLower(desks[i].Name), strings.ToLower(desks[j].Name)
		if ni != nj {
			return ni < nj
		}
		return desks[i].ID < desks[j].ID
	})
	return desks, nil
}

func (r *inMemoryDeskRepository) UpdateName(ctx context.Context, id, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.desks[id]
	if !ok {
		return ErrNoRows
	}
	d.Name = name
	d.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryDeskRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.desks[id]; !ok {
		return ErrNoRows
	}
	delete(r.s.desks, id)
	delete(r.s.members, id)

	kept := r.s.memberRequests[:0]
	for _, req := range r.s.memberRequests {
		if req.DeskID != id {
			kept = append(kept, req)
		}
	}
	r.s.memberRequests = kept
	return nil
}

func (r *inMemoryDeskRepository) AddMember(ctx context.Context, deskID, userID, addedBy string) (*DeskMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.member(deskID, userID) != nil {
		return nil, ErrDuplicate
	}
	m := r.s.insertMember(deskID, userID, false)

	now := time.Now()
	for _, req := range r.s.memberRequests {
		if req.DeskID == deskID && req.TargetFriendID == userID && req.Status == "pending" {
			resolver := addedBy
			req.Status = "approved"
			req.ResolvedBy = &resolver
			req.ResolvedAt = &now
		}
	}

	c := *m
	return &c, nil
}

func (r *inMemoryDeskRepository) FindMember(ctx context.Context, deskID, userID string) (*DeskMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m := r.s.member(deskID, userID)
	if m == nil {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r *inMemoryDeskRepository) FindMembers(ctx context.Context, deskID string) ([]*DeskMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	members := make([]*DeskMember, 0, len(r.s.members[deskID]))
	for _, m := range r.s.members[deskID] {
		u, ok := r.s.users[m.UserID]
		if !ok {
			continue
		}
		c := *m
		c.User = copyUser(u)
		c.User.Password = ""
		members = append(members, &c)
	}
	return members, nil
}

func (r *inMemoryDeskRepository) RemoveMember(ctx context.Context, deskID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := r.s.members[deskID]
	for i, m := range rows {
		if m.UserID == userID && !m.IsOwner {
			r.s.members[deskID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrNoRows
}

// ============================================
// Desk member requests
// ============================================

type inMemoryMemberRequestRepository struct {
	s *memoryStore
}

func (r *inMemoryMemberRequestRepository) Create(ctx context.Context, req *DeskMemberRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.memberRequests {
		if existing.DeskID == req.DeskID && existing.TargetFriendID == req.TargetFriendID && existing.Status == "pending" {
			return ErrDuplicate
		}
	}

	req.ID = uuid.New().String()
	req.Status = "pending"
	req.CreatedAt = time.Now()
	c := *req
	r.s.memberRequests = append(r.s.memberRequests, &c)
	return nil
}

func (r *inMemoryMemberRequestRepository) find(id string) *DeskMemberRequest {
	for _, req := range r.s.memberRequests {
		if req.ID == id {
			return req
		}
	}
	return nil
}

func (r *inMemoryMemberRequestRepository) FindByID(ctx context.Context, id string) (*DeskMemberRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req := r.find(id)
	if req == nil {
		return nil, nil
	}
	c := *req
	return &c, nil
}

func (r *inMemoryMemberRequestRepository) FindPendingByDesk(ctx context.Context, deskID string) ([]*DeskMemberRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var requests []*DeskMemberRequest
	for _, req := range r.s.memberRequests {
		if req.DeskID == deskID && req.Status == "pending" {
			c := *req
			requests = append(requests, &c)
		}
	}
	return requests, nil
}

func (r *inMemoryMemberRequestRepository) resolve(id, resolverID, status string) (*DeskMemberRequest, error) {
	req := r.find(id)
	if req == nil || req.Status != "pending" {
		return nil, ErrNotPending
	}
	now := time.Now()
	resolver := resolverID
	req.Status = status
	req.ResolvedBy = &resolver
	req.ResolvedAt = &now
	c := *req
	return &c, nil
}

func (r *inMemoryMemberRequestRepository) Approve(ctx context.Context, id, resolverID string) (*DeskMemberRequest, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, err := r.resolve(id, resolverID, "approved")
	if err != nil {
		return nil, false, err
	}
	if r.s.member(req.DeskID, req.TargetFriendID) != nil {
		return req, false, nil
	}
	r.s.insertMember(req.DeskID, req.TargetFriendID, false)
	return req, true, nil
}

func (r *inMemoryMemberRequestRepository) Decline(ctx context.Context, id, resolverID string) (*DeskMemberRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.resolve(id, resolverID, "declined")
}

// ============================================
// Friend requests
// ============================================

type inMemoryFriendRequestRepository struct {
	s *memoryStore
}

func samePair(req *FriendRequest, a, b string) bool {
	return (req.SenderID == a && req.ReceiverID == b) || (req.SenderID == b && req.ReceiverID == a)
}

func (r *inMemoryFriendRequestRepository) Create(ctx context.Context, req *FriendRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.friendRequests {
		if existing.Status == "pending" && samePair(existing, req.SenderID, req.ReceiverID) {
			return ErrDuplicate
		}
	}

	now := time.Now()
	req.ID = uuid.New().String()
	req.Status = "pending"
	req.CreatedAt = now
	req.UpdatedAt = now
	c := *req
	r.s.friendRequests = append(r.s.friendRequests, &c)
	return nil
}

func (r *inMemoryFriendRequestRepository) FindByID(ctx context.Context, id string) (*FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, req := range r.s.friendRequests {
		if req.ID == id {
			c := *req
			return &c, nil
		}
	}
	return nil, nil
}

// newestFirst walks requests in reverse insertion order.
func (r *inMemoryFriendRequestRepository) newestFirst(match func(*FriendRequest) bool) []*FriendRequest {
	var requests []*FriendRequest
	for i := len(r.s.friendRequests) - 1; i >= 0; i-- {
		if req := r.s.friendRequests[i]; match(req) {
			c := *req
			requests = append(requests, &c)
		}
	}
	return requests
}

func (r *inMemoryFriendRequestRepository) FindBetween(ctx context.Context, userA, userB string) ([]*FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.newestFirst(func(req *FriendRequest) bool { return samePair(req, userA, userB) }), nil
}

func (r *inMemoryFriendRequestRepository) FindByUser(ctx context.Context, userID string) ([]*FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.newestFirst(func(req *FriendRequest) bool {
		return req.SenderID == userID || req.ReceiverID == userID
	}), nil
}

func (r *inMemoryFriendRequestRepository) UpdateStatus(ctx context.Context, id, from, to string) (*FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, req := range r.s.friendRequests {
		if req.ID == id {
			if req.Status != from {
				return nil, ErrNotPending
			}
			req.Status = to
			req.UpdatedAt = time.Now()
			c := *req
			return &c, nil
		}
	}
	return nil, ErrNotPending
}

// ============================================
// Notifications
// ============================================

type inMemoryNotificationRepository struct {
	s *memoryStore
}

func (r *inMemoryNotificationRepository) Create(ctx context.Context, n *Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n.ID = uuid.New().String()
	n.CreatedAt = time.Now()
	c := *n
	r.s.notifications = append(r.s.notifications, &c)
	return nil
}

func (r *inMemoryNotificationRepository) FindByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*Notification
	for i := len(r.s.notifications) - 1; i >= 0 && len(result) < limit; i-- {
		n := r.s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		c := *n
		result = append(result, &c)
	}
	return result, nil
}

func (r *inMemoryNotificationRepository) CountByUserID(ctx context.Context, userID string) (int, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total, unread := 0, 0
	for _, n := range r.s.notifications {
		if n.UserID != userID {
			continue
		}
		total++
		if !n.Read {
			unread++
		}
	}
	return total, unread, nil
}

func (r *inMemoryNotificationRepository) MarkAsRead(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, n := range r.s.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return ErrNoRows
}

func (r *inMemoryNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (r *inMemoryNotificationRepository) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, n := range r.s.notifications {
		if n.ID == id && n.UserID == userID {
			r.s.notifications = append(r.s.notifications[:i], r.s.notifications[i+1:]...)
			return nil
		}
	}
	return ErrNoRows
}

func (r *inMemoryNotificationRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.notifications[:0]
	removed := 0
	for _, n := range r.s.notifications {
		if n.CreatedAt.Before(olderThan) && (!readOnly || n.Read) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	r.s.notifications = kept
	return removed, nil
}
