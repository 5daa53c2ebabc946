package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/config"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/notification"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Fakes
// ============================================

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) record(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

func (b *recordingBroadcaster) BroadcastMemberAdded(deskID string, member map[string]interface{}, excludeUserID string) {
	b.record("member_added")
}
func (b *recordingBroadcaster) BroadcastMemberRemoved(deskID, userID, excludeUserID string) {
	b.record("member_removed")
}
func (b *recordingBroadcaster) BroadcastMemberRequestCreated(deskID, ownerID string, request map[string]interface{}) {
	b.record("member_request_created")
}
func (b *recordingBroadcaster) BroadcastMemberRequestResolved(deskID string, request map[string]interface{}, excludeUserID string) {
	b.record("member_request_resolved")
}
func (b *recordingBroadcaster) BroadcastFriendRequestUpdated(userIDs []string, request map[string]interface{}) {
	b.record("friend_request_updated")
}
func (b *recordingBroadcaster) BroadcastDeskUpdated(deskID string, desk map[string]interface{}, excludeUserID string) {
	b.record("desk_updated")
}
func (b *recordingBroadcaster) BroadcastDeskDeleted(deskID, excludeUserID string) {
	b.record("desk_deleted")
}

type recordingNotifier struct {
	mu           sync.Mutex
	added        []string
	requests     []string
	resolved     []string
	friendEvents []notification.FriendRequestEvent
}

func (n *recordingNotifier) NotifyMemberAdded(userID string, desk *repository.Desk, addedBy *repository.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, userID)
}

func (n *recordingNotifier) NotifyMemberRequest(desk *repository.Desk, req *repository.DeskMemberRequest, requester, target *repository.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, req.ID)
}

func (n *recordingNotifier) NotifyMemberRequestResolved(desk *repository.Desk, req *repository.DeskMemberRequest, target *repository.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolved = append(n.resolved, req.Status)
}

func (n *recordingNotifier) DispatchFriendRequestEvent(event notification.FriendRequestEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.friendEvents = append(n.friendEvents, event)
}

type memoryCache struct {
	mu          sync.Mutex
	rows        map[string][]*repository.DeskMember
	generations map[string]int64
	invalidated int
}

func (c *memoryCache) GetMembers(ctx context.Context, deskID string) ([]*repository.DeskMember, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows, ok := c.rows[deskID]
	if !ok {
		return nil, c.generations[deskID], false
	}
	return append([]*repository.DeskMember(nil), rows...), 0, true
}

func (c *memoryCache) SetMembers(ctx context.Context, deskID string, generation int64, members []*repository.DeskMember) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation < 0 || generation != c.generations[deskID] {
		return
	}
	if c.rows == nil {
		c.rows = make(map[string][]*repository.DeskMember)
	}
	c.rows[deskID] = append([]*repository.DeskMember(nil), members...)
}

func (c *memoryCache) Invalidate(ctx context.Context, deskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations == nil {
		c.generations = make(map[string]int64)
	}
	c.generations[deskID]++
	delete(c.rows, deskID)
	c.invalidated++
}

// ============================================
// Fixture
// ============================================

type fixture struct {
	t           *testing.T
	ctx         context.Context
	repos       *repository.Repositories
	services    *Services
	broadcaster *recordingBroadcaster
	notifier    *recordingNotifier
	cache       *memoryCache
}

func newFixture(t *testing.T, caps Capabilities) *fixture {
	t.Helper()
	f := &fixture{
		t:           t,
		ctx:         context.Background(),
		repos:       repository.NewInMemoryRepositories(),
		broadcaster: &recordingBroadcaster{},
		notifier:    &recordingNotifier{},
		cache:       &memoryCache{},
	}
	f.services = NewServices(&ServiceDeps{
		Config:       &config.Config{JWTSecret: "test-secret", JWTExpiry: 1, RefreshExpiry: 1},
		Repos:        f.repos,
		Notifier:     f.notifier,
		Broadcaster:  f.broadcaster,
		MemberCache:  f.cache,
		Capabilities: caps,
	})
	return f
}

func (f *fixture) user(email, name string) *repository.User {
	f.t.Helper()
	u := &repository.User{Email: email, PreferredName: name, Password: "hash", Status: types.UserOnline}
	require.NoError(f.t, f.repos.UserRepo.Create(f.ctx, u))
	return u
}

func (f *fixture) befriend(a, b *repository.User) {
	f.t.Helper()
	req, err := f.services.Friend.SendFriendRequest(f.ctx, a.ID, b.ID)
	require.NoError(f.t, err)
	_, err = f.services.Friend.RespondFriendRequest(f.ctx, req.ID, b.ID, true)
	require.NoError(f.t, err)
}

func (f *fixture) desk(owner *repository.User, collaborative bool) *repository.Desk {
	f.t.Helper()
	d, err := f.services.Desk.Create(f.ctx, owner.ID, "Desk", collaborative)
	require.NoError(f.t, err)
	return d
}

func (f *fixture) memberIDs(deskID, viewerID string) []string {
	f.t.Helper()
	views, err := f.services.Member.ListMembers(f.ctx, deskID, viewerID)
	require.NoError(f.t, err)
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.User.ID
	}
	return ids
}

// ============================================
// Membership Store
// ============================================

func TestDeskHasExactlyOneOwnerRow(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")
	d := f.desk(owner, true)

	views, err := f.services.Member.ListMembers(f.ctx, d.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsOwner)
	assert.Equal(t, d.OwnerID, views[0].User.ID)
}

func TestAddThenRemoveRestoresMembership(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")
	guest := f.user("guest@x.com", "Gus")
	d := f.desk(owner, true)

	before := f.memberIDs(d.ID, owner.ID)

	_, err := f.services.Member.AddMember(f.ctx, d.ID, owner.ID, guest.ID)
	require.NoError(t, err)
	assert.Len(t, f.memberIDs(d.ID, owner.ID), 2)

	_, err = f.services.Member.AddMember(f.ctx, d.ID, owner.ID, guest.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	require.NoError(t, f.services.Member.RemoveMember(f.ctx, d.ID, owner.ID, guest.ID))
	assert.Equal(t, before, f.memberIDs(d.ID, owner.ID))

	assert.ErrorIs(t, f.services.Member.RemoveMember(f.ctx, d.ID, owner.ID, guest.ID), ErrNotAMember)
	assert.Contains(t, f.broadcaster.Events(), "member_added")
	assert.Contains(t, f.broadcaster.Events(), "member_removed")
	assert.Equal(t, []string{guest.ID}, f.notifier.added)
}

func TestAddMemberRules(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")
	other := f.user("other@x.com", "Otto")
	guest := f.user("guest@x.com", "Gus")

	private := f.desk(owner, false)
	_, err := f.services.Member.AddMember(f.ctx, private.ID, owner.ID, guest.ID)
	assert.ErrorIs(t, err, ErrDeskNotCollaborative)

	shared := f.desk(owner, true)
	_, err = f.services.Member.AddMember(f.ctx, shared.ID, other.ID, guest.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.services.Member.AddMember(f.ctx, shared.ID, owner.ID, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.services.Member.AddMember(f.ctx, "missing", owner.ID, guest.ID)
	assert.ErrorIs(t, err, ErrDeskNotFound)
}

func TestOwnerCannotBeRemovedOrLeave(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")
	guest := f.user("guest@x.com", "Gus")
	d := f.desk(owner, true)
	_, err := f.services.Member.AddMember(f.ctx, d.ID, owner.ID, guest.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.services.Member.RemoveMember(f.ctx, d.ID, owner.ID, owner.ID), ErrUnauthorized)
	assert.ErrorIs(t, f.services.Member.RemoveMember(f.ctx, d.ID, guest.ID, owner.ID), ErrUnauthorized)
	assert.ErrorIs(t, f.services.Member.LeaveDesk(f.ctx, d.ID, owner.ID), ErrUnauthorized)

	require.NoError(t, f.services.Member.LeaveDesk(f.ctx, d.ID, guest.ID))
	assert.Equal(t, []string{owner.ID}, f.memberIDs(d.ID, owner.ID))
}

func TestListMembersOrderForViewer(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Zora")
	viewer := f.user("viewer@x.com", "Yuri")
	friend := f.user("friend@x.com", "Xena")
	stranger := f.user("stranger@x.com", "Abe")
	d := f.desk(owner, true)

	for _, u := range []*repository.User{stranger, friend, viewer} {
		_, err := f.services.Member.AddMember(f.ctx, d.ID, owner.ID, u.ID)
		require.NoError(t, err)
	}
	f.befriend(viewer, friend)

	assert.Equal(t, []string{owner.ID, viewer.ID, friend.ID, stranger.ID}, f.memberIDs(d.ID, viewer.ID))

	views, err := f.services.Member.ListMembers(f.ctx, d.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, views[2].Relationship.IsFriend)
	assert.Equal(t, "Xena", views[2].Display.Primary)

	_, err = f.services.Member.ListMembers(f.ctx, d.ID, "outsider")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMembershipMutationsInvalidateCache(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")
	guest := f.user("guest@x.com", "Gus")
	d := f.desk(owner, true)

	f.memberIDs(d.ID, owner.ID)
	_, _, cached := f.cache.GetMembers(f.ctx, d.ID)
	require.True(t, cached)

	_, err := f.services.Member.AddMember(f.ctx, d.ID, owner.ID, guest.ID)
	require.NoError(t, err)
	_, _, cached = f.cache.GetMembers(f.ctx, d.ID)
	assert.False(t, cached)

	assert.Len(t, f.memberIDs(d.ID, owner.ID), 2)
}

// racingDeskRepo invalidates the cache while a member read is in flight, as a
// concurrent mutation on another instance would.
type racingDeskRepo struct {
	repository.DeskRepository
	cache *memoryCache
}

func (r *racingDeskRepo) FindMembers(ctx context.Context, deskID string) ([]*repository.DeskMember, error) {
	members, err := r.DeskRepository.FindMembers(ctx, deskID)
	r.cache.Invalidate(ctx, deskID)
	return members, err
}

func TestStaleMemberReadDoesNotRepopulateCache(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")
	d := f.desk(owner, true)

	members := NewMemberService(&racingDeskRepo{DeskRepository: f.repos.DeskRepo, cache: f.cache},
		f.repos.UserRepo, f.repos.FriendRequestRepo, nil, nil, f.cache)

	views, err := members.ListMembers(f.ctx, d.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, _, cached := f.cache.GetMembers(f.ctx, d.ID)
	assert.False(t, cached, "rows read before an invalidation must not be cached")

	// An undisturbed read fills the cache again.
	f.memberIDs(d.ID, owner.ID)
	_, _, cached = f.cache.GetMembers(f.ctx, d.ID)
	assert.True(t, cached)
}

func TestProfileUpdateInvalidatesMemberCache(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")
	guest := f.user("guest@x.com", "Gus")
	d := f.desk(owner, true)
	_, err := f.services.Member.AddMember(f.ctx, d.ID, owner.ID, guest.ID)
	require.NoError(t, err)

	f.memberIDs(d.ID, owner.ID)
	_, _, cached := f.cache.GetMembers(f.ctx, d.ID)
	require.True(t, cached)

	name := "Augustus"
	_, err = f.services.User.UpdateProfile(f.ctx, guest.ID, &name)
	require.NoError(t, err)

	_, _, cached = f.cache.GetMembers(f.ctx, d.ID)
	assert.False(t, cached)

	views, err := f.services.Member.ListMembers(f.ctx, d.ID, owner.ID)
	require.NoError(t, err)
	var display string
	for _, v := range views {
		if v.User.ID == guest.ID {
			display = v.Display.Primary
		}
	}
	assert.Equal(t, "Augustus", display)
}

// ============================================
// Request Workflow
// ============================================

type requestSetup struct {
	*fixture
	owner, collab, target *repository.User
	desk                  *repository.Desk
}

func newRequestSetup(t *testing.T, caps Capabilities) *requestSetup {
	f := newFixture(t, caps)
	s := &requestSetup{
		fixture: f,
		owner:   f.user("owner@x.com", "Olive"),
		collab:  f.user("collab@x.com", "Cole"),
		target:  f.user("target@x.com", "Tara"),
	}
	s.desk = f.desk(s.owner, true)
	_, err := f.services.Member.AddMember(f.ctx, s.desk.ID, s.owner.ID, s.collab.ID)
	require.NoError(t, err)
	f.befriend(s.collab, s.target)
	return s
}

func TestRequestAddThenApprove(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())

	result, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.target.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Request)
	assert.Nil(t, result.Member)
	assert.Equal(t, types.MemberRequestPending, result.Request.Status)
	assert.Equal(t, []string{result.Request.ID}, s.notifier.requests)

	_, err = s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.target.ID)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	_, err = s.services.MemberRequest.Respond(s.ctx, result.Request.ID, s.collab.ID, types.MemberRequestApproved)
	assert.ErrorIs(t, err, ErrUnauthorized)

	resolved, err := s.services.MemberRequest.Respond(s.ctx, result.Request.ID, s.owner.ID, types.MemberRequestApproved)
	require.NoError(t, err)
	assert.Equal(t, types.MemberRequestApproved, resolved.Status)
	assert.Contains(t, s.memberIDs(s.desk.ID, s.owner.ID), s.target.ID)

	_, err = s.services.MemberRequest.Respond(s.ctx, result.Request.ID, s.owner.ID, types.MemberRequestApproved)
	assert.ErrorIs(t, err, ErrRequestAlreadyResolved)
	assert.Len(t, s.memberIDs(s.desk.ID, s.owner.ID), 3, "re-approval adds no second row")

	assert.Equal(t, []string{types.MemberRequestApproved}, s.notifier.resolved)
	assert.Contains(t, s.notifier.added, s.target.ID)
	assert.Contains(t, s.broadcaster.Events(), "member_request_resolved")
}

func TestRequestAddThenDecline(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())

	result, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.target.ID)
	require.NoError(t, err)

	resolved, err := s.services.MemberRequest.Respond(s.ctx, result.Request.ID, s.owner.ID, types.MemberRequestDeclined)
	require.NoError(t, err)
	assert.Equal(t, types.MemberRequestDeclined, resolved.Status)
	assert.NotContains(t, s.memberIDs(s.desk.ID, s.owner.ID), s.target.ID)

	_, err = s.services.MemberRequest.Respond(s.ctx, result.Request.ID, s.owner.ID, types.MemberRequestApproved)
	assert.ErrorIs(t, err, ErrRequestAlreadyResolved)
}

func TestRespondValidation(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())

	_, err := s.services.MemberRequest.Respond(s.ctx, "missing", s.owner.ID, types.MemberRequestApproved)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = s.services.MemberRequest.Respond(s.ctx, "missing", s.owner.ID, "maybe")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOwnerRequestAddNeverCreatesPendingRequest(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())
	s.befriend(s.owner, s.target)

	result, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.owner.ID, s.target.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Request)
	require.NotNil(t, result.Member)
	assert.Equal(t, s.target.ID, result.Member.UserID)

	pending, err := s.services.MemberRequest.ListPendingRequests(s.ctx, s.desk.ID, s.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRequestAddPreconditions(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())
	outsider := s.user("outsider@x.com", "Ozzy")
	stranger := s.user("stranger@x.com", "Stan")

	_, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, outsider.ID, s.target.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrNotFriends)

	_, err = s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.owner.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = s.services.MemberRequest.RequestAdd(s.ctx, "missing", s.collab.ID, s.target.ID)
	assert.ErrorIs(t, err, ErrDeskNotFound)

	private, err := s.services.Desk.Create(s.ctx, s.collab.ID, "Mine", false)
	require.NoError(t, err)
	_, err = s.services.MemberRequest.RequestAdd(s.ctx, private.ID, s.collab.ID, s.target.ID)
	assert.ErrorIs(t, err, ErrDeskNotCollaborative)
}

func TestListPendingRequestsOwnerOnly(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())
	_, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.target.ID)
	require.NoError(t, err)

	_, err = s.services.MemberRequest.ListPendingRequests(s.ctx, s.desk.ID, s.collab.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	views, err := s.services.MemberRequest.ListPendingRequests(s.ctx, s.desk.ID, s.owner.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Cole", views[0].RequesterDisplay.Primary)
	assert.Equal(t, "Tara", views[0].TargetDisplay.Primary)
	assert.Equal(t, "target@x.com", views[0].TargetDisplay.Secondary)
}

func TestDirectAddSettlesPendingRequest(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())
	s.befriend(s.owner, s.target)

	result, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.target.ID)
	require.NoError(t, err)

	_, err = s.services.Member.AddMember(s.ctx, s.desk.ID, s.owner.ID, s.target.ID)
	require.NoError(t, err)

	pending, err := s.services.MemberRequest.ListPendingRequests(s.ctx, s.desk.ID, s.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = s.services.MemberRequest.Respond(s.ctx, result.Request.ID, s.owner.ID, types.MemberRequestApproved)
	assert.ErrorIs(t, err, ErrRequestAlreadyResolved)

	assert.Equal(t, []string{s.collab.ID, s.target.ID}, s.notifier.added)
	assert.Equal(t, 2, countEvents(s.broadcaster.Events(), "member_added"))
}

// preemptedRequestRepo inserts the target's member row just before the
// pending request is stored, as if the owner added them in between.
type preemptedRequestRepo struct {
	repository.MemberRequestRepository
	desks   repository.DeskRepository
	ownerID string
}

func (r *preemptedRequestRepo) Create(ctx context.Context, req *repository.DeskMemberRequest) error {
	if _, err := r.desks.AddMember(ctx, req.DeskID, req.TargetFriendID, r.ownerID); err != nil {
		return err
	}
	return r.MemberRequestRepository.Create(ctx, req)
}

func TestApproveForExistingMemberIsIdempotent(t *testing.T) {
	s := newRequestSetup(t, LatestCapabilities())

	repos := *s.repos
	repos.MemberRequestRepo = &preemptedRequestRepo{
		MemberRequestRepository: s.repos.MemberRequestRepo,
		desks:                   s.repos.DeskRepo,
		ownerID:                 s.owner.ID,
	}
	s.services = NewServices(&ServiceDeps{
		Config:       &config.Config{JWTSecret: "test-secret", JWTExpiry: 1, RefreshExpiry: 1},
		Repos:        &repos,
		Notifier:     s.notifier,
		Broadcaster:  s.broadcaster,
		MemberCache:  s.cache,
		Capabilities: LatestCapabilities(),
	})

	result, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.target.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Request)
	addedBefore := countEvents(s.broadcaster.Events(), "member_added")

	resolved, err := s.services.MemberRequest.Respond(s.ctx, result.Request.ID, s.owner.ID, types.MemberRequestApproved)
	require.NoError(t, err)
	assert.Equal(t, types.MemberRequestApproved, resolved.Status)

	ids := s.memberIDs(s.desk.ID, s.owner.ID)
	assert.Len(t, ids, 3)
	assert.Equal(t, 1, countEvents(ids, s.target.ID))

	assert.Equal(t, []string{s.collab.ID}, s.notifier.added, "no member-added notification for an existing member")
	assert.Equal(t, addedBefore, countEvents(s.broadcaster.Events(), "member_added"))
	assert.Equal(t, []string{types.MemberRequestApproved}, s.notifier.resolved)
	assert.Contains(t, s.broadcaster.Events(), "member_request_resolved")
}

func countEvents(events []string, want string) int {
	n := 0
	for _, e := range events {
		if e == want {
			n++
		}
	}
	return n
}

func TestRequestWorkflowGatedBySchema(t *testing.T) {
	s := newRequestSetup(t, CapabilitiesForVersion(SchemaVersionInit))

	_, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.collab.ID, s.target.ID)
	assert.ErrorIs(t, err, ErrFeatureUnavailable)

	_, err = s.services.MemberRequest.ListPendingRequests(s.ctx, s.desk.ID, s.owner.ID)
	assert.ErrorIs(t, err, ErrFeatureUnavailable)

	_, err = s.services.MemberRequest.Respond(s.ctx, "any", s.owner.ID, types.MemberRequestApproved)
	assert.ErrorIs(t, err, ErrFeatureUnavailable)

	// Direct adds by the owner predate the request workflow.
	s.befriend(s.owner, s.target)
	result, err := s.services.MemberRequest.RequestAdd(s.ctx, s.desk.ID, s.owner.ID, s.target.ID)
	require.NoError(t, err)
	assert.NotNil(t, result.Member)
}

// ============================================
// Friends
// ============================================

func TestFriendRequestRules(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	ann := f.user("ann@x.com", "Ann")
	bob := f.user("bob@x.com", "Bob")

	_, err := f.services.Friend.SendFriendRequest(f.ctx, ann.ID, ann.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.services.Friend.SendFriendRequest(f.ctx, ann.ID, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	req, err := f.services.Friend.SendFriendRequest(f.ctx, ann.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.services.Friend.SendFriendRequest(f.ctx, ann.ID, bob.ID)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	_, err = f.services.Friend.SendFriendRequest(f.ctx, bob.ID, ann.ID)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	_, err = f.services.Friend.RespondFriendRequest(f.ctx, req.ID, ann.ID, true)
	assert.ErrorIs(t, err, ErrUnauthorized, "only the receiver responds")

	_, err = f.services.Friend.RespondFriendRequest(f.ctx, req.ID, bob.ID, true)
	require.NoError(t, err)

	_, err = f.services.Friend.RespondFriendRequest(f.ctx, req.ID, bob.ID, false)
	assert.ErrorIs(t, err, ErrRequestAlreadyResolved)

	_, err = f.services.Friend.SendFriendRequest(f.ctx, bob.ID, ann.ID)
	assert.ErrorIs(t, err, ErrAlreadyFriends)

	friends, err := f.services.Friend.ListFriends(f.ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].ID)

	require.Len(t, f.notifier.friendEvents, 2)
	assert.Equal(t, notification.FriendRequestEvent{
		ID: req.ID, SenderID: ann.ID, ReceiverID: bob.ID, Status: "pending", OldStatus: "",
	}, f.notifier.friendEvents[0])
	assert.Equal(t, "accepted", f.notifier.friendEvents[1].Status)
	assert.Equal(t, "pending", f.notifier.friendEvents[1].OldStatus)
}

func TestDeclinedFriendRequestDoesNotDispatch(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	ann := f.user("ann@x.com", "Ann")
	bob := f.user("bob@x.com", "Bob")

	req, err := f.services.Friend.SendFriendRequest(f.ctx, ann.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.services.Friend.RespondFriendRequest(f.ctx, req.ID, bob.ID, false)
	require.NoError(t, err)

	assert.Len(t, f.notifier.friendEvents, 1)

	// A declined pair may try again.
	_, err = f.services.Friend.SendFriendRequest(f.ctx, bob.ID, ann.ID)
	assert.NoError(t, err)
}

// ============================================
// Errors
// ============================================

type unavailableDeskRepo struct {
	repository.DeskRepository
}

func (unavailableDeskRepo) FindByID(ctx context.Context, id string) (*repository.Desk, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestStorageFailuresSurfaceAsBackendUnavailable(t *testing.T) {
	f := newFixture(t, LatestCapabilities())
	owner := f.user("owner@x.com", "Olive")

	members := NewMemberService(unavailableDeskRepo{f.repos.DeskRepo}, f.repos.UserRepo, f.repos.FriendRequestRepo, nil, nil, nil)
	_, err := members.ListMembers(f.ctx, "desk", owner.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}
