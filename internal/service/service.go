package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/config"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/notification"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
)

var (
	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")

	// Membership and requests
	ErrAlreadyMember          = errors.New("user is already a member of this desk")
	ErrNotAMember             = errors.New("user is not a member of this desk")
	ErrDuplicateRequest       = errors.New("a pending request already exists")
	ErrAlreadyFriends         = errors.New("users are already friends")
	ErrNotFriends             = errors.New("users are not friends")
	ErrRequestNotFound        = errors.New("request not found")
	ErrRequestAlreadyResolved = errors.New("request has already been resolved")
	ErrUnauthorized           = errors.New("not permitted to perform this action")
	ErrDeskNotFound           = errors.New("desk not found")
	ErrDeskNotCollaborative   = errors.New("desk is not collaborative")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotificationNotFound   = errors.New("notification not found")

	// Infrastructure
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrFeatureUnavailable = errors.New("feature not available on this server")
)

// backend wraps a storage failure so callers can match ErrBackendUnavailable
// while the underlying cause stays inspectable.
func backend(err error) error {
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}

// ============================================
// Collaborators
// ============================================

// Notifier delivers in-app notifications. Every method returns immediately;
// delivery happens out of band and failures are only logged.
type Notifier interface {
	NotifyMemberAdded(userID string, desk *repository.Desk, addedBy *repository.User)
	NotifyMemberRequest(desk *repository.Desk, req *repository.DeskMemberRequest, requester, target *repository.User)
	NotifyMemberRequestResolved(desk *repository.Desk, req *repository.DeskMemberRequest, target *repository.User)
	DispatchFriendRequestEvent(event notification.FriendRequestEvent)
}

// Broadcaster pushes realtime events to connected clients.
type Broadcaster interface {
	BroadcastMemberAdded(deskID string, member map[string]interface{}, excludeUserID string)
	BroadcastMemberRemoved(deskID, userID, excludeUserID string)
	BroadcastMemberRequestCreated(deskID, ownerID string, request map[string]interface{})
	BroadcastMemberRequestResolved(deskID string, request map[string]interface{}, excludeUserID string)
	BroadcastFriendRequestUpdated(userIDs []string, request map[string]interface{})
	BroadcastDeskUpdated(deskID string, desk map[string]interface{}, excludeUserID string)
	BroadcastDeskDeleted(deskID, excludeUserID string)
}

// MemberCache caches raw member rows per desk. Implementations log their own
// failures; a miss or error simply falls through to the repository.
//
// Every Invalidate bumps the desk's generation. GetMembers reports the
// generation on a miss and SetMembers drops rows read under an older one, so a
// read that raced a mutation never repopulates the cache. A negative
// generation means it could not be read and SetMembers does nothing.
type MemberCache interface {
	GetMembers(ctx context.Context, deskID string) (members []*repository.DeskMember, generation int64, ok bool)
	SetMembers(ctx context.Context, deskID string, generation int64, members []*repository.DeskMember)
	Invalidate(ctx context.Context, deskID string)
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth          AuthService
	User          UserService
	Desk          DeskService
	Member        MemberService
	MemberRequest MemberRequestService
	Friend        FriendService
	Notification  NotificationService
	Capabilities  Capabilities
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config       *config.Config
	Repos        *repository.Repositories
	Notifier     Notifier
	Broadcaster  Broadcaster
	MemberCache  MemberCache
	Capabilities Capabilities
}

func NewServices(deps *ServiceDeps) *Services {
	memberService := NewMemberService(
		deps.Repos.DeskRepo,
		deps.Repos.UserRepo,
		deps.Repos.FriendRequestRepo,
		deps.Notifier,
		deps.Broadcaster,
		deps.MemberCache,
	)

	return &Services{
		Auth:   NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:   NewUserService(deps.Repos.UserRepo, deps.Repos.DeskRepo, deps.MemberCache),
		Desk:   NewDeskService(deps.Repos.DeskRepo, deps.Broadcaster, deps.MemberCache),
		Member: memberService,
		MemberRequest: NewMemberRequestService(
			deps.Repos.MemberRequestRepo,
			deps.Repos.DeskRepo,
			deps.Repos.UserRepo,
			deps.Repos.FriendRequestRepo,
			memberService,
			deps.Notifier,
			deps.Broadcaster,
			deps.MemberCache,
			deps.Capabilities,
		),
		Friend: NewFriendService(
			deps.Repos.FriendRequestRepo,
			deps.Repos.UserRepo,
			deps.Notifier,
			deps.Broadcaster,
		),
		Notification: NewNotificationService(deps.Repos.NotificationRepo),
		Capabilities: deps.Capabilities,
	}
}
