package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/roster"
)

// MemberService is the authoritative membership store of a desk.
type MemberService interface {
	ListMembers(ctx context.Context, deskID, viewerID string) ([]*MemberView, error)
	AddMember(ctx context.Context, deskID, actorID, userID string) (*repository.DeskMember, error)
	RemoveMember(ctx context.Context, deskID, actorID, userID string) error
	LeaveDesk(ctx context.Context, deskID, userID string) error
	IsMember(ctx context.Context, deskID, userID string) (bool, error)
}

// MemberView is one row of a desk's member list as seen by a particular viewer.
type MemberView struct {
	User         *repository.User
	Display      roster.Display
	IsOwner      bool
	JoinedAt     time.Time
	Relationship roster.Relationship
}

type memberService struct {
	deskRepo          repository.DeskRepository
	userRepo          repository.UserRepository
	friendRequestRepo repository.FriendRequestRepository
	notifier          Notifier
	broadcaster       Broadcaster
	cache             MemberCache
}

func NewMemberService(
	deskRepo repository.DeskRepository,
	userRepo repository.UserRepository,
	friendRequestRepo repository.FriendRequestRepository,
	notifier Notifier,
	broadcaster Broadcaster,
	cache MemberCache,
) MemberService {
	return &memberService{
		deskRepo:          deskRepo,
		userRepo:          userRepo,
		friendRequestRepo: friendRequestRepo,
		notifier:          notifier,
		broadcaster:       broadcaster,
		cache:             cache,
	}
}

// loadMembers reads member rows through the cache when one is configured.
func (s *memberService) loadMembers(ctx context.Context, deskID string) ([]*repository.DeskMember, error) {
	generation := int64(-1)
	if s.cache != nil {
		members, gen, ok := s.cache.GetMembers(ctx, deskID)
		if ok {
			return members, nil
		}
		generation = gen
	}

	members, err := s.deskRepo.FindMembers(ctx, deskID)
	if err != nil {
		return nil, backend(err)
	}

	if s.cache != nil {
		s.cache.SetMembers(ctx, deskID, generation, members)
	}
	return members, nil
}

func (s *memberService) invalidate(ctx context.Context, deskID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, deskID)
	}
}

func (s *memberService) ListMembers(ctx context.Context, deskID, viewerID string) ([]*MemberView, error) {
	if _, err := findDesk(ctx, s.deskRepo, deskID); err != nil {
		return nil, err
	}

	members, err := s.loadMembers(ctx, deskID)
	if err != nil {
		return nil, err
	}

	isMember := false
	for _, m := range members {
		if m.UserID == viewerID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, ErrUnauthorized
	}

	requests, err := s.friendRequestRepo.FindByUser(ctx, viewerID)
	if err != nil {
		return nil, backend(err)
	}
	rels := roster.NewRelationships(viewerID, requests)

	roster.SortMembers(members, viewerID, rels)

	views := make([]*MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, &MemberView{
			User:         m.User,
			Display:      roster.ForUser(m.User),
			IsOwner:      m.IsOwner,
			JoinedAt:     m.JoinedAt,
			Relationship: rels.Classify(m.UserID),
		})
	}
	return views, nil
}

func (s *memberService) AddMember(ctx context.Context, deskID, actorID, userID string) (*repository.DeskMember, error) {
	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return nil, err
	}
	if desk.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	if !desk.IsCollaborative {
		return nil, ErrDeskNotCollaborative
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, backend(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	member, err := s.deskRepo.AddMember(ctx, deskID, userID, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, backend(err)
	}
	member.User = user
	s.invalidate(ctx, deskID)

	log.Printf("[Member] user %s added to desk %s by %s", userID, deskID, actorID)
	s.announceMemberAdded(ctx, desk, member, actorID)
	return member, nil
}

// announceMemberAdded broadcasts the new row to the desk room and notifies the added user.
func (s *memberService) announceMemberAdded(ctx context.Context, desk *repository.Desk, member *repository.DeskMember, actorID string) {
	if s.broadcaster != nil {
		display := roster.ForUser(member.User)
		s.broadcaster.BroadcastMemberAdded(desk.ID, map[string]interface{}{
			"deskId":    desk.ID,
			"userId":    member.UserID,
			"isOwner":   member.IsOwner,
			"joinedAt":  member.JoinedAt,
			"primary":   display.Primary,
			"secondary": display.Secondary,
		}, actorID)
	}

	if s.notifier != nil && member.UserID != actorID {
		actor, err := s.userRepo.FindByID(ctx, actorID)
		if err != nil {
			log.Printf("[Member] failed to load actor %s for notification: %v", actorID, err)
		}
		s.notifier.NotifyMemberAdded(member.UserID, desk, actor)
	}
}

func (s *memberService) RemoveMember(ctx context.Context, deskID, actorID, userID string) error {
	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return err
	}
	if desk.OwnerID != actorID || userID == desk.OwnerID {
		return ErrUnauthorized
	}
	return s.removeRow(ctx, deskID, userID, actorID)
}

func (s *memberService) LeaveDesk(ctx context.Context, deskID, userID string) error {
	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return err
	}
	if userID == desk.OwnerID {
		return ErrUnauthorized
	}
	return s.removeRow(ctx, deskID, userID, userID)
}

func (s *memberService) removeRow(ctx context.Context, deskID, userID, actorID string) error {
	if err := s.deskRepo.RemoveMember(ctx, deskID, userID); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return ErrNotAMember
		}
		return backend(err)
	}
	s.invalidate(ctx, deskID)

	log.Printf("[Member] user %s removed from desk %s by %s", userID, deskID, actorID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberRemoved(deskID, userID, actorID)
	}
	return nil
}

func (s *memberService) IsMember(ctx context.Context, deskID, userID string) (bool, error) {
	member, err := s.deskRepo.FindMember(ctx, deskID, userID)
	if err != nil {
		return false, backend(err)
	}
	return member != nil, nil
}
