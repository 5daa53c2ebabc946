package service

import (
	"context"
	"errors"
	"log"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/roster"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/types"
)

// ============================================
// Member Request Service
// ============================================

// MemberRequestService lets collaborators propose friends for a desk and the
// owner approve or decline those proposals.
type MemberRequestService interface {
	RequestAdd(ctx context.Context, deskID, requesterID, targetFriendID string) (*RequestAddResult, error)
	Respond(ctx context.Context, requestID, actorID, decision string) (*repository.DeskMemberRequest, error)
	ListPendingRequests(ctx context.Context, deskID, actorID string) ([]*PendingRequestView, error)
}

// RequestAddResult holds exactly one of Request (a pending proposal was filed)
// or Member (the owner asked, so the friend was added directly).
type RequestAddResult struct {
	Request *repository.DeskMemberRequest
	Member  *repository.DeskMember
}

type PendingRequestView struct {
	Request          *repository.DeskMemberRequest
	RequesterDisplay roster.Display
	TargetDisplay    roster.Display
}

type memberRequestService struct {
	requestRepo       repository.MemberRequestRepository
	deskRepo          repository.DeskRepository
	userRepo          repository.UserRepository
	friendRequestRepo repository.FriendRequestRepository
	members           MemberService
	notifier          Notifier
	broadcaster       Broadcaster
	cache             MemberCache
	caps              Capabilities
}

func NewMemberRequestService(
	requestRepo repository.MemberRequestRepository,
	deskRepo repository.DeskRepository,
	userRepo repository.UserRepository,
	friendRequestRepo repository.FriendRequestRepository,
	members MemberService,
	notifier Notifier,
	broadcaster Broadcaster,
	cache MemberCache,
	caps Capabilities,
) MemberRequestService {
	return &memberRequestService{
		requestRepo:       requestRepo,
		deskRepo:          deskRepo,
		userRepo:          userRepo,
		friendRequestRepo: friendRequestRepo,
		members:           members,
		notifier:          notifier,
		broadcaster:       broadcaster,
		cache:             cache,
		caps:              caps,
	}
}

func (s *memberRequestService) RequestAdd(ctx context.Context, deskID, requesterID, targetFriendID string) (*RequestAddResult, error) {
	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.deskRepo, deskID, requesterID); err != nil {
		return nil, err
	}
	if !desk.IsCollaborative {
		return nil, ErrDeskNotCollaborative
	}

	target, err := s.userRepo.FindByID(ctx, targetFriendID)
	if err != nil {
		return nil, backend(err)
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.deskRepo.FindMember(ctx, deskID, targetFriendID)
	if err != nil {
		return nil, backend(err)
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	friends, err := areFriends(ctx, s.friendRequestRepo, requesterID, targetFriendID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, ErrNotFriends
	}

	// The owner needs no approval.
	if requesterID == desk.OwnerID {
		member, err := s.members.AddMember(ctx, deskID, requesterID, targetFriendID)
		if err != nil {
			return nil, err
		}
		return &RequestAddResult{Member: member}, nil
	}

	if !s.caps.MemberRequests {
		return nil, ErrFeatureUnavailable
	}

	req := &repository.DeskMemberRequest{
		DeskID:         deskID,
		RequesterID:    requesterID,
		TargetFriendID: targetFriendID,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, backend(err)
	}

	log.Printf("[MemberRequest] %s proposed %s for desk %s", requesterID, targetFriendID, deskID)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberRequestCreated(deskID, desk.OwnerID, requestPayload(req))
	}
	if s.notifier != nil {
		requester, err := s.userRepo.FindByID(ctx, requesterID)
		if err != nil {
			log.Printf("[MemberRequest] failed to load requester %s: %v", requesterID, err)
		}
		s.notifier.NotifyMemberRequest(desk, req, requester, target)
	}

	return &RequestAddResult{Request: req}, nil
}

func (s *memberRequestService) Respond(ctx context.Context, requestID, actorID, decision string) (*repository.DeskMemberRequest, error) {
	if !s.caps.MemberRequests {
		return nil, ErrFeatureUnavailable
	}
	if !types.IsValidMemberRequestDecision(decision) {
		return nil, ErrInvalidInput
	}

	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, backend(err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	desk, err := findDesk(ctx, s.deskRepo, req.DeskID)
	if err != nil {
		return nil, err
	}
	if desk.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	if req.Status != types.MemberRequestPending {
		return nil, ErrRequestAlreadyResolved
	}

	var (
		resolved *repository.DeskMemberRequest
		joined   bool
	)
	if decision == types.MemberRequestApproved {
		resolved, joined, err = s.requestRepo.Approve(ctx, requestID, actorID)
	} else {
		resolved, err = s.requestRepo.Decline(ctx, requestID, actorID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, ErrRequestAlreadyResolved
		}
		return nil, backend(err)
	}

	log.Printf("[MemberRequest] request %s %s by %s", requestID, resolved.Status, actorID)

	target, err := s.userRepo.FindByID(ctx, resolved.TargetFriendID)
	if err != nil {
		log.Printf("[MemberRequest] failed to load target %s: %v", resolved.TargetFriendID, err)
	}

	// An approval whose target already had a row changes no membership.
	if joined {
		if s.cache != nil {
			s.cache.Invalidate(ctx, desk.ID)
		}
		if s.broadcaster != nil {
			display := roster.ForUser(target)
			s.broadcaster.BroadcastMemberAdded(desk.ID, map[string]interface{}{
				"deskId":    desk.ID,
				"userId":    resolved.TargetFriendID,
				"isOwner":   false,
				"primary":   display.Primary,
				"secondary": display.Secondary,
			}, actorID)
		}
		if s.notifier != nil {
			owner, err := s.userRepo.FindByID(ctx, actorID)
			if err != nil {
				log.Printf("[MemberRequest] failed to load owner %s: %v", actorID, err)
			}
			s.notifier.NotifyMemberAdded(resolved.TargetFriendID, desk, owner)
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberRequestResolved(desk.ID, requestPayload(resolved), actorID)
	}
	if s.notifier != nil {
		s.notifier.NotifyMemberRequestResolved(desk, resolved, target)
	}

	return resolved, nil
}

func (s *memberRequestService) ListPendingRequests(ctx context.Context, deskID, actorID string) ([]*PendingRequestView, error) {
	if !s.caps.MemberRequests {
		return nil, ErrFeatureUnavailable
	}

	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return nil, err
	}
	if desk.OwnerID != actorID {
		return nil, ErrUnauthorized
	}

	requests, err := s.requestRepo.FindPendingByDesk(ctx, deskID)
	if err != nil {
		return nil, backend(err)
	}

	ids := make([]string, 0, len(requests)*2)
	for _, req := range requests {
		ids = append(ids, req.RequesterID, req.TargetFriendID)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, backend(err)
	}
	byID := make(map[string]*repository.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]*PendingRequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, &PendingRequestView{
			Request:          req,
			RequesterDisplay: roster.ForUser(byID[req.RequesterID]),
			TargetDisplay:    roster.ForUser(byID[req.TargetFriendID]),
		})
	}
	return views, nil
}

func requestPayload(req *repository.DeskMemberRequest) map[string]interface{} {
	return map[string]interface{}{
		"id":             req.ID,
		"deskId":         req.DeskID,
		"requesterId":    req.RequesterID,
		"targetFriendId": req.TargetFriendID,
		"status":         req.Status,
		"createdAt":      req.CreatedAt,
	}
}
