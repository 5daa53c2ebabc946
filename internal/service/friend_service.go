package service

import (
	"context"
	"errors"
	"log"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/notification"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/roster"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/types"
)

// ============================================
// Friend Service
// ============================================

type FriendService interface {
	SendFriendRequest(ctx context.Context, senderID, targetUserID string) (*repository.FriendRequest, error)
	RespondFriendRequest(ctx context.Context, requestID, actorID string, accept bool) (*repository.FriendRequest, error)
	ListFriendRequests(ctx context.Context, userID string) ([]*FriendRequestView, error)
	ListFriends(ctx context.Context, userID string) ([]*repository.User, error)
}

// FriendRequestView is a request seen from one side, with the other party resolved.
type FriendRequestView struct {
	Request  *repository.FriendRequest
	Other    *repository.User
	Display  roster.Display
	Incoming bool
}

type friendService struct {
	requestRepo repository.FriendRequestRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	broadcaster Broadcaster
}

func NewFriendService(
	requestRepo repository.FriendRequestRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	broadcaster Broadcaster,
) FriendService {
	return &friendService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// areFriends reports whether an accepted request exists between a and b in either direction.
func areFriends(ctx context.Context, repo repository.FriendRequestRepository, a, b string) (bool, error) {
	requests, err := repo.FindBetween(ctx, a, b)
	if err != nil {
		return false, backend(err)
	}
	return roster.NewRelationships(a, requests).IsFriend(b), nil
}

func (s *friendService) SendFriendRequest(ctx context.Context, senderID, targetUserID string) (*repository.FriendRequest, error) {
	if targetUserID == "" || senderID == targetUserID {
		return nil, ErrInvalidInput
	}

	target, err := s.userRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, backend(err)
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.requestRepo.FindBetween(ctx, senderID, targetUserID)
	if err != nil {
		return nil, backend(err)
	}
	rel := roster.NewRelationships(senderID, existing).Classify(targetUserID)
	switch {
	case rel.IsFriend:
		return nil, ErrAlreadyFriends
	case rel.Pending():
		return nil, ErrDuplicateRequest
	}

	req := &repository.FriendRequest{SenderID: senderID, ReceiverID: targetUserID}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, backend(err)
	}

	log.Printf("[Friend] %s sent a friend request to %s", senderID, targetUserID)
	s.publish(req, "")
	return req, nil
}

func (s *friendService) RespondFriendRequest(ctx context.Context, requestID, actorID string, accept bool) (*repository.FriendRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, backend(err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.ReceiverID != actorID {
		return nil, ErrUnauthorized
	}
	if types.IsTerminalFriendRequestStatus(req.Status) {
		return nil, ErrRequestAlreadyResolved
	}

	next := types.FriendRequestDeclined
	if accept {
		next = types.FriendRequestAccepted
	}

	updated, err := s.requestRepo.UpdateStatus(ctx, requestID, types.FriendRequestPending, next)
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, ErrRequestAlreadyResolved
		}
		return nil, backend(err)
	}

	log.Printf("[Friend] request %s %s by %s", requestID, updated.Status, actorID)
	s.publish(updated, types.FriendRequestPending)
	return updated, nil
}

// publish pushes the new state to both parties and hands pending and accepted
// transitions to the notification dispatcher.
func (s *friendService) publish(req *repository.FriendRequest, oldStatus string) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastFriendRequestUpdated([]string{req.SenderID, req.ReceiverID}, map[string]interface{}{
			"id":         req.ID,
			"senderId":   req.SenderID,
			"receiverId": req.ReceiverID,
			"status":     req.Status,
			"oldStatus":  oldStatus,
		})
	}

	if s.notifier == nil {
		return
	}
	if req.Status == types.FriendRequestPending || req.Status == types.FriendRequestAccepted {
		s.notifier.DispatchFriendRequestEvent(notification.FriendRequestEvent{
			ID:         req.ID,
			SenderID:   req.SenderID,
			ReceiverID: req.ReceiverID,
			Status:     req.Status,
			OldStatus:  oldStatus,
		})
	}
}

func (s *friendService) ListFriendRequests(ctx context.Context, userID string) ([]*FriendRequestView, error) {
	requests, err := s.requestRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, backend(err)
	}

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, otherParty(req, userID))
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, backend(err)
	}
	byID := make(map[string]*repository.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]*FriendRequestView, 0, len(requests))
	for _, req := range requests {
		other := byID[otherParty(req, userID)]
		views = append(views, &FriendRequestView{
			Request:  req,
			Other:    other,
			Display:  roster.ForUser(other),
			Incoming: req.ReceiverID == userID,
		})
	}
	return views, nil
}

func (s *friendService) ListFriends(ctx context.Context, userID string) ([]*repository.User, error) {
	requests, err := s.requestRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, backend(err)
	}

	ids := roster.NewRelationships(userID, requests).FriendIDs()
	if len(ids) == 0 {
		return []*repository.User{}, nil
	}

	friends, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, backend(err)
	}
	roster.SortUsers(friends)
	return friends, nil
}

func otherParty(req *repository.FriendRequest, userID string) string {
	if req.SenderID == userID {
		return req.ReceiverID
	}
	return req.SenderID
}
