package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/email"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/roster"
)

// Notification types
const (
	TypeFriendRequest         = "FRIEND_REQUEST"
	TypeFriendRequestAccepted = "FRIEND_REQUEST_ACCEPTED"
	TypeMemberAdded           = "MEMBER_ADDED"
	TypeMemberRequest         = "MEMBER_REQUEST"
	TypeMemberRequestResolved = "MEMBER_REQUEST_RESOLVED"
)

const defaultDispatchTimeout = 15 * time.Second

// FriendRequestEvent is raised when a friend request becomes pending or accepted.
type FriendRequestEvent struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Status     string `json:"status"`
	OldStatus  string `json:"old_status"`
}

// Pusher delivers a notification and the refreshed unread badge to a connected user.
type Pusher interface {
	SendNotification(userID string, notification map[string]interface{})
	SendNotificationCount(userID string, total, unread int)
	IsUserOnline(userID string) bool
}

// Service persists in-app notifications, pushes them over the websocket and
// sends email where the event warrants it. All public methods return at once.
type Service struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	pusher           Pusher
	emailSvc         *email.Service
	timeout          time.Duration

	wg sync.WaitGroup
}

func NewService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		timeout:          defaultDispatchTimeout,
	}
}

func (s *Service) SetPusher(p Pusher) {
	s.pusher = p
}

func (s *Service) SetEmailService(e *email.Service) {
	s.emailSvc = e
}

// Wait blocks until every in-flight dispatch has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// dispatch runs fn in the background with its own deadline, detached from the request.
func (s *Service) dispatch(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Printf("[Notification] %s failed: %v", name, err)
		}
	}()
}

// ============================================
// WebSocket Helper
// ============================================

func (s *Service) push(n *repository.Notification) {
	if s.pusher == nil || n == nil {
		return
	}
	s.pusher.SendNotification(n.UserID, map[string]interface{}{
		"id":        n.ID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"read":      n.Read,
		"createdAt": n.CreatedAt,
	})
}

// store persists the notification and pushes it to the recipient.
func (s *Service) store(ctx context.Context, n *repository.Notification) error {
	if n.UserID == "" {
		return nil
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist %s for %s: %w", n.Type, n.UserID, err)
	}
	s.push(n)
	s.pushCount(ctx, n.UserID)
	return nil
}

// pushCount sends the recipient's counters. Offline users are skipped; they
// fetch counts on their next load.
func (s *Service) pushCount(ctx context.Context, userID string) {
	if s.pusher == nil || !s.pusher.IsUserOnline(userID) {
		return
	}
	total, unread, err := s.notificationRepo.CountByUserID(ctx, userID)
	if err != nil {
		log.Printf("[Notification] count for %s failed: %v", userID, err)
		return
	}
	s.pusher.SendNotificationCount(userID, total, unread)
}

func displayName(u *repository.User) string {
	if d := roster.ForUser(u); d.Primary != "" {
		return d.Primary
	}
	return "Someone"
}

// ============================================
// Friend Requests
// ============================================

// DispatchFriendRequestEvent notifies the other party of a friend request
// transition. Pending requests notify the receiver; accepted ones the sender.
func (s *Service) DispatchFriendRequestEvent(event FriendRequestEvent) {
	s.dispatch("friend request "+event.ID, func(ctx context.Context) error {
		return s.handleFriendRequestEvent(ctx, event)
	})
}

func (s *Service) handleFriendRequestEvent(ctx context.Context, event FriendRequestEvent) error {
	var recipientID, actorID string
	switch event.Status {
	case "pending":
		recipientID, actorID = event.ReceiverID, event.SenderID
	case "accepted":
		recipientID, actorID = event.SenderID, event.ReceiverID
	default:
		return nil
	}

	recipient, err := s.userRepo.FindByID(ctx, recipientID)
	if err != nil {
		return err
	}
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	actorName := displayName(actor)

	n := &repository.Notification{
		UserID: recipientID,
		Data: map[string]interface{}{
			"requestId":  event.ID,
			"senderId":   event.SenderID,
			"receiverId": event.ReceiverID,
			"status":     event.Status,
			"oldStatus":  event.OldStatus,
			"action":     "view_friends",
		},
	}
	if event.Status == "pending" {
		n.Type = TypeFriendRequest
		n.Title = "New Friend Request"
		n.Message = fmt.Sprintf("%s sent you a friend request", actorName)
	} else {
		n.Type = TypeFriendRequestAccepted
		n.Title = "Friend Request Accepted"
		n.Message = fmt.Sprintf("%s accepted your friend request", actorName)
	}

	if err := s.store(ctx, n); err != nil {
		return err
	}

	if !s.emailSvc.Enabled() || recipient == nil {
		return nil
	}
	recipientName := roster.ForUser(recipient).Primary
	if event.Status == "pending" {
		senderEmail := ""
		if actor != nil {
			senderEmail = actor.Email
		}
		return s.emailSvc.SendFriendRequest(ctx, recipient.Email, email.FriendRequestData{
			RecipientName: recipientName,
			SenderName:    actorName,
			SenderEmail:   senderEmail,
		})
	}
	return s.emailSvc.SendFriendAccepted(ctx, recipient.Email, email.FriendAcceptedData{
		RecipientName: recipientName,
		FriendName:    actorName,
	})
}

// ============================================
// Desk Membership
// ============================================

// NotifyMemberAdded tells userID they now belong to desk.
func (s *Service) NotifyMemberAdded(userID string, desk *repository.Desk, addedBy *repository.User) {
	n := &repository.Notification{
		UserID:  userID,
		Type:    TypeMemberAdded,
		Title:   "Added to Desk",
		Message: fmt.Sprintf("%s added you to %s", displayName(addedBy), desk.Name),
		Data: map[string]interface{}{
			"deskId": desk.ID,
			"action": "open_desk",
		},
	}
	s.dispatch("member added "+desk.ID, func(ctx context.Context) error {
		return s.store(ctx, n)
	})
}

// NotifyMemberRequest asks the desk owner to review a proposal.
func (s *Service) NotifyMemberRequest(desk *repository.Desk, req *repository.DeskMemberRequest, requester, target *repository.User) {
	n := &repository.Notification{
		UserID:  desk.OwnerID,
		Type:    TypeMemberRequest,
		Title:   "Member Request",
		Message: fmt.Sprintf("%s wants to add %s to %s", displayName(requester), displayName(target), desk.Name),
		Data: map[string]interface{}{
			"deskId":    desk.ID,
			"requestId": req.ID,
			"action":    "review_member_requests",
		},
	}
	s.dispatch("member request "+req.ID, func(ctx context.Context) error {
		return s.store(ctx, n)
	})
}

// NotifyMemberRequestResolved tells the requester how the owner decided.
func (s *Service) NotifyMemberRequestResolved(desk *repository.Desk, req *repository.DeskMemberRequest, target *repository.User) {
	n := &repository.Notification{
		UserID:  req.RequesterID,
		Type:    TypeMemberRequestResolved,
		Title:   "Member Request " + formatStatus(req.Status),
		Message: fmt.Sprintf("Your request to add %s to %s was %s", displayName(target), desk.Name, req.Status),
		Data: map[string]interface{}{
			"deskId":    desk.ID,
			"requestId": req.ID,
			"status":    req.Status,
		},
	}
	s.dispatch("member request resolved "+req.ID, func(ctx context.Context) error {
		return s.store(ctx, n)
	})
}

func formatStatus(status string) string {
	switch status {
	case "approved":
		return "Approved"
	case "declined":
		return "Declined"
	default:
		return status
	}
}
