package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/models"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/roster"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth          *AuthHandler
	User          *UserHandler
	Desk          *DeskHandler
	Member        *MemberHandler
	MemberRequest *MemberRequestHandler
	Friend        *FriendHandler
	Notification  *NotificationHandler
	System        *SystemHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, health HealthReporter) *Handlers {
	return &Handlers{
		Auth:          &AuthHandler{authService: services.Auth},
		User:          &UserHandler{userService: services.User},
		Desk:          &DeskHandler{deskService: services.Desk},
		Member:        &MemberHandler{memberService: services.Member},
		MemberRequest: &MemberRequestHandler{requestService: services.MemberRequest},
		Friend:        &FriendHandler{friendService: services.Friend},
		Notification:  &NotificationHandler{notificationService: services.Notification},
		System:        &SystemHandler{capabilities: services.Capabilities, health: health},
	}
}

// ============================================
// Error Mapping
// ============================================

type errorMapping struct {
	err     error
	status  int
	message string
}

// Checked in order; wrapped errors match through errors.Is.
var serviceErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	{service.ErrUserExists, http.StatusConflict, "An account with this email already exists"},
	{service.ErrAlreadyMember, http.StatusConflict, "That user is already on this desk"},
	{service.ErrDuplicateRequest, http.StatusConflict, "A request for that user is already pending"},
	{service.ErrAlreadyFriends, http.StatusConflict, "You are already friends"},
	{service.ErrRequestAlreadyResolved, http.StatusConflict, "That request has already been resolved"},
	{service.ErrNotAMember, http.StatusNotFound, "That user is not on this desk"},
	{service.ErrRequestNotFound, http.StatusNotFound, "Request not found"},
	{service.ErrDeskNotFound, http.StatusNotFound, "Desk not found"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrNotificationNotFound, http.StatusNotFound, "Notification not found"},
	{service.ErrUnauthorized, http.StatusForbidden, "You don't have permission to do that"},
	{service.ErrNotFriends, http.StatusUnprocessableEntity, "You can only add your friends"},
	{service.ErrDeskNotCollaborative, http.StatusUnprocessableEntity, "This desk is not collaborative"},
	{service.ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{service.ErrFeatureUnavailable, http.StatusServiceUnavailable, "This feature is not available yet"},
	{service.ErrBackendUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// handleServiceError maps service errors to HTTP responses
func handleServiceError(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			log.Printf("❌ [Handler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		message := m.message
		if m.err == service.ErrInvalidInput {
			// Validation errors carry a user-facing detail after the sentinel.
			message = err.Error()
		}
		c.JSON(m.status, gin.H{"error": message})
		return
	}

	log.Printf("❌ [Handler] %s %s: unexpected error: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// ============================================
// Response Mappers
// ============================================

func toDisplayResponse(d roster.Display) models.DisplayResponse {
	return models.DisplayResponse{Primary: d.Primary, Secondary: d.Secondary}
}

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		PreferredName: u.PreferredName,
		Display:       toDisplayResponse(roster.ForUser(u)),
		Status:        u.Status,
		CreatedAt:     u.CreatedAt,
	}
}

func toDeskResponse(d *repository.Desk) models.DeskResponse {
	return models.DeskResponse{
		ID:              d.ID,
		OwnerID:         d.OwnerID,
		Name:            d.Name,
		IsCollaborative: d.IsCollaborative,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toMemberViewResponse(deskID string, v *service.MemberView) models.MemberResponse {
	resp := models.MemberResponse{
		DeskID:   deskID,
		IsOwner:  v.IsOwner,
		JoinedAt: v.JoinedAt,
		Display:  toDisplayResponse(v.Display),
		Relationship: models.RelationshipResponse{
			IsFriend:           v.Relationship.IsFriend,
			HasOutgoingRequest: v.Relationship.HasOutgoingRequest,
			HasIncomingRequest: v.Relationship.HasIncomingRequest,
		},
	}
	if v.User != nil {
		user := toUserResponse(v.User)
		resp.User = &user
		resp.UserID = v.User.ID
	}
	return resp
}

func toMemberResponse(m *repository.DeskMember) models.MemberResponse {
	resp := models.MemberResponse{
		DeskID:   m.DeskID,
		UserID:   m.UserID,
		IsOwner:  m.IsOwner,
		JoinedAt: m.JoinedAt,
	}
	if m.User != nil {
		user := toUserResponse(m.User)
		resp.User = &user
		resp.Display = user.Display
	}
	return resp
}

func toMemberRequestResponse(r *repository.DeskMemberRequest) models.MemberRequestResponse {
	return models.MemberRequestResponse{
		ID:             r.ID,
		DeskID:         r.DeskID,
		RequesterID:    r.RequesterID,
		TargetFriendID: r.TargetFriendID,
		Status:         r.Status,
		ResolvedBy:     r.ResolvedBy,
		ResolvedAt:     r.ResolvedAt,
		CreatedAt:      r.CreatedAt,
	}
}

func toPendingRequestResponse(v *service.PendingRequestView) models.MemberRequestResponse {
	resp := toMemberRequestResponse(v.Request)
	requester := toDisplayResponse(v.RequesterDisplay)
	target := toDisplayResponse(v.TargetDisplay)
	resp.RequesterDisplay = &requester
	resp.TargetDisplay = &target
	return resp
}

func toFriendRequestResponse(r *repository.FriendRequest, viewerID string) models.FriendRequestResponse {
	return models.FriendRequestResponse{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Status:     r.Status,
		Incoming:   r.ReceiverID == viewerID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toFriendRequestViewResponse(v *service.FriendRequestView) models.FriendRequestResponse {
	resp := models.FriendRequestResponse{
		ID:         v.Request.ID,
		SenderID:   v.Request.SenderID,
		ReceiverID: v.Request.ReceiverID,
		Status:     v.Request.Status,
		Incoming:   v.Incoming,
		CreatedAt:  v.Request.CreatedAt,
		UpdatedAt:  v.Request.UpdatedAt,
	}
	if v.Other != nil {
		other := toUserResponse(v.Other)
		resp.Other = &other
	}
	return resp
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	resp := models.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.Data != nil {
		resp.Data = &n.Data
	}
	return resp
}
