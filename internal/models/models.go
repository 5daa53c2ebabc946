package models

import "time"

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	PreferredName string `json:"preferredName" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type DisplayResponse struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

type UserResponse struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	PreferredName string          `json:"preferredName,omitempty"`
	Display       DisplayResponse `json:"display"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type UpdateUserRequest struct {
	PreferredName *string `json:"preferredName,omitempty"`
}

// ============================================
// Desk DTOs
// ============================================

type CreateDeskRequest struct {
	Name            string `json:"name" binding:"required"`
	IsCollaborative bool   `json:"isCollaborative"`
}

type UpdateDeskRequest struct {
	Name string `json:"name" binding:"required"`
}

type DeskResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Name            string    `json:"name"`
	IsCollaborative bool      `json:"isCollaborative"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ============================================
// Member DTOs
// ============================================

type AddMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type RelationshipResponse struct {
	IsFriend           bool `json:"isFriend"`
	HasOutgoingRequest bool `json:"hasOutgoingRequest"`
	HasIncomingRequest bool `json:"hasIncomingRequest"`
}

type MemberResponse struct {
	DeskID       string               `json:"deskId"`
	UserID       string               `json:"userId"`
	IsOwner      bool                 `json:"isOwner"`
	JoinedAt     time.Time            `json:"joinedAt"`
	User         *UserResponse        `json:"user,omitempty"`
	Display      DisplayResponse      `json:"display"`
	Relationship RelationshipResponse `json:"relationship"`
}

// ============================================
// Member Request DTOs
// ============================================

type CreateMemberRequestRequest struct {
	TargetFriendID string `json:"targetFriendId" binding:"required"`
}

type RespondMemberRequestRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved declined"`
}

type MemberRequestResponse struct {
	ID               string           `json:"id"`
	DeskID           string           `json:"deskId"`
	RequesterID      string           `json:"requesterId"`
	TargetFriendID   string           `json:"targetFriendId"`
	Status           string           `json:"status"`
	ResolvedBy       *string          `json:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time       `json:"resolvedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	RequesterDisplay *DisplayResponse `json:"requesterDisplay,omitempty"`
	TargetDisplay    *DisplayResponse `json:"targetDisplay,omitempty"`
}

// RequestAddResponse reports what RequestAdd did: a pending request for
// collaborators, or a direct membership when the owner asked.
type RequestAddResponse struct {
	Request *MemberRequestResponse `json:"request,omitempty"`
	Member  *MemberResponse        `json:"member,omitempty"`
}

// ============================================
// Friend DTOs
// ============================================

type SendFriendRequestRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type RespondFriendRequestRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type FriendRequestResponse struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId"`
	Status     string        `json:"status"`
	Incoming   bool          `json:"incoming"`
	Other      *UserResponse `json:"other,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"userId"`
	Type      string                  `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Read      bool                    `json:"read"`
	Data      *map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

type NotificationCountResponse struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}
