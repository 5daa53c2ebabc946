package types

// Friend request status values
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestDeclined = "declined"
)

// Desk member request status values
const (
	MemberRequestPending  = "pending"
	MemberRequestApproved = "approved"
	MemberRequestDeclined = "declined"
)

// User Status values
const (
	UserOnline  = "online"
	UserOffline = "offline"
	UserAway    = "away"
)

var ValidMemberRequestDecisions = []string{
	MemberRequestApproved, MemberRequestDeclined,
}

// IsValidMemberRequestDecision reports whether status is a terminal decision an owner may apply.
func IsValidMemberRequestDecision(status string) bool {
	for _, s := range ValidMemberRequestDecisions {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalFriendRequestStatus reports whether a friend request can no longer change.
func IsTerminalFriendRequestStatus(status string) bool {
	return status == FriendRequestAccepted || status == FriendRequestDeclined
}
