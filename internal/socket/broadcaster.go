package socket

// Broadcaster provides high-level methods for broadcasting events
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// ============================================
// Notification Broadcasting
// ============================================

// SendNotification sends a notification to a specific user
func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNotification, notification)
}

// SendNotificationCount updates notification count for a user
func (b *Broadcaster) SendNotificationCount(userID string, total, unread int) {
	b.hub.SendToUser(userID, MessageNotificationCount, map[string]interface{}{
		"total":  total,
		"unread": unread,
	})
}

func (b *Broadcaster) IsUserOnline(userID string) bool {
	return b.hub.IsUserOnline(userID)
}

// ============================================
// Desk Broadcasting
// ============================================

// BroadcastDeskUpdated broadcasts desk changes to connected members
func (b *Broadcaster) BroadcastDeskUpdated(deskID string, desk map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(DeskRoom(deskID), MessageDeskUpdated, desk, excludeUserID)
}

// BroadcastDeskDeleted tells connected members the desk is gone
func (b *Broadcaster) BroadcastDeskDeleted(deskID, excludeUserID string) {
	b.hub.SendToRoom(DeskRoom(deskID), MessageDeskDeleted, map[string]interface{}{
		"deskId": deskID,
	}, excludeUserID)
}

// ============================================
// Membership Broadcasting
// ============================================

// BroadcastMemberAdded broadcasts a new member to the desk room and tells the
// added user directly, since they are not subscribed to the room yet.
func (b *Broadcaster) BroadcastMemberAdded(deskID string, member map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(DeskRoom(deskID), MessageMemberAdded, member, excludeUserID)

	if userID, ok := member["userId"].(string); ok && userID != "" && userID != excludeUserID {
		b.hub.SendToUser(userID, MessageMemberAdded, member)
	}
}

// BroadcastMemberRemoved broadcasts a removal and drops the user from the desk room
func (b *Broadcaster) BroadcastMemberRemoved(deskID, userID, excludeUserID string) {
	payload := map[string]interface{}{
		"deskId": deskID,
		"userId": userID,
	}
	b.hub.SendToRoom(DeskRoom(deskID), MessageMemberRemoved, payload, excludeUserID)
	b.hub.EvictFromRoom(userID, DeskRoom(deskID))

	if userID != excludeUserID {
		b.hub.SendToUser(userID, MessageMemberRemoved, payload)
	}
}

// BroadcastMemberRequestCreated tells the owner a proposal is waiting
func (b *Broadcaster) BroadcastMemberRequestCreated(deskID, ownerID string, request map[string]interface{}) {
	b.hub.SendToUser(ownerID, MessageMemberRequestCreated, request)
}

// BroadcastMemberRequestResolved broadcasts the decision to the desk room
func (b *Broadcaster) BroadcastMemberRequestResolved(deskID string, request map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(DeskRoom(deskID), MessageMemberRequestResolved, request, excludeUserID)
}

// ============================================
// Friend Broadcasting
// ============================================

// BroadcastFriendRequestUpdated sends the request state to both parties
func (b *Broadcaster) BroadcastFriendRequestUpdated(userIDs []string, request map[string]interface{}) {
	for _, userID := range userIDs {
		if userID != "" {
			b.hub.SendToUser(userID, MessageFriendRequestUpdated, request)
		}
	}
}
