package roster

import (
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/types"
)

// Relationship describes how another user relates to the current user.
type Relationship struct {
	IsFriend           bool `json:"isFriend"`
	HasOutgoingRequest bool `json:"hasOutgoingRequest"`
	HasIncomingRequest bool `json:"hasIncomingRequest"`
}

// Pending reports whether a request is waiting in either direction.
func (r Relationship) Pending() bool {
	return r.HasOutgoingRequest || r.HasIncomingRequest
}

// Relationships indexes a friend-request list from the point of view of one user.
type Relationships struct {
	friends  map[string]bool
	outgoing map[string]bool
	incoming map[string]bool
}

// NewRelationships builds the index. Requests not involving currentUserID are ignored.
func NewRelationships(currentUserID string, requests []*repository.FriendRequest) *Relationships {
	r := &Relationships{
		friends:  make(map[string]bool),
		outgoing: make(map[string]bool),
		incoming: make(map[string]bool),
	}

	for _, req := range requests {
		if req == nil {
			continue
		}

		var other string
		switch currentUserID {
		case req.SenderID:
			other = req.ReceiverID
		case req.ReceiverID:
			other = req.SenderID
		default:
			continue
		}

		switch req.Status {
		case types.FriendRequestAccepted:
			r.friends[other] = true
		case types.FriendRequestPending:
			if req.SenderID == currentUserID {
				r.outgoing[other] = true
			} else {
				r.incoming[other] = true
			}
		}
	}
	return r
}

// IsFriend reports whether an accepted request exists between the current user and userID.
func (r *Relationships) IsFriend(userID string) bool {
	return r.friends[userID]
}

// HasOutgoingRequest reports whether the current user has a pending request to userID.
func (r *Relationships) HasOutgoingRequest(userID string) bool {
	return r.outgoing[userID]
}

// HasIncomingRequest reports whether userID has a pending request to the current user.
func (r *Relationships) HasIncomingRequest(userID string) bool {
	return r.incoming[userID]
}

// Classify returns all predicates for userID at once.
func (r *Relationships) Classify(userID string) Relationship {
	return Relationship{
		IsFriend:           r.IsFriend(userID),
		HasOutgoingRequest: r.HasOutgoingRequest(userID),
		HasIncomingRequest: r.HasIncomingRequest(userID),
	}
}

// FriendIDs returns the ids of every accepted friend.
func (r *Relationships) FriendIDs() []string {
	ids := make([]string, 0, len(r.friends))
	for id := range r.friends {
		ids = append(ids, id)
	}
	return ids
}
