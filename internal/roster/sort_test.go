package roster

import (
	"testing"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/types"
	"github.com/stretchr/testify/assert"
)

func member(id, name string, owner bool) *repository.DeskMember {
	return &repository.DeskMember{
		UserID:  id,
		IsOwner: owner,
		User:    &repository.User{ID: id, PreferredName: name, Email: id + "@x.com"},
	}
}

func ids(members []*repository.DeskMember) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.UserID
	}
	return out
}

func TestSortMembersOwnerViewerFriendStranger(t *testing.T) {
	rels := NewRelationships("u", []*repository.FriendRequest{
		{SenderID: "u", ReceiverID: "f", Status: types.FriendRequestAccepted},
	})

	// Names chosen so alphabetical order alone would be wrong.
	orders := [][]*repository.DeskMember{
		{member("s", "Aaron", false), member("f", "Bea", false), member("u", "Zed", false), member("o", "Yara", true)},
		{member("o", "Yara", true), member("s", "Aaron", false), member("u", "Zed", false), member("f", "Bea", false)},
		{member("f", "Bea", false), member("u", "Zed", false), member("o", "Yara", true), member("s", "Aaron", false)},
	}

	for _, members := range orders {
		SortMembers(members, "u", rels)
		assert.Equal(t, []string{"o", "u", "f", "s"}, ids(members))
	}
}

func TestSortMembersPendingBeforeStrangers(t *testing.T) {
	rels := NewRelationships("u", []*repository.FriendRequest{
		{SenderID: "in", ReceiverID: "u", Status: types.FriendRequestPending},
		{SenderID: "u", ReceiverID: "out", Status: types.FriendRequestPending},
		{SenderID: "u", ReceiverID: "gone", Status: types.FriendRequestDeclined},
	})

	members := []*repository.DeskMember{
		member("gone", "Abe", false),
		member("out", "Opal", false),
		member("in", "Ivy", false),
		member("o", "Owner", true),
	}
	SortMembers(members, "u", rels)

	assert.Equal(t, []string{"o", "in", "out", "gone"}, ids(members))
}

func TestSortMembersTiesByNameThenID(t *testing.T) {
	members := []*repository.DeskMember{
		member("b", "sam", false),
		member("c", "Amy", false),
		member("a", "Sam", false),
	}
	members[0].User.Email = "same@x.com"
	members[2].User.Email = "same@x.com"

	SortMembers(members, "viewer", nil)

	assert.Equal(t, []string{"c", "a", "b"}, ids(members))
}

func TestRelationshipPredicates(t *testing.T) {
	rels := NewRelationships("u", []*repository.FriendRequest{
		{SenderID: "u", ReceiverID: "a", Status: types.FriendRequestAccepted},
		{SenderID: "b", ReceiverID: "u", Status: types.FriendRequestAccepted},
		{SenderID: "u", ReceiverID: "c", Status: types.FriendRequestPending},
		{SenderID: "d", ReceiverID: "u", Status: types.FriendRequestPending},
		{SenderID: "x", ReceiverID: "y", Status: types.FriendRequestAccepted},
	})

	assert.True(t, rels.IsFriend("a"))
	assert.True(t, rels.IsFriend("b"))
	assert.False(t, rels.IsFriend("x"), "requests between other users are ignored")
	assert.True(t, rels.HasOutgoingRequest("c"))
	assert.False(t, rels.HasIncomingRequest("c"))
	assert.True(t, rels.HasIncomingRequest("d"))
	assert.Equal(t, Relationship{}, rels.Classify("stranger"))
	assert.ElementsMatch(t, []string{"a", "b"}, rels.FriendIDs())
}
