package roster

import (
	"sort"
	"strings"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
)

const (
	rankOwner = iota
	rankViewer
	rankFriend
	rankPending
	rankOther
)

func memberRank(m *repository.DeskMember, viewerID string, rels *Relationships) int {
	switch {
	case m.IsOwner:
		return rankOwner
	case m.UserID == viewerID:
		return rankViewer
	}
	if rels == nil {
		return rankOther
	}
	rel := rels.Classify(m.UserID)
	switch {
	case rel.IsFriend:
		return rankFriend
	case rel.Pending():
		return rankPending
	default:
		return rankOther
	}
}

// SortMembers orders members for viewerID: owner, viewer, friends, users with a
// pending request, everyone else; then by display name, then by user id.
func SortMembers(members []*repository.DeskMember, viewerID string, rels *Relationships) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]

		ra, rb := memberRank(a, viewerID, rels), memberRank(b, viewerID, rels)
		if ra != rb {
			return ra < rb
		}
		if c := Compare(ForUser(a.User), ForUser(b.User)); c != 0 {
			return c < 0
		}
		return strings.Compare(a.UserID, b.UserID) < 0
	})
}

// SortUsers orders users alphabetically by display name.
func SortUsers(users []*repository.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if c := Compare(ForUser(users[i]), ForUser(users[j])); c != 0 {
			return c < 0
		}
		return users[i].ID < users[j].ID
	})
}
