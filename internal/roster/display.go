// Package roster holds the pure helpers used to present people on a desk:
// display-name resolution, relationship classification and member ordering.
package roster

import (
	"strings"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
)

// Display is the pair of strings shown for a person.
type Display struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Resolve maps a preferred name and an email to display strings.
// When both are present and differ (ignoring case) the preferred name is primary
// and the email secondary; otherwise the non-empty one is primary.
func Resolve(preferredName, email string) Display {
	name := strings.TrimSpace(preferredName)
	mail := strings.TrimSpace(email)

	if name != "" && mail != "" && !strings.EqualFold(name, mail) {
		return Display{Primary: name, Secondary: mail}
	}
	if name != "" {
		return Display{Primary: name}
	}
	return Display{Primary: mail}
}

// ForUser resolves the display strings of a user record. A nil user yields an empty Display.
func ForUser(u *repository.User) Display {
	if u == nil {
		return Display{}
	}
	return Resolve(u.PreferredName, u.Email)
}

// Compare orders displays case-insensitively by primary, then by secondary.
func Compare(a, b Display) int {
	if c := strings.Compare(strings.ToLower(a.Primary), strings.ToLower(b.Primary)); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.Secondary), strings.ToLower(b.Secondary))
}
