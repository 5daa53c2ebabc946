// internal/seed/seed.go
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

const seedOwnerEmail = "ann@stickydesk.dev"

// SeedData creates a small set of users, friendships and desks for local
// development. It does nothing when the seed owner already exists.
func SeedData(ctx context.Context, repos *repository.Repositories) error {
	existing, err := repos.UserRepo.FindByEmail(ctx, seedOwnerEmail)
	if err != nil {
		return fmt.Errorf("check seed data: %w", err)
	}
	if existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return nil
	}

	log.Println("[Seed] 🌱 Creating development data...")

	// ============================================
	// CREATE USERS
	// ============================================
	password, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	// Ann owns the shared desk
	ann := &repository.User{Email: seedOwnerEmail, Password: string(password), PreferredName: "Ann", Status: types.UserOnline}
	// Ben collaborates on it
	ben := &repository.User{Email: "ben@stickydesk.dev", Password: string(password), PreferredName: "Ben", Status: types.UserOnline}
	// Cat is Ben's friend, not yet on the desk
	cat := &repository.User{Email: "cat@stickydesk.dev", Password: string(password), Status: types.UserAway}
	// Dan has a pending request from Ann
	dan := &repository.User{Email: "dan@stickydesk.dev", Password: string(password), PreferredName: "Dan", Status: types.UserOffline}

	for _, u := range []*repository.User{ann, ben, cat, dan} {
		if err := repos.UserRepo.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	log.Printf("✅ Created 4 users: Ann (owner), Ben (collaborator), Cat (Ben's friend), Dan (pending)")

	// ============================================
	// FRIENDSHIPS
	// ============================================
	if err := befriend(ctx, repos, ann, ben); err != nil {
		return err
	}
	if err := befriend(ctx, repos, ben, cat); err != nil {
		return err
	}
	if err := repos.FriendRequestRepo.Create(ctx, &repository.FriendRequest{SenderID: ann.ID, ReceiverID: dan.ID}); err != nil {
		return fmt.Errorf("seed friend request: %w", err)
	}

	// ============================================
	// DESKS
	// ============================================
	shared := &repository.Desk{OwnerID: ann.ID, Name: "Team Board", IsCollaborative: true}
	private := &repository.Desk{OwnerID: ann.ID, Name: "Scratchpad"}
	for _, d := range []*repository.Desk{shared, private} {
		if err := repos.DeskRepo.Create(ctx, d); err != nil {
			return fmt.Errorf("seed desk %s: %w", d.Name, err)
		}
	}

	if _, err := repos.DeskRepo.AddMember(ctx, shared.ID, ben.ID, ann.ID); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("seed member: %w", err)
	}

	// Ben proposes Cat; Ann has yet to decide
	if err := repos.MemberRequestRepo.Create(ctx, &repository.DeskMemberRequest{
		DeskID:         shared.ID,
		RequesterID:    ben.ID,
		TargetFriendID: cat.ID,
	}); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("seed member request: %w", err)
	}

	log.Println("[Seed] ✅ Development data ready (password: password123)")
	return nil
}

func befriend(ctx context.Context, repos *repository.Repositories, sender, receiver *repository.User) error {
	req := &repository.FriendRequest{SenderID: sender.ID, ReceiverID: receiver.ID}
	if err := repos.FriendRequestRepo.Create(ctx, req); err != nil {
		return fmt.Errorf("seed friend request %s -> %s: %w", sender.Email, receiver.Email, err)
	}
	if _, err := repos.FriendRequestRepo.UpdateStatus(ctx, req.ID, types.FriendRequestPending, types.FriendRequestAccepted); err != nil {
		return fmt.Errorf("accept seed friend request: %w", err)
	}
	return nil
}
