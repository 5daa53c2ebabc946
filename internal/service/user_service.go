package service

import (
	"context"
	"log"
	"strings"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/roster"
)

// ============================================
// User Service
// ============================================

const maxPreferredNameLength = 100

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	UpdateProfile(ctx context.Context, id string, preferredName *string) (*repository.User, error)
	UpdateLastActive(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]*repository.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	deskRepo repository.DeskRepository
	cache    MemberCache
}

func NewUserService(userRepo repository.UserRepository, deskRepo repository.DeskRepository, cache MemberCache) UserService {
	return &userService{userRepo: userRepo, deskRepo: deskRepo, cache: cache}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, backend(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, preferredName *string) (*repository.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if preferredName != nil {
		name := strings.TrimSpace(*preferredName)
		if len(name) > maxPreferredNameLength {
			return nil, ErrInvalidInput
		}
		user.PreferredName = name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, backend(err)
	}
	s.invalidateDesks(ctx, id)
	return user, nil
}

// invalidateDesks drops cached member rows that embed the user's profile.
func (s *userService) invalidateDesks(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	desks, err := s.deskRepo.FindByUserID(ctx, userID)
	if err != nil {
		log.Printf("[User] failed to list desks of %s for cache invalidation: %v", userID, err)
		return
	}
	for _, d := range desks {
		s.cache.Invalidate(ctx, d.ID)
	}
}

func (s *userService) UpdateLastActive(ctx context.Context, id string) error {
	if err := s.userRepo.UpdateLastActive(ctx, id); err != nil {
		return backend(err)
	}
	return nil
}

func (s *userService) Search(ctx context.Context, query string, limit int) ([]*repository.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	users, err := s.userRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, backend(err)
	}
	roster.SortUsers(users)
	return users, nil
}
