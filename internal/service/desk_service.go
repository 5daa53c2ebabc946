package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
)

// ============================================
// Desk Service
// ============================================

const maxDeskNameLength = 120

type DeskService interface {
	Create(ctx context.Context, ownerID, name string, isCollaborative bool) (*repository.Desk, error)
	List(ctx context.Context, userID string) ([]*repository.Desk, error)
	Get(ctx context.Context, deskID, userID string) (*repository.Desk, error)
	Rename(ctx context.Context, deskID, actorID, name string) (*repository.Desk, error)
	Delete(ctx context.Context, deskID, actorID string) error
}

type deskService struct {
	deskRepo    repository.DeskRepository
	broadcaster Broadcaster
	cache       MemberCache
}

func NewDeskService(deskRepo repository.DeskRepository, broadcaster Broadcaster, cache MemberCache) DeskService {
	return &deskService{deskRepo: deskRepo, broadcaster: broadcaster, cache: cache}
}

func normalizeDeskName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxDeskNameLength {
		return "", ErrInvalidInput
	}
	return name, nil
}

// findDesk loads a desk, mapping absence to ErrDeskNotFound.
func findDesk(ctx context.Context, deskRepo repository.DeskRepository, deskID string) (*repository.Desk, error) {
	desk, err := deskRepo.FindByID(ctx, deskID)
	if err != nil {
		return nil, backend(err)
	}
	if desk == nil {
		return nil, ErrDeskNotFound
	}
	return desk, nil
}

// requireMember returns the caller's member row, or ErrUnauthorized if there is none.
func requireMember(ctx context.Context, deskRepo repository.DeskRepository, deskID, userID string) (*repository.DeskMember, error) {
	member, err := deskRepo.FindMember(ctx, deskID, userID)
	if err != nil {
		return nil, backend(err)
	}
	if member == nil {
		return nil, ErrUnauthorized
	}
	return member, nil
}

func (s *deskService) Create(ctx context.Context, ownerID, name string, isCollaborative bool) (*repository.Desk, error) {
	name, err := normalizeDeskName(name)
	if err != nil {
		return nil, err
	}

	desk := &repository.Desk{
		OwnerID:         ownerID,
		Name:            name,
		IsCollaborative: isCollaborative,
	}
	if err := s.deskRepo.Create(ctx, desk); err != nil {
		return nil, backend(err)
	}
	return desk, nil
}

func (s *deskService) List(ctx context.Context, userID string) ([]*repository.Desk, error) {
	desks, err := s.deskRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, backend(err)
	}
	return desks, nil
}

func (s *deskService) Get(ctx context.Context, deskID, userID string) (*repository.Desk, error) {
	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.deskRepo, deskID, userID); err != nil {
		return nil, err
	}
	return desk, nil
}

func (s *deskService) Rename(ctx context.Context, deskID, actorID, name string) (*repository.Desk, error) {
	name, err := normalizeDeskName(name)
	if err != nil {
		return nil, err
	}

	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return nil, err
	}
	if desk.OwnerID != actorID {
		return nil, ErrUnauthorized
	}

	if err := s.deskRepo.UpdateName(ctx, deskID, name); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrDeskNotFound
		}
		return nil, backend(err)
	}
	desk.Name = name

	if s.broadcaster != nil {
		s.broadcaster.BroadcastDeskUpdated(deskID, map[string]interface{}{
			"id":              desk.ID,
			"name":            desk.Name,
			"isCollaborative": desk.IsCollaborative,
		}, actorID)
	}
	return desk, nil
}

func (s *deskService) Delete(ctx context.Context, deskID, actorID string) error {
	desk, err := findDesk(ctx, s.deskRepo, deskID)
	if err != nil {
		return err
	}
	if desk.OwnerID != actorID {
		return ErrUnauthorized
	}

	if err := s.deskRepo.Delete(ctx, deskID); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return ErrDeskNotFound
		}
		return backend(err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, deskID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastDeskDeleted(deskID, actorID)
	}
	return nil
}
