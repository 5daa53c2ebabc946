package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	UserRepo          UserRepository
	DeskRepo          DeskRepository
	MemberRequestRepo MemberRequestRepository
	FriendRequestRepo FriendRequestRepository
	NotificationRepo  NotificationRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:          NewUserRepository(pool),
		DeskRepo:          NewDeskRepository(pool),
		MemberRequestRepo: NewMemberRequestRepository(pool),
		FriendRequestRepo: NewFriendRequestRepository(pool),
		NotificationRepo:  NewNotificationRepository(pool),
	}
}

// NewInMemoryRepositories returns repositories backed by a single in-process store.
// Used when no database is configured and throughout the tests.
func NewInMemoryRepositories() *Repositories {
	s := newMemoryStore()
	return &Repositories{
		UserRepo:          &inMemoryUserRepository{s},
		DeskRepo:          &inMemoryDeskRepository{s},
		MemberRequestRepo: &inMemoryMemberRequestRepository{s},
		FriendRequestRepo: &inMemoryFriendRequestRepository{s},
		NotificationRepo:  &inMemoryNotificationRepository{s},
	}
}
