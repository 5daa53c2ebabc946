package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendRequest struct {
	ID         string
	SenderID   string
	ReceiverID string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type FriendRequestRepository interface {
	// Create inserts a pending request. Returns ErrDuplicate when a pending request
	// already exists between the two users in either direction.
	Create(ctx context.Context, req *FriendRequest) error
	FindByID(ctx context.Context, id string) (*FriendRequest, error)
	// FindBetween returns every request exchanged by the two users, newest first.
	FindBetween(ctx context.Context, userA, userB string) ([]*FriendRequest, error)
	FindByUser(ctx context.Context, userID string) ([]*FriendRequest, error)
	// UpdateStatus moves a request from one status to another. Returns ErrNotPending
	// when the row is no longer in the from status.
	UpdateStatus(ctx context.Context, id, from, to string) (*FriendRequest, error)
}

type pgFriendRequestRepository struct {
	pool *pgxpool.Pool
}

func NewFriendRequestRepository(pool *pgxpool.Pool) FriendRequestRepository {
	return &pgFriendRequestRepository{pool: pool}
}

const friendRequestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

func scanFriendRequest(row pgx.Row) (*FriendRequest, error) {
	req := &FriendRequest{}
	if err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *pgFriendRequestRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*FriendRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, listErr(err)
	}
	defer rows.Close()

	var requests []*FriendRequest
	for rows.Next() {
		req, err := scanFriendRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, listErr(rows.Err())
}

func (r *pgFriendRequestRepository) Create(ctx context.Context, req *FriendRequest) error {
	query := `
		INSERT INTO friend_requests (sender_id, receiver_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, status, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, req.SenderID, req.ReceiverID).
		Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgFriendRequestRepository) FindByID(ctx context.Context, id string) (*FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = $1`
	req, err := scanFriendRequest(r.pool.QueryRow(ctx, query, id))
	if isNoMatch(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *pgFriendRequestRepository) FindBetween(ctx context.Context, userA, userB string) ([]*FriendRequest, error) {
	return r.queryMany(ctx, `
		SELECT `+friendRequestColumns+`
		FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
	`, userA, userB)
}

func (r *pgFriendRequestRepository) FindByUser(ctx context.Context, userID string) ([]*FriendRequest, error) {
	return r.queryMany(ctx, `
		SELECT `+friendRequestColumns+`
		FROM friend_requests
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (r *pgFriendRequestRepository) UpdateStatus(ctx context.Context, id, from, to string) (*FriendRequest, error) {
	query := `
		UPDATE friend_requests SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + friendRequestColumns
	req, err := scanFriendRequest(r.pool.QueryRow(ctx, query, id, from, to))
	if isNoMatch(err) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}
