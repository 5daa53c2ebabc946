package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeskMemberRequest is a non-owner's proposal to add one of their friends to a desk.
type DeskMemberRequest struct {
	ID             string
	DeskID         string
	RequesterID    string
	TargetFriendID string
	Status         string
	ResolvedBy     *string
	ResolvedAt     *time.Time
	CreatedAt      time.Time
}

type MemberRequestRepository interface {
	// Create inserts a pending request. Returns ErrDuplicate when a pending request
	// for the same desk and target already exists.
	Create(ctx context.Context, req *DeskMemberRequest) error
	FindByID(ctx context.Context, id string) (*DeskMemberRequest, error)
	FindPendingByDesk(ctx context.Context, deskID string) ([]*DeskMemberRequest, error)
	// Approve resolves a pending request and inserts the target's member row in one
	// transaction. joined is false when the row already existed. Returns
	// ErrNotPending if the request was already resolved.
	Approve(ctx context.Context, id, resolverID string) (req *DeskMemberRequest, joined bool, err error)
	// Decline resolves a pending request without touching membership.
	Decline(ctx context.Context, id, resolverID string) (*DeskMemberRequest, error)
}

type pgMemberRequestRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRequestRepository(pool *pgxpool.Pool) MemberRequestRepository {
	return &pgMemberRequestRepository{pool: pool}
}

const memberRequestColumns = `id, desk_id, requester_id, target_friend_id, status, resolved_by, resolved_at, created_at`

func scanMemberRequest(row pgx.Row) (*DeskMemberRequest, error) {
	req := &DeskMemberRequest{}
	err := row.Scan(
		&req.ID, &req.DeskID, &req.RequesterID, &req.TargetFriendID,
		&req.Status, &req.ResolvedBy, &req.ResolvedAt, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *pgMemberRequestRepository) Create(ctx context.Context, req *DeskMemberRequest) error {
	query := `
		INSERT INTO desk_member_requests (desk_id, requester_id, target_friend_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, status, created_at
	`
	err := r.pool.QueryRow(ctx, query, req.DeskID, req.RequesterID, req.TargetFriendID).
		Scan(&req.ID, &req.Status, &req.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgMemberRequestRepository) FindByID(ctx context.Context, id string) (*DeskMemberRequest, error) {
	query := `SELECT ` + memberRequestColumns + ` FROM desk_member_requests WHERE id = $1`
	req, err := scanMemberRequest(r.pool.QueryRow(ctx, query, id))
	if isNoMatch(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *pgMemberRequestRepository) FindPendingByDesk(ctx context.Context, deskID string) ([]*DeskMemberRequest, error) {
	query := `
		SELECT ` + memberRequestColumns + `
		FROM desk_member_requests
		WHERE desk_id = $1 AND status = 'pending'
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, deskID)
	if err != nil {
		return nil, listErr(err)
	}
	defer rows.Close()

	var requests []*DeskMemberRequest
	for rows.Next() {
		req, err := scanMemberRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, listErr(rows.Err())
}

const resolveMemberRequest = `
	UPDATE desk_member_requests
	SET status = $2, resolved_by = $3, resolved_at = NOW()
	WHERE id = $1 AND status = 'pending'
	RETURNING ` + memberRequestColumns

func (r *pgMemberRequestRepository) Approve(ctx context.Context, id, resolverID string) (*DeskMemberRequest, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	req, err := scanMemberRequest(tx.QueryRow(ctx, resolveMemberRequest, id, "approved", resolverID))
	if isNoMatch(err) {
		return nil, false, ErrNotPending
	}
	if err != nil {
		return nil, false, err
	}

	// The row may already exist if the owner added the user while this request was filed.
	result, err := tx.Exec(ctx, `
		INSERT INTO desk_members (desk_id, user_id, is_owner)
		VALUES ($1, $2, false)
		ON CONFLICT (desk_id, user_id) DO NOTHING
	`, req.DeskID, req.TargetFriendID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return req, result.RowsAffected() == 1, nil
}

func (r *pgMemberRequestRepository) Decline(ctx context.Context, id, resolverID string) (*DeskMemberRequest, error) {
	req, err := scanMemberRequest(r.pool.QueryRow(ctx, resolveMemberRequest, id, "declined", resolverID))
	if isNoMatch(err) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}
