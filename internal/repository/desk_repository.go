package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Desk struct {
	ID              string
	OwnerID         string
	Name            string
	IsCollaborative bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeskMember is one row of desk_members. User is populated by FindMembers.
type DeskMember struct {
	DeskID   string
	UserID   string
	IsOwner  bool
	JoinedAt time.Time
	User     *User
}

type DeskRepository interface {
	// Create inserts the desk and its owner member row in one transaction.
	Create(ctx context.Context, desk *Desk) error
	FindByID(ctx context.Context, id string) (*Desk, error)
	FindByUserID(ctx context.Context, userID string) ([]*Desk, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error

	// AddMember inserts a non-owner row and, in the same transaction, approves any
	// pending request for that user on addedBy's behalf. Returns ErrDuplicate when
	// the user is already a member.
	AddMember(ctx context.Context, deskID, userID, addedBy string) (*DeskMember, error)
	FindMember(ctx context.Context, deskID, userID string) (*DeskMember, error)
	FindMembers(ctx context.Context, deskID string) ([]*DeskMember, error)
	// RemoveMember deletes a non-owner row. Returns ErrNoRows when nothing matched.
	RemoveMember(ctx context.Context, deskID, userID string) error
}

type pgDeskRepository struct {
	pool *pgxpool.Pool
}

func NewDeskRepository(pool *pgxpool.Pool) DeskRepository {
	return &pgDeskRepository{pool: pool}
}

func (r *pgDeskRepository) Create(ctx context.Context, desk *Desk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO desks (owner_id, name, is_collaborative)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, desk.OwnerID, desk.Name, desk.IsCollaborative).Scan(&desk.ID, &desk.CreatedAt, &desk.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO desk_members (desk_id, user_id, is_owner)
		VALUES ($1, $2, true)
	`, desk.ID, desk.OwnerID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgDeskRepository) FindByID(ctx context.Context, id string) (*Desk, error) {
	query := `
		SELECT id, owner_id, name, is_collaborative, created_at, updated_at
		FROM desks WHERE id = $1
	`
	d := &Desk{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.OwnerID, &d.Name, &d.IsCollaborative, &d.CreatedAt, &d.UpdatedAt,
	)
	if isNoMatch(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *pgDeskRepository) FindByUserID(ctx context.Context, userID string) ([]*Desk, error) {
	query := `
		SELECT d.id, d.owner_id, d.name, d.is_collaborative, d.created_at, d.updated_at
		FROM desks d
		INNER JOIN desk_members m ON m.desk_id = d.id
		WHERE m.user_id = $1
		ORDER BY m.is_owner DESC, LOWER(d.name), d.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, listErr(err)
	}
	defer rows.Close()

	var desks []*Desk
	for rows.Next() {
		d := &Desk{}
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.IsCollaborative, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		desks = append(desks, d)
	}
	return desks, listErr(rows.Err())
}

func (r *pgDeskRepository) UpdateName(ctx context.Context, id, name string) error {
	result, err := r.pool.Exec(ctx, `UPDATE desks SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		if isInvalidText(err) {
			return ErrNoRows
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *pgDeskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM desks WHERE id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return ErrNoRows
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *pgDeskRepository) AddMember(ctx context.Context, deskID, userID, addedBy string) (*DeskMember, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m := &DeskMember{DeskID: deskID, UserID: userID}
	err = tx.QueryRow(ctx, `
		INSERT INTO desk_members (desk_id, user_id, is_owner)
		VALUES ($1, $2, false)
		RETURNING joined_at
	`, deskID, userID).Scan(&m.JoinedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}

	// A pending proposal for this user is settled by the direct add. Schemas that
	// predate member requests have no table to settle.
	var hasRequests bool
	if err := tx.QueryRow(ctx, `SELECT to_regclass('desk_member_requests') IS NOT NULL`).Scan(&hasRequests); err != nil {
		return nil, err
	}
	if hasRequests {
		if _, err := tx.Exec(ctx, `
			UPDATE desk_member_requests
			SET status = 'approved', resolved_by = $3, resolved_at = NOW()
			WHERE desk_id = $1 AND target_friend_id = $2 AND status = 'pending'
		`, deskID, userID, addedBy); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgDeskRepository) FindMember(ctx context.Context, deskID, userID string) (*DeskMember, error) {
	m := &DeskMember{}
	err := r.pool.QueryRow(ctx, `
		SELECT desk_id, user_id, is_owner, joined_at
		FROM desk_members WHERE desk_id = $1 AND user_id = $2
	`, deskID, userID).Scan(&m.DeskID, &m.UserID, &m.IsOwner, &m.JoinedAt)
	if isNoMatch(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgDeskRepository) FindMembers(ctx context.Context, deskID string) ([]*DeskMember, error) {
	query := `
		SELECT m.desk_id, m.user_id, m.is_owner, m.joined_at,
		       u.id, u.email, u.preferred_name, u.status, u.last_active_at, u.created_at, u.updated_at
		FROM desk_members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.desk_id = $1
		ORDER BY m.joined_at
	`
	rows, err := r.pool.Query(ctx, query, deskID)
	if err != nil {
		return nil, listErr(err)
	}
	defer rows.Close()

	var members []*DeskMember
	for rows.Next() {
		m := &DeskMember{User: &User{}}
		if err := rows.Scan(
			&m.DeskID, &m.UserID, &m.IsOwner, &m.JoinedAt,
			&m.User.ID, &m.User.Email, &m.User.PreferredName, &m.User.Status,
			&m.User.LastActiveAt, &m.User.CreatedAt, &m.User.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, listErr(rows.Err())
}

func (r *pgDeskRepository) RemoveMember(ctx context.Context, deskID, userID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM desk_members WHERE desk_id = $1 AND user_id = $2 AND is_owner = false`,
		deskID, userID)
	if err != nil {
		if isInvalidText(err) {
			return ErrNoRows
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}
