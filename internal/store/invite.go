package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rfinnegan/chorewheel/internal/model"
)

type InviteStore struct {
	db *sql.DB
}

func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db: db}
}

func scanInvite(scanner interface{ Scan(...any) error }) (*model.Invite, error) {
	var i model.Invite
	var accepted sql.NullTime
	err := scanner.Scan(&i.ID, &i.Code, &i.HouseholdID, &i.Email, &i.Role, &i.ExpiresAt, &accepted, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	if accepted.Valid {
		i.AcceptedAt = &accepted.Time
	}
	return &i, nil
}

const inviteCols = `id, code, household_id, email, role, expires_at, accepted_at, created_at`

func (s *InviteStore) Create(householdID int64, email, role string, ttl time.Duration) (*model.Invite, error) {
	code := uuid.NewString()
	expires := time.Now().UTC().Add(ttl)

	result, err := s.db.Exec(
		`INSERT INTO invites (code, household_id, email, role, expires_at) VALUES (?, ?, ?, ?, ?)`,
		code, householdID, email, role, expires,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+inviteCols+` FROM invites WHERE id = ?`, id)
	return scanInvite(row)
}

// GetByCode returns an open invite, or (nil, nil) when the code is unknown,
// expired, or already accepted.
func (s *InviteStore) GetByCode(code string) (*model.Invite, error) {
	row := s.db.QueryRow(
		`SELECT `+inviteCols+` FROM invites WHERE code = ? AND accepted_at IS NULL AND expires_at > ?`,
		code, time.Now().UTC(),
	)
	i, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return i, nil
}

func (s *InviteStore) MarkAccepted(id int64) error {
	_, err := s.db.Exec(
		`UPDATE invites SET accepted_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark invite accepted: %w", err)
	}
	return nil
}
