package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/tx"
)

// Store persists user records in PostgreSQL. The trusted/managed relations
// live in jsonb columns: they are always read and written with the owning
// user record, so relational normalization buys nothing here.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema creates the users table. Invoked on startup; safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL,
    full_name     TEXT NOT NULL,
    date_of_birth TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    trusted_user  JSONB,
    managed_users JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));
`

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate users schema: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the context transaction when one is open (Confirm runs inside
// RunInTx) and the pool otherwise.
func (s *Store) q(ctx context.Context) querier {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func (s *Store) Save(ctx context.Context, user *models.User) error {
	trusted, managed, err := marshalRelations(user)
	if err != nil {
		return err
	}

	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, date_of_birth, password_hash, trusted_user, managed_users, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID.String(), user.Email, user.FullName, user.DateOfBirth, user.PasswordHash,
		trusted, managed, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT id, email, full_name, date_of_birth, password_hash, trusted_user, managed_users, created_at, updated_at
		FROM users WHERE id = $1`
	// Inside a transaction, lock the row so both Confirm writes see a
	// consistent pair of records.
	if _, inTx := tx.From(ctx); inTx {
		query += " FOR UPDATE"
	}
	return s.scanUser(s.q(ctx).QueryRowContext(ctx, query, userID.String()))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.q(ctx).QueryRowContext(ctx, `
		SELECT id, email, full_name, date_of_birth, password_hash, trusted_user, managed_users, created_at, updated_at
		FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *Store) Update(ctx context.Context, user *models.User) error {
	trusted, managed, err := marshalRelations(user)
	if err != nil {
		return err
	}

	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE users
		SET email = $2, full_name = $3, date_of_birth = $4, password_hash = $5,
		    trusted_user = $6, managed_users = $7, updated_at = $8
		WHERE id = $1`,
		user.ID.String(), user.Email, user.FullName, user.DateOfBirth, user.PasswordHash,
		trusted, managed, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user       models.User
		rawID      string
		trustedRaw []byte
		managedRaw []byte
	)
	err := row.Scan(&rawID, &user.Email, &user.FullName, &user.DateOfBirth, &user.PasswordHash,
		&trustedRaw, &managedRaw, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan user id: %w", err)
	}
	user.ID = userID

	if len(trustedRaw) > 0 {
		var trusted models.TrustedUser
		if err := json.Unmarshal(trustedRaw, &trusted); err != nil {
			return nil, fmt.Errorf("decode trusted_user: %w", err)
		}
		user.TrustedUser = &trusted
	}
	user.ManagedUsers = []models.ManagedUser{}
	if len(managedRaw) > 0 {
		if err := json.Unmarshal(managedRaw, &user.ManagedUsers); err != nil {
			return nil, fmt.Errorf("decode managed_users: %w", err)
		}
	}
	return &user, nil
}

func marshalRelations(user *models.User) (trusted, managed []byte, err error) {
	if user.TrustedUser != nil {
		trusted, err = json.Marshal(user.TrustedUser)
		if err != nil {
			return nil, nil, fmt.Errorf("encode trusted_user: %w", err)
		}
	}
	managedUsers := user.ManagedUsers
	if managedUsers == nil {
		managedUsers = []models.ManagedUser{}
	}
	managed, err = json.Marshal(managedUsers)
	if err != nil {
		return nil, nil, fmt.Errorf("encode managed_users: %w", err)
	}
	return trusted, managed, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
