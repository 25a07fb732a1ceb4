package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"
)

// UserRepository is the credential store plus the motto contract the
// transcription pipeline writes through.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	MottoStore
}

// MottoStore holds the encrypted motto per owner. SetMotto overwrites.
type MottoStore interface {
	GetMotto(ctx context.Context, ownerID string) ([]byte, error)
	SetMotto(ctx context.Context, ownerID string, ciphertext []byte) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, hashed_password)
	          VALUES ($1, $2, $3)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.HashedPassword).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT id, username, hashed_password, motto, created_at, updated_at
	          FROM users WHERE username = $1`
	return r.scanOne(ctx, "FindByUsername", query, username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, username, hashed_password, motto, created_at, updated_at
	          FROM users WHERE id = $1`
	return r.scanOne(ctx, "FindByID", query, id)
}

func (r *pgUserRepository) scanOne(ctx context.Context, op, query string, arg string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.HashedPassword, &user.Motto, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) GetMotto(ctx context.Context, ownerID string) ([]byte, error) {
	var motto []byte
	err := r.db.QueryRowContext(ctx, `SELECT motto FROM users WHERE id = $1`, ownerID).Scan(&motto)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("owner %s: %w", ownerID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgUserRepository.GetMotto: %w", err)
	}
	return motto, nil
}

func (r *pgUserRepository) SetMotto(ctx context.Context, ownerID string, ciphertext []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET motto = $2, updated_at = now() WHERE id = $1`, ownerID, ciphertext)
	if err != nil {
		return fmt.Errorf("pgUserRepository.SetMotto: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.SetMotto: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("owner %s: %w", ownerID, common.ErrNotFound)
	}
	return nil
}
