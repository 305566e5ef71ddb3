package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SENG-401-Lesson-Planner/Backend/internal/domain"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository     = (*Repository)(nil)
	_ repository.ResponseRepository = (*Repository)(nil)
)

// CreateUser inserts a user. A duplicate username maps to ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// GetUserByUsername fetches a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT username, password_hash, created_at FROM users WHERE username = $1`
	row := r.pool.QueryRow(ctx, query, username)
	var u domain.User
	if err := row.Scan(&u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// InsertResponse stores a completion record for its owner.
func (r *Repository) InsertResponse(ctx context.Context, response *domain.Response) error {
	const query = `INSERT INTO responses (id, username, text, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, response.ID, response.Username, response.Text, response.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// ListResponsesByUsername returns the owner's responses, newest first.
func (r *Repository) ListResponsesByUsername(ctx context.Context, username string) ([]domain.Response, error) {
	const query = `SELECT id, username, text, created_at FROM responses
		WHERE username = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]domain.Response, 0)
	for rows.Next() {
		var resp domain.Response
		if err := rows.Scan(&resp.ID, &resp.Username, &resp.Text, &resp.CreatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// DeleteResponse removes a record only when it belongs to the caller.
func (r *Repository) DeleteResponse(ctx context.Context, username, id string) error {
	const query = `DELETE FROM responses WHERE username = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, username, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
