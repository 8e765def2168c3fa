package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivmirov/accountd/internal/common"
	"github.com/ivmirov/accountd/internal/dbx"
	"github.com/ivmirov/accountd/internal/server/models"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, password, pid)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Password, user.PID[:]).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrUserAlreadyExist
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, pid, email, password, created_at, updated_at FROM users
		 WHERE email = $1
		 `

	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByPID(ctx context.Context, pid uuid.UUID) (*models.User, error) {
	query :=
		`SELECT id, pid, email, password, created_at, updated_at FROM users
		 WHERE pid = $1
		 `

	return r.getOne(ctx, query, pid[:])
}

// GetIDsByEmail fetches just the internal id and public identifier for the
// registration existence check, without pulling the password hash.
func (r *PostgresRepository) GetIDsByEmail(ctx context.Context, email string) (int64, uuid.UUID, error) {
	query :=
		`SELECT id, pid FROM users
		 WHERE email = $1
		 `

	var id int64
	var rawPID []byte
	err := r.db.QueryRowContext(ctx, query, email).Scan(&id, &rawPID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, uuid.Nil, common.ErrNotFound
		}
		return 0, uuid.Nil, fmt.Errorf("db error: %w", err)
	}

	pid, err := uuid.FromBytes(rawPID)
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("db error: malformed pid: %w", err)
	}

	return id, pid, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var rawPID []byte

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &rawPID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	pid, err := uuid.FromBytes(rawPID)
	if err != nil {
		return nil, fmt.Errorf("db error: malformed pid: %w", err)
	}
	user.PID = pid

	return user, nil
}
