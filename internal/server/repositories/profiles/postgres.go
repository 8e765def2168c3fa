package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivmirov/accountd/internal/common"
	"github.com/ivmirov/accountd/internal/dbx"
	"github.com/ivmirov/accountd/internal/server/models"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// ErrEmptyPatch is returned by Update when the patch contains no fields.
var ErrEmptyPatch = errors.New("empty profile patch")

const profileColumns = "id, pid, user_id, birth_date, first_name, last_name, location, is_visible, created_at, updated_at"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {

	query :=
		`INSERT INTO profiles (pid, user_id, birth_date, first_name, last_name)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, location, is_visible, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		profile.PID[:], profile.UserID, profile.BirthDate, profile.FirstName, profile.LastName).
		Scan(&profile.ID, &profile.Location, &profile.IsVisible, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrUserAlreadyExist
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
		 WHERE user_id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

// IDByUserID fetches just the profile id for the registration existence check.
func (r *PostgresRepository) IDByUserID(ctx context.Context, userID int64) (int64, error) {
	query :=
		`SELECT id FROM profiles
		 WHERE user_id = $1
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

// Update applies the non-nil fields of the patch to the profile owned by
// userID. Column names come from a fixed list, never from request input; only
// the values travel as placeholders.
func (r *PostgresRepository) Update(ctx context.Context, userID int64, patch *models.ProfilePatch) (*models.Profile, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	assignments := make([]string, 0, 5)
	args := make([]any, 0, 6)

	appendSet := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Location != nil {
		appendSet("location", *patch.Location)
	}
	if patch.FirstName != nil {
		appendSet("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		appendSet("last_name", *patch.LastName)
	}
	if patch.IsVisible != nil {
		appendSet("is_visible", *patch.IsVisible)
	}
	if patch.BirthDate != nil {
		appendSet("birth_date", *patch.BirthDate)
	}

	assignments = append(assignments, "updated_at = now()")
	args = append(args, userID)

	query := fmt.Sprintf(
		`UPDATE profiles SET %s WHERE user_id = $%d RETURNING %s`,
		strings.Join(assignments, ", "), len(args), profileColumns)

	return r.scanOne(r.db.QueryRowContext(ctx, query, args...))
}

// ListByLocation returns up to limit visible profiles in the given location,
// skipping the caller's own profile.
func (r *PostgresRepository) ListByLocation(ctx context.Context, location string, excludeProfileID int64, limit int) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
		 WHERE location = $1 AND is_visible = TRUE AND id <> $2
		 ORDER BY updated_at DESC
		 LIMIT $3
		 `

	rows, err := r.db.QueryContext(ctx, query, location, excludeProfileID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Profile
	for rows.Next() {
		profile := &models.Profile{}
		var rawPID []byte
		err := rows.Scan(&profile.ID, &rawPID, &profile.UserID, &profile.BirthDate,
			&profile.FirstName, &profile.LastName, &profile.Location, &profile.IsVisible,
			&profile.CreatedAt, &profile.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		pid, err := uuid.FromBytes(rawPID)
		if err != nil {
			return nil, fmt.Errorf("db error: malformed pid: %w", err)
		}
		profile.PID = pid
		result = append(result, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	var rawPID []byte

	err := row.Scan(&profile.ID, &rawPID, &profile.UserID, &profile.BirthDate,
		&profile.FirstName, &profile.LastName, &profile.Location, &profile.IsVisible,
		&profile.CreatedAt, &profile.UpdatedAt)

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
	profile.PID = pid

	return profile, nil
}
