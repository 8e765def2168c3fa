package profiles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivmirov/accountd/internal/common"
	"github.com/ivmirov/accountd/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func profileRows(p *models.Profile) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "pid", "user_id", "birth_date", "first_name", "last_name",
		"location", "is_visible", "created_at", "updated_at",
	}).AddRow(p.ID, p.PID[:], p.UserID, p.BirthDate, p.FirstName, p.LastName,
		p.Location, p.IsVisible, p.CreatedAt, p.UpdatedAt)
}

func sampleProfile() *models.Profile {
	now := time.Now()
	return &models.Profile{
		ID: 10, PID: uuid.New(), UserID: 5, BirthDate: 946684800,
		FirstName: "Taro", LastName: "Yamada", Location: "JPN", IsVisible: true,
		CreatedAt: now, UpdatedAt: now,
	}
}

const createQuery = `(?s)^INSERT\s+INTO\s+profiles\s*\(pid,\s*user_id,\s*birth_date,\s*first_name,\s*last_name\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*location,\s*is_visible,\s*created_at,\s*updated_at\s*$`
const selectByUserQuery = `(?s)^SELECT\s+.*\s+FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1\s*$`
const selectIDQuery = `(?s)^SELECT\s+id\s+FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	pid := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "location", "is_visible", "created_at", "updated_at"}).
		AddRow(int64(10), "JPN", false, now, now)
	mock.ExpectQuery(createQuery).
		WithArgs(pid[:], int64(5), int64(946684800), "Taro", "Yamada").
		WillReturnRows(rows)

	p := &models.Profile{PID: pid, UserID: 5, BirthDate: 946684800, FirstName: "Taro", LastName: "Yamada"}
	got, err := repo.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 10 || got.Location != "JPN" || got.IsVisible {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	pid := uuid.New()
	mock.ExpectQuery(createQuery).
		WithArgs(pid[:], int64(5), int64(0), "Taro", "Yamada").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "profiles_user_id_key"})

	_, err := repo.Create(context.Background(), &models.Profile{PID: pid, UserID: 5, FirstName: "Taro", LastName: "Yamada"})
	if !errors.Is(err, common.ErrUserAlreadyExist) {
		t.Fatalf("want common.ErrUserAlreadyExist, got %v", err)
	}
}

func TestGetByUserID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := sampleProfile()
	mock.ExpectQuery(selectByUserQuery).
		WithArgs(p.UserID).
		WillReturnRows(profileRows(p))

	got, err := repo.GetByUserID(context.Background(), p.UserID)
	if err != nil {
		t.Fatalf("GetByUserID error: %v", err)
	}
	if got.ID != p.ID || got.PID != p.PID || got.Location != "JPN" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestGetByUserID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByUserQuery).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserID(context.Background(), 99)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestIDByUserID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectIDQuery).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	id, err := repo.IDByUserID(context.Background(), 5)
	if err != nil {
		t.Fatalf("IDByUserID error: %v", err)
	}
	if id != 10 {
		t.Fatalf("unexpected id: %d", id)
	}
}

func TestIDByUserID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectIDQuery).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.IDByUserID(context.Background(), 99)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdate_SingleField(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := sampleProfile()
	p.Location = "USA"

	q := `(?s)^UPDATE\s+profiles\s+SET\s+location\s*=\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+user_id\s*=\s*\$2\s+RETURNING\s+`
	mock.ExpectQuery(q).
		WithArgs("USA", p.UserID).
		WillReturnRows(profileRows(p))

	loc := "USA"
	got, err := repo.Update(context.Background(), p.UserID, &models.ProfilePatch{Location: &loc})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Location != "USA" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestUpdate_AllFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := sampleProfile()

	q := `(?s)^UPDATE\s+profiles\s+SET\s+location\s*=\s*\$1,\s*first_name\s*=\s*\$2,\s*last_name\s*=\s*\$3,\s*is_visible\s*=\s*\$4,\s*birth_date\s*=\s*\$5,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+user_id\s*=\s*\$6\s+RETURNING\s+`
	mock.ExpectQuery(q).
		WithArgs("USA", "Jiro", "Sato", true, int64(100), p.UserID).
		WillReturnRows(profileRows(p))

	loc, fn, ln := "USA", "Jiro", "Sato"
	visible := true
	bd := int64(100)
	patch := &models.ProfilePatch{Location: &loc, FirstName: &fn, LastName: &ln, IsVisible: &visible, BirthDate: &bd}

	_, err := repo.Update(context.Background(), p.UserID, patch)
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestUpdate_EmptyPatch(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Update(context.Background(), 5, &models.ProfilePatch{})
	if !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("want ErrEmptyPatch, got %v", err)
	}

	_, err = repo.Update(context.Background(), 5, nil)
	if !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("want ErrEmptyPatch for nil patch, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+profiles\s+SET\s+`
	mock.ExpectQuery(q).
		WithArgs("USA", int64(99)).
		WillReturnError(sql.ErrNoRows)

	loc := "USA"
	_, err := repo.Update(context.Background(), 99, &models.ProfilePatch{Location: &loc})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestListByLocation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p1 := sampleProfile()
	p2 := sampleProfile()
	p2.ID = 11
	p2.UserID = 6
	p2.PID = uuid.New()

	rows := profileRows(p1).AddRow(p2.ID, p2.PID[:], p2.UserID, p2.BirthDate, p2.FirstName,
		p2.LastName, p2.Location, p2.IsVisible, p2.CreatedAt, p2.UpdatedAt)

	q := `(?s)^SELECT\s+.*\s+FROM\s+profiles\s+WHERE\s+location\s*=\s*\$1\s+AND\s+is_visible\s*=\s*TRUE\s+AND\s+id\s*<>\s*\$2\s+ORDER\s+BY\s+updated_at\s+DESC\s+LIMIT\s+\$3\s*$`
	mock.ExpectQuery(q).
		WithArgs("JPN", int64(99), 100).
		WillReturnRows(rows)

	got, err := repo.ListByLocation(context.Background(), "JPN", 99, 100)
	if err != nil {
		t.Fatalf("ListByLocation error: %v", err)
	}
	if len(got) != 2 || got[0].ID != p1.ID || got[1].ID != p2.ID {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestListByLocation_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*\s+FROM\s+profiles\s+WHERE\s+location\s*=\s*\$1\s+`
	mock.ExpectQuery(q).
		WithArgs("ZZZ", int64(0), 100).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "pid", "user_id", "birth_date", "first_name", "last_name",
			"location", "is_visible", "created_at", "updated_at",
		}))

	got, err := repo.ListByLocation(context.Background(), "ZZZ", 0, 100)
	if err != nil {
		t.Fatalf("ListByLocation error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestListByLocation_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*\s+FROM\s+profiles\s+WHERE\s+location\s*=\s*\$1\s+`
	mock.ExpectQuery(q).
		WithArgs("JPN", int64(0), 100).
		WillReturnError(errors.New("db err"))

	_, err := repo.ListByLocation(context.Background(), "JPN", 0, 100)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
