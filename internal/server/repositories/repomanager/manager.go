package repomanager

import (
	"context"
	"database/sql"

	"github.com/ivmirov/accountd/internal/dbx"
	"github.com/ivmirov/accountd/internal/server/repositories/profiles"
	"github.com/ivmirov/accountd/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}
