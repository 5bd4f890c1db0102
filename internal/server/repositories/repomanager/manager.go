package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sortify/internal/dbx"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/downloads"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/projects"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/users"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/versions"
)

// RepositoryManager vends repositories bound to either a connection pool or
// an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Versions(db dbx.DBTX) versions.Repository
	Downloads(db dbx.DBTX) downloads.Repository
	Projects(db dbx.DBTX) projects.Repository
	Users(db dbx.DBTX) users.Repository
}
