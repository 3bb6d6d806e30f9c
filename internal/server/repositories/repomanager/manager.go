// Package repomanager hands out per-entity repositories bound to a database
// handle or transaction, and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/roadsvr/backend/internal/dbx"
	"github.com/roadsvr/backend/internal/server/repositories/codes"
	"github.com/roadsvr/backend/internal/server/repositories/modules"
	"github.com/roadsvr/backend/internal/server/repositories/results"
	"github.com/roadsvr/backend/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Codes(db dbx.DBTX) codes.Repository
	Results(db dbx.DBTX) results.Repository
	Modules(db dbx.DBTX) modules.Repository
}
