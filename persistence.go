package auth

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenDatabase opens a bun handle over the embedded sqlite driver. The
// handle is passed explicitly into NewRepositoryManager; there is no
// process-wide session state.
func OpenDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateAuthTables creates the tables and indexes backing the auth core.
// Meant for bootstrap, the admin tool, and tests; deployments with their
// own migration tooling can manage the equivalent schema there.
func CreateAuthTables(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*User)(nil),
		(*SignInToken)(nil),
		(*AdminGrant)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	if _, err := db.NewCreateIndex().
		Model((*SignInToken)(nil)).
		Index("ix_sign_in_tokens_email").
		Column("email").
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
