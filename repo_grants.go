package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-bun"
)

// TouchAdminGrantSQL is the atomic check-and-increment behind privilege
// verification. Granting access and writing the audit trail are one
// statement, so the check fails closed when the audit write cannot commit.
var TouchAdminGrantSQL = `UPDATE "admin_grants" AS "adm"
SET
	"last_access_at" = ?,
	"access_count" = "access_count" + 1,
	"updated_at" = ?
WHERE
	"adm"."email" = ?
AND "adm"."is_active" = TRUE
RETURNING *;`

// AdminGrants is the administrator allow-list
type AdminGrants interface {
	repository.Repository[*AdminGrant]

	GetByEmail(ctx context.Context, email string) (*AdminGrant, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*AdminGrant, error)

	Grant(ctx context.Context, email, name string) (*AdminGrant, error)
	Revoke(ctx context.Context, email string) (*AdminGrant, error)
	Reinstate(ctx context.Context, email string) (*AdminGrant, error)

	TouchAccess(ctx context.Context, email string, now time.Time) (*AdminGrant, error)
	TouchAccessTx(ctx context.Context, tx bun.IDB, email string, now time.Time) (*AdminGrant, error)

	List(ctx context.Context) ([]*AdminGrant, error)
}

type adminGrants struct {
	repository.Repository[*AdminGrant]
	db *bun.DB
}

var _ AdminGrants = (*adminGrants)(nil)

func NewAdminGrantsRepository(db *bun.DB) AdminGrants {
	repo := repository.NewRepository[*AdminGrant](db, repository.ModelHandlers[*AdminGrant]{
		NewRecord: func() *AdminGrant { return &AdminGrant{} },
		GetID: func(g *AdminGrant) uuid.UUID {
			if g == nil {
				return uuid.Nil
			}
			return g.ID
		},
		SetID: func(g *AdminGrant, id uuid.UUID) {
			if g != nil {
				g.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &adminGrants{
		Repository: repo,
		db:         db,
	}
}

func (a *adminGrants) GetByEmail(ctx context.Context, email string) (*AdminGrant, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *adminGrants) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*AdminGrant, error) {
	record := &AdminGrant{}
	err := tx.NewSelect().
		Model(record).
		Where(`?TableAlias."email" = ?`, NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

// Grant upserts an active grant for the email. Re-granting a revoked email
// reactivates it, keeping its audit history.
func (a *adminGrants) Grant(ctx context.Context, email, name string) (*AdminGrant, error) {
	email = NormalizeEmail(email)

	existing, err := a.GetByEmail(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return nil, err
		}

		record := &AdminGrant{
			Email:  email,
			Name:   name,
			Active: true,
		}
		prepareGrantDefaults(record)

		return a.Repository.Create(ctx, record)
	}

	existing.Active = true
	if name != "" {
		existing.Name = name
	}
	now := time.Now()
	existing.UpdatedAt = &now

	return a.Repository.Update(ctx, existing, repository.UpdateByID(existing.ID.String()))
}

// Revoke deactivates the grant; the row and its audit trail remain.
func (a *adminGrants) Revoke(ctx context.Context, email string) (*AdminGrant, error) {
	return a.setActive(ctx, email, false)
}

// Reinstate reactivates a previously revoked grant.
func (a *adminGrants) Reinstate(ctx context.Context, email string) (*AdminGrant, error) {
	return a.setActive(ctx, email, true)
}

func (a *adminGrants) setActive(ctx context.Context, email string, active bool) (*AdminGrant, error) {
	existing, err := a.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	existing.Active = active
	now := time.Now()
	existing.UpdatedAt = &now

	return a.Repository.Update(ctx, existing, repository.UpdateByID(existing.ID.String()))
}

func (a *adminGrants) TouchAccess(ctx context.Context, email string, now time.Time) (*AdminGrant, error) {
	return a.TouchAccessTx(ctx, a.db, email, now)
}

// TouchAccessTx performs the privilege check. Zero rows back means no
// grant, an inactive grant, or a failed audit write; all deny.
func (a *adminGrants) TouchAccessTx(ctx context.Context, tx bun.IDB, email string, now time.Time) (*AdminGrant, error) {
	res, err := a.Repository.RawTx(ctx, tx, TouchAdminGrantSQL, now, now, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, NewAccessDeniedError()
	}

	return res[0], nil
}

func (a *adminGrants) List(ctx context.Context) ([]*AdminGrant, error) {
	var grants []*AdminGrant
	err := a.db.NewSelect().
		Model(&grants).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return grants, nil
}
