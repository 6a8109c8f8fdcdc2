package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-bun"
)

// ConsumeSignInTokenSQL is the atomic check-and-mark behind verification.
// The row count tells us whether this caller won; a concurrent caller that
// already flipped `used` leaves nothing to update here.
var ConsumeSignInTokenSQL = `UPDATE "sign_in_tokens" AS "tok"
SET
	"used" = TRUE
WHERE
	"tok"."value" = ?
AND "tok"."used" = FALSE
AND "tok"."expires_at" > ?
RETURNING *;`

// SignInTokens is the store of issued magic-link tokens
type SignInTokens interface {
	repository.Repository[*SignInToken]

	GetByValue(ctx context.Context, value string) (*SignInToken, error)
	GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*SignInToken, error)

	Consume(ctx context.Context, value string, now time.Time) (*SignInToken, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, value string, now time.Time) (*SignInToken, error)

	PurgeStale(ctx context.Context, now time.Time) (int64, error)
	PurgeStaleTx(ctx context.Context, tx bun.IDB, now time.Time) (int64, error)
}

type signInTokens struct {
	repository.Repository[*SignInToken]
	db *bun.DB
}

var _ SignInTokens = (*signInTokens)(nil)

func NewSignInTokensRepository(db *bun.DB) SignInTokens {
	repo := repository.NewRepository[*SignInToken](db, repository.ModelHandlers[*SignInToken]{
		NewRecord: func() *SignInToken { return &SignInToken{} },
		GetID: func(t *SignInToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *SignInToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "value"
		},
	})

	return &signInTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *signInTokens) Create(ctx context.Context, record *SignInToken, criteria ...repository.InsertCriteria) (*SignInToken, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *signInTokens) CreateTx(ctx context.Context, tx bun.IDB, record *SignInToken, criteria ...repository.InsertCriteria) (*SignInToken, error) {
	prepareTokenDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *signInTokens) GetByValue(ctx context.Context, value string) (*SignInToken, error) {
	return r.GetByValueTx(ctx, r.db, value)
}

func (r *signInTokens) GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*SignInToken, error) {
	record := &SignInToken{}
	err := tx.NewSelect().
		Model(record).
		Where(`?TableAlias."value" = ?`, value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (r *signInTokens) Consume(ctx context.Context, value string, now time.Time) (*SignInToken, error) {
	return r.ConsumeTx(ctx, r.db, value, now)
}

// ConsumeTx transitions a pending token to consumed. Failure modes
// (unknown value, already used, expired, lost race) all come back as the
// same InvalidToken error so callers cannot tell them apart.
func (r *signInTokens) ConsumeTx(ctx context.Context, tx bun.IDB, value string, now time.Time) (*SignInToken, error) {
	if value == "" {
		return nil, NewInvalidTokenError()
	}

	res, err := r.Repository.RawTx(ctx, tx, ConsumeSignInTokenSQL, value, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, NewInvalidTokenError()
	}

	return res[0], nil
}

func (r *signInTokens) PurgeStale(ctx context.Context, now time.Time) (int64, error) {
	return r.PurgeStaleTx(ctx, r.db, now)
}

// PurgeStaleTx removes consumed and expired tokens. Both states are
// terminal, so nothing redeemable is ever deleted.
func (r *signInTokens) PurgeStaleTx(ctx context.Context, tx bun.IDB, now time.Time) (int64, error) {
	res, err := tx.NewDelete().
		Model((*SignInToken)(nil)).
		Where(`?TableAlias."used" = TRUE`).
		WhereOr(`?TableAlias."expires_at" <= ?`, now).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
