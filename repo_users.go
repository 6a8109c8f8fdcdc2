package auth

import (
	"context"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-bun"
)

// Users is the store of provisioned identities
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	GetOrProvision(ctx context.Context, email string) (*User, bool, error)
	GetOrProvisionTx(ctx context.Context, tx bun.IDB, email string) (*User, bool, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
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

func (a *users) GetOrProvision(ctx context.Context, email string) (*User, bool, error) {
	return a.GetOrProvisionTx(ctx, a.db, email)
}

// GetOrProvisionTx resolves a verified email to its identity, creating one
// on first touch; the second return reports whether this call created it.
// The id is derived from the normalized email, so two racing provisioners
// produce the same record rather than a duplicate.
func (a *users) GetOrProvisionTx(ctx context.Context, tx bun.IDB, email string) (*User, bool, error) {
	email = NormalizeEmail(email)

	user, err := a.GetByEmailTx(ctx, tx, email)
	if err == nil {
		return user, false, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, false, err
	}

	record := &User{
		Email:       email,
		DisplayName: DisplayNameFromEmail(email),
	}

	if id, err := hashid.NewUUID(email); err == nil {
		record.ID = id
	} else {
		record.ID = uuid.New()
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, false, err
	}

	return created, true, nil
}
