package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserStore is the slice of Users the provider needs
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetOrProvision(ctx context.Context, email string) (*User, bool, error)
}

// UserProvider resolves verified emails to identities
type UserProvider struct {
	store  UserStore
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// FindOrCreate returns the identity for a verified email, provisioning it
// on first touch. Idempotent: the same email always yields the same
// identity after the first creation.
func (u *UserProvider) FindOrCreate(ctx context.Context, email string) (Identity, error) {
	user, created, err := u.store.GetOrProvision(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to provision user")
	}

	if created {
		u.logger.Info("provisioned user %s for %s", user.ID, user.Email)
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByEmail is a lookup without provisioning.
func (u *UserProvider) FindIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
	}
	return NewIdentityFromUser(user), nil
}

type authIdentity struct {
	id          string
	email       string
	displayName string
}

func (a authIdentity) ID() string          { return a.id }
func (a authIdentity) Email() string       { return a.email }
func (a authIdentity) DisplayName() string { return a.displayName }

// NewIdentityFromUser adapts a stored User to the Identity interface.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return authIdentity{
		id:          user.ID.String(),
		email:       user.Email,
		displayName: user.DisplayName,
	}
}
