package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// PrivilegeVerifier gates administrative operations behind the
// email-keyed admin allow-list. Each successful check updates the grant's
// audit fields in the same atomic statement; if that write cannot commit,
// access is denied.
type PrivilegeVerifier struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// NewPrivilegeVerifier creates a verifier with sane defaults.
func NewPrivilegeVerifier(repo RepositoryManager) *PrivilegeVerifier {
	return &PrivilegeVerifier{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit admin access events.
func (p *PrivilegeVerifier) WithActivitySink(sink ActivitySink) *PrivilegeVerifier {
	p.activity = normalizeActivitySink(sink)
	return p
}

// WithLogger overrides the logger used by the verifier.
func (p *PrivilegeVerifier) WithLogger(logger Logger) *PrivilegeVerifier {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithClock overrides the time source, for deterministic tests.
func (p *PrivilegeVerifier) WithClock(now func() time.Time) *PrivilegeVerifier {
	if now != nil {
		p.now = now
	}
	return p
}

// RequireAdmin checks the allow-list for an active grant on the email and
// records the access. Callers of destructive operations must treat any
// error as a hard stop. A missing grant and a revoked grant return the
// same AccessDenied error.
func (p *PrivilegeVerifier) RequireAdmin(ctx context.Context, email string) (*AdminGrant, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during privilege verification",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email = NormalizeEmail(email)

	var grant *AdminGrant
	err := p.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		grant, err = p.repo.AdminGrants().TouchAccessTx(ctx, tx, email, p.now())
		return err
	})

	if err != nil {
		if IsAccessDenied(err) {
			p.recordActivity(ctx, ActivityEventAdminAccessDenied, email, nil)
			return nil, err
		}
		return nil, NewStoreUnavailableError(err, "could not verify administrator grant")
	}

	p.recordActivity(ctx, ActivityEventAdminAccess, email, grant)

	return grant, nil
}

func (p *PrivilegeVerifier) recordActivity(ctx context.Context, eventType ActivityEventType, email string, grant *AdminGrant) {
	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   email,
			Type: "admin",
		},
		Email:      email,
		OccurredAt: p.now(),
	}

	if grant != nil {
		event.Metadata = map[string]any{
			"access_count": grant.AccessCount,
		}
	}

	if err := normalizeActivitySink(p.activity).Record(ctx, event); err != nil {
		p.logger.Error("activity sink error during privilege verification: %v", err)
	}
}
