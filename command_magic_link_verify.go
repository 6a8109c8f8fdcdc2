package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyMagicLinkMessage struct {
	Token      string `json:"token" doc:"Raw token value lifted from the magic link."`
	OnResponse func(resp *VerifyMagicLinkResponse)
}

func (m VerifyMagicLinkMessage) Type() string { return "auth.magic_link.verify" }

type VerifyMagicLinkResponse struct {
	User    *User
	Success bool
}

// Identity returns the verified identity for the response.
func (r *VerifyMagicLinkResponse) Identity() Identity {
	if r == nil || r.User == nil {
		return nil
	}
	return NewIdentityFromUser(r.User)
}

// VerifyMagicLinkHandler consumes a presented token and resolves the
// verified email to an identity. The consume and the provisioning share
// one transaction: a cancelled request leaves no partially consumed token.
type VerifyMagicLinkHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// NewVerifyMagicLinkHandler creates a handler with sane defaults.
func NewVerifyMagicLinkHandler(repo RepositoryManager) *VerifyMagicLinkHandler {
	return &VerifyMagicLinkHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit sign-in events.
func (h *VerifyMagicLinkHandler) WithActivitySink(sink ActivitySink) *VerifyMagicLinkHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyMagicLinkHandler) WithLogger(logger Logger) *VerifyMagicLinkHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, for deterministic tests.
func (h *VerifyMagicLinkHandler) WithClock(now func() time.Time) *VerifyMagicLinkHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *VerifyMagicLinkHandler) Execute(ctx context.Context, event VerifyMagicLinkMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during magic link verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyMagicLinkHandler) execute(ctx context.Context, event VerifyMagicLinkMessage) error {
	resp := &VerifyMagicLinkResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Token == "" {
		h.recordFailure(ctx)
		return NewInvalidTokenError()
	}

	provisioned := false
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		consumed, err := h.repo.SignInTokens().ConsumeTx(ctx, tx, event.Token, h.now())
		if err != nil {
			if IsInvalidToken(err) {
				return err
			}
			return NewStoreUnavailableError(err, "could not consume sign-in token")
		}

		user, created, err := h.repo.Users().GetOrProvisionTx(ctx, tx, consumed.Email)
		if err != nil {
			return NewStoreUnavailableError(err, "could not provision user for verified email")
		}

		resp.User = user
		provisioned = created
		return nil
	})

	if err != nil {
		h.recordFailure(ctx)

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify magic link")
	}

	if provisioned {
		h.recordEvent(ctx, ActivityEventUserProvisioned, resp.User)
	}
	h.recordEvent(ctx, ActivityEventLoginSuccess, resp.User)

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *VerifyMagicLinkHandler) recordEvent(ctx context.Context, eventType ActivityEventType, user *User) {
	if user == nil {
		return
	}

	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID:     user.ID.String(),
		Email:      user.Email,
		OccurredAt: h.now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during magic link verification: %v", err)
	}
}

// recordFailure intentionally carries no token value; a rejected token is
// indistinguishable from a guessed one and must stay out of the audit log.
func (h *VerifyMagicLinkHandler) recordFailure(ctx context.Context) {
	event := ActivityEvent{
		EventType:  ActivityEventLoginFailure,
		OccurredAt: h.now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during magic link verification: %v", err)
	}
}
