package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RequestMagicLinkMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Address the sign-in link is mailed to."`
	OnResponse func(resp *RequestMagicLinkResponse)
}

func (m RequestMagicLinkMessage) Type() string { return "auth.magic_link.request" }

type RequestMagicLinkResponse struct {
	Token   *SignInToken
	Link    string
	Success bool
}

// RequestMagicLinkHandler issues single-use sign-in tokens and hands the
// link to the Mailer collaborator.
type RequestMagicLinkHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	config   Config
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// NewRequestMagicLinkHandler creates a handler with sane defaults.
func NewRequestMagicLinkHandler(repo RepositoryManager, mailer Mailer, config Config) *RequestMagicLinkHandler {
	return &RequestMagicLinkHandler{
		repo:     repo,
		mailer:   mailer,
		config:   config,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit issuance events.
func (h *RequestMagicLinkHandler) WithActivitySink(sink ActivitySink) *RequestMagicLinkHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RequestMagicLinkHandler) WithLogger(logger Logger) *RequestMagicLinkHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, for deterministic tests.
func (h *RequestMagicLinkHandler) WithClock(now func() time.Time) *RequestMagicLinkHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *RequestMagicLinkHandler) Execute(ctx context.Context, event RequestMagicLinkMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during magic link request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestMagicLinkHandler) execute(ctx context.Context, event RequestMagicLinkMessage) error {
	resp := &RequestMagicLinkResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)
	if email == "" || !strings.Contains(email, "@") {
		return goerrors.New("a valid email is required to request a sign-in link", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	value, err := NewTokenValue()
	if err != nil {
		return err
	}

	now := h.now()
	token := &SignInToken{
		Value:     value,
		Email:     email,
		ExpiresAt: now.Add(h.config.GetTokenTTL()),
		CreatedAt: &now,
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.SignInTokens().CreateTx(ctx, tx, token)
		if err != nil {
			return err
		}
		resp.Token = created
		return nil
	})

	if err != nil {
		return NewStoreUnavailableError(err, "failed to persist sign-in token")
	}

	resp.Link = BuildMagicLink(h.config.GetFrontendURL(), value)

	// Issuance is durable at this point; a mailer failure is surfaced as
	// its own kind so the request can be reported rather than silently
	// succeeding.
	if err := h.mailer.SendMagicLink(ctx, email, resp.Link); err != nil {
		h.logger.Error("magic link delivery failed for %s: %v", email, err)
		return NewDeliveryFailedError(err)
	}

	h.recordActivity(ctx, email, resp.Token)

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *RequestMagicLinkHandler) recordActivity(ctx context.Context, email string, token *SignInToken) {
	event := ActivityEvent{
		EventType: ActivityEventMagicLinkRequested,
		Actor: ActorRef{
			ID:   email,
			Type: "email",
		},
		Email:      email,
		OccurredAt: h.now(),
	}

	if token != nil {
		event.Metadata = map[string]any{
			"sign_in_token_id": token.ID.String(),
			"expires_at":       token.ExpiresAt,
		}
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during magic link request: %v", err)
	}
}
