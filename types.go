package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of a verified identity
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
}

// Config holds auth options
type Config interface {
	GetFrontendURL() string
	GetTokenTTL() time.Duration
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetSessionDuration() time.Duration
	GetIssuer() string
	GetAudience() []string
}

// Mailer delivers magic-link emails. Implementations live in the host
// application (SES, SMTP, ...); delivery failure must surface as an error
// so issuance can report it.
type Mailer interface {
	SendMagicLink(ctx context.Context, email, link string) error
}

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc func(ctx context.Context, email, link string) error

// SendMagicLink implements Mailer.
func (f MailerFunc) SendMagicLink(ctx context.Context, email, link string) error {
	if f == nil {
		return nil
	}
	return f(ctx, email, link)
}

// LogMailer writes the message to the logger instead of delivering it.
// Useful in development so the link can be copied from the output.
type LogMailer struct {
	Logger Logger
}

// SendMagicLink implements Mailer.
func (m LogMailer) SendMagicLink(_ context.Context, email, link string) error {
	logger := m.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("====== SENDING EMAIL NOTIFICATION =======")
	logger.Info("to: %s", email)
	logger.Info("link: %s", link)
	return nil
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
