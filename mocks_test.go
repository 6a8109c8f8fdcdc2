package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	auth "github.com/crittr/go-auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*bun.DB, auth.RepositoryManager) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	require.NoError(t, auth.CreateAuthTables(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})

	return db, auth.NewRepositoryManager(db)
}

func testConfig() *auth.SimpleConfig {
	return &auth.SimpleConfig{
		FrontendURL: "https://app.crittr.example",
		SigningKey:  "test-signing-key",
		Issuer:      "crittr-test",
	}
}

// MockMailer implements auth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendMagicLink(ctx context.Context, email, link string) error {
	args := m.Called(ctx, email, link)
	return args.Error(0)
}

// capturingMailer records the last link so tests can redeem it.
type capturingMailer struct {
	mu    sync.Mutex
	email string
	link  string
}

func (m *capturingMailer) SendMagicLink(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = email
	m.link = link
	return nil
}

func (m *capturingMailer) lastLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.link
}

// capturingSink records activity events for assertions.
type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturingSink) byType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []auth.ActivityEvent
	for _, event := range c.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}
