package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/user"
	"github.com/infort/rh/storage/database"
)

// Config returns a configuration suitable for tests, backed by an in-memory SQLite database.
func Config(t *testing.T) *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "InFort RH",
		Build:            "test",
		FrontendBaseURL:  "http://localhost:5173",
		DefaultFromEmail: mail.Address{Name: "InFort RH", Address: "noreply@infort.test"},
		RateLimit:        "1000-M",
		Database:         core.DatabaseConfig{Engine: database.SQLite, URL: ":memory:"},
		JWT:              core.JWTConfig{Secret: []byte("test-secret"), ExpirationDelta: 7 * 24 * time.Hour},
		Uploads:          core.UploadsConfig{Dir: t.TempDir(), MaxSize: 5 << 20},
	}
}

// OpenDB opens a migrated in-memory database, closed when the test ends.
func OpenDB(t *testing.T, conf *core.Config) *sqlx.DB {
	goose.SetLogger(goose.NopLogger())
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

// CreateUser inserts a user. An empty pwd leaves the account waiting for its password setup.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	status user.Status,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:               name,
		Email:              email,
		Role:               role,
		Status:             status,
		NeedsPasswordSetup: pwd == "",
		CreatedAt:          tstamp,
		UpdatedAt:          tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
