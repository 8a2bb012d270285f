package testutil

import (
	"context"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/user"
)

// NewConfig returns a self-contained test configuration; no env vars needed.
func NewConfig() *core.Config {
	return &core.Config{
		Env:      "test",
		TestMode: true,

		AppName:          "Academia",
		SecretKey:        []byte("s3cr3t-t3st-k3y"),
		FrontendBaseURL:  "https://academia.test",
		DefaultFromEmail: mail.Address{Name: "Academia", Address: "noreply@academia.test"},

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

// Logger logs to the test's standard logger; nothing is reported upstream.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func (l Logger) Debug(msg string, args ...interface{}) { log.Println("DEBUG:", msg) }
func (l Logger) Info(msg string, args ...interface{})  { log.Println("INFO:", msg) }
func (l Logger) Warn(msg string, args ...interface{})  { log.Println("WARN:", msg) }
func (l Logger) Error(msg string, args ...interface{}) { log.Println("ERROR:", msg) }
func (l Logger) Fatal(msg string, args ...interface{}) { log.Fatalln("FATAL:", msg) }

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
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
