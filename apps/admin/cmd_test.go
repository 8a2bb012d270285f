package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"sync"
	"testing"

	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
	dummydb "github.com/edlabs/academia/storage/database/dummy"
	testutil "github.com/edlabs/academia/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)

	return &commandLine{
		usrRepo: usrRepo,
		schRepo: dummydb.NewSchoolRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("LePassword"), nil }

	if err := cli.run([]string{"admin", "adduser", "-username", "root", "-email", "root@test.cd", "-admin"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !usr.IsActive {
		t.Error("expected user to be active")
	}
	if !usr.IsAdmin() {
		t.Error("expected user to have admin roles")
	}
	if err := usr.CheckPassword("LePassword"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// running again updates the same account
	if err := cli.run([]string{"admin", "adduser", "-username", "root", "-email", "root@test.cd"}); err != nil {
		t.Fatalf("cli.run() failed on re-run: %v", err)
	}
	again, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if again.ID != usr.ID {
		t.Errorf("expected the same user; got %s, want %s", again.ID, usr.ID)
	}
}

// syncStore is a minimal in-memory row store for exercising syncreplica.
type syncStore struct {
	mu   sync.Mutex
	rows map[string]map[string]replica.Row
}

func newSyncStore() *syncStore {
	return &syncStore{rows: make(map[string]map[string]replica.Row)}
}

func (s *syncStore) put(table string, row replica.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[table] == nil {
		s.rows[table] = make(map[string]replica.Row)
	}
	s.rows[table][row["id"].(string)] = row
}

func (s *syncStore) SelectRows(ctx context.Context, table string, columns []string) ([]replica.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]replica.Row, 0, len(s.rows[table]))
	for _, row := range s.rows[table] {
		out = append(out, row)
	}
	return out, nil
}

func (s *syncStore) UpsertRows(ctx context.Context, table string, rows []replica.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[table] == nil {
		s.rows[table] = make(map[string]replica.Row)
	}
	for _, row := range rows {
		s.rows[table][row["id"].(string)] = row
	}
	return nil
}

func (s *syncStore) DeleteRow(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows[table], id)
	return nil
}

func Test_commandLine_syncReplica(t *testing.T) {
	cli := setup(t)

	// no mirror configured
	if err := cli.run([]string{"admin", "syncreplica"}); err != errNoReplica {
		t.Errorf("cli.run() error = %v, wantErr %v", err, errNoReplica)
	}

	primary := newSyncStore()
	mirror := newSyncStore()
	for i := 0; i < 3; i++ {
		primary.put(school.TableDepartment, replica.Row{
			"id":   fmt.Sprintf("d-%d", i),
			"name": fmt.Sprintf("Dept %d", i),
			"code": fmt.Sprintf("d%d", i),
		})
	}
	cli.gateway = replica.NewGateway(primary, mirror, school.ReplicaColumns)

	if err := cli.run([]string{"admin", "syncreplica", "-table", school.TableDepartment}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	if got := len(mirror.rows[school.TableDepartment]); got != 3 {
		t.Errorf("mirror has %d rows, want 3", got)
	}

	// a full resync covers every replicated table without error
	if err := cli.run([]string{"admin", "syncreplica"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
}
