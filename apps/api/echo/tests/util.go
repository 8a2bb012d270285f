package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/edlabs/academia/apps/api/echo"
	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/user"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// memStore is an in-memory replica.RowStore. A table with a registered
// column set rejects unknown columns the way Postgres reports SQLSTATE
// 42703; tables without one accept anything.
type memStore struct {
	mu      sync.Mutex
	columns map[string]map[string]bool
	rows    map[string]map[string]replica.Row
}

var _ replica.RowStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		columns: make(map[string]map[string]bool),
		rows:    make(map[string]map[string]replica.Row),
	}
}

func (s *memStore) setColumns(table string, cols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(cols))
	for _, col := range cols {
		set[col] = true
	}
	s.columns[table] = set
}

func (s *memStore) get(table, id string) (replica.Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[table][id]
	return row, ok
}

func (s *memStore) count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[table])
}

func (s *memStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = make(map[string]map[string]bool)
	s.rows = make(map[string]map[string]replica.Row)
}

func (s *memStore) SelectRows(ctx context.Context, table string, columns []string) ([]replica.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]replica.Row, 0, len(s.rows[table]))
	for _, id := range s.sortedIDs(table) {
		row := s.rows[table][id]
		if len(columns) == 0 {
			rows = append(rows, row)
			continue
		}
		projected := make(replica.Row, len(columns))
		for _, col := range columns {
			if v, ok := row[col]; ok {
				projected[col] = v
			}
		}
		rows = append(rows, projected)
	}
	return rows, nil
}

func (s *memStore) UpsertRows(ctx context.Context, table string, rows []replica.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if allowed := s.columns[table]; allowed != nil {
		for _, row := range rows {
			for col := range row {
				if !allowed[col] {
					return &replica.MissingColumnError{Table: table, Column: col}
				}
			}
		}
	}
	if s.rows[table] == nil {
		s.rows[table] = make(map[string]replica.Row)
	}
	for _, row := range rows {
		id, _ := row["id"].(string)
		existing, ok := s.rows[table][id]
		if !ok {
			existing = make(replica.Row, len(row))
			s.rows[table][id] = existing
		}
		for col, v := range row {
			existing[col] = v
		}
	}
	return nil
}

func (s *memStore) DeleteRow(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows[table], id)
	return nil
}

func (s *memStore) put(table string, row replica.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := row["id"].(string)
	if s.rows[table] == nil {
		s.rows[table] = make(map[string]replica.Row)
	}
	s.rows[table][id] = row
}

func (s *memStore) sortedIDs(table string) []string {
	ids := make([]string, 0, len(s.rows[table]))
	for id := range s.rows[table] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
