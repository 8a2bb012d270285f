package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
	testutil "github.com/edlabs/academia/tests"
)

type replicationResult struct {
	Success bool           `json:"success"`
	Result  replica.Result `json:"result"`
}

func replicate(t *testing.T, token string, body interface{}) (*replicationResult, int) {
	t.Helper()
	req, rec := newAuthRequest(http.MethodPost, "/v1/replication", token, marshalObj(t, body))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return nil, rec.Code
	}
	var res replicationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return &res, rec.Code
}

func Test_replicaApi_authRequired(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Repl Admin", "repladmin", "repladmin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Repl Student", "replstudent", "replstudent@test.cd", "", []string{user.RoleStudent}, true)

	body := marshalObj(t, map[string]interface{}{
		"operation": "INSERT",
		"table":     school.TableDepartment,
		"data":      replica.Row{"id": "d-auth", "name": "Auth", "code": "auth"},
	})

	tests := []httpTest{
		{name: "anonymous gets 401", method: http.MethodPost, path: "/v1/replication", body: body, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "student gets 403", method: http.MethodPost, path: "/v1/replication", body: body, token: getToken(t, student), wantCode: http.StatusForbidden},
		{name: "admin gets 200", method: http.MethodPost, path: "/v1/replication", body: body, token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func Test_replicaApi_upsertIsIdempotent(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Repl Admin2", "repladmin2", "repladmin2@test.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	body := map[string]interface{}{
		"operation": "INSERT",
		"table":     school.TableCourse,
		"data":      replica.Row{"id": "c-idem", "name": "Databases", "code": "db101", "credits": float64(4)},
	}

	res, code := replicate(t, token, body)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Result.Applied)
	assert.Empty(t, res.Result.DroppedColumns)

	// replaying the same change converges to the same mirror state
	body["operation"] = "UPDATE"
	res, code = replicate(t, token, body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, res.Result.Applied)

	row, ok := mirrorStore.get(school.TableCourse, "c-idem")
	require.True(t, ok)
	assert.Equal(t, "Databases", row["name"])
}

func Test_replicaApi_ghostColumnIsDropped(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Repl Admin3", "repladmin3", "repladmin3@test.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	mirrorStore.setColumns(school.TableStudent, school.ReplicaColumns[school.TableStudent]...)

	row := replica.Row{"id": "s-ghost", "name": "Drifter", "reg_no": "REG-9000", "ghost_column": "boo"}
	res, code := replicate(t, token, map[string]interface{}{
		"operation": "INSERT",
		"table":     school.TableStudent,
		"data":      row,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, res.Result.Applied)
	assert.Equal(t, []string{"ghost_column"}, res.Result.DroppedColumns)

	mirrored, ok := mirrorStore.get(school.TableStudent, "s-ghost")
	require.True(t, ok)
	assert.Equal(t, "Drifter", mirrored["name"])
	assert.NotContains(t, mirrored, "ghost_column")
}

func Test_replicaApi_retryBound(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Repl Admin4", "repladmin4", "repladmin4@test.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	mirrorStore.setColumns("exam", "id")

	// 10 unknown columns can all be shed within the attempt bound
	row := replica.Row{"id": "e1"}
	for i := 0; i < 10; i++ {
		row[fmt.Sprintf("ghost_%02d", i)] = i
	}
	res, code := replicate(t, token, map[string]interface{}{"operation": "INSERT", "table": "exam", "data": row})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, res.Result.Applied)
	assert.Len(t, res.Result.DroppedColumns, 10)

	// an 11th unknown column exhausts the retry budget
	row = replica.Row{"id": "e2"}
	for i := 0; i < 11; i++ {
		row[fmt.Sprintf("ghost_%02d", i)] = i
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/replication", token,
		marshalObj(t, map[string]interface{}{"operation": "INSERT", "table": "exam", "data": row}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	var failure struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	assert.Equal(t, "replication retries exhausted", failure.Error)
	assert.Contains(t, failure.Details, `"exam"`)

	_, ok := mirrorStore.get("exam", "e2")
	assert.False(t, ok)
}

func Test_replicaApi_deleteIsIdempotent(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Repl Admin5", "repladmin5", "repladmin5@test.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	mirrorStore.put(school.TableDepartment, replica.Row{"id": "d-del", "name": "Doomed", "code": "doom"})

	body := map[string]interface{}{"operation": "DELETE", "table": school.TableDepartment, "id": "d-del"}

	res, code := replicate(t, token, body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "d-del", res.Result.DeletedID)
	_, ok := mirrorStore.get(school.TableDepartment, "d-del")
	assert.False(t, ok)

	// deleting an absent row succeeds too
	res, code = replicate(t, token, body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "d-del", res.Result.DeletedID)
}

func Test_replicaApi_resyncAll(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Repl Admin6", "repladmin6", "repladmin6@test.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	const table = "enrollment"
	for i := 0; i < 7; i++ {
		primaryStore.put(table, replica.Row{
			"id":         fmt.Sprintf("en-%02d", i),
			"student_id": fmt.Sprintf("s-%02d", i),
			"course_id":  "c-idem",
			"semester":   "2026-1",
		})
	}

	res, code := replicate(t, token, map[string]interface{}{"operation": "SYNC_ALL", "table": table})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 7, res.Result.Applied)
	assert.GreaterOrEqual(t, mirrorStore.count(table), 7)
}

func Test_replicaApi_requestValidation(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Repl Admin7", "repladmin7", "repladmin7@test.cd", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	tests := []httpTest{
		{
			name: "unknown operation", wantCode: http.StatusBadRequest,
			body: marshalObj(t, map[string]interface{}{"operation": "TRUNCATE", "table": "course"}),
		},
		{
			name: "missing table", wantCode: http.StatusBadRequest,
			body: marshalObj(t, map[string]interface{}{"operation": "INSERT", "data": replica.Row{"id": "x"}}),
		},
		{
			name: "insert without data", wantCode: http.StatusBadRequest,
			body: marshalObj(t, map[string]interface{}{"operation": "INSERT", "table": "course"}),
		},
		{
			name: "delete without id", wantCode: http.StatusBadRequest,
			body: marshalObj(t, map[string]interface{}{"operation": "DELETE", "table": "course"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/replication", token, tt.body)
			app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func Test_replicaApi_demoSeed(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Seed Admin", "seedadmin", "seedadmin@test.cd", "", []string{user.RoleAdmin}, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/demo-seed", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report school.SeedReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Departments)
	assert.Equal(t, 4, report.Courses)
	assert.Equal(t, 4, report.Accounts, "seeded students come with login accounts")

	// replaying the seed changes nothing
	req, rec = newAuthRequest(http.MethodPost, "/v1/demo-seed", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, school.SeedReport{}, report)
}
