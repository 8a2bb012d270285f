package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlabs/academia/core/user"
	testutil "github.com/edlabs/academia/tests"
)

func Test_userApi_login(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Login User", "loginusr", "loginusr@test.cd", "LePassword", nil, true)
	testutil.CreateUser(t, usrRepo, "Gone User", "goneusr", "goneusr@test.cd", "LePassword", nil, false)

	tests := []httpTest{
		{
			name: "username works", wantCode: http.StatusOK,
			body: marshalObj(t, map[string]string{"username": usr.Username, "password": "LePassword"}),
		},
		{
			name: "email works", wantCode: http.StatusOK,
			body: marshalObj(t, map[string]string{"username": usr.Email, "password": "LePassword"}),
		},
		{
			name: "wrong password fails", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, map[string]string{"username": usr.Username, "password": "oops"}),
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown user fails", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, map[string]string{"username": "nobody", "password": "LePassword"}),
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account fails", wantCode: http.StatusForbidden,
			body:     marshalObj(t, map[string]string{"username": "goneusr", "password": "LePassword"}),
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "missing fields fail", wantCode: http.StatusBadRequest,
			body: marshalObj(t, map[string]string{"username": usr.Username}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				return
			}
			if tt.wantCode == http.StatusOK {
				var res struct {
					Token string `json:"token"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.NotEmpty(t, res.Token)
			} else if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_userApi_register(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Reg Admin", "regadmin", "regadmin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Reg Teacher", "regteacher", "regteacher@test.cd", "", []string{user.RoleTeacher}, true)

	newUsr := func(uname string, roles ...string) []byte {
		return marshalObj(t, map[string]interface{}{
			"name":             "New " + uname,
			"username":         uname,
			"email":            uname + "@test.cd",
			"password":         "LePassword",
			"password_confirm": "LePassword",
			"roles":            roles,
		})
	}

	tests := []httpTest{
		{name: "anonymous gets 401", body: newUsr("anon01"), wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "teacher gets 403", body: newUsr("t01"), token: getToken(t, teacher), wantCode: http.StatusForbidden},
		{name: "admin can register", body: newUsr("fresh01", user.RoleStudent), token: getToken(t, admin), wantCode: http.StatusCreated},
		{name: "duplicate username rejected", body: newUsr("fresh01"), token: getToken(t, admin), wantCode: http.StatusBadRequest},
		{name: "cannot grant a role above own", body: newUsr("fresh02", user.RoleAdminOwner), token: getToken(t, admin), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Ret Admin", "retadmin", "retadmin@test.cd", "", []string{user.RoleAdmin}, true)
	usr := testutil.CreateUser(t, usrRepo, "Ret User", "retusr", "retusr@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "Ret Other", "retother", "retother@test.cd", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "own profile", path: "/v1/users/" + usr.ID, token: getToken(t, usr), wantCode: http.StatusOK, wantData: marshalObj(t, usr)},
		{name: "admin can read anyone", path: "/v1/users/" + usr.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marshalObj(t, usr)},
		{name: "someone else's profile is hidden", path: "/v1/users/" + other.ID, token: getToken(t, usr), wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Query Admin", "qryadmin", "qryadmin@test.cd", "", []string{user.RoleAdmin}, true)
	usr := testutil.CreateUser(t, usrRepo, "Zorglub Unique", "zorglub", "zorglub@test.cd", "", []string{user.RoleStudent}, true)

	path := "/v1/users?" + url.Values{"search": []string{"zorglub"}}.Encode()
	req, rec := newAuthRequest(http.MethodGet, path, getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users []user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, usr.ID, users[0].ID)

	// non-admins cannot list users
	req, rec = newAuthRequest(http.MethodGet, "/v1/users", getToken(t, usr))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_userApi_update(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Upd Admin", "updadmin", "updadmin@test.cd", "", []string{user.RoleAdmin}, true)
	usr := testutil.CreateUser(t, usrRepo, "Upd User", "updusr", "updusr@test.cd", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{
			name: "user can change own name", path: "/v1/users/" + usr.ID, token: getToken(t, usr), wantCode: http.StatusOK,
			body: marshalObj(t, map[string]string{"name": "Renamed User"}),
		},
		{
			name: "user cannot grant themselves roles", path: "/v1/users/" + usr.ID, token: getToken(t, usr), wantCode: http.StatusForbidden,
			body: marshalObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}}),
		},
		{
			name: "admin can deactivate", path: "/v1/users/" + usr.ID, token: getToken(t, admin), wantCode: http.StatusOK,
			body: marshalObj(t, map[string]interface{}{"is_active": false}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func Test_userApi_destroy(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Del Admin", "deladmin", "deladmin@test.cd", "", []string{user.RoleAdmin}, true)
	victim := testutil.CreateUser(t, usrRepo, "Del Victim", "delvictim", "delvictim@test.cd", "", []string{user.RoleStudent}, true)

	// self-deletion is forbidden
	req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/users/"+victim.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+victim.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_userApi_passwordReset(t *testing.T) {
	testutil.CreateUser(t, usrRepo, "Reset User", "resetusr", "resetusr@test.cd", "OldPassword", nil, true)

	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", marshalObj(t, map[string]string{"email": "resetusr@test.cd"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// an unknown address gets the same response; no account probing
	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset", marshalObj(t, map[string]string{"email": "whoami@test.cd"}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_userApi_tokenRefresh(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Refresh User", "refreshusr", "refreshusr@test.cd", "", nil, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
}
