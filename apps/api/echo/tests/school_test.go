package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
	testutil "github.com/edlabs/academia/tests"
)

func postJSON(t *testing.T, token, path string, body interface{}, out interface{}) int {
	t.Helper()
	req, rec := newAuthRequest(http.MethodPost, path, token, marshalObj(t, body))
	app.ServeHTTP(rec, req)
	if out != nil && rec.Code < http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func Test_schoolApi_departmentCRUD(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Sch Admin", "schadmin", "schadmin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Sch Teacher", "schteacher", "schteacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Sch Student", "schstudent", "schstudent@test.cd", "", []string{user.RoleStudent}, true)

	teacherToken := getToken(t, teacher)

	// students cannot create
	code := postJSON(t, getToken(t, student), "/v1/departments", map[string]string{"name": "History", "code": "hist"}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// teachers can
	var dep school.Department
	code = postJSON(t, teacherToken, "/v1/departments", map[string]string{"name": "History", "code": "hist"}, &dep)
	require.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, dep.ID)

	// duplicate code is a validation error
	code = postJSON(t, teacherToken, "/v1/departments", map[string]string{"name": "Histories", "code": "hist"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// anyone authed can read
	req, rec := newAuthRequest(http.MethodGet, "/v1/departments/"+dep.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/departments?"+url.Values{"search": []string{"history"}}.Encode(), teacherToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var deps []school.Department
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deps))
	require.Len(t, deps, 1)
	assert.Equal(t, dep.ID, deps[0].ID)

	// rename
	req, rec = newAuthRequest(http.MethodPut, "/v1/departments/"+dep.ID, teacherToken, marshalObj(t, map[string]string{"name": "Modern History"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated school.Department
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Modern History", updated.Name)
	assert.Equal(t, "hist", updated.Code)

	// deletes are admin-only
	req, rec = newAuthRequest(http.MethodDelete, "/v1/departments/"+dep.ID, teacherToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/departments/"+dep.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/departments/"+dep.ID, teacherToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_schoolApi_academicRecordFlow(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Flow Teacher", "flowteacher", "flowteacher@test.cd", "", []string{user.RoleTeacher}, true)
	token := getToken(t, teacher)

	var dep school.Department
	code := postJSON(t, token, "/v1/departments", map[string]string{"name": "Geography", "code": "geo"}, &dep)
	require.Equal(t, http.StatusCreated, code)

	var ins school.Instructor
	code = postJSON(t, token, "/v1/instructors", map[string]interface{}{
		"name": "Alan Kalala", "email": "alan.kalala@test.cd", "department_id": dep.ID,
	}, &ins)
	require.Equal(t, http.StatusCreated, code)

	var crs school.Course
	code = postJSON(t, token, "/v1/courses", map[string]interface{}{
		"name": "Cartography", "code": "geo101", "credits": 3, "department_id": dep.ID, "instructor_id": ins.ID,
	}, &crs)
	require.Equal(t, http.StatusCreated, code)

	var std school.Student
	code = postJSON(t, token, "/v1/students", map[string]interface{}{
		"reg_no": "GEO-0001", "name": "Nadia Ilunga", "email": "nadia.ilunga@test.cd",
		"department_id": dep.ID, "enrollment_year": 2026,
	}, &std)
	require.Equal(t, http.StatusCreated, code)

	// rejects a malformed semester
	code = postJSON(t, token, "/v1/enrollments", map[string]interface{}{
		"student_id": std.ID, "course_id": crs.ID, "semester": "spring-26",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var enr school.Enrollment
	code = postJSON(t, token, "/v1/enrollments", map[string]interface{}{
		"student_id": std.ID, "course_id": crs.ID, "semester": "2026-1",
	}, &enr)
	require.Equal(t, http.StatusCreated, code)

	// double enrollment is rejected
	code = postJSON(t, token, "/v1/enrollments", map[string]interface{}{
		"student_id": std.ID, "course_id": crs.ID, "semester": "2026-1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var att school.Attendance
	code = postJSON(t, token, "/v1/attendance", map[string]interface{}{
		"enrollment_id": enr.ID, "date": "2026-03-02T00:00:00Z", "present": true,
	}, &att)
	require.Equal(t, http.StatusCreated, code)

	var res school.Result
	code = postJSON(t, token, "/v1/results", map[string]interface{}{
		"enrollment_id": enr.ID, "score": 87.5, "grade": "A",
	}, &res)
	require.Equal(t, http.StatusCreated, code)

	// one result per enrollment
	code = postJSON(t, token, "/v1/results", map[string]interface{}{
		"enrollment_id": enr.ID, "score": 42.0,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// out-of-range score
	req, rec := newAuthRequest(http.MethodPut, "/v1/results/"+res.ID, token, marshalObj(t, map[string]interface{}{"score": 140.0}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// filter results by enrollment
	req, rec = newAuthRequest(http.MethodGet, "/v1/results?"+url.Values{"enrollment_id": []string{enr.ID}}.Encode(), token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []school.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, res.ID, results[0].ID)
}

func Test_schoolApi_studentScoping(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Scope Teacher", "scopeteacher", "scopeteacher@test.cd", "", []string{user.RoleTeacher}, true)
	mine := testutil.CreateUser(t, usrRepo, "Scope Mine", "scopemine", "scopemine@test.cd", "", []string{user.RoleStudent}, true)
	orphan := testutil.CreateUser(t, usrRepo, "Scope Orphan", "scopeorphan", "scopeorphan@test.cd", "", []string{user.RoleStudent}, true)
	staffToken := getToken(t, teacher)
	mineToken := getToken(t, mine)

	var dep school.Department
	code := postJSON(t, staffToken, "/v1/departments", map[string]string{"name": "Music", "code": "mus"}, &dep)
	require.Equal(t, http.StatusCreated, code)

	var crs school.Course
	code = postJSON(t, staffToken, "/v1/courses", map[string]interface{}{
		"name": "Harmony", "code": "mus101", "credits": 2, "department_id": dep.ID,
	}, &crs)
	require.Equal(t, http.StatusCreated, code)

	var own, other school.Student
	code = postJSON(t, staffToken, "/v1/students", map[string]interface{}{
		"reg_no": "MUS-0001", "name": "Scope Mine", "email": "scope.mine@test.cd",
		"department_id": dep.ID, "enrollment_year": 2026, "user_id": mine.ID,
	}, &own)
	require.Equal(t, http.StatusCreated, code)
	code = postJSON(t, staffToken, "/v1/students", map[string]interface{}{
		"reg_no": "MUS-0002", "name": "Scope Other", "email": "scope.other@test.cd",
		"department_id": dep.ID, "enrollment_year": 2026,
	}, &other)
	require.Equal(t, http.StatusCreated, code)

	var ownEnr, otherEnr school.Enrollment
	code = postJSON(t, staffToken, "/v1/enrollments", map[string]interface{}{
		"student_id": own.ID, "course_id": crs.ID, "semester": "2026-1",
	}, &ownEnr)
	require.Equal(t, http.StatusCreated, code)
	code = postJSON(t, staffToken, "/v1/enrollments", map[string]interface{}{
		"student_id": other.ID, "course_id": crs.ID, "semester": "2026-1",
	}, &otherEnr)
	require.Equal(t, http.StatusCreated, code)

	var ownRes, otherRes school.Result
	code = postJSON(t, staffToken, "/v1/results", map[string]interface{}{"enrollment_id": ownEnr.ID, "score": 75.0}, &ownRes)
	require.Equal(t, http.StatusCreated, code)
	code = postJSON(t, staffToken, "/v1/results", map[string]interface{}{"enrollment_id": otherEnr.ID, "score": 60.0}, &otherRes)
	require.Equal(t, http.StatusCreated, code)

	var ownAtt school.Attendance
	code = postJSON(t, staffToken, "/v1/attendance", map[string]interface{}{
		"enrollment_id": ownEnr.ID, "date": "2026-03-09T00:00:00Z", "present": true,
	}, &ownAtt)
	require.Equal(t, http.StatusCreated, code)
	code = postJSON(t, staffToken, "/v1/attendance", map[string]interface{}{
		"enrollment_id": otherEnr.ID, "date": "2026-03-09T00:00:00Z", "present": false,
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	// a student only lists their own record
	req, rec := newAuthRequest(http.MethodGet, "/v1/students", mineToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var students []school.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	require.Len(t, students, 1)
	assert.Equal(t, own.ID, students[0].ID)

	// other students' records look absent
	req, rec = newAuthRequest(http.MethodGet, "/v1/students/"+other.ID, mineToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// enrollment listing is forced onto the caller's record
	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments", mineToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrollments []school.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrollments))
	require.Len(t, enrollments, 1)
	assert.Equal(t, ownEnr.ID, enrollments[0].ID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments/"+otherEnr.ID, mineToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// unfiltered listings aggregate across the student's own enrollments
	req, rec = newAuthRequest(http.MethodGet, "/v1/results", mineToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []school.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, ownRes.ID, results[0].ID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance", mineToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var attendance []school.Attendance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attendance))
	require.Len(t, attendance, 1)
	assert.Equal(t, ownAtt.ID, attendance[0].ID)

	// an explicit filter on an owned enrollment still works
	req, rec = newAuthRequest(http.MethodGet, "/v1/results?"+url.Values{"enrollment_id": []string{ownEnr.ID}}.Encode(), mineToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	results = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, ownRes.ID, results[0].ID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/results?"+url.Values{"enrollment_id": []string{otherEnr.ID}}.Encode(), mineToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	results = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Empty(t, results)

	req, rec = newAuthRequest(http.MethodGet, "/v1/results/"+otherRes.ID, mineToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// an account without a linked student record sees nothing
	req, rec = newAuthRequest(http.MethodGet, "/v1/students", getToken(t, orphan))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	students = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	assert.Empty(t, students)
}
