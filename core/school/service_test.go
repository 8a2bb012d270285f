package school_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/school"
	dummydb "github.com/edlabs/academia/storage/database/dummy"
)

func newTestService(t *testing.T) (school.Service, school.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewSchoolRepository(db)
	return school.NewService(repo), repo
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	return validate
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, field, vErr.Fields[0].Field)
}

func TestService_DepartmentUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dep, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "Computer Science", Code: "cs"})
	require.NoError(t, err)
	require.NotEmpty(t, dep.ID)

	err = svc.CheckDepartmentUniqueness(ctx, "cs")
	assertFieldError(t, err, "code")

	// the department itself is excluded when updating
	assert.NoError(t, svc.CheckDepartmentUniqueness(ctx, "cs", dep))
}

func TestService_CreateEnrollment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dep, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "Mathematics", Code: "math"})
	require.NoError(t, err)
	crs, err := svc.CreateCourse(ctx, school.NewCourse{
		Name: "Linear Algebra", Code: "math201", Credits: 3, DepartmentID: dep.ID,
	})
	require.NoError(t, err)
	std, err := svc.CreateStudent(ctx, school.NewStudent{
		RegNo: "math2020_001", Name: "Peter Okafor", Email: "peter.okafor@academia.test",
		DepartmentID: dep.ID, EnrollmentYear: 2020,
	})
	require.NoError(t, err)

	enr, err := svc.CreateEnrollment(ctx, school.NewEnrollment{
		StudentID: std.ID, CourseID: crs.ID, Semester: "2021-1",
	})
	require.NoError(t, err)
	assert.Equal(t, std.ID, enr.StudentID)

	// unknown student
	_, err = svc.CreateEnrollment(ctx, school.NewEnrollment{
		StudentID: "2c1f0fcc-52bb-4f54-ad00-0fc43e0eb589", CourseID: crs.ID, Semester: "2021-1",
	})
	assertFieldError(t, err, "student_id")

	// duplicate (student, course, semester)
	err = svc.CheckEnrollmentUniqueness(ctx, std.ID, crs.ID, "2021-1")
	assertFieldError(t, err, "course_id")
	assert.NoError(t, svc.CheckEnrollmentUniqueness(ctx, std.ID, crs.ID, "2021-2"))
}

func TestService_ResultPerEnrollment(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	dep, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "Physics", Code: "phys"})
	require.NoError(t, err)
	crs, err := svc.CreateCourse(ctx, school.NewCourse{
		Name: "Classical Mechanics", Code: "phys101", Credits: 3, DepartmentID: dep.ID,
	})
	require.NoError(t, err)
	std, err := svc.CreateStudent(ctx, school.NewStudent{
		RegNo: "phys2022_001", Name: "Fatou Diallo", Email: "fatou.diallo@academia.test",
		DepartmentID: dep.ID, EnrollmentYear: 2022,
	})
	require.NoError(t, err)
	enr, err := svc.CreateEnrollment(ctx, school.NewEnrollment{
		StudentID: std.ID, CourseID: crs.ID, Semester: "2022-1",
	})
	require.NoError(t, err)

	res, err := svc.CreateResult(ctx, school.NewResult{EnrollmentID: enr.ID})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)

	err = svc.CheckResultUniqueness(ctx, enr.ID)
	assertFieldError(t, err, "enrollment_id")

	// deleting the enrollment cascades to its result
	require.NoError(t, svc.DeleteEnrollments(ctx, enr.ID))
	_, err = repo.GetResult(ctx, res.ID)
	assert.Equal(t, school.ErrNotFound, errors.Cause(err))
}

func TestService_UpdateDepartment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dep, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "Computer Science", Code: "cs"})
	require.NoError(t, err)

	ud := school.UpdateDepartment{Name: "Computing"}
	require.NoError(t, ud.Validate(ctx, dep, newValidate(t), svc))
	updated, err := svc.UpdateDepartment(ctx, dep.ID, ud)
	require.NoError(t, err)
	assert.Equal(t, "Computing", updated.Name)
	assert.Equal(t, "cs", updated.Code, "omitted code keeps the original")
}
