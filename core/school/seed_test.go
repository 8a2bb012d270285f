package school_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
	dummydb "github.com/edlabs/academia/storage/database/dummy"
)

func seederFixture(t *testing.T) (*school.Seeder, school.Repository, user.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewSchoolRepository(db)
	usrRepo := dummydb.NewUserRepository(db)
	return school.NewSeeder(repo, usrRepo), repo, usrRepo
}

func TestSeeder_Seed(t *testing.T) {
	seeder, repo, _ := seederFixture(t)
	ctx := context.Background()

	report, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Departments)
	assert.Equal(t, 3, report.Instructors)
	assert.Equal(t, 4, report.Courses)
	assert.Equal(t, 4, report.Students)
	assert.Equal(t, 4, report.Accounts)
	assert.Equal(t, 5, report.Enrollments)
	assert.Equal(t, 5, report.Attendance)
	assert.Equal(t, 5, report.Results)

	dep, err := repo.GetDepartmentByCode(ctx, "cs")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", dep.Name)

	std, err := repo.GetStudentByRegNo(ctx, "cs2021_001")
	require.NoError(t, err)
	enrs, err := repo.QueryEnrollments(ctx, &school.EnrollmentFilter{StudentID: std.ID})
	require.NoError(t, err)
	assert.Len(t, enrs, 2)
}

func TestSeeder_SeedLinksStudentAccounts(t *testing.T) {
	seeder, repo, usrRepo := seederFixture(t)
	ctx := context.Background()

	_, err := seeder.Seed(ctx)
	require.NoError(t, err)

	students, err := repo.QueryStudents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, students, 4)
	for _, std := range students {
		require.True(t, std.UserID.Valid, "student %s (%s) has no linked account", std.RegNo, std.Name)

		acct, err := usrRepo.GetUser(ctx, user.GetFilter{ID: std.UserID.String})
		require.NoError(t, err)
		assert.Equal(t, std.RegNo, acct.Username)
		assert.Equal(t, std.Email, acct.Email)
		assert.True(t, acct.IsActive)
		assert.True(t, acct.IsStudent())
		assert.NoError(t, acct.CheckPassword(std.RegNo))
	}
}

func TestSeeder_SeedBackfillsMissingAccountLinks(t *testing.T) {
	seeder, repo, usrRepo := seederFixture(t)
	ctx := context.Background()

	// a student provisioned before accounts were part of the demo set
	dep, err := repo.CreateDepartment(ctx, school.Department{Name: "Computer Science", Code: "cs"})
	require.NoError(t, err)
	orphan, err := repo.CreateStudent(ctx, school.Student{
		RegNo: "cs2021_001", Name: "John Tshilombo", Email: "john.tshilombo@academia.test",
		DepartmentID: dep.ID, EnrollmentYear: 2021,
	})
	require.NoError(t, err)
	require.False(t, orphan.UserID.Valid)

	_, err = seeder.Seed(ctx)
	require.NoError(t, err)

	std, err := repo.GetStudentByRegNo(ctx, "cs2021_001")
	require.NoError(t, err)
	require.True(t, std.UserID.Valid)
	acct, err := usrRepo.GetUser(ctx, user.GetFilter{ID: std.UserID.String})
	require.NoError(t, err)
	assert.Equal(t, "cs2021_001", acct.Username)
}

func TestSeeder_SeedIsIdempotent(t *testing.T) {
	seeder, repo, usrRepo := seederFixture(t)
	ctx := context.Background()

	_, err := seeder.Seed(ctx)
	require.NoError(t, err)

	report, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.SeedReport{}, report, "second run must create nothing")

	deps, err := repo.QueryDepartments(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, deps, 3)
	students, err := repo.QueryStudents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, students, 4)
	accounts, err := usrRepo.QueryUsers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, accounts, 4)
}
