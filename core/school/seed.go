package school

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edlabs/academia/core/user"
)

// SeedReport lists how many records a seeding run actually created.
// Records that already existed are skipped, so re-running the seeder
// is harmless.
type SeedReport struct {
	Departments int `json:"departments"`
	Instructors int `json:"instructors"`
	Courses     int `json:"courses"`
	Students    int `json:"students"`
	Accounts    int `json:"accounts"`
	Enrollments int `json:"enrollments"`
	Attendance  int `json:"attendance"`
	Results     int `json:"results"`
}

// Seeder loads a small demo data set. Lookups go by natural key
// (department/course code, instructor email, student reg no) so the
// same run can be repeated against a half-seeded database. Every seeded
// student gets a linked student-role account (username = reg no).
type Seeder struct {
	repo    Repository
	usrRepo user.Repository
}

func NewSeeder(repo Repository, usrRepo user.Repository) *Seeder {
	return &Seeder{repo: repo, usrRepo: usrRepo}
}

func (s *Seeder) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport

	deps, err := s.seedDepartments(ctx, &report)
	if err != nil {
		return report, err
	}
	instructors, err := s.seedInstructors(ctx, deps, &report)
	if err != nil {
		return report, err
	}
	courses, err := s.seedCourses(ctx, deps, instructors, &report)
	if err != nil {
		return report, err
	}
	students, err := s.seedStudents(ctx, deps, &report)
	if err != nil {
		return report, err
	}
	enrollments, err := s.seedEnrollments(ctx, students, courses, &report)
	if err != nil {
		return report, err
	}
	if err = s.seedAttendance(ctx, enrollments, &report); err != nil {
		return report, err
	}
	if err = s.seedResults(ctx, enrollments, &report); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Seeder) seedDepartments(ctx context.Context, report *SeedReport) (map[string]Department, error) {
	seeds := []Department{
		{Name: "Computer Science", Code: "cs"},
		{Name: "Mathematics", Code: "math"},
		{Name: "Physics", Code: "phys"},
	}

	out := make(map[string]Department, len(seeds))
	for _, dep := range seeds {
		existing, err := s.repo.GetDepartmentByCode(ctx, dep.Code)
		if err == nil {
			out[dep.Code] = existing
			continue
		}
		if errors.Cause(err) != ErrNotFound {
			return nil, err
		}

		dep.CreatedAt = time.Now().UTC()
		dep.UpdatedAt = dep.CreatedAt
		created, err := s.repo.CreateDepartment(ctx, dep)
		if err != nil {
			return nil, err
		}
		out[dep.Code] = created
		report.Departments++
	}
	return out, nil
}

func (s *Seeder) seedInstructors(ctx context.Context, deps map[string]Department, report *SeedReport) (map[string]Instructor, error) {
	seeds := []Instructor{
		{Name: "Grace Mwangi", Email: "grace.mwangi@academia.test", Phone: null.StringFrom("+243810000001"), DepartmentID: deps["cs"].ID},
		{Name: "Daniel Kasongo", Email: "daniel.kasongo@academia.test", DepartmentID: deps["math"].ID},
		{Name: "Amina Sow", Email: "amina.sow@academia.test", DepartmentID: deps["phys"].ID},
	}

	out := make(map[string]Instructor, len(seeds))
	for _, ins := range seeds {
		existing, err := s.repo.GetInstructorByEmail(ctx, ins.Email)
		if err == nil {
			out[ins.Email] = existing
			continue
		}
		if errors.Cause(err) != ErrNotFound {
			return nil, err
		}

		ins.CreatedAt = time.Now().UTC()
		ins.UpdatedAt = ins.CreatedAt
		created, err := s.repo.CreateInstructor(ctx, ins)
		if err != nil {
			return nil, err
		}
		out[ins.Email] = created
		report.Instructors++
	}
	return out, nil
}

func (s *Seeder) seedCourses(ctx context.Context, deps map[string]Department, instructors map[string]Instructor, report *SeedReport) (map[string]Course, error) {
	seeds := []Course{
		{Name: "Introduction to Programming", Code: "cs101", Credits: 4, DepartmentID: deps["cs"].ID, InstructorID: null.StringFrom(instructors["grace.mwangi@academia.test"].ID)},
		{Name: "Data Structures", Code: "cs201", Credits: 4, DepartmentID: deps["cs"].ID, InstructorID: null.StringFrom(instructors["grace.mwangi@academia.test"].ID)},
		{Name: "Linear Algebra", Code: "math201", Credits: 3, DepartmentID: deps["math"].ID, InstructorID: null.StringFrom(instructors["daniel.kasongo@academia.test"].ID)},
		{Name: "Classical Mechanics", Code: "phys101", Credits: 3, DepartmentID: deps["phys"].ID},
	}

	out := make(map[string]Course, len(seeds))
	for _, crs := range seeds {
		existing, err := s.repo.GetCourseByCode(ctx, crs.Code)
		if err == nil {
			out[crs.Code] = existing
			continue
		}
		if errors.Cause(err) != ErrNotFound {
			return nil, err
		}

		crs.CreatedAt = time.Now().UTC()
		crs.UpdatedAt = crs.CreatedAt
		created, err := s.repo.CreateCourse(ctx, crs)
		if err != nil {
			return nil, err
		}
		out[crs.Code] = created
		report.Courses++
	}
	return out, nil
}

func (s *Seeder) seedStudents(ctx context.Context, deps map[string]Department, report *SeedReport) (map[string]Student, error) {
	dob := func(year int, month time.Month, day int) null.Time {
		return null.TimeFrom(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	}
	seeds := []Student{
		{RegNo: "cs2021_001", Name: "John Tshilombo", Email: "john.tshilombo@academia.test", DateOfBirth: dob(2002, time.March, 14), DepartmentID: deps["cs"].ID, EnrollmentYear: 2021},
		{RegNo: "cs2021_002", Name: "Marie Ilunga", Email: "marie.ilunga@academia.test", DateOfBirth: dob(2003, time.July, 2), DepartmentID: deps["cs"].ID, EnrollmentYear: 2021},
		{RegNo: "math2020_001", Name: "Peter Okafor", Email: "peter.okafor@academia.test", DepartmentID: deps["math"].ID, EnrollmentYear: 2020},
		{RegNo: "phys2022_001", Name: "Fatou Diallo", Email: "fatou.diallo@academia.test", DateOfBirth: dob(2004, time.January, 30), DepartmentID: deps["phys"].ID, EnrollmentYear: 2022},
	}

	out := make(map[string]Student, len(seeds))
	for _, std := range seeds {
		existing, err := s.repo.GetStudentByRegNo(ctx, std.RegNo)
		if err == nil {
			if existing, err = s.linkStudentAccount(ctx, existing, report); err != nil {
				return nil, err
			}
			out[std.RegNo] = existing
			continue
		}
		if errors.Cause(err) != ErrNotFound {
			return nil, err
		}

		acct, err := s.studentAccount(ctx, std, report)
		if err != nil {
			return nil, err
		}
		std.UserID = null.StringFrom(acct.ID)
		std.CreatedAt = time.Now().UTC()
		std.UpdatedAt = std.CreatedAt
		created, err := s.repo.CreateStudent(ctx, std)
		if err != nil {
			return nil, err
		}
		out[std.RegNo] = created
		report.Students++
	}
	return out, nil
}

// linkStudentAccount backfills the account link on a student left over
// from an earlier, partial seeding run.
func (s *Seeder) linkStudentAccount(ctx context.Context, std Student, report *SeedReport) (Student, error) {
	if std.UserID.Valid {
		return std, nil
	}
	acct, err := s.studentAccount(ctx, std, report)
	if err != nil {
		return Student{}, err
	}
	std.UserID = null.StringFrom(acct.ID)
	std.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateStudent(ctx, std)
}

// studentAccount finds or creates the student-role login tied to a
// seeded student. The reg no doubles as username and initial password.
func (s *Seeder) studentAccount(ctx context.Context, std Student, report *SeedReport) (user.User, error) {
	acct, err := s.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{std.RegNo, std.Email}})
	if err == nil {
		return acct, nil
	}
	if errors.Cause(err) != user.ErrNotFound {
		return user.User{}, err
	}

	now := time.Now().UTC()
	acct = user.User{
		Name:      std.Name,
		Username:  std.RegNo,
		Email:     std.Email,
		IsActive:  true,
		Roles:     user.StudentRoles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = acct.SetPassword(std.RegNo); err != nil {
		return user.User{}, err
	}
	created, err := s.usrRepo.CreateUser(ctx, acct)
	if err != nil {
		return user.User{}, err
	}
	report.Accounts++
	return created, nil
}

func (s *Seeder) seedEnrollments(ctx context.Context, students map[string]Student, courses map[string]Course, report *SeedReport) ([]Enrollment, error) {
	seeds := []struct {
		regNo, code, semester string
	}{
		{"cs2021_001", "cs101", "2021-1"},
		{"cs2021_001", "math201", "2021-1"},
		{"cs2021_002", "cs101", "2021-1"},
		{"math2020_001", "math201", "2021-1"},
		{"phys2022_001", "phys101", "2022-1"},
	}

	var out []Enrollment
	for _, seed := range seeds {
		std, crs := students[seed.regNo], courses[seed.code]

		existing, err := s.repo.QueryEnrollments(ctx, &EnrollmentFilter{
			StudentID: std.ID,
			CourseID:  crs.ID,
			Semester:  seed.semester,
		})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			out = append(out, existing[0])
			continue
		}

		now := time.Now().UTC()
		created, err := s.repo.CreateEnrollment(ctx, Enrollment{
			StudentID: std.ID,
			CourseID:  crs.ID,
			Semester:  seed.semester,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, created)
		report.Enrollments++
	}
	return out, nil
}

func (s *Seeder) seedAttendance(ctx context.Context, enrollments []Enrollment, report *SeedReport) error {
	day := time.Date(2021, time.September, 6, 0, 0, 0, 0, time.UTC)

	for i, enr := range enrollments {
		existing, err := s.repo.QueryAttendance(ctx, &AttendanceFilter{EnrollmentID: enr.ID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}

		now := time.Now().UTC()
		if _, err = s.repo.CreateAttendance(ctx, Attendance{
			EnrollmentID: enr.ID,
			Date:         day,
			Present:      i%3 != 0, // a few absentees
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return err
		}
		report.Attendance++
	}
	return nil
}

func (s *Seeder) seedResults(ctx context.Context, enrollments []Enrollment, report *SeedReport) error {
	scores := []float64{88, 74, 91, 62, 79}

	for i, enr := range enrollments {
		if err := s.repo.CheckResultUniqueness(ctx, enr.ID); err != nil {
			if errors.Cause(err) == ErrResultExists {
				continue
			}
			return err
		}

		now := time.Now().UTC()
		if _, err := s.repo.CreateResult(ctx, Result{
			EnrollmentID: enr.ID,
			Score:        null.Float64From(scores[i%len(scores)]),
			Grade:        null.StringFrom(gradeFor(scores[i%len(scores)])),
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return err
		}
		report.Results++
	}
	return nil
}

func gradeFor(score float64) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 55:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}
