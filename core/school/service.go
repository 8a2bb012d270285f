package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edlabs/academia/core"
)

var (
	// errors
	ErrNotFound           = errors.New("record not found")
	ErrDeptCodeExists     = errors.New("a department with this code already exists")
	ErrInstrEmailExists   = errors.New("an instructor with this email already exists")
	ErrCourseCodeExists   = errors.New("a course with this code already exists")
	ErrRegNoExists        = errors.New("a student with this registration number already exists")
	ErrStudentEmailExists = errors.New("a student with this email already exists")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course for this semester")
	ErrResultExists       = errors.New("a result already exists for this enrollment")
)

type (
	Repository interface {
		// departments
		CheckDepartmentUniqueness(ctx context.Context, code string, excluded ...Department) error
		CreateDepartment(ctx context.Context, dep Department) (Department, error)
		QueryDepartments(ctx context.Context, filter *DepartmentFilter, ordering ...core.DBOrdering) ([]Department, error)
		GetDepartment(ctx context.Context, id string) (Department, error)
		GetDepartmentByCode(ctx context.Context, code string) (Department, error)
		UpdateDepartment(ctx context.Context, dep Department) (Department, error)
		DeleteDepartmentsByID(ctx context.Context, ids ...string) error

		// instructors
		CheckInstructorUniqueness(ctx context.Context, email string, excluded ...Instructor) error
		CreateInstructor(ctx context.Context, ins Instructor) (Instructor, error)
		QueryInstructors(ctx context.Context, filter *InstructorFilter, ordering ...core.DBOrdering) ([]Instructor, error)
		GetInstructor(ctx context.Context, id string) (Instructor, error)
		GetInstructorByEmail(ctx context.Context, email string) (Instructor, error)
		UpdateInstructor(ctx context.Context, ins Instructor) (Instructor, error)
		DeleteInstructorsByID(ctx context.Context, ids ...string) error

		// courses
		CheckCourseUniqueness(ctx context.Context, code string, excluded ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter, ordering ...core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		GetCourseByCode(ctx context.Context, code string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		// students
		CheckStudentUniqueness(ctx context.Context, regNo, email string, excluded ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering ...core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetStudentByRegNo(ctx context.Context, regNo string) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error

		// enrollments
		CheckEnrollmentUniqueness(ctx context.Context, studentID, courseID, semester string, excluded ...Enrollment) error
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter *EnrollmentFilter, ordering ...core.DBOrdering) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		DeleteEnrollmentsByID(ctx context.Context, ids ...string) error

		// attendance
		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		QueryAttendance(ctx context.Context, filter *AttendanceFilter, ordering ...core.DBOrdering) ([]Attendance, error)
		GetAttendance(ctx context.Context, id string) (Attendance, error)
		UpdateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		DeleteAttendanceByID(ctx context.Context, ids ...string) error

		// results
		CheckResultUniqueness(ctx context.Context, enrollmentID string, excluded ...Result) error
		CreateResult(ctx context.Context, res Result) (Result, error)
		QueryResults(ctx context.Context, filter *ResultFilter, ordering ...core.DBOrdering) ([]Result, error)
		GetResult(ctx context.Context, id string) (Result, error)
		UpdateResult(ctx context.Context, res Result) (Result, error)
		DeleteResultsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckDepartmentUniqueness(ctx context.Context, code string, excluded ...Department) error
		CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error)
		QueryDepartments(ctx context.Context, filter *DepartmentFilter, ordering ...core.DBOrdering) ([]Department, error)
		GetDepartment(ctx context.Context, id string) (Department, error)
		UpdateDepartment(ctx context.Context, id string, ud UpdateDepartment) (Department, error)
		DeleteDepartments(ctx context.Context, ids ...string) error

		CheckInstructorUniqueness(ctx context.Context, email string, excluded ...Instructor) error
		CreateInstructor(ctx context.Context, ni NewInstructor) (Instructor, error)
		QueryInstructors(ctx context.Context, filter *InstructorFilter, ordering ...core.DBOrdering) ([]Instructor, error)
		GetInstructor(ctx context.Context, id string) (Instructor, error)
		UpdateInstructor(ctx context.Context, id string, ui UpdateInstructor) (Instructor, error)
		DeleteInstructors(ctx context.Context, ids ...string) error

		CheckCourseUniqueness(ctx context.Context, code string, excluded ...Course) error
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter, ordering ...core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		DeleteCourses(ctx context.Context, ids ...string) error

		CheckStudentUniqueness(ctx context.Context, regNo, email string, excluded ...Student) error
		CreateStudent(ctx context.Context, ns NewStudent) (Student, error)
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering ...core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string) (Student, error)
		UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error)
		DeleteStudents(ctx context.Context, ids ...string) error

		CheckEnrollmentUniqueness(ctx context.Context, studentID, courseID, semester string, excluded ...Enrollment) error
		CreateEnrollment(ctx context.Context, ne NewEnrollment) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter *EnrollmentFilter, ordering ...core.DBOrdering) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, id string, ue UpdateEnrollment) (Enrollment, error)
		DeleteEnrollments(ctx context.Context, ids ...string) error

		CreateAttendance(ctx context.Context, na NewAttendance) (Attendance, error)
		QueryAttendance(ctx context.Context, filter *AttendanceFilter, ordering ...core.DBOrdering) ([]Attendance, error)
		GetAttendance(ctx context.Context, id string) (Attendance, error)
		UpdateAttendance(ctx context.Context, id string, ua UpdateAttendance) (Attendance, error)
		DeleteAttendance(ctx context.Context, ids ...string) error

		CheckResultUniqueness(ctx context.Context, enrollmentID string, excluded ...Result) error
		CreateResult(ctx context.Context, nr NewResult) (Result, error)
		QueryResults(ctx context.Context, filter *ResultFilter, ordering ...core.DBOrdering) ([]Result, error)
		GetResult(ctx context.Context, id string) (Result, error)
		UpdateResult(ctx context.Context, id string, ur UpdateResult) (Result, error)
		DeleteResults(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// fieldError maps a known uniqueness error to a core.ValidationError on field.
func fieldError(err error, field string) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// ---------------------------------------------------------------------------
// departments

func (svc *service) CheckDepartmentUniqueness(ctx context.Context, code string, excluded ...Department) error {
	if err := svc.repo.CheckDepartmentUniqueness(ctx, code, excluded...); err != nil {
		if errors.Cause(err) == ErrDeptCodeExists {
			return fieldError(err, "code")
		}
		return err
	}
	return nil
}

func (svc *service) CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error) {
	now := time.Now().UTC()
	return svc.repo.CreateDepartment(ctx, Department{
		Name:      nd.Name,
		Code:      nd.Code,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) QueryDepartments(ctx context.Context, filter *DepartmentFilter, ordering ...core.DBOrdering) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx, filter, ordering...)
}

func (svc *service) GetDepartment(ctx context.Context, id string) (Department, error) {
	return svc.repo.GetDepartment(ctx, id)
}

func (svc *service) UpdateDepartment(ctx context.Context, id string, ud UpdateDepartment) (Department, error) {
	return svc.repo.UpdateDepartment(ctx, Department{
		ID:        id,
		Name:      ud.Name,
		Code:      ud.Code,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) DeleteDepartments(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteDepartmentsByID(ctx, ids...)
}

// ---------------------------------------------------------------------------
// instructors

func (svc *service) CheckInstructorUniqueness(ctx context.Context, email string, excluded ...Instructor) error {
	if err := svc.repo.CheckInstructorUniqueness(ctx, email, excluded...); err != nil {
		if errors.Cause(err) == ErrInstrEmailExists {
			return fieldError(err, "email")
		}
		return err
	}
	return nil
}

func (svc *service) CreateInstructor(ctx context.Context, ni NewInstructor) (Instructor, error) {
	now := time.Now().UTC()
	return svc.repo.CreateInstructor(ctx, Instructor{
		Name:         ni.Name,
		Email:        ni.Email,
		Phone:        ni.Phone,
		DepartmentID: ni.DepartmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) QueryInstructors(ctx context.Context, filter *InstructorFilter, ordering ...core.DBOrdering) ([]Instructor, error) {
	return svc.repo.QueryInstructors(ctx, filter, ordering...)
}

func (svc *service) GetInstructor(ctx context.Context, id string) (Instructor, error) {
	return svc.repo.GetInstructor(ctx, id)
}

func (svc *service) UpdateInstructor(ctx context.Context, id string, ui UpdateInstructor) (Instructor, error) {
	return svc.repo.UpdateInstructor(ctx, Instructor{
		ID:           id,
		Name:         ui.Name,
		Email:        ui.Email,
		Phone:        ui.Phone,
		DepartmentID: ui.DepartmentID,
		UpdatedAt:    time.Now().UTC(),
	})
}

func (svc *service) DeleteInstructors(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteInstructorsByID(ctx, ids...)
}

// ---------------------------------------------------------------------------
// courses

func (svc *service) CheckCourseUniqueness(ctx context.Context, code string, excluded ...Course) error {
	if err := svc.repo.CheckCourseUniqueness(ctx, code, excluded...); err != nil {
		if errors.Cause(err) == ErrCourseCodeExists {
			return fieldError(err, "code")
		}
		return err
	}
	return nil
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Name:         nc.Name,
		Code:         nc.Code,
		Credits:      nc.Credits,
		DepartmentID: nc.DepartmentID,
		InstructorID: nc.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) QueryCourses(ctx context.Context, filter *CourseFilter, ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering...)
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	return svc.repo.UpdateCourse(ctx, Course{
		ID:           id,
		Name:         uc.Name,
		Code:         uc.Code,
		Credits:      uc.Credits,
		DepartmentID: uc.DepartmentID,
		InstructorID: uc.InstructorID,
		UpdatedAt:    time.Now().UTC(),
	})
}

func (svc *service) DeleteCourses(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

// ---------------------------------------------------------------------------
// students

func (svc *service) CheckStudentUniqueness(ctx context.Context, regNo, email string, excluded ...Student) error {
	if err := svc.repo.CheckStudentUniqueness(ctx, regNo, email, excluded...); err != nil {
		switch errors.Cause(err) {
		case ErrRegNoExists:
			return fieldError(err, "reg_no")
		case ErrStudentEmailExists:
			return fieldError(err, "email")
		}
		return err
	}
	return nil
}

func (svc *service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		UserID:         ns.UserID,
		RegNo:          ns.RegNo,
		Name:           ns.Name,
		Email:          ns.Email,
		DateOfBirth:    ns.DateOfBirth,
		DepartmentID:   ns.DepartmentID,
		EnrollmentYear: ns.EnrollmentYear,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *service) QueryStudents(ctx context.Context, filter *StudentFilter, ordering ...core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering...)
}

func (svc *service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) GetStudentByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

func (svc *service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	return svc.repo.UpdateStudent(ctx, Student{
		ID:             id,
		UserID:         us.UserID,
		RegNo:          us.RegNo,
		Name:           us.Name,
		Email:          us.Email,
		DateOfBirth:    us.DateOfBirth,
		DepartmentID:   us.DepartmentID,
		EnrollmentYear: us.EnrollmentYear,
		UpdatedAt:      time.Now().UTC(),
	})
}

func (svc *service) DeleteStudents(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

// ---------------------------------------------------------------------------
// enrollments

func (svc *service) CheckEnrollmentUniqueness(ctx context.Context, studentID, courseID, semester string, excluded ...Enrollment) error {
	if err := svc.repo.CheckEnrollmentUniqueness(ctx, studentID, courseID, semester, excluded...); err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return fieldError(err, "course_id")
		}
		return err
	}
	return nil
}

func (svc *service) CreateEnrollment(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	// enrollments must reference existing records
	if _, err := svc.repo.GetStudent(ctx, ne.StudentID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Enrollment{}, fieldError(ErrNotFound, "student_id")
		}
		return Enrollment{}, err
	}
	if _, err := svc.repo.GetCourse(ctx, ne.CourseID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Enrollment{}, fieldError(ErrNotFound, "course_id")
		}
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID: ne.StudentID,
		CourseID:  ne.CourseID,
		Semester:  ne.Semester,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) QueryEnrollments(ctx context.Context, filter *EnrollmentFilter, ordering ...core.DBOrdering) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter, ordering...)
}

func (svc *service) GetEnrollment(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

func (svc *service) UpdateEnrollment(ctx context.Context, id string, ue UpdateEnrollment) (Enrollment, error) {
	orig, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	orig.Semester = ue.Semester
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, orig)
}

func (svc *service) DeleteEnrollments(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteEnrollmentsByID(ctx, ids...)
}

// ---------------------------------------------------------------------------
// attendance

func (svc *service) CreateAttendance(ctx context.Context, na NewAttendance) (Attendance, error) {
	if _, err := svc.repo.GetEnrollment(ctx, na.EnrollmentID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Attendance{}, fieldError(ErrNotFound, "enrollment_id")
		}
		return Attendance{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateAttendance(ctx, Attendance{
		EnrollmentID: na.EnrollmentID,
		Date:         na.Date.UTC(),
		Present:      na.Present,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) QueryAttendance(ctx context.Context, filter *AttendanceFilter, ordering ...core.DBOrdering) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, filter, ordering...)
}

func (svc *service) GetAttendance(ctx context.Context, id string) (Attendance, error) {
	return svc.repo.GetAttendance(ctx, id)
}

func (svc *service) UpdateAttendance(ctx context.Context, id string, ua UpdateAttendance) (Attendance, error) {
	orig, err := svc.repo.GetAttendance(ctx, id)
	if err != nil {
		return Attendance{}, err
	}
	if ua.Date != nil {
		orig.Date = ua.Date.UTC()
	}
	if ua.Present != nil {
		orig.Present = *ua.Present
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAttendance(ctx, orig)
}

func (svc *service) DeleteAttendance(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAttendanceByID(ctx, ids...)
}

// ---------------------------------------------------------------------------
// results

func (svc *service) CheckResultUniqueness(ctx context.Context, enrollmentID string, excluded ...Result) error {
	if err := svc.repo.CheckResultUniqueness(ctx, enrollmentID, excluded...); err != nil {
		if errors.Cause(err) == ErrResultExists {
			return fieldError(err, "enrollment_id")
		}
		return err
	}
	return nil
}

func (svc *service) CreateResult(ctx context.Context, nr NewResult) (Result, error) {
	if _, err := svc.repo.GetEnrollment(ctx, nr.EnrollmentID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Result{}, fieldError(ErrNotFound, "enrollment_id")
		}
		return Result{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateResult(ctx, Result{
		EnrollmentID: nr.EnrollmentID,
		Score:        nr.Score,
		Grade:        nr.Grade,
		Remarks:      nr.Remarks,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) QueryResults(ctx context.Context, filter *ResultFilter, ordering ...core.DBOrdering) ([]Result, error) {
	return svc.repo.QueryResults(ctx, filter, ordering...)
}

func (svc *service) GetResult(ctx context.Context, id string) (Result, error) {
	return svc.repo.GetResult(ctx, id)
}

func (svc *service) UpdateResult(ctx context.Context, id string, ur UpdateResult) (Result, error) {
	orig, err := svc.repo.GetResult(ctx, id)
	if err != nil {
		return Result{}, err
	}
	orig.Score = ur.Score
	orig.Grade = ur.Grade
	orig.Remarks = ur.Remarks
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateResult(ctx, orig)
}

func (svc *service) DeleteResults(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteResultsByID(ctx, ids...)
}
