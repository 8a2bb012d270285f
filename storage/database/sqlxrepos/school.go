package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

// trapSchoolNoRowsErr maps sql.ErrNoRows to school.ErrNotFound.
func trapSchoolNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// exists runs q (expected to select a single row) and reports whether it
// matched anything.
func (repo *schoolRepository) exists(ctx context.Context, q string, args ...interface{}) (bool, error) {
	var one int
	err := repo.db.GetContext(ctx, &one, q, args...)
	if errors.Cause(err) == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// updateBuilder accumulates SET clauses for partial updates keyed on id.
type updateBuilder struct {
	sets []string
	args []interface{}
}

func newUpdateBuilder(id string) *updateBuilder {
	return &updateBuilder{args: []interface{}{id}}
}

func (b *updateBuilder) set(col string, val interface{}) {
	b.args = append(b.args, val)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

func (b *updateBuilder) query(table string) (string, []interface{}) {
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 RETURNING *", table, strings.Join(b.sets, ", ")), b.args
}

func (b *updateBuilder) empty() bool { return len(b.sets) == 0 }

// ---------------------------------------------------------------------------
// departments

func (repo *schoolRepository) CheckDepartmentUniqueness(ctx context.Context, code string, excluded ...school.Department) error {
	q := `SELECT 1 FROM department WHERE code = $1`
	args := []interface{}{code}
	if len(excluded) > 0 {
		q += " AND id != $2"
		args = append(args, excluded[0].ID)
	}
	taken, err := repo.exists(ctx, q+" LIMIT 1", args...)
	if err != nil {
		return errors.Wrap(err, "checking department uniqueness")
	}
	if taken {
		return school.ErrDeptCodeExists
	}
	return nil
}

func (repo *schoolRepository) CreateDepartment(ctx context.Context, dep school.Department) (school.Department, error) {
	dep.ID = uuid.New().String()
	q := `INSERT INTO department (id, name, code, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, q, dep.ID, dep.Name, dep.Code, dep.CreatedAt, dep.UpdatedAt); err != nil {
		return school.Department{}, errors.Wrap(err, "inserting department")
	}
	return dep, nil
}

func (repo *schoolRepository) QueryDepartments(ctx context.Context, filter *school.DepartmentFilter, ordering ...core.DBOrdering) ([]school.Department, error) {
	q := `SELECT * FROM department`
	var args []interface{}
	if filter != nil && filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += " WHERE (name ILIKE $1 OR code ILIKE $1)"
	}
	q += orderBy(ordering, "created_at, id")

	deps := make([]school.Department, 0)
	if err := repo.db.SelectContext(ctx, &deps, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	return deps, nil
}

func (repo *schoolRepository) GetDepartment(ctx context.Context, id string) (school.Department, error) {
	var dep school.Department
	if err := repo.db.GetContext(ctx, &dep, `SELECT * FROM department WHERE id = $1`, id); err != nil {
		return school.Department{}, trapSchoolNoRowsErr(err, "getting department")
	}
	return dep, nil
}

func (repo *schoolRepository) GetDepartmentByCode(ctx context.Context, code string) (school.Department, error) {
	var dep school.Department
	if err := repo.db.GetContext(ctx, &dep, `SELECT * FROM department WHERE code = $1`, code); err != nil {
		return school.Department{}, trapSchoolNoRowsErr(err, "getting department")
	}
	return dep, nil
}

func (repo *schoolRepository) UpdateDepartment(ctx context.Context, dep school.Department) (school.Department, error) {
	b := newUpdateBuilder(dep.ID)
	if dep.Name != "" {
		b.set("name", dep.Name)
	}
	if dep.Code != "" {
		b.set("code", dep.Code)
	}
	if b.empty() {
		return repo.GetDepartment(ctx, dep.ID)
	}
	b.set("updated_at", dep.UpdatedAt)

	q, args := b.query("department")
	var updated school.Department
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return school.Department{}, trapSchoolNoRowsErr(err, "updating department")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteDepartmentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM department WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting departments")
	}
	return nil
}

// ---------------------------------------------------------------------------
// instructors

func (repo *schoolRepository) CheckInstructorUniqueness(ctx context.Context, email string, excluded ...school.Instructor) error {
	q := `SELECT 1 FROM instructor WHERE email = $1`
	args := []interface{}{email}
	if len(excluded) > 0 {
		q += " AND id != $2"
		args = append(args, excluded[0].ID)
	}
	taken, err := repo.exists(ctx, q+" LIMIT 1", args...)
	if err != nil {
		return errors.Wrap(err, "checking instructor uniqueness")
	}
	if taken {
		return school.ErrInstrEmailExists
	}
	return nil
}

func (repo *schoolRepository) CreateInstructor(ctx context.Context, ins school.Instructor) (school.Instructor, error) {
	ins.ID = uuid.New().String()
	q := `INSERT INTO instructor (id, name, email, phone, department_id, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, ins.ID, ins.Name, ins.Email, ins.Phone, ins.DepartmentID, ins.CreatedAt, ins.UpdatedAt)
	if err != nil {
		return school.Instructor{}, errors.Wrap(err, "inserting instructor")
	}
	return ins, nil
}

func (repo *schoolRepository) QueryInstructors(ctx context.Context, filter *school.InstructorFilter, ordering ...core.DBOrdering) ([]school.Instructor, error) {
	q := `SELECT * FROM instructor`
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
		}
		if filter.DepartmentID != "" {
			args = append(args, filter.DepartmentID)
			conds = append(conds, fmt.Sprintf("department_id = $%d", len(args)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "created_at, id")

	instructors := make([]school.Instructor, 0)
	if err := repo.db.SelectContext(ctx, &instructors, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying instructors")
	}
	return instructors, nil
}

func (repo *schoolRepository) GetInstructor(ctx context.Context, id string) (school.Instructor, error) {
	var ins school.Instructor
	if err := repo.db.GetContext(ctx, &ins, `SELECT * FROM instructor WHERE id = $1`, id); err != nil {
		return school.Instructor{}, trapSchoolNoRowsErr(err, "getting instructor")
	}
	return ins, nil
}

func (repo *schoolRepository) GetInstructorByEmail(ctx context.Context, email string) (school.Instructor, error) {
	var ins school.Instructor
	if err := repo.db.GetContext(ctx, &ins, `SELECT * FROM instructor WHERE email = $1`, email); err != nil {
		return school.Instructor{}, trapSchoolNoRowsErr(err, "getting instructor")
	}
	return ins, nil
}

func (repo *schoolRepository) UpdateInstructor(ctx context.Context, ins school.Instructor) (school.Instructor, error) {
	b := newUpdateBuilder(ins.ID)
	if ins.Name != "" {
		b.set("name", ins.Name)
	}
	if ins.Email != "" {
		b.set("email", ins.Email)
	}
	if ins.Phone.Valid {
		b.set("phone", ins.Phone)
	}
	if ins.DepartmentID != "" {
		b.set("department_id", ins.DepartmentID)
	}
	if b.empty() {
		return repo.GetInstructor(ctx, ins.ID)
	}
	b.set("updated_at", ins.UpdatedAt)

	q, args := b.query("instructor")
	var updated school.Instructor
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return school.Instructor{}, trapSchoolNoRowsErr(err, "updating instructor")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteInstructorsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM instructor WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting instructors")
	}
	return nil
}

// ---------------------------------------------------------------------------
// courses

func (repo *schoolRepository) CheckCourseUniqueness(ctx context.Context, code string, excluded ...school.Course) error {
	q := `SELECT 1 FROM course WHERE code = $1`
	args := []interface{}{code}
	if len(excluded) > 0 {
		q += " AND id != $2"
		args = append(args, excluded[0].ID)
	}
	taken, err := repo.exists(ctx, q+" LIMIT 1", args...)
	if err != nil {
		return errors.Wrap(err, "checking course uniqueness")
	}
	if taken {
		return school.ErrCourseCodeExists
	}
	return nil
}

func (repo *schoolRepository) CreateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	crs.ID = uuid.New().String()
	q := `INSERT INTO course (id, name, code, credits, department_id, instructor_id, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		crs.ID, crs.Name, crs.Code, crs.Credits, crs.DepartmentID, crs.InstructorID, crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return school.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, filter *school.CourseFilter, ordering ...core.DBOrdering) ([]school.Course, error) {
	q := `SELECT * FROM course`
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", n, n))
		}
		if filter.DepartmentID != "" {
			args = append(args, filter.DepartmentID)
			conds = append(conds, fmt.Sprintf("department_id = $%d", len(args)))
		}
		if filter.InstructorID != "" {
			args = append(args, filter.InstructorID)
			conds = append(conds, fmt.Sprintf("instructor_id = $%d", len(args)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "created_at, id")

	courses := make([]school.Course, 0)
	if err := repo.db.SelectContext(ctx, &courses, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id string) (school.Course, error) {
	var crs school.Course
	if err := repo.db.GetContext(ctx, &crs, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return school.Course{}, trapSchoolNoRowsErr(err, "getting course")
	}
	return crs, nil
}

func (repo *schoolRepository) GetCourseByCode(ctx context.Context, code string) (school.Course, error) {
	var crs school.Course
	if err := repo.db.GetContext(ctx, &crs, `SELECT * FROM course WHERE code = $1`, code); err != nil {
		return school.Course{}, trapSchoolNoRowsErr(err, "getting course")
	}
	return crs, nil
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	b := newUpdateBuilder(crs.ID)
	if crs.Name != "" {
		b.set("name", crs.Name)
	}
	if crs.Code != "" {
		b.set("code", crs.Code)
	}
	if crs.Credits != 0 {
		b.set("credits", crs.Credits)
	}
	if crs.DepartmentID != "" {
		b.set("department_id", crs.DepartmentID)
	}
	if crs.InstructorID.Valid {
		b.set("instructor_id", crs.InstructorID)
	}
	if b.empty() {
		return repo.GetCourse(ctx, crs.ID)
	}
	b.set("updated_at", crs.UpdatedAt)

	q, args := b.query("course")
	var updated school.Course
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return school.Course{}, trapSchoolNoRowsErr(err, "updating course")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

// ---------------------------------------------------------------------------
// students

func (repo *schoolRepository) CheckStudentUniqueness(ctx context.Context, regNo, email string, excluded ...school.Student) error {
	q := `SELECT reg_no, email FROM student WHERE (reg_no = $1 OR email = $2)`
	args := []interface{}{regNo, email}
	if len(excluded) > 0 {
		q += " AND id != $3"
		args = append(args, excluded[0].ID)
	}
	q += " LIMIT 1"

	var match struct {
		RegNo string `db:"reg_no"`
		Email string `db:"email"`
	}
	err := repo.db.GetContext(ctx, &match, q, args...)
	if errors.Cause(err) == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if match.RegNo == regNo {
		return school.ErrRegNoExists
	}
	return school.ErrStudentEmailExists
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, std school.Student) (school.Student, error) {
	std.ID = uuid.New().String()
	q := `INSERT INTO student (id, user_id, reg_no, name, email, date_of_birth, department_id, enrollment_year, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		std.ID, std.UserID, std.RegNo, std.Name, std.Email, std.DateOfBirth,
		std.DepartmentID, std.EnrollmentYear, std.CreatedAt, std.UpdatedAt)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter *school.StudentFilter, ordering ...core.DBOrdering) ([]school.Student, error) {
	q := `SELECT * FROM student`
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR reg_no ILIKE $%d)", n, n, n))
		}
		if filter.DepartmentID != "" {
			args = append(args, filter.DepartmentID)
			conds = append(conds, fmt.Sprintf("department_id = $%d", len(args)))
		}
		if filter.EnrollmentYear != 0 {
			args = append(args, filter.EnrollmentYear)
			conds = append(conds, fmt.Sprintf("enrollment_year = $%d", len(args)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "created_at, id")

	students := make([]school.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	var std school.Student
	if err := repo.db.GetContext(ctx, &std, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		return school.Student{}, trapSchoolNoRowsErr(err, "getting student")
	}
	return std, nil
}

func (repo *schoolRepository) GetStudentByRegNo(ctx context.Context, regNo string) (school.Student, error) {
	var std school.Student
	if err := repo.db.GetContext(ctx, &std, `SELECT * FROM student WHERE reg_no = $1`, regNo); err != nil {
		return school.Student{}, trapSchoolNoRowsErr(err, "getting student")
	}
	return std, nil
}

func (repo *schoolRepository) GetStudentByUserID(ctx context.Context, userID string) (school.Student, error) {
	var std school.Student
	if err := repo.db.GetContext(ctx, &std, `SELECT * FROM student WHERE user_id = $1`, userID); err != nil {
		return school.Student{}, trapSchoolNoRowsErr(err, "getting student")
	}
	return std, nil
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, std school.Student) (school.Student, error) {
	b := newUpdateBuilder(std.ID)
	if std.UserID.Valid {
		b.set("user_id", std.UserID)
	}
	if std.RegNo != "" {
		b.set("reg_no", std.RegNo)
	}
	if std.Name != "" {
		b.set("name", std.Name)
	}
	if std.Email != "" {
		b.set("email", std.Email)
	}
	if std.DateOfBirth.Valid {
		b.set("date_of_birth", std.DateOfBirth)
	}
	if std.DepartmentID != "" {
		b.set("department_id", std.DepartmentID)
	}
	if std.EnrollmentYear != 0 {
		b.set("enrollment_year", std.EnrollmentYear)
	}
	if b.empty() {
		return repo.GetStudent(ctx, std.ID)
	}
	b.set("updated_at", std.UpdatedAt)

	q, args := b.query("student")
	var updated school.Student
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return school.Student{}, trapSchoolNoRowsErr(err, "updating student")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}

// ---------------------------------------------------------------------------
// enrollments

func (repo *schoolRepository) CheckEnrollmentUniqueness(ctx context.Context, studentID, courseID, semester string, excluded ...school.Enrollment) error {
	q := `SELECT 1 FROM enrollment WHERE student_id = $1 AND course_id = $2 AND semester = $3`
	args := []interface{}{studentID, courseID, semester}
	if len(excluded) > 0 {
		q += " AND id != $4"
		args = append(args, excluded[0].ID)
	}
	taken, err := repo.exists(ctx, q+" LIMIT 1", args...)
	if err != nil {
		return errors.Wrap(err, "checking enrollment uniqueness")
	}
	if taken {
		return school.ErrAlreadyEnrolled
	}
	return nil
}

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	enr.ID = uuid.New().String()
	q := `INSERT INTO enrollment (id, student_id, course_id, semester, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, enr.ID, enr.StudentID, enr.CourseID, enr.Semester, enr.CreatedAt, enr.UpdatedAt)
	if err != nil {
		return school.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *schoolRepository) QueryEnrollments(ctx context.Context, filter *school.EnrollmentFilter, ordering ...core.DBOrdering) ([]school.Enrollment, error) {
	q := `SELECT * FROM enrollment`
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			conds = append(conds, fmt.Sprintf("student_id = $%d", len(args)))
		}
		if filter.CourseID != "" {
			args = append(args, filter.CourseID)
			conds = append(conds, fmt.Sprintf("course_id = $%d", len(args)))
		}
		if filter.Semester != "" {
			args = append(args, filter.Semester)
			conds = append(conds, fmt.Sprintf("semester = $%d", len(args)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "created_at, id")

	enrollments := make([]school.Enrollment, 0)
	if err := repo.db.SelectContext(ctx, &enrollments, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo *schoolRepository) GetEnrollment(ctx context.Context, id string) (school.Enrollment, error) {
	var enr school.Enrollment
	if err := repo.db.GetContext(ctx, &enr, `SELECT * FROM enrollment WHERE id = $1`, id); err != nil {
		return school.Enrollment{}, trapSchoolNoRowsErr(err, "getting enrollment")
	}
	return enr, nil
}

func (repo *schoolRepository) UpdateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	b := newUpdateBuilder(enr.ID)
	if enr.Semester != "" {
		b.set("semester", enr.Semester)
	}
	if b.empty() {
		return repo.GetEnrollment(ctx, enr.ID)
	}
	b.set("updated_at", enr.UpdatedAt)

	q, args := b.query("enrollment")
	var updated school.Enrollment
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return school.Enrollment{}, trapSchoolNoRowsErr(err, "updating enrollment")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteEnrollmentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM enrollment WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting enrollments")
	}
	return nil
}

// ---------------------------------------------------------------------------
// attendance

func (repo *schoolRepository) CreateAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	att.ID = uuid.New().String()
	q := `INSERT INTO attendance (id, enrollment_id, date, present, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, att.ID, att.EnrollmentID, att.Date, att.Present, att.CreatedAt, att.UpdatedAt)
	if err != nil {
		return school.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return att, nil
}

func (repo *schoolRepository) QueryAttendance(ctx context.Context, filter *school.AttendanceFilter, ordering ...core.DBOrdering) ([]school.Attendance, error) {
	q := `SELECT * FROM attendance`
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.EnrollmentID != "" {
			args = append(args, filter.EnrollmentID)
			conds = append(conds, fmt.Sprintf("enrollment_id = $%d", len(args)))
		}
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			conds = append(conds, fmt.Sprintf("enrollment_id IN (SELECT id FROM enrollment WHERE student_id = $%d)", len(args)))
		}
		if !filter.DateFrom.IsZero() {
			args = append(args, filter.DateFrom)
			conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
		}
		if !filter.DateTo.IsZero() {
			args = append(args, filter.DateTo)
			conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "date, id")

	attendance := make([]school.Attendance, 0)
	if err := repo.db.SelectContext(ctx, &attendance, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	return attendance, nil
}

func (repo *schoolRepository) GetAttendance(ctx context.Context, id string) (school.Attendance, error) {
	var att school.Attendance
	if err := repo.db.GetContext(ctx, &att, `SELECT * FROM attendance WHERE id = $1`, id); err != nil {
		return school.Attendance{}, trapSchoolNoRowsErr(err, "getting attendance")
	}
	return att, nil
}

func (repo *schoolRepository) UpdateAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	q := `UPDATE attendance SET date = $2, present = $3, updated_at = $4 WHERE id = $1 RETURNING *`
	var updated school.Attendance
	if err := repo.db.GetContext(ctx, &updated, q, att.ID, att.Date, att.Present, att.UpdatedAt); err != nil {
		return school.Attendance{}, trapSchoolNoRowsErr(err, "updating attendance")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteAttendanceByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return nil
}

// ---------------------------------------------------------------------------
// results

func (repo *schoolRepository) CheckResultUniqueness(ctx context.Context, enrollmentID string, excluded ...school.Result) error {
	q := `SELECT 1 FROM result WHERE enrollment_id = $1`
	args := []interface{}{enrollmentID}
	if len(excluded) > 0 {
		q += " AND id != $2"
		args = append(args, excluded[0].ID)
	}
	taken, err := repo.exists(ctx, q+" LIMIT 1", args...)
	if err != nil {
		return errors.Wrap(err, "checking result uniqueness")
	}
	if taken {
		return school.ErrResultExists
	}
	return nil
}

func (repo *schoolRepository) CreateResult(ctx context.Context, res school.Result) (school.Result, error) {
	res.ID = uuid.New().String()
	q := `INSERT INTO result (id, enrollment_id, score, grade, remarks, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, res.ID, res.EnrollmentID, res.Score, res.Grade, res.Remarks, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return school.Result{}, errors.Wrap(err, "inserting result")
	}
	return res, nil
}

func (repo *schoolRepository) QueryResults(ctx context.Context, filter *school.ResultFilter, ordering ...core.DBOrdering) ([]school.Result, error) {
	q := `SELECT * FROM result`
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.EnrollmentID != "" {
			args = append(args, filter.EnrollmentID)
			conds = append(conds, fmt.Sprintf("enrollment_id = $%d", len(args)))
		}
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			conds = append(conds, fmt.Sprintf("enrollment_id IN (SELECT id FROM enrollment WHERE student_id = $%d)", len(args)))
		}
		if filter.Grade != "" {
			args = append(args, filter.Grade)
			conds = append(conds, fmt.Sprintf("grade = $%d", len(args)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "created_at, id")

	results := make([]school.Result, 0)
	if err := repo.db.SelectContext(ctx, &results, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	return results, nil
}

func (repo *schoolRepository) GetResult(ctx context.Context, id string) (school.Result, error) {
	var res school.Result
	if err := repo.db.GetContext(ctx, &res, `SELECT * FROM result WHERE id = $1`, id); err != nil {
		return school.Result{}, trapSchoolNoRowsErr(err, "getting result")
	}
	return res, nil
}

func (repo *schoolRepository) UpdateResult(ctx context.Context, res school.Result) (school.Result, error) {
	q := `UPDATE result SET score = $2, grade = $3, remarks = $4, updated_at = $5 WHERE id = $1 RETURNING *`
	var updated school.Result
	if err := repo.db.GetContext(ctx, &updated, q, res.ID, res.Score, res.Grade, res.Remarks, res.UpdatedAt); err != nil {
		return school.Result{}, trapSchoolNoRowsErr(err, "updating result")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteResultsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM result WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting results")
	}
	return nil
}
