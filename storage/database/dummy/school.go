package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

// ---------------------------------------------------------------------------
// departments

func (repo *schoolRepository) allDepartments() []school.Department {
	out := make([]school.Department, 0, len(repo.db.departments))
	for _, dep := range repo.db.departments {
		out = append(out, *dep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (repo *schoolRepository) CheckDepartmentUniqueness(ctx context.Context, code string, excluded ...school.Department) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, dep := range repo.allDepartments() {
		if dep.Code != code {
			continue
		}
		if len(excluded) > 0 && excluded[0].ID == dep.ID {
			continue
		}
		return school.ErrDeptCodeExists
	}
	return nil
}

func (repo *schoolRepository) CreateDepartment(ctx context.Context, dep school.Department) (school.Department, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if dep.ID == "" {
		dep.ID = uuid.New().String()
	}
	repo.db.departments[dep.ID] = &dep
	return dep, nil
}

func (repo *schoolRepository) QueryDepartments(ctx context.Context, filter *school.DepartmentFilter, ordering ...core.DBOrdering) ([]school.Department, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	deps := repo.allDepartments()
	if filter == nil || filter.Search == "" {
		return deps, nil
	}

	matches := make([]school.Department, 0, len(deps))
	for _, dep := range deps {
		if matchesSearch(filter.Search, dep.Name, dep.Code) {
			matches = append(matches, dep)
		}
	}
	return matches, nil
}

func (repo *schoolRepository) GetDepartment(ctx context.Context, id string) (school.Department, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if dep, ok := repo.db.departments[id]; ok {
		return *dep, nil
	}
	return school.Department{}, school.ErrNotFound
}

func (repo *schoolRepository) GetDepartmentByCode(ctx context.Context, code string) (school.Department, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, dep := range repo.allDepartments() {
		if dep.Code == code {
			return dep, nil
		}
	}
	return school.Department{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateDepartment(ctx context.Context, dep school.Department) (school.Department, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.departments[dep.ID]
	if !ok {
		return school.Department{}, school.ErrNotFound
	}
	if dep.Name != "" {
		orig.Name = dep.Name
	}
	if dep.Code != "" {
		orig.Code = dep.Code
	}
	orig.UpdatedAt = dep.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteDepartmentsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		repo.cascadeDeleteDepartment(id)
	}
	return nil
}

// cascadeDeleteDepartment removes a department and everything hanging off it,
// the same way the foreign keys cascade in the real schema.
func (repo *schoolRepository) cascadeDeleteDepartment(id string) {
	for _, ins := range repo.db.instructors {
		if ins.DepartmentID == id {
			repo.cascadeDeleteInstructor(ins.ID)
		}
	}
	for _, crs := range repo.db.courses {
		if crs.DepartmentID == id {
			repo.cascadeDeleteCourse(crs.ID)
		}
	}
	for _, std := range repo.db.students {
		if std.DepartmentID == id {
			repo.cascadeDeleteStudent(std.ID)
		}
	}
	delete(repo.db.departments, id)
}

// ---------------------------------------------------------------------------
// instructors

func (repo *schoolRepository) allInstructors() []school.Instructor {
	out := make([]school.Instructor, 0, len(repo.db.instructors))
	for _, ins := range repo.db.instructors {
		out = append(out, *ins)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (repo *schoolRepository) CheckInstructorUniqueness(ctx context.Context, email string, excluded ...school.Instructor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, ins := range repo.allInstructors() {
		if ins.Email != email {
			continue
		}
		if len(excluded) > 0 && excluded[0].ID == ins.ID {
			continue
		}
		return school.ErrInstrEmailExists
	}
	return nil
}

func (repo *schoolRepository) CreateInstructor(ctx context.Context, ins school.Instructor) (school.Instructor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if ins.ID == "" {
		ins.ID = uuid.New().String()
	}
	repo.db.instructors[ins.ID] = &ins
	return ins, nil
}

func (repo *schoolRepository) QueryInstructors(ctx context.Context, filter *school.InstructorFilter, ordering ...core.DBOrdering) ([]school.Instructor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	instructors := repo.allInstructors()
	if filter == nil {
		return instructors, nil
	}

	matches := make([]school.Instructor, 0, len(instructors))
	for _, ins := range instructors {
		if filter.Search != "" && !matchesSearch(filter.Search, ins.Name, ins.Email) {
			continue
		}
		if filter.DepartmentID != "" && ins.DepartmentID != filter.DepartmentID {
			continue
		}
		matches = append(matches, ins)
	}
	return matches, nil
}

func (repo *schoolRepository) GetInstructor(ctx context.Context, id string) (school.Instructor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ins, ok := repo.db.instructors[id]; ok {
		return *ins, nil
	}
	return school.Instructor{}, school.ErrNotFound
}

func (repo *schoolRepository) GetInstructorByEmail(ctx context.Context, email string) (school.Instructor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, ins := range repo.allInstructors() {
		if ins.Email == email {
			return ins, nil
		}
	}
	return school.Instructor{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateInstructor(ctx context.Context, ins school.Instructor) (school.Instructor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.instructors[ins.ID]
	if !ok {
		return school.Instructor{}, school.ErrNotFound
	}
	if ins.Name != "" {
		orig.Name = ins.Name
	}
	if ins.Email != "" {
		orig.Email = ins.Email
	}
	if ins.Phone.Valid {
		orig.Phone = ins.Phone
	}
	if ins.DepartmentID != "" {
		orig.DepartmentID = ins.DepartmentID
	}
	orig.UpdatedAt = ins.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteInstructorsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		repo.cascadeDeleteInstructor(id)
	}
	return nil
}

func (repo *schoolRepository) cascadeDeleteInstructor(id string) {
	// course.instructor_id is ON DELETE SET NULL
	for _, crs := range repo.db.courses {
		if crs.InstructorID.Valid && crs.InstructorID.String == id {
			crs.InstructorID = null.String{}
		}
	}
	delete(repo.db.instructors, id)
}

// ---------------------------------------------------------------------------
// courses

func (repo *schoolRepository) allCourses() []school.Course {
	out := make([]school.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		out = append(out, *crs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (repo *schoolRepository) CheckCourseUniqueness(ctx context.Context, code string, excluded ...school.Course) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, crs := range repo.allCourses() {
		if crs.Code != code {
			continue
		}
		if len(excluded) > 0 && excluded[0].ID == crs.ID {
			continue
		}
		return school.ErrCourseCodeExists
	}
	return nil
}

func (repo *schoolRepository) CreateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, filter *school.CourseFilter, ordering ...core.DBOrdering) ([]school.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := repo.allCourses()
	if filter == nil {
		return courses, nil
	}

	matches := make([]school.Course, 0, len(courses))
	for _, crs := range courses {
		if filter.Search != "" && !matchesSearch(filter.Search, crs.Name, crs.Code) {
			continue
		}
		if filter.DepartmentID != "" && crs.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.InstructorID != "" && (!crs.InstructorID.Valid || crs.InstructorID.String != filter.InstructorID) {
			continue
		}
		matches = append(matches, crs)
	}
	return matches, nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id string) (school.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return school.Course{}, school.ErrNotFound
}

func (repo *schoolRepository) GetCourseByCode(ctx context.Context, code string) (school.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, crs := range repo.allCourses() {
		if crs.Code == code {
			return crs, nil
		}
	}
	return school.Course{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return school.Course{}, school.ErrNotFound
	}
	if crs.Name != "" {
		orig.Name = crs.Name
	}
	if crs.Code != "" {
		orig.Code = crs.Code
	}
	if crs.Credits != 0 {
		orig.Credits = crs.Credits
	}
	if crs.DepartmentID != "" {
		orig.DepartmentID = crs.DepartmentID
	}
	if crs.InstructorID.Valid {
		orig.InstructorID = crs.InstructorID
	}
	orig.UpdatedAt = crs.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		repo.cascadeDeleteCourse(id)
	}
	return nil
}

func (repo *schoolRepository) cascadeDeleteCourse(id string) {
	for _, enr := range repo.db.enrollments {
		if enr.CourseID == id {
			repo.cascadeDeleteEnrollment(enr.ID)
		}
	}
	delete(repo.db.courses, id)
}

// ---------------------------------------------------------------------------
// students

func (repo *schoolRepository) allStudents() []school.Student {
	out := make([]school.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		out = append(out, *std)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (repo *schoolRepository) CheckStudentUniqueness(ctx context.Context, regNo, email string, excluded ...school.Student) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.allStudents() {
		if len(excluded) > 0 && excluded[0].ID == std.ID {
			continue
		}
		if std.RegNo == regNo {
			return school.ErrRegNoExists
		}
		if std.Email == email {
			return school.ErrStudentEmailExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, std school.Student) (school.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if std.ID == "" {
		std.ID = uuid.New().String()
	}
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter *school.StudentFilter, ordering ...core.DBOrdering) ([]school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := repo.allStudents()
	if filter == nil {
		return students, nil
	}

	matches := make([]school.Student, 0, len(students))
	for _, std := range students {
		if filter.Search != "" && !matchesSearch(filter.Search, std.Name, std.Email, std.RegNo) {
			continue
		}
		if filter.DepartmentID != "" && std.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.EnrollmentYear != 0 && std.EnrollmentYear != filter.EnrollmentYear {
			continue
		}
		matches = append(matches, std)
	}
	return matches, nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return *std, nil
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) GetStudentByRegNo(ctx context.Context, regNo string) (school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.allStudents() {
		if std.RegNo == regNo {
			return std, nil
		}
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) GetStudentByUserID(ctx context.Context, userID string) (school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.allStudents() {
		if std.UserID.Valid && std.UserID.String == userID {
			return std, nil
		}
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, std school.Student) (school.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.students[std.ID]
	if !ok {
		return school.Student{}, school.ErrNotFound
	}
	if std.RegNo != "" {
		orig.RegNo = std.RegNo
	}
	if std.Name != "" {
		orig.Name = std.Name
	}
	if std.Email != "" {
		orig.Email = std.Email
	}
	if std.DateOfBirth.Valid {
		orig.DateOfBirth = std.DateOfBirth
	}
	if std.DepartmentID != "" {
		orig.DepartmentID = std.DepartmentID
	}
	if std.EnrollmentYear != 0 {
		orig.EnrollmentYear = std.EnrollmentYear
	}
	if std.UserID.Valid {
		orig.UserID = std.UserID
	}
	orig.UpdatedAt = std.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		repo.cascadeDeleteStudent(id)
	}
	return nil
}

func (repo *schoolRepository) cascadeDeleteStudent(id string) {
	for _, enr := range repo.db.enrollments {
		if enr.StudentID == id {
			repo.cascadeDeleteEnrollment(enr.ID)
		}
	}
	delete(repo.db.students, id)
}

// ---------------------------------------------------------------------------
// enrollments

// enrollmentStudent looks up the owning student's ID; the caller must hold
// the read lock.
func (repo *schoolRepository) enrollmentStudent(enrollmentID string) string {
	if enr, ok := repo.db.enrollments[enrollmentID]; ok {
		return enr.StudentID
	}
	return ""
}

func (repo *schoolRepository) allEnrollments() []school.Enrollment {
	out := make([]school.Enrollment, 0, len(repo.db.enrollments))
	for _, enr := range repo.db.enrollments {
		out = append(out, *enr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (repo *schoolRepository) CheckEnrollmentUniqueness(ctx context.Context, studentID, courseID, semester string, excluded ...school.Enrollment) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, enr := range repo.allEnrollments() {
		if enr.StudentID != studentID || enr.CourseID != courseID || enr.Semester != semester {
			continue
		}
		if len(excluded) > 0 && excluded[0].ID == enr.ID {
			continue
		}
		return school.ErrAlreadyEnrolled
	}
	return nil
}

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *schoolRepository) QueryEnrollments(ctx context.Context, filter *school.EnrollmentFilter, ordering ...core.DBOrdering) ([]school.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrollments := repo.allEnrollments()
	if filter == nil {
		return enrollments, nil
	}

	matches := make([]school.Enrollment, 0, len(enrollments))
	for _, enr := range enrollments {
		if filter.StudentID != "" && enr.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && enr.CourseID != filter.CourseID {
			continue
		}
		if filter.Semester != "" && enr.Semester != filter.Semester {
			continue
		}
		matches = append(matches, enr)
	}
	return matches, nil
}

func (repo *schoolRepository) GetEnrollment(ctx context.Context, id string) (school.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return school.Enrollment{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.enrollments[enr.ID]
	if !ok {
		return school.Enrollment{}, school.ErrNotFound
	}
	if enr.Semester != "" {
		orig.Semester = enr.Semester
	}
	orig.UpdatedAt = enr.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteEnrollmentsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		repo.cascadeDeleteEnrollment(id)
	}
	return nil
}

func (repo *schoolRepository) cascadeDeleteEnrollment(id string) {
	for _, att := range repo.db.attendance {
		if att.EnrollmentID == id {
			delete(repo.db.attendance, att.ID)
		}
	}
	for _, res := range repo.db.results {
		if res.EnrollmentID == id {
			delete(repo.db.results, res.ID)
		}
	}
	delete(repo.db.enrollments, id)
}

// ---------------------------------------------------------------------------
// attendance

func (repo *schoolRepository) allAttendance() []school.Attendance {
	out := make([]school.Attendance, 0, len(repo.db.attendance))
	for _, att := range repo.db.attendance {
		out = append(out, *att)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (repo *schoolRepository) CreateAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	repo.db.attendance[att.ID] = &att
	return att, nil
}

func (repo *schoolRepository) QueryAttendance(ctx context.Context, filter *school.AttendanceFilter, ordering ...core.DBOrdering) ([]school.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	attendance := repo.allAttendance()
	if filter == nil {
		return attendance, nil
	}

	matches := make([]school.Attendance, 0, len(attendance))
	for _, att := range attendance {
		if filter.EnrollmentID != "" && att.EnrollmentID != filter.EnrollmentID {
			continue
		}
		if filter.StudentID != "" && repo.enrollmentStudent(att.EnrollmentID) != filter.StudentID {
			continue
		}
		if !filter.DateFrom.IsZero() && att.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && att.Date.After(filter.DateTo) {
			continue
		}
		matches = append(matches, att)
	}
	return matches, nil
}

func (repo *schoolRepository) GetAttendance(ctx context.Context, id string) (school.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if att, ok := repo.db.attendance[id]; ok {
		return *att, nil
	}
	return school.Attendance{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.attendance[att.ID]
	if !ok {
		return school.Attendance{}, school.ErrNotFound
	}
	orig.Date = att.Date
	orig.Present = att.Present
	orig.UpdatedAt = att.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteAttendanceByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.attendance, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// results

func (repo *schoolRepository) allResults() []school.Result {
	out := make([]school.Result, 0, len(repo.db.results))
	for _, res := range repo.db.results {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (repo *schoolRepository) CheckResultUniqueness(ctx context.Context, enrollmentID string, excluded ...school.Result) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, res := range repo.allResults() {
		if res.EnrollmentID != enrollmentID {
			continue
		}
		if len(excluded) > 0 && excluded[0].ID == res.ID {
			continue
		}
		return school.ErrResultExists
	}
	return nil
}

func (repo *schoolRepository) CreateResult(ctx context.Context, res school.Result) (school.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	repo.db.results[res.ID] = &res
	return res, nil
}

func (repo *schoolRepository) QueryResults(ctx context.Context, filter *school.ResultFilter, ordering ...core.DBOrdering) ([]school.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	results := repo.allResults()
	if filter == nil {
		return results, nil
	}

	matches := make([]school.Result, 0, len(results))
	for _, res := range results {
		if filter.EnrollmentID != "" && res.EnrollmentID != filter.EnrollmentID {
			continue
		}
		if filter.StudentID != "" && repo.enrollmentStudent(res.EnrollmentID) != filter.StudentID {
			continue
		}
		if filter.Grade != "" && (!res.Grade.Valid || res.Grade.String != filter.Grade) {
			continue
		}
		matches = append(matches, res)
	}
	return matches, nil
}

func (repo *schoolRepository) GetResult(ctx context.Context, id string) (school.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if res, ok := repo.db.results[id]; ok {
		return *res, nil
	}
	return school.Result{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateResult(ctx context.Context, res school.Result) (school.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.results[res.ID]
	if !ok {
		return school.Result{}, school.ErrNotFound
	}
	orig.Score = res.Score
	orig.Grade = res.Grade
	orig.Remarks = res.Remarks
	orig.UpdatedAt = res.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteResultsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.results, id)
	}
	return nil
}
