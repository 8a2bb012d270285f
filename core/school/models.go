// Package school holds the student-information domain: departments,
// instructors, courses, students, enrollments, attendance and results.
package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/edlabs/academia/core"
)

type Department struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type Instructor struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	Phone        null.String `json:"phone" db:"phone"`
	DepartmentID string      `json:"department_id" db:"department_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

type Course struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Code         string      `json:"code" db:"code"`
	Credits      int         `json:"credits" db:"credits"`
	DepartmentID string      `json:"department_id" db:"department_id"`
	InstructorID null.String `json:"instructor_id" db:"instructor_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

type Student struct {
	ID             string      `json:"id" db:"id"`
	UserID         null.String `json:"user_id" db:"user_id"` // linked auth account
	RegNo          string      `json:"reg_no" db:"reg_no"`
	Name           string      `json:"name" db:"name"`
	Email          string      `json:"email" db:"email"`
	DateOfBirth    null.Time   `json:"date_of_birth" db:"date_of_birth"`
	DepartmentID   string      `json:"department_id" db:"department_id"`
	EnrollmentYear int         `json:"enrollment_year" db:"enrollment_year"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

type Enrollment struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	CourseID  string    `json:"course_id" db:"course_id"`
	Semester  string    `json:"semester" db:"semester"` // eg. "2021-1"
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Attendance struct {
	ID           string    `json:"id" db:"id"`
	EnrollmentID string    `json:"enrollment_id" db:"enrollment_id"`
	Date         time.Time `json:"date" db:"date"`
	Present      bool      `json:"present" db:"present"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Result struct {
	ID           string       `json:"id" db:"id"`
	EnrollmentID string       `json:"enrollment_id" db:"enrollment_id"`
	Score        null.Float64 `json:"score" db:"score"` // out of 100
	Grade        null.String  `json:"grade" db:"grade"`
	Remarks      null.String  `json:"remarks" db:"remarks"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// ---------------------------------------------------------------------------
// input payloads

type NewDepartment struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,min=2,alphanum_"`
}

func (nd *NewDepartment) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nd.Name = core.CleanString(nd.Name)
	nd.Code = core.CleanString(nd.Code, true /* lower */)
	if err := validate.Struct(nd); err != nil {
		return err
	}
	return svc.CheckDepartmentUniqueness(ctx, nd.Code)
}

type UpdateDepartment struct {
	Name string `json:"name"`
	Code string `json:"code" validate:"omitempty,min=2,alphanum_"`
}

func (ud *UpdateDepartment) Validate(ctx context.Context, orig Department, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(ud.Name); name != "" {
		ud.Name = name
	} else {
		ud.Name = orig.Name
	}
	if code := core.CleanString(ud.Code, true /* lower */); code != "" {
		ud.Code = code
	} else {
		ud.Code = orig.Code
	}
	if err := validate.Struct(ud); err != nil {
		return err
	}
	return svc.CheckDepartmentUniqueness(ctx, ud.Code, orig)
}

type NewInstructor struct {
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Phone        null.String `json:"phone"`
	DepartmentID string      `json:"department_id" validate:"required,uuid4"`
}

func (ni *NewInstructor) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ni.Name = core.CleanString(ni.Name)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	if err := validate.Struct(ni); err != nil {
		return err
	}
	return svc.CheckInstructorUniqueness(ctx, ni.Email)
}

type UpdateInstructor struct {
	Name         string      `json:"name"`
	Email        string      `json:"email" validate:"omitempty,email"`
	Phone        null.String `json:"phone"`
	DepartmentID string      `json:"department_id" validate:"omitempty,uuid4"`
}

func (ui *UpdateInstructor) Validate(ctx context.Context, orig Instructor, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(ui.Name); name != "" {
		ui.Name = name
	} else {
		ui.Name = orig.Name
	}
	if email := core.CleanString(ui.Email, true /* lower */); email != "" {
		ui.Email = email
	} else {
		ui.Email = orig.Email
	}
	if ui.DepartmentID == "" {
		ui.DepartmentID = orig.DepartmentID
	}
	if !ui.Phone.Valid {
		ui.Phone = orig.Phone
	}
	if err := validate.Struct(ui); err != nil {
		return err
	}
	return svc.CheckInstructorUniqueness(ctx, ui.Email, orig)
}

type NewCourse struct {
	Name         string      `json:"name" validate:"required"`
	Code         string      `json:"code" validate:"required,min=2,alphanum_"`
	Credits      int         `json:"credits" validate:"required,min=1,max=30"`
	DepartmentID string      `json:"department_id" validate:"required,uuid4"`
	InstructorID null.String `json:"instructor_id"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCourseUniqueness(ctx, nc.Code)
}

type UpdateCourse struct {
	Name         string      `json:"name"`
	Code         string      `json:"code" validate:"omitempty,min=2,alphanum_"`
	Credits      int         `json:"credits" validate:"omitempty,min=1,max=30"`
	DepartmentID string      `json:"department_id" validate:"omitempty,uuid4"`
	InstructorID null.String `json:"instructor_id"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, orig Course, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if code := core.CleanString(uc.Code, true /* lower */); code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}
	if uc.Credits == 0 {
		uc.Credits = orig.Credits
	}
	if uc.DepartmentID == "" {
		uc.DepartmentID = orig.DepartmentID
	}
	if !uc.InstructorID.Valid {
		uc.InstructorID = orig.InstructorID
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCourseUniqueness(ctx, uc.Code, orig)
}

type NewStudent struct {
	RegNo          string      `json:"reg_no" validate:"required,min=4,alphanum_"`
	Name           string      `json:"name" validate:"required"`
	Email          string      `json:"email" validate:"required,email"`
	DateOfBirth    null.Time   `json:"date_of_birth"`
	DepartmentID   string      `json:"department_id" validate:"required,uuid4"`
	EnrollmentYear int         `json:"enrollment_year" validate:"required,min=1990,max=2100"`
	UserID         null.String `json:"user_id"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ns.RegNo = core.CleanString(ns.RegNo, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckStudentUniqueness(ctx, ns.RegNo, ns.Email)
}

type UpdateStudent struct {
	RegNo          string      `json:"reg_no" validate:"omitempty,min=4,alphanum_"`
	Name           string      `json:"name"`
	Email          string      `json:"email" validate:"omitempty,email"`
	DateOfBirth    null.Time   `json:"date_of_birth"`
	DepartmentID   string      `json:"department_id" validate:"omitempty,uuid4"`
	EnrollmentYear int         `json:"enrollment_year" validate:"omitempty,min=1990,max=2100"`
	UserID         null.String `json:"user_id"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, validate *validator.Validate, svc Service) error {
	if regNo := core.CleanString(us.RegNo, true /* lower */); regNo != "" {
		us.RegNo = regNo
	} else {
		us.RegNo = orig.RegNo
	}
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	if us.DepartmentID == "" {
		us.DepartmentID = orig.DepartmentID
	}
	if us.EnrollmentYear == 0 {
		us.EnrollmentYear = orig.EnrollmentYear
	}
	if !us.DateOfBirth.Valid {
		us.DateOfBirth = orig.DateOfBirth
	}
	if !us.UserID.Valid {
		us.UserID = orig.UserID
	}
	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckStudentUniqueness(ctx, us.RegNo, us.Email, orig)
}

type NewEnrollment struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	CourseID  string `json:"course_id" validate:"required,uuid4"`
	Semester  string `json:"semester" validate:"required,semester"`
}

func (ne *NewEnrollment) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ne.Semester = core.CleanString(ne.Semester, true /* lower */)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	return svc.CheckEnrollmentUniqueness(ctx, ne.StudentID, ne.CourseID, ne.Semester)
}

type UpdateEnrollment struct {
	Semester string `json:"semester" validate:"omitempty,semester"`
}

func (ue *UpdateEnrollment) Validate(ctx context.Context, orig Enrollment, validate *validator.Validate, svc Service) error {
	if sem := core.CleanString(ue.Semester, true /* lower */); sem != "" {
		ue.Semester = sem
	} else {
		ue.Semester = orig.Semester
	}
	if err := validate.Struct(ue); err != nil {
		return err
	}
	return svc.CheckEnrollmentUniqueness(ctx, orig.StudentID, orig.CourseID, ue.Semester, orig)
}

type NewAttendance struct {
	EnrollmentID string    `json:"enrollment_id" validate:"required,uuid4"`
	Date         time.Time `json:"date" validate:"required"`
	Present      bool      `json:"present"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type UpdateAttendance struct {
	Date    *time.Time `json:"date"`
	Present *bool      `json:"present"`
}

type NewResult struct {
	EnrollmentID string       `json:"enrollment_id" validate:"required,uuid4"`
	Score        null.Float64 `json:"score" validate:"omitempty"`
	Grade        null.String  `json:"grade"`
	Remarks      null.String  `json:"remarks"`
}

func (nr *NewResult) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	if err := validate.Struct(nr); err != nil {
		return err
	}
	if nr.Score.Valid && (nr.Score.Float64 < 0 || nr.Score.Float64 > 100) {
		return core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score must be between 0 and 100"})
	}
	return svc.CheckResultUniqueness(ctx, nr.EnrollmentID)
}

type UpdateResult struct {
	Score   null.Float64 `json:"score"`
	Grade   null.String  `json:"grade"`
	Remarks null.String  `json:"remarks"`
}

func (ur *UpdateResult) Validate(orig Result) error {
	if ur.Score.Valid && (ur.Score.Float64 < 0 || ur.Score.Float64 > 100) {
		return core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score must be between 0 and 100"})
	}
	if !ur.Score.Valid {
		ur.Score = orig.Score
	}
	if !ur.Grade.Valid {
		ur.Grade = orig.Grade
	}
	if !ur.Remarks.Valid {
		ur.Remarks = orig.Remarks
	}
	return nil
}

// ---------------------------------------------------------------------------
// query filters

type DepartmentFilter struct {
	Search string `query:"search"`
}

func (f *DepartmentFilter) Clean() { f.Search = core.CleanString(f.Search) }

type InstructorFilter struct {
	Search       string `query:"search"`
	DepartmentID string `query:"department_id"`
}

func (f *InstructorFilter) Clean() { f.Search = core.CleanString(f.Search) }

type CourseFilter struct {
	Search       string `query:"search"`
	DepartmentID string `query:"department_id"`
	InstructorID string `query:"instructor_id"`
}

func (f *CourseFilter) Clean() { f.Search = core.CleanString(f.Search) }

type StudentFilter struct {
	Search         string `query:"search"`
	DepartmentID   string `query:"department_id"`
	EnrollmentYear int    `query:"enrollment_year"`
}

func (f *StudentFilter) Clean() { f.Search = core.CleanString(f.Search) }

type EnrollmentFilter struct {
	StudentID string `query:"student_id"`
	CourseID  string `query:"course_id"`
	Semester  string `query:"semester"`
}

type AttendanceFilter struct {
	EnrollmentID string    `query:"enrollment_id"`
	StudentID    string    `query:"student_id"`
	DateFrom     time.Time `query:"date_from"`
	DateTo       time.Time `query:"date_to"`
}

type ResultFilter struct {
	EnrollmentID string `query:"enrollment_id"`
	StudentID    string `query:"student_id"`
	Grade        string `query:"grade"`
}
