package school

// Table names as they exist in both the primary and the replica database.
const (
	TableDepartment = "department"
	TableInstructor = "instructor"
	TableCourse     = "course"
	TableStudent    = "student"
	TableEnrollment = "enrollment"
	TableAttendance = "attendance"
	TableResult     = "result"
)

// ReplicaColumns is the allow-list of columns replicated per table. A full
// resync only reads these columns from the primary; anything else (internal
// bookkeeping, credentials) never leaves the primary.
var ReplicaColumns = map[string][]string{
	TableDepartment: {"id", "name", "code", "created_at", "updated_at"},
	TableInstructor: {"id", "name", "email", "phone", "department_id", "created_at", "updated_at"},
	TableCourse:     {"id", "name", "code", "credits", "department_id", "instructor_id", "created_at", "updated_at"},
	TableStudent:    {"id", "user_id", "reg_no", "name", "email", "date_of_birth", "department_id", "enrollment_year", "created_at", "updated_at"},
	TableEnrollment: {"id", "student_id", "course_id", "semester", "created_at", "updated_at"},
	TableAttendance: {"id", "enrollment_id", "date", "present", "created_at", "updated_at"},
	TableResult:     {"id", "enrollment_id", "score", "grade", "remarks", "created_at", "updated_at"},
}
