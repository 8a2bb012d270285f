package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
)

const mirrorTimeout = 30 * time.Second

type schoolApi struct {
	svc      school.Service
	usrSvc   user.Service
	validate *validator.Validate
	gateway  *replica.Gateway // nil when no mirror is configured
	logger   core.Logger
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := schoolApi{
		svc:      deps.SchoolSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
		gateway:  deps.Gateway,
		logger:   deps.Logger,
	}

	for _, ep := range []struct {
		prefix   string
		query    echo.HandlerFunc
		create   echo.HandlerFunc
		retrieve echo.HandlerFunc
		update   echo.HandlerFunc
		destroy  echo.HandlerFunc
	}{
		{"/departments", api.queryDepartments, api.createDepartment, api.retrieveDepartment, api.updateDepartment, api.destroyDepartment},
		{"/instructors", api.queryInstructors, api.createInstructor, api.retrieveInstructor, api.updateInstructor, api.destroyInstructor},
		{"/courses", api.queryCourses, api.createCourse, api.retrieveCourse, api.updateCourse, api.destroyCourse},
		{"/students", api.queryStudents, api.createStudent, api.retrieveStudent, api.updateStudent, api.destroyStudent},
		{"/enrollments", api.queryEnrollments, api.createEnrollment, api.retrieveEnrollment, api.updateEnrollment, api.destroyEnrollment},
		{"/attendance", api.queryAttendance, api.createAttendance, api.retrieveAttendance, api.updateAttendance, api.destroyAttendance},
		{"/results", api.queryResults, api.createResult, api.retrieveResult, api.updateResult, api.destroyResult},
	} {
		eg := g.Group(ep.prefix, jwt)
		eg.GET("", ep.query)
		eg.POST("", ep.create, staffMiddleware())
		eg.GET("/:id", ep.retrieve)
		eg.PUT("/:id", ep.update, staffMiddleware())
		eg.DELETE("/:id", ep.destroy, adminMiddleware())
	}
}

// mirrorUpsert forwards a committed insert/update to the mirror database.
// Replication is best-effort: failures are logged, never surfaced to the
// caller. Creates are awaited; updates run in the background.
func (api *schoolApi) mirrorUpsert(op replica.Operation, table string, record interface{}) {
	if api.gateway == nil {
		return
	}
	row, err := recordToRow(record)
	if err != nil {
		api.logger.Warn("mirroring "+table+": encoding row", err)
		return
	}
	apply := func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if _, err := api.gateway.Apply(ctx, replica.ChangeRequest{Operation: op, Table: table, Row: row}); err != nil {
			api.logger.Warn("mirroring "+table+": applying change", err)
		}
	}
	if op == replica.OpCreate {
		apply()
		return
	}
	go apply()
}

// studentScope resolves the student record linked to the calling account.
// Staff (admins and teachers) get a nil scope and see everything; a student
// with no linked record gets an empty scope and sees nothing.
func (api *schoolApi) studentScope(ctx echo.Context) (*school.Student, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}
	if usr.IsAdmin() || usr.IsTeacher() {
		return nil, nil
	}
	std, err := api.svc.GetStudentByUserID(ctx.Request().Context(), usr.ID)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return &school.Student{}, nil
		}
		return nil, errors.Wrap(err, "finding student by user ID")
	}
	return &std, nil
}

// ownsEnrollment reports whether the scoped student owns the enrollment.
func (api *schoolApi) ownsEnrollment(ctx echo.Context, scope *school.Student, enrollmentID string) (bool, error) {
	if scope == nil {
		return true, nil
	}
	if scope.ID == "" || enrollmentID == "" {
		return false, nil
	}
	enr, err := api.svc.GetEnrollment(ctx.Request().Context(), enrollmentID)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "finding enrollment")
	}
	return enr.StudentID == scope.ID, nil
}

func (api *schoolApi) mirrorDelete(table string, ids ...string) {
	if api.gateway == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		for _, id := range ids {
			req := replica.ChangeRequest{Operation: replica.OpDelete, Table: table, RowID: id}
			if _, err := api.gateway.Apply(ctx, req); err != nil {
				api.logger.Warn("mirroring "+table+": applying delete", err)
			}
		}
	}()
}

func recordToRow(record interface{}) (replica.Row, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var row replica.Row
	if err = json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func trapNotFoundErr(err error, msg string) error {
	if errors.Cause(err) == school.ErrNotFound {
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}

// departments

func (api *schoolApi) queryDepartments(ctx echo.Context) error {
	filter := new(school.DepartmentFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Department{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	deps, err := api.svc.QueryDepartments(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	if deps == nil {
		deps = []school.Department{}
	}
	return ctx.JSON(http.StatusOK, deps)
}

func (api *schoolApi) createDepartment(ctx echo.Context) error {
	var data school.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	dep, err := api.svc.CreateDepartment(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	api.mirrorUpsert(replica.OpCreate, school.TableDepartment, dep)
	return ctx.JSON(http.StatusCreated, dep)
}

func (api *schoolApi) retrieveDepartment(ctx echo.Context) error {
	dep, err := api.svc.GetDepartment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding department")
	}
	return ctx.JSON(http.StatusOK, dep)
}

func (api *schoolApi) updateDepartment(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetDepartment(reqCtx, ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding department")
	}

	var data school.UpdateDepartment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDepartment")
	}
	if err = data.Validate(reqCtx, orig, api.validate, api.svc); err != nil {
		return err
	}

	dep, err := api.svc.UpdateDepartment(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating department")
	}
	api.mirrorUpsert(replica.OpUpdate, school.TableDepartment, dep)
	return ctx.JSON(http.StatusOK, dep)
}

func (api *schoolApi) destroyDepartment(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteDepartments(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting department")
	}
	api.mirrorDelete(school.TableDepartment, id)
	return ctx.NoContent(http.StatusNoContent)
}

// instructors

func (api *schoolApi) queryInstructors(ctx echo.Context) error {
	filter := new(school.InstructorFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Instructor{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	instructors, err := api.svc.QueryInstructors(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying instructors")
	}
	if instructors == nil {
		instructors = []school.Instructor{}
	}
	return ctx.JSON(http.StatusOK, instructors)
}

func (api *schoolApi) createInstructor(ctx echo.Context) error {
	var data school.NewInstructor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstructor")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	ins, err := api.svc.CreateInstructor(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating instructor")
	}
	api.mirrorUpsert(replica.OpCreate, school.TableInstructor, ins)
	return ctx.JSON(http.StatusCreated, ins)
}

func (api *schoolApi) retrieveInstructor(ctx echo.Context) error {
	ins, err := api.svc.GetInstructor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding instructor")
	}
	return ctx.JSON(http.StatusOK, ins)
}

func (api *schoolApi) updateInstructor(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetInstructor(reqCtx, ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding instructor")
	}

	var data school.UpdateInstructor
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInstructor")
	}
	if err = data.Validate(reqCtx, orig, api.validate, api.svc); err != nil {
		return err
	}

	ins, err := api.svc.UpdateInstructor(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating instructor")
	}
	api.mirrorUpsert(replica.OpUpdate, school.TableInstructor, ins)
	return ctx.JSON(http.StatusOK, ins)
}

func (api *schoolApi) destroyInstructor(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteInstructors(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting instructor")
	}
	api.mirrorDelete(school.TableInstructor, id)
	return ctx.NoContent(http.StatusNoContent)
}

// courses

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	filter := new(school.CourseFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Course{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []school.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *schoolApi) createCourse(ctx echo.Context) error {
	var data school.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	crs, err := api.svc.CreateCourse(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	api.mirrorUpsert(replica.OpCreate, school.TableCourse, crs)
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *schoolApi) retrieveCourse(ctx echo.Context) error {
	crs, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *schoolApi) updateCourse(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetCourse(reqCtx, ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding course")
	}

	var data school.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(reqCtx, orig, api.validate, api.svc); err != nil {
		return err
	}

	crs, err := api.svc.UpdateCourse(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	api.mirrorUpsert(replica.OpUpdate, school.TableCourse, crs)
	return ctx.JSON(http.StatusOK, crs)
}

func (api *schoolApi) destroyCourse(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteCourses(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	api.mirrorDelete(school.TableCourse, id)
	return ctx.NoContent(http.StatusNoContent)
}

// students

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if scope != nil {
		// students only see their own record
		if scope.ID == "" {
			return ctx.JSON(http.StatusOK, []school.Student{})
		}
		return ctx.JSON(http.StatusOK, []school.Student{*scope})
	}

	filter := new(school.StudentFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Student{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.CreateStudent(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	api.mirrorUpsert(replica.OpCreate, school.TableStudent, std)
	return ctx.JSON(http.StatusCreated, std)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if scope != nil && scope.ID != ctx.Param("id") {
		return errHttpNotFound
	}

	std, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) updateStudent(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetStudent(reqCtx, ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding student")
	}

	var data school.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(reqCtx, orig, api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.UpdateStudent(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	api.mirrorUpsert(replica.OpUpdate, school.TableStudent, std)
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) destroyStudent(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteStudents(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	api.mirrorDelete(school.TableStudent, id)
	return ctx.NoContent(http.StatusNoContent)
}

// enrollments

func (api *schoolApi) queryEnrollments(ctx echo.Context) error {
	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}

	filter := new(school.EnrollmentFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Enrollment{})
	}
	if scope != nil {
		if scope.ID == "" {
			return ctx.JSON(http.StatusOK, []school.Enrollment{})
		}
		filter.StudentID = scope.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	enrollments, err := api.svc.QueryEnrollments(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []school.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *schoolApi) createEnrollment(ctx echo.Context) error {
	var data school.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	enr, err := api.svc.CreateEnrollment(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	api.mirrorUpsert(replica.OpCreate, school.TableEnrollment, enr)
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *schoolApi) retrieveEnrollment(ctx echo.Context) error {
	enr, err := api.svc.GetEnrollment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding enrollment")
	}

	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if scope != nil && enr.StudentID != scope.ID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *schoolApi) updateEnrollment(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetEnrollment(reqCtx, ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding enrollment")
	}

	var data school.UpdateEnrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnrollment")
	}
	if err = data.Validate(reqCtx, orig, api.validate, api.svc); err != nil {
		return err
	}

	enr, err := api.svc.UpdateEnrollment(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	api.mirrorUpsert(replica.OpUpdate, school.TableEnrollment, enr)
	return ctx.JSON(http.StatusOK, enr)
}

func (api *schoolApi) destroyEnrollment(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteEnrollments(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	api.mirrorDelete(school.TableEnrollment, id)
	return ctx.NoContent(http.StatusNoContent)
}

// attendance

func (api *schoolApi) queryAttendance(ctx echo.Context) error {
	filter := new(school.AttendanceFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Attendance{})
	}

	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if scope != nil {
		if scope.ID == "" {
			return ctx.JSON(http.StatusOK, []school.Attendance{})
		}
		// an explicit enrollment filter must point at one of the
		// student's own enrollments
		if filter.EnrollmentID != "" {
			if ok, err := api.ownsEnrollment(ctx, scope, filter.EnrollmentID); err != nil {
				return err
			} else if !ok {
				return ctx.JSON(http.StatusOK, []school.Attendance{})
			}
		}
		filter.StudentID = scope.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.QueryAttendance(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []school.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *schoolApi) createAttendance(ctx echo.Context) error {
	var data school.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.CreateAttendance(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating attendance")
	}
	api.mirrorUpsert(replica.OpCreate, school.TableAttendance, att)
	return ctx.JSON(http.StatusCreated, att)
}

func (api *schoolApi) retrieveAttendance(ctx echo.Context) error {
	att, err := api.svc.GetAttendance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding attendance")
	}

	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if ok, err := api.ownsEnrollment(ctx, scope, att.EnrollmentID); err != nil {
		return err
	} else if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *schoolApi) updateAttendance(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetAttendance(reqCtx, ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding attendance")
	}

	var data school.UpdateAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}

	att, err := api.svc.UpdateAttendance(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	api.mirrorUpsert(replica.OpUpdate, school.TableAttendance, att)
	return ctx.JSON(http.StatusOK, att)
}

func (api *schoolApi) destroyAttendance(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteAttendance(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	api.mirrorDelete(school.TableAttendance, id)
	return ctx.NoContent(http.StatusNoContent)
}

// results

func (api *schoolApi) queryResults(ctx echo.Context) error {
	filter := new(school.ResultFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Result{})
	}

	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if scope != nil {
		if scope.ID == "" {
			return ctx.JSON(http.StatusOK, []school.Result{})
		}
		// an explicit enrollment filter must point at one of the
		// student's own enrollments
		if filter.EnrollmentID != "" {
			if ok, err := api.ownsEnrollment(ctx, scope, filter.EnrollmentID); err != nil {
				return err
			} else if !ok {
				return ctx.JSON(http.StatusOK, []school.Result{})
			}
		}
		filter.StudentID = scope.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	results, err := api.svc.QueryResults(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []school.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *schoolApi) createResult(ctx echo.Context) error {
	var data school.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	res, err := api.svc.CreateResult(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating result")
	}
	api.mirrorUpsert(replica.OpCreate, school.TableResult, res)
	return ctx.JSON(http.StatusCreated, res)
}

func (api *schoolApi) retrieveResult(ctx echo.Context) error {
	res, err := api.svc.GetResult(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding result")
	}

	scope, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if ok, err := api.ownsEnrollment(ctx, scope, res.EnrollmentID); err != nil {
		return err
	} else if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *schoolApi) updateResult(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orig, err := api.svc.GetResult(reqCtx, ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding result")
	}

	var data school.UpdateResult
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateResult")
	}
	if err = data.Validate(orig); err != nil {
		return err
	}

	res, err := api.svc.UpdateResult(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating result")
	}
	api.mirrorUpsert(replica.OpUpdate, school.TableResult, res)
	return ctx.JSON(http.StatusOK, res)
}

func (api *schoolApi) destroyResult(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteResults(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting result")
	}
	api.mirrorDelete(school.TableResult, id)
	return ctx.NoContent(http.StatusNoContent)
}
