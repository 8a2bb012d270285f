// Package dummydb provides in-memory repositories used by tests and local
// prototyping. Data is kept in plain maps behind a single lock; cascading
// deletes mirror the foreign keys of the real database schema.
package dummydb

import (
	"sync"

	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[string]*user.User
	departments map[string]*school.Department
	instructors map[string]*school.Instructor
	courses     map[string]*school.Course
	students    map[string]*school.Student
	enrollments map[string]*school.Enrollment
	attendance  map[string]*school.Attendance
	results     map[string]*school.Result
}

func Open() (*DB, error) {
	return &DB{
		users:       make(map[string]*user.User),
		departments: make(map[string]*school.Department),
		instructors: make(map[string]*school.Instructor),
		courses:     make(map[string]*school.Course),
		students:    make(map[string]*school.Student),
		enrollments: make(map[string]*school.Enrollment),
		attendance:  make(map[string]*school.Attendance),
		results:     make(map[string]*school.Result),
	}, nil
}
