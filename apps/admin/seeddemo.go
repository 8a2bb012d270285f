package main

import (
	"context"
	"fmt"

	"github.com/edlabs/academia/core/school"
)

func (cli *commandLine) seedDemo() error {
	report, err := school.NewSeeder(cli.schRepo, cli.usrRepo).Seed(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf(
		"seeded %d departments, %d instructors, %d courses, %d students (%d accounts), %d enrollments, %d attendance records, %d results\n",
		report.Departments, report.Instructors, report.Courses, report.Students, report.Accounts,
		report.Enrollments, report.Attendance, report.Results,
	)
	return nil
}
