package database

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlabs/academia/core/replica"
)

func TestColumnUnion(t *testing.T) {
	rows := []replica.Row{
		{"id": "1", "name": "a"},
		{"id": "2", "email": "b@x"},
		{"credits": 3},
	}
	assert.Equal(t, []string{"id", "credits", "email", "name"}, columnUnion(rows))
}

func TestBuildUpsert(t *testing.T) {
	rows := []replica.Row{
		{"id": "1", "name": "Ada", "credits": 4},
		{"id": "2", "name": "Bob"}, // missing credits -> NULL
	}
	q, args := buildUpsert("course", []string{"id", "credits", "name"}, rows)

	assert.Equal(t,
		`INSERT INTO "course" ("id", "credits", "name") VALUES ($1, $2, $3), ($4, $5, $6)`+
			` ON CONFLICT ("id") DO UPDATE SET "credits" = EXCLUDED."credits", "name" = EXCLUDED."name"`,
		q)
	assert.Equal(t, []interface{}{"1", 4, "Ada", "2", nil, "Bob"}, args)
}

func TestBuildUpsert_idOnly(t *testing.T) {
	q, _ := buildUpsert("department", []string{"id"}, []replica.Row{{"id": "1"}})
	assert.Equal(t, `INSERT INTO "department" ("id") VALUES ($1) ON CONFLICT ("id") DO NOTHING`, q)
}

func TestMapColumnError(t *testing.T) {
	pqErr := &pq.Error{
		Code:    "42703",
		Message: `column "ghost_column" of relation "student" does not exist`,
	}

	err := mapColumnError("student", pqErr)
	mcErr, ok := err.(*replica.MissingColumnError)
	require.True(t, ok, "expected a missing-column error, got %v", err)
	assert.Equal(t, "student", mcErr.Table)
	assert.Equal(t, "ghost_column", mcErr.Column)

	// wrapped errors map too
	err = mapColumnError("student", errors.Wrap(pqErr, "upserting"))
	_, ok = err.(*replica.MissingColumnError)
	assert.True(t, ok)

	// other SQL states pass through untouched
	otherErr := &pq.Error{Code: "23505", Message: "duplicate key"}
	assert.Equal(t, otherErr, mapColumnError("student", otherErr))
}
