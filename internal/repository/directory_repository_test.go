package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "created_at"}).
		AddRow("s1", "Maharashtra", now).
		AddRow("s2", "Kerala", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM states ORDER BY name ASC")).
		WillReturnRows(rows)

	states, err := repo.ListStates(context.Background())
	require.NoError(t, err)
	assert.Len(t, states, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMunicipalitiesByState(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "state_id", "created_at"}).
		AddRow("m1", "Pune", "s1", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, state_id, created_at FROM municipalities WHERE state_id = $1 ORDER BY name ASC")).
		WithArgs("s1").
		WillReturnRows(rows)

	municipalities, err := repo.ListMunicipalities(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, municipalities, 1)
	assert.Equal(t, "s1", municipalities[0].StateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMunicipalitiesUnknownStateEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "state_id", "created_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, state_id, created_at FROM municipalities WHERE state_id = $1 ORDER BY name ASC")).
		WithArgs("missing").
		WillReturnRows(rows)

	municipalities, err := repo.ListMunicipalities(context.Background(), "missing")
	require.NoError(t, err, "unknown state filter is an empty result, not an error")
	assert.Empty(t, municipalities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentServesMunicipality(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM department_municipalities WHERE department_id = $1 AND municipality_id = $2)")).
		WithArgs("d1", "m1").
		WillReturnRows(rows)

	ok, err := repo.DepartmentServesMunicipality(context.Background(), "d1", "m1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDepartments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "created_at"}).
		AddRow("d1", "Sanitation", now)
	mock.ExpectQuery("SELECT d.id, d.name, d.created_at FROM departments d JOIN department_municipalities dm").
		WithArgs("m1").
		WillReturnRows(rows)

	departments, err := repo.ListDepartments(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, departments, 1)
	assert.Equal(t, "Sanitation", departments[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
