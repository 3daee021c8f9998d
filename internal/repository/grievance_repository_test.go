package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmunicipal/civic-api/internal/models"
)

func grievanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "department_id", "municipality_id", "title", "description", "status", "created_at", "updated_at"})
}

func TestCreateGrievance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGrievanceRepository(db)

	mock.ExpectExec("INSERT INTO grievances").WillReturnResult(sqlmock.NewResult(1, 1))

	grievance := &models.Grievance{UserID: "c1", DepartmentID: "d1", MunicipalityID: "m1", Title: "Streetlight out", Description: "Dark corner on 5th", Status: models.StatusOpen}
	err := repo.Create(context.Background(), grievance)
	require.NoError(t, err)
	assert.NotEmpty(t, grievance.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGrievancesMunicipalityScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGrievanceRepository(db)

	now := time.Now()
	rows := grievanceRows().
		AddRow("g1", "c1", "d1", "m1", "Streetlight out", "desc", string(models.StatusOpen), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, department_id, municipality_id, title, description, status, created_at, updated_at FROM grievances WHERE 1=1 AND municipality_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("m1").
		WillReturnRows(rows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM grievances WHERE 1=1 AND municipality_id = $1")).
		WithArgs("m1").
		WillReturnRows(countRows)

	grievances, total, err := repo.List(context.Background(), models.GrievanceFilter{MunicipalityID: "m1"})
	require.NoError(t, err)
	assert.Len(t, grievances, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGrievancesAuthorScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGrievanceRepository(db)

	now := time.Now()
	rows := grievanceRows().
		AddRow("g2", "c2", "d1", "m2", "Potholes", "desc", string(models.StatusInProgress), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, department_id, municipality_id, title, description, status, created_at, updated_at FROM grievances WHERE 1=1 AND user_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("c2").
		WillReturnRows(rows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM grievances WHERE 1=1 AND user_id = $1")).
		WithArgs("c2").
		WillReturnRows(countRows)

	grievances, total, err := repo.List(context.Background(), models.GrievanceFilter{UserID: "c2"})
	require.NoError(t, err)
	assert.Len(t, grievances, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGrievanceRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE grievances SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("g1", models.StatusClosed, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "g1", models.StatusClosed, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingGrievance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGrievanceRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE grievances SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("missing", models.StatusClosed, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.StatusClosed, now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateResponse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGrievanceRepository(db)

	mock.ExpectExec("INSERT INTO grievance_responses").WillReturnResult(sqlmock.NewResult(1, 1))

	response := &models.GrievanceResponse{GrievanceID: "g1", UserID: "o1", Response: "Crew dispatched"}
	err := repo.CreateResponse(context.Background(), response)
	require.NoError(t, err)
	assert.NotEmpty(t, response.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
