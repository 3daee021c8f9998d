package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmunicipal/civic-api/internal/models"
)

func TestCreateFeedback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO feedback").WillReturnResult(sqlmock.NewResult(1, 1))

	feedback := &models.Feedback{UserID: "c1", DepartmentID: "d1", MunicipalityID: "m1", Rating: 4, Comment: "Quick pickup"}
	err := repo.Create(context.Background(), feedback)
	require.NoError(t, err)
	assert.NotEmpty(t, feedback.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFeedbackByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "department_id", "municipality_id", "rating", "comment", "created_at", "updated_at"}).
		AddRow("f1", "c1", "d1", "m1", 4, "Quick pickup", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, department_id, municipality_id, rating, comment, created_at, updated_at FROM feedback WHERE user_id = $1 ORDER BY created_at DESC")).
		WithArgs("c1").
		WillReturnRows(rows)

	items, err := repo.ListByUser(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
