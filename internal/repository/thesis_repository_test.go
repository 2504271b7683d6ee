package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/workflow"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func thesisRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "student_id", "supervisor_id", "title", "type", "field_of_study",
		"specialization", "abstract", "outline", "keywords", "status", "submission_date",
		"defense_date", "academic_year", "supervisor_notes", "approved_at", "submitted_at",
		"deleted_at", "created_at", "updated_at",
		"student_name", "student_email", "supervisor_name", "supervisor_email",
	}).AddRow(
		"t1", "s1", "v1", "Graph Coloring", string(models.TypeMaster), "CS",
		"", "", "", `["graphs"]`, string(models.StatusDraft), nil,
		nil, "2025/2026", "", nil, nil,
		nil, now, now,
		"Ana Novak", "ana@example.com", "Prof. Horvat", "horvat@example.com",
	)
}

func TestThesisList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewThesisRepository(db)

	mock.ExpectQuery("SELECT t.id, t.student_id, .+ FROM theses t").
		WithArgs("s1").
		WillReturnRows(thesisRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM theses t")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	theses, total, err := repo.List(context.Background(), models.ThesisFilter{StudentID: "s1"})
	require.NoError(t, err)
	assert.Len(t, theses, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.Keywords{"graphs"}, theses[0].Keywords)
	assert.Equal(t, "Ana Novak", theses[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisFindByIDExcludesDeleted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewThesisRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM theses t\s+JOIN users s .+ WHERE t.id = \$1 AND t.deleted_at IS NULL`).
		WithArgs("t1").
		WillReturnRows(thesisRows())

	detail, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", detail.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewThesisRepository(db)

	mock.ExpectExec("INSERT INTO theses").WillReturnResult(sqlmock.NewResult(1, 1))

	thesis := &models.Thesis{
		StudentID:    "s1",
		SupervisorID: "v1",
		Title:        "Graph Coloring",
		Type:         models.TypeMaster,
		Status:       models.StatusDraft,
	}
	require.NoError(t, repo.Create(context.Background(), thesis))
	assert.NotEmpty(t, thesis.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The status update and the notification insert commit as one transaction.
func TestThesisApplyTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewThesisRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE theses SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	thesis := &models.Thesis{ID: "t1", Status: models.StatusPendingApproval}
	cmd := workflow.Command{
		RecipientID: "v1",
		Type:        models.NotificationThesisSubmitted,
		Title:       "New Thesis Submitted",
		Message:     "msg",
		Icon:        "📝",
		Color:       "yellow",
		ActionURL:   "/theses/t1",
		ThesisID:    "t1",
	}
	require.NoError(t, repo.ApplyTransition(context.Background(), thesis, cmd))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisApplyTransitionRollsBackOnNotificationFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewThesisRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE theses SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	thesis := &models.Thesis{ID: "t1", Status: models.StatusPendingApproval}
	err := repo.ApplyTransition(context.Background(), thesis, workflow.Command{RecipientID: "v1", ThesisID: "t1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisSoftDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewThesisRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE theses SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisStatusCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewThesisRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(string(models.StatusDraft), 2).
		AddRow(string(models.StatusApproved), 1)
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM theses WHERE deleted_at IS NULL AND student_id = \\$1").
		WithArgs("s1").
		WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StatusDraft])
	assert.Equal(t, 1, counts[models.StatusApproved])
	assert.NoError(t, mock.ExpectationsWereMet())
}
