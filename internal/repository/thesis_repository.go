package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/workflow"
)

const thesisColumns = `t.id, t.student_id, t.supervisor_id, t.title, t.type, t.field_of_study,
        t.specialization, t.abstract, t.outline, t.keywords, t.status, t.submission_date,
        t.defense_date, t.academic_year, t.supervisor_notes, t.approved_at, t.submitted_at,
        t.deleted_at, t.created_at, t.updated_at,
        s.name AS student_name, s.email AS student_email,
        v.name AS supervisor_name, v.email AS supervisor_email`

const thesisJoins = `FROM theses t
        JOIN users s ON s.id = t.student_id
        JOIN users v ON v.id = t.supervisor_id`

// ThesisRepository manages persistence for thesis records. Status updates go
// exclusively through ApplyTransition so the (status update, notification
// insert) pair commits as one unit.
type ThesisRepository struct {
	db *sqlx.DB
}

// NewThesisRepository constructs a ThesisRepository.
func NewThesisRepository(db *sqlx.DB) *ThesisRepository {
	return &ThesisRepository{db: db}
}

// List returns non-deleted theses matching the provided filters.
func (r *ThesisRepository) List(ctx context.Context, filter models.ThesisFilter) ([]models.ThesisDetail, int, error) {
	base := thesisJoins
	args := []interface{}{}
	conditions := []string{"t.deleted_at IS NULL"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("t.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SupervisorID != "" {
		conditions = append(conditions, fmt.Sprintf("t.supervisor_id = $%d", len(args)+1))
		args = append(args, filter.SupervisorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(t.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 15
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d", thesisColumns, base, size, offset)

	var theses []models.ThesisDetail
	if err := r.db.SelectContext(ctx, &theses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list theses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count theses: %w", err)
	}
	return theses, total, nil
}

// FindByID fetches a non-deleted thesis with participant names.
func (r *ThesisRepository) FindByID(ctx context.Context, id string) (*models.ThesisDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.id = $1 AND t.deleted_at IS NULL", thesisColumns, thesisJoins)
	var detail models.ThesisDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByIDIncludingDeleted fetches a thesis regardless of its soft-delete
// marker; used by the admin restore and force-delete paths.
func (r *ThesisRepository) FindByIDIncludingDeleted(ctx context.Context, id string) (*models.ThesisDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.id = $1", thesisColumns, thesisJoins)
	var detail models.ThesisDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new thesis record.
func (r *ThesisRepository) Create(ctx context.Context, thesis *models.Thesis) error {
	if thesis.ID == "" {
		thesis.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if thesis.CreatedAt.IsZero() {
		thesis.CreatedAt = now
	}
	thesis.UpdatedAt = now
	const query = `INSERT INTO theses (id, student_id, supervisor_id, title, type, field_of_study,
        specialization, abstract, outline, keywords, status, submission_date, defense_date,
        academic_year, supervisor_notes, approved_at, submitted_at, created_at, updated_at)
        VALUES (:id, :student_id, :supervisor_id, :title, :type, :field_of_study,
        :specialization, :abstract, :outline, :keywords, :status, :submission_date, :defense_date,
        :academic_year, :supervisor_notes, :approved_at, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, thesis); err != nil {
		return fmt.Errorf("create thesis: %w", err)
	}
	return nil
}

// Update modifies the student-editable content fields of a thesis. Status is
// deliberately absent from the column list.
func (r *ThesisRepository) Update(ctx context.Context, thesis *models.Thesis) error {
	thesis.UpdatedAt = time.Now().UTC()
	const query = `UPDATE theses SET title = :title, type = :type, supervisor_id = :supervisor_id,
        field_of_study = :field_of_study, specialization = :specialization, abstract = :abstract,
        outline = :outline, keywords = :keywords, academic_year = :academic_year,
        updated_at = :updated_at WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, thesis); err != nil {
		return fmt.Errorf("update thesis: %w", err)
	}
	return nil
}

// ApplyTransition persists a workflow transition and its notification in a
// single transaction. The thesis value must come from a workflow transition
// function; no other code path writes the status column.
func (r *ThesisRepository) ApplyTransition(ctx context.Context, thesis *models.Thesis, cmd workflow.Command) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	thesis.UpdatedAt = time.Now().UTC()
	const update = `UPDATE theses SET status = :status, supervisor_notes = :supervisor_notes,
        approved_at = :approved_at, submitted_at = :submitted_at, updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL`
	if _, err := tx.NamedExecContext(ctx, update, thesis); err != nil {
		return fmt.Errorf("apply transition: %w", err)
	}

	notification := &models.Notification{
		UserID:          cmd.RecipientID,
		Type:            cmd.Type,
		Title:           cmd.Title,
		Message:         cmd.Message,
		Icon:            cmd.Icon,
		Color:           cmd.Color,
		ActionURL:       cmd.ActionURL,
		RelatedThesisID: &cmd.ThesisID,
	}
	if err := insertNotification(ctx, tx, notification); err != nil {
		return fmt.Errorf("emit transition notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// SoftDelete marks a thesis logically deleted.
func (r *ThesisRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	const query = `UPDATE theses SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, now); err != nil {
		return fmt.Errorf("soft delete thesis: %w", err)
	}
	return nil
}

// Restore clears the soft-delete marker.
func (r *ThesisRepository) Restore(ctx context.Context, id string) error {
	const query = `UPDATE theses SET deleted_at = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("restore thesis: %w", err)
	}
	return nil
}

// ForceDelete removes the row permanently; documents and messages cascade.
func (r *ThesisRepository) ForceDelete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM theses WHERE id = $1", id); err != nil {
		return fmt.Errorf("force delete thesis: %w", err)
	}
	return nil
}

// StatusCounts aggregates non-deleted theses by status, optionally scoped to
// a student or supervisor.
func (r *ThesisRepository) StatusCounts(ctx context.Context, studentID, supervisorID string) (map[models.ThesisStatus]int, error) {
	args := []interface{}{}
	conditions := []string{"deleted_at IS NULL"}
	if studentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, studentID)
	}
	if supervisorID != "" {
		conditions = append(conditions, fmt.Sprintf("supervisor_id = $%d", len(args)+1))
		args = append(args, supervisorID)
	}

	query := fmt.Sprintf("SELECT status, COUNT(*) AS count FROM theses WHERE %s GROUP BY status", strings.Join(conditions, " AND "))
	rows := []struct {
		Status models.ThesisStatus `db:"status"`
		Count  int                 `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("thesis status counts: %w", err)
	}

	counts := make(map[models.ThesisStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// DistinctStudentCount returns how many distinct students a supervisor
// currently supervises.
func (r *ThesisRepository) DistinctStudentCount(ctx context.Context, supervisorID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT student_id) FROM theses WHERE supervisor_id = $1 AND deleted_at IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query, supervisorID); err != nil {
		return 0, fmt.Errorf("distinct student count: %w", err)
	}
	return total, nil
}

// CountCreatedSince returns how many theses were created after the cutoff.
func (r *ThesisRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM theses WHERE created_at >= $1 AND deleted_at IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query, since); err != nil {
		return 0, fmt.Errorf("count theses since: %w", err)
	}
	return total, nil
}
