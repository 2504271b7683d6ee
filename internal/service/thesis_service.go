package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/policy"
	"github.com/thesisflow/thesisflow-api/internal/workflow"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type thesisRepository interface {
	List(ctx context.Context, filter models.ThesisFilter) ([]models.ThesisDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ThesisDetail, error)
	FindByIDIncludingDeleted(ctx context.Context, id string) (*models.ThesisDetail, error)
	Create(ctx context.Context, thesis *models.Thesis) error
	Update(ctx context.Context, thesis *models.Thesis) error
	ApplyTransition(ctx context.Context, thesis *models.Thesis, cmd workflow.Command) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	ForceDelete(ctx context.Context, id string) error
}

type supervisorLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateThesisRequest holds payload for creating theses.
type CreateThesisRequest struct {
	Title          string   `json:"title" validate:"required,max=255"`
	Type           string   `json:"type" validate:"required,oneof=bachelor master"`
	SupervisorID   string   `json:"supervisor_id" validate:"required"`
	FieldOfStudy   string   `json:"field_of_study" validate:"max=255"`
	Specialization string   `json:"specialization" validate:"max=255"`
	Abstract       string   `json:"abstract"`
	Outline        string   `json:"outline"`
	Keywords       []string `json:"keywords"`
	AcademicYear   string   `json:"academic_year" validate:"max=9"`
}

// UpdateThesisRequest holds payload for updating thesis content fields.
type UpdateThesisRequest struct {
	Title          string   `json:"title" validate:"required,max=255"`
	Type           string   `json:"type" validate:"required,oneof=bachelor master"`
	SupervisorID   string   `json:"supervisor_id" validate:"required"`
	FieldOfStudy   string   `json:"field_of_study" validate:"max=255"`
	Specialization string   `json:"specialization" validate:"max=255"`
	Abstract       string   `json:"abstract"`
	Outline        string   `json:"outline"`
	Keywords       []string `json:"keywords"`
	AcademicYear   string   `json:"academic_year" validate:"max=9"`
}

// TransitionNotesRequest carries supervisor notes for reject and
// return-for-corrections.
type TransitionNotesRequest struct {
	Notes string `json:"notes"`
}

// ThesisService handles thesis use-cases: CRUD plus the guarded workflow
// transitions. Every operation takes the acting user explicitly.
type ThesisService struct {
	repo      thesisRepository
	users     supervisorLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewThesisService constructs the thesis service.
func NewThesisService(repo thesisRepository, users supervisorLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ThesisService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThesisService{
		repo:      repo,
		users:     users,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns theses visible to the actor. Students see their own,
// supervisors the ones they supervise, admins everything.
func (s *ThesisService) List(ctx context.Context, actor models.Actor, filter models.ThesisFilter) ([]models.ThesisDetail, *models.Pagination, error) {
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.ID
		filter.SupervisorID = ""
	case models.RoleSupervisor:
		filter.SupervisorID = actor.ID
		filter.StudentID = ""
	case models.RoleAdmin:
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	theses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list theses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 15
	}
	return theses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a thesis the actor is allowed to view.
func (s *ThesisService) Get(ctx context.Context, actor models.Actor, id string) (*models.ThesisDetail, error) {
	detail, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(actor, detail.Thesis) {
		return nil, appErrors.ErrForbidden
	}
	return detail, nil
}

// Create registers a new thesis in draft for the acting student.
func (s *ThesisService) Create(ctx context.Context, actor models.Actor, req CreateThesisRequest) (*models.Thesis, error) {
	if !policy.CanCreate(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can create theses")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid thesis payload")
	}
	if err := s.requireSupervisor(ctx, req.SupervisorID); err != nil {
		return nil, err
	}

	thesis := &models.Thesis{
		StudentID:      actor.ID,
		SupervisorID:   req.SupervisorID,
		Title:          req.Title,
		Type:           models.ThesisType(req.Type),
		FieldOfStudy:   req.FieldOfStudy,
		Specialization: req.Specialization,
		Abstract:       req.Abstract,
		Outline:        req.Outline,
		Keywords:       models.Keywords(req.Keywords),
		Status:         models.StatusDraft,
		AcademicYear:   req.AcademicYear,
	}
	if err := s.repo.Create(ctx, thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create thesis")
	}
	s.invalidateDashboards(ctx)
	return thesis, nil
}

// Update modifies the content fields of a thesis the actor may edit.
func (s *ThesisService) Update(ctx context.Context, actor models.Actor, id string, req UpdateThesisRequest) (*models.Thesis, error) {
	detail, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdate(actor, detail.Thesis) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid thesis payload")
	}
	if err := s.requireSupervisor(ctx, req.SupervisorID); err != nil {
		return nil, err
	}

	thesis := detail.Thesis
	thesis.Title = req.Title
	thesis.Type = models.ThesisType(req.Type)
	thesis.SupervisorID = req.SupervisorID
	thesis.FieldOfStudy = req.FieldOfStudy
	thesis.Specialization = req.Specialization
	thesis.Abstract = req.Abstract
	thesis.Outline = req.Outline
	thesis.Keywords = models.Keywords(req.Keywords)
	thesis.AcademicYear = req.AcademicYear

	if err := s.repo.Update(ctx, &thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update thesis")
	}
	return &thesis, nil
}

// Delete soft-deletes a thesis the actor may delete.
func (s *ThesisService) Delete(ctx context.Context, actor models.Actor, id string) error {
	detail, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDelete(actor, detail.Thesis) {
		return appErrors.ErrForbidden
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete thesis")
	}
	s.invalidateDashboards(ctx)
	return nil
}

// Restore clears the soft-delete marker; admin only.
func (s *ThesisService) Restore(ctx context.Context, actor models.Actor, id string) (*models.ThesisDetail, error) {
	if !policy.CanRestore(actor) {
		return nil, appErrors.ErrForbidden
	}
	detail, err := s.repo.FindByIDIncludingDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore thesis")
	}
	detail.DeletedAt = nil
	s.invalidateDashboards(ctx)
	return detail, nil
}

// ForceDelete removes a thesis permanently; admin only.
func (s *ThesisService) ForceDelete(ctx context.Context, actor models.Actor, id string) error {
	if !policy.CanForceDelete(actor) {
		return appErrors.ErrForbidden
	}
	if _, err := s.repo.FindByIDIncludingDeleted(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	if err := s.repo.ForceDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to force delete thesis")
	}
	s.invalidateDashboards(ctx)
	return nil
}

// Submit moves a draft thesis to pending approval and notifies the
// supervisor.
func (s *ThesisService) Submit(ctx context.Context, actor models.Actor, id string) (*models.ThesisDetail, error) {
	return s.transition(ctx, "submit", id, func(t models.Thesis) (models.Thesis, workflow.Command, error) {
		return workflow.Submit(actor, t, s.now())
	})
}

// Approve moves a pending thesis to approved and notifies the student.
func (s *ThesisService) Approve(ctx context.Context, actor models.Actor, id string) (*models.ThesisDetail, error) {
	return s.transition(ctx, "approve", id, func(t models.Thesis) (models.Thesis, workflow.Command, error) {
		return workflow.Approve(actor, t, s.now())
	})
}

// Reject moves a thesis to rejected and notifies the student.
func (s *ThesisService) Reject(ctx context.Context, actor models.Actor, id string, notes string) (*models.ThesisDetail, error) {
	return s.transition(ctx, "reject", id, func(t models.Thesis) (models.Thesis, workflow.Command, error) {
		return workflow.Reject(actor, t, notes, s.now())
	})
}

// ReturnForCorrections sends a thesis back to the student with mandatory
// notes and notifies the student.
func (s *ThesisService) ReturnForCorrections(ctx context.Context, actor models.Actor, id string, notes string) (*models.ThesisDetail, error) {
	return s.transition(ctx, "return_for_corrections", id, func(t models.Thesis) (models.Thesis, workflow.Command, error) {
		return workflow.ReturnForCorrections(actor, t, notes, s.now())
	})
}

func (s *ThesisService) transition(ctx context.Context, operation, id string, apply func(models.Thesis) (models.Thesis, workflow.Command, error)) (*models.ThesisDetail, error) {
	detail, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, cmd, err := apply(detail.Thesis)
	if err != nil {
		s.metrics.RecordTransition(operation, false)
		return nil, err
	}

	if err := s.repo.ApplyTransition(ctx, &updated, cmd); err != nil {
		s.metrics.RecordTransition(operation, false)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	s.metrics.RecordTransition(operation, true)
	s.invalidateDashboards(ctx)
	detail.Thesis = updated
	return detail, nil
}

func (s *ThesisService) fetch(ctx context.Context, id string) (*models.ThesisDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	return detail, nil
}

func (s *ThesisService) requireSupervisor(ctx context.Context, supervisorID string) error {
	supervisor, err := s.users.FindByID(ctx, supervisorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation("invalid thesis payload", map[string]string{
				"supervisor_id": "selected supervisor does not exist",
			})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	if supervisor.Role != models.RoleSupervisor {
		return appErrors.Validation("invalid thesis payload", map[string]string{
			"supervisor_id": "selected user is not a supervisor",
		})
	}
	return nil
}

func (s *ThesisService) invalidateDashboards(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
