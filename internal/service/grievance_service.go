package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openmunicipal/civic-api/internal/models"
	"github.com/openmunicipal/civic-api/internal/policy"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
)

type grievanceRepository interface {
	Create(ctx context.Context, grievance *models.Grievance) error
	FindByID(ctx context.Context, id string) (*models.Grievance, error)
	List(ctx context.Context, filter models.GrievanceFilter) ([]models.Grievance, int, error)
	UpdateStatus(ctx context.Context, id string, status models.GrievanceStatus, updatedAt time.Time) error
	CreateResponse(ctx context.Context, response *models.GrievanceResponse) error
	ListResponses(ctx context.Context, grievanceID string) ([]models.GrievanceResponse, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateGrievanceRequest is the client-supplied portion of a grievance.
// Status is ignored on input: a new grievance always starts OPEN.
type CreateGrievanceRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

// RespondRequest carries an official's response text.
type RespondRequest struct {
	Response string `json:"response" validate:"required"`
}

// UpdateStatusRequest carries the requested status value.
type UpdateStatusRequest struct {
	Status models.GrievanceStatus `json:"status" validate:"required"`
}

// GrievanceService implements the grievance case store behind the access
// policy: creation by citizens, scoped triage by officials.
type GrievanceService struct {
	repo      grievanceRepository
	directory directoryRepository
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGrievanceService creates an instance of GrievanceService.
func NewGrievanceService(repo grievanceRepository, directory directoryRepository, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GrievanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GrievanceService{repo: repo, directory: directory, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

func (s *GrievanceService) recordOperation(operation string) {
	if s.metrics != nil {
		s.metrics.RecordGrievanceOperation(operation)
	}
}

// Create validates and persists a grievance with refs taken from the path.
func (s *GrievanceService) Create(ctx context.Context, claims *models.JWTClaims, municipalityID, departmentID string, req CreateGrievanceRequest) (*models.Grievance, error) {
	if err := policy.Authorize(claims, policy.ActionCreateGrievance, nil); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grievance payload")
	}

	serves, err := s.directory.DepartmentServesMunicipality(ctx, departmentID, municipalityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if !serves {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department does not serve this municipality")
	}

	grievance := &models.Grievance{
		UserID:         claims.UserID,
		DepartmentID:   departmentID,
		MunicipalityID: municipalityID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         models.StatusOpen,
	}

	if err := s.repo.Create(ctx, grievance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grievance")
	}

	s.recordOperation("created")
	s.logger.Debug("grievance created",
		zap.String("user_id", claims.UserID),
		zap.String("municipality_id", municipalityID),
		zap.String("grievance_id", grievance.ID),
	)

	return grievance, nil
}

// List returns the grievances visible to the caller. The scope filter comes
// from the policy layer and is applied inside the query itself.
func (s *GrievanceService) List(ctx context.Context, claims *models.JWTClaims, status *models.GrievanceStatus, page, pageSize int) ([]models.Grievance, *models.Pagination, error) {
	filter, err := policy.GrievanceScope(claims)
	if err != nil {
		return nil, nil, err
	}

	if status != nil && !status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	filter.Status = status
	filter.Page = page
	filter.PageSize = pageSize

	grievances, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grievances")
	}
	if grievances == nil {
		grievances = []models.Grievance{}
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	return grievances, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a grievance with its response thread when the caller's scope
// covers it.
func (s *GrievanceService) Get(ctx context.Context, claims *models.JWTClaims, grievanceID string) (*models.GrievanceDetail, error) {
	grievance, err := s.findGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(claims, policy.ActionViewGrievance, &policy.Resource{
		MunicipalityID: grievance.MunicipalityID,
		OwnerID:        grievance.UserID,
	}); err != nil {
		return nil, err
	}

	responses, err := s.repo.ListResponses(ctx, grievanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	if responses == nil {
		responses = []models.GrievanceResponse{}
	}

	return &models.GrievanceDetail{Grievance: *grievance, Responses: responses}, nil
}

// Respond appends an official response to a grievance thread. The grievance
// status is left untouched.
func (s *GrievanceService) Respond(ctx context.Context, claims *models.JWTClaims, grievanceID string, req RespondRequest) (*models.GrievanceResponse, error) {
	grievance, err := s.findGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}

	// Scope is checked before the body so an out-of-scope caller always
	// gets FORBIDDEN, whatever the payload contains.
	if err := policy.Authorize(claims, policy.ActionRespondGrievance, &policy.Resource{
		MunicipalityID: grievance.MunicipalityID,
		OwnerID:        grievance.UserID,
	}); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "response text is required")
	}

	response := &models.GrievanceResponse{
		GrievanceID: grievance.ID,
		UserID:      claims.UserID,
		Response:    req.Response,
	}

	if err := s.repo.CreateResponse(ctx, response); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save response")
	}

	s.recordOperation("responded")
	s.recordAudit(ctx, claims, models.AuditActionRespond, grievance.ID, map[string]interface{}{"response_id": response.ID})

	return response, nil
}

// UpdateStatus transitions a grievance to the requested status. Any status
// may move to any other; only set membership is validated.
func (s *GrievanceService) UpdateStatus(ctx context.Context, claims *models.JWTClaims, grievanceID string, req UpdateStatusRequest) (*models.Grievance, error) {
	grievance, err := s.findGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}

	// Scope is checked before the body so an out-of-scope caller always
	// gets FORBIDDEN, whatever the payload contains.
	if err := policy.Authorize(claims, policy.ActionUpdateStatus, &policy.Resource{
		MunicipalityID: grievance.MunicipalityID,
		OwnerID:        grievance.UserID,
	}); err != nil {
		return nil, err
	}

	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status value")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, grievance.ID, req.Status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.recordOperation("status_changed")
	s.recordAudit(ctx, claims, models.AuditActionStatusChange, grievance.ID, map[string]interface{}{
		"from": grievance.Status,
		"to":   req.Status,
	})

	grievance.Status = req.Status
	grievance.UpdatedAt = now
	return grievance, nil
}

func (s *GrievanceService) findGrievance(ctx context.Context, id string) (*models.Grievance, error) {
	grievance, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grievance")
	}
	return grievance, nil
}

func (s *GrievanceService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID string, values map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(values)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "grievance",
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
