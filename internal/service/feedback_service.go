package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openmunicipal/civic-api/internal/models"
	"github.com/openmunicipal/civic-api/internal/policy"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
)

type feedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	ListByUser(ctx context.Context, userID string) ([]models.Feedback, error)
}

// CreateFeedbackRequest is the client-supplied portion of a feedback
// submission. Municipality and department come from the URL path only.
type CreateFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// FeedbackService handles citizen feedback submissions.
type FeedbackService struct {
	repo      feedbackRepository
	directory directoryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService creates an instance of FeedbackService.
func NewFeedbackService(repo feedbackRepository, directory directoryRepository, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FeedbackService{repo: repo, directory: directory, validator: validate, logger: logger}
}

// Create validates and persists a feedback record. Authorization is decided
// before anything is written.
func (s *FeedbackService) Create(ctx context.Context, claims *models.JWTClaims, municipalityID, departmentID string, req CreateFeedbackRequest) (*models.Feedback, error) {
	if err := policy.Authorize(claims, policy.ActionCreateFeedback, nil); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	serves, err := s.directory.DepartmentServesMunicipality(ctx, departmentID, municipalityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if !serves {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department does not serve this municipality")
	}

	feedback := &models.Feedback{
		UserID:         claims.UserID,
		DepartmentID:   departmentID,
		MunicipalityID: municipalityID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	}

	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save feedback")
	}

	s.logger.Debug("feedback created",
		zap.String("user_id", claims.UserID),
		zap.String("municipality_id", municipalityID),
		zap.String("department_id", departmentID),
	)

	return feedback, nil
}

// ListOwn returns the caller's feedback history.
func (s *FeedbackService) ListOwn(ctx context.Context, claims *models.JWTClaims) ([]models.Feedback, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	items, err := s.repo.ListByUser(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	if items == nil {
		items = []models.Feedback{}
	}
	return items, nil
}
