package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openmunicipal/civic-api/internal/models"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
)

type directoryRepository interface {
	ListStates(ctx context.Context) ([]models.State, error)
	ListMunicipalities(ctx context.Context, stateID string) ([]models.Municipality, error)
	ListDepartments(ctx context.Context, municipalityID string) ([]models.Department, error)
	MunicipalityExists(ctx context.Context, id string) (bool, error)
	DepartmentServesMunicipality(ctx context.Context, departmentID, municipalityID string) (bool, error)
}

type directoryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DirectoryService exposes the read-only geo/organizational hierarchy with a
// read-through cache. Directory rows change only at seed time, so TTL-based
// invalidation is sufficient.
type DirectoryService struct {
	repo     directoryRepository
	cache    directoryCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewDirectoryService creates an instance of DirectoryService.
func NewDirectoryService(repo directoryRepository, cache directoryCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

func (s *DirectoryService) recordCacheLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}

// ListStates returns all states.
func (s *DirectoryService) ListStates(ctx context.Context) ([]models.State, error) {
	const key = "directory:states"

	var cached []models.State
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordCacheLookup(true)
			return cached, nil
		}
		s.recordCacheLookup(false)
	}

	states, err := s.repo.ListStates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list states")
	}
	if states == nil {
		states = []models.State{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, states, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache states", zap.Error(err))
		}
	}

	return states, nil
}

// ListMunicipalities returns municipalities filtered by optional state id.
// An unknown state id yields an empty list.
func (s *DirectoryService) ListMunicipalities(ctx context.Context, stateID string) ([]models.Municipality, error) {
	key := fmt.Sprintf("directory:municipalities:%s", stateID)

	var cached []models.Municipality
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordCacheLookup(true)
			return cached, nil
		}
		s.recordCacheLookup(false)
	}

	municipalities, err := s.repo.ListMunicipalities(ctx, stateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list municipalities")
	}
	if municipalities == nil {
		municipalities = []models.Municipality{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, municipalities, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache municipalities", zap.Error(err))
		}
	}

	return municipalities, nil
}

// ListDepartments returns departments reachable from a municipality.
func (s *DirectoryService) ListDepartments(ctx context.Context, municipalityID string) ([]models.Department, error) {
	exists, err := s.repo.MunicipalityExists(ctx, municipalityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check municipality")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "municipality not found")
	}

	departments, err := s.repo.ListDepartments(ctx, municipalityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	if departments == nil {
		departments = []models.Department{}
	}
	return departments, nil
}
